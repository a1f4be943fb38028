package gazetteer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ossgeo/geoparse/internal/cache"
	"github.com/ossgeo/geoparse/internal/model"
)

func TestNormalizeToponym(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"London", "London"},
		{"London's", "London"},
		{"  Saskatoon  ", "Saskatoon"},
		{"Winnipeg.", "Winnipeg"},
		{"Regina,", "Regina"},
		{"Moose Jaw;", "Moose Jaw"},
		{"  Batoche's ", "Batoche"},
	}

	for _, tt := range tests {
		if got := NormalizeToponym(tt.in); got != tt.want {
			t.Errorf("NormalizeToponym(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCaseVariants(t *testing.T) {
	title, upper, lower := caseVariants("prince ALBERT")
	if title != "Prince Albert" {
		t.Errorf("title = %q, want %q", title, "Prince Albert")
	}
	if upper != "PRINCE ALBERT" {
		t.Errorf("upper = %q", upper)
	}
	if lower != "prince albert" {
		t.Errorf("lower = %q", lower)
	}
}

// countingRetriever implements Retriever
type countingRetriever struct {
	candidates []model.Candidate
	err        error
	calls      int
}

func (r *countingRetriever) Candidates(ctx context.Context, toponym string, limit int) ([]model.Candidate, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.candidates, nil
}

func TestCachedRetriever_Hit(t *testing.T) {
	inner := &countingRetriever{candidates: []model.Candidate{{ID: "c0", Title: "London"}}}
	cached := NewCachedRetriever(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	first, err := cached.Candidates(ctx, "London", 10)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := cached.Candidates(ctx, "London", 10)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", inner.calls)
	}
	if len(first) != 1 || len(second) != 1 || second[0].ID != "c0" {
		t.Error("cached result does not match original")
	}
}

func TestCachedRetriever_NormalizedKey(t *testing.T) {
	inner := &countingRetriever{candidates: []model.Candidate{{ID: "c0"}}}
	cached := NewCachedRetriever(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	if _, err := cached.Candidates(ctx, "London", 10); err != nil {
		t.Fatal(err)
	}
	// Possessive form normalizes to the same key.
	if _, err := cached.Candidates(ctx, "London's", 10); err != nil {
		t.Fatal(err)
	}

	if inner.calls != 1 {
		t.Errorf("normalized variants should share a cache entry, got %d backend calls", inner.calls)
	}
}

func TestCachedRetriever_LimitInKey(t *testing.T) {
	inner := &countingRetriever{candidates: []model.Candidate{{ID: "c0"}}}
	cached := NewCachedRetriever(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	if _, err := cached.Candidates(ctx, "London", 5); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.Candidates(ctx, "London", 10); err != nil {
		t.Fatal(err)
	}

	if inner.calls != 2 {
		t.Errorf("different limits must not share entries, got %d backend calls", inner.calls)
	}
}

func TestCachedRetriever_EmptyResultCached(t *testing.T) {
	inner := &countingRetriever{candidates: []model.Candidate{}}
	cached := NewCachedRetriever(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	if _, err := cached.Candidates(ctx, "Xanadu", 10); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.Candidates(ctx, "Xanadu", 10); err != nil {
		t.Fatal(err)
	}

	if inner.calls != 1 {
		t.Errorf("zero-match results should be cached, got %d backend calls", inner.calls)
	}
}

func TestCachedRetriever_ErrorNotCached(t *testing.T) {
	inner := &countingRetriever{err: errors.New("graph down")}
	cached := NewCachedRetriever(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	if _, err := cached.Candidates(ctx, "London", 10); err == nil {
		t.Fatal("expected error")
	}

	inner.err = nil
	inner.candidates = []model.Candidate{{ID: "c0"}}
	got, err := cached.Candidates(ctx, "London", 10)
	if err != nil {
		t.Fatalf("retry after error failed: %v", err)
	}
	if len(got) != 1 {
		t.Error("error must not poison the cache")
	}
}

func TestCachedRetriever_CorruptEntry(t *testing.T) {
	inner := &countingRetriever{candidates: []model.Candidate{{ID: "c0"}}}
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	cached := NewCachedRetriever(inner, mem, time.Minute)
	ctx := context.Background()

	key := cache.CandidateKey("London", 10)
	if err := mem.Set(key, []byte("{corrupt"), time.Minute); err != nil {
		t.Fatal(err)
	}

	got, err := cached.Candidates(ctx, "London", 10)
	if err != nil {
		t.Fatalf("corrupt entry should fall through to backend: %v", err)
	}
	if len(got) != 1 || inner.calls != 1 {
		t.Error("expected refetch past the corrupt entry")
	}
}
