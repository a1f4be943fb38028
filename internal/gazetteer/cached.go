package gazetteer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ossgeo/geoparse/internal/cache"
	"github.com/ossgeo/geoparse/internal/model"
)

// CachedRetriever wraps a Retriever with a cache layer. Candidate
// caching lives here, outside the disambiguation engine: the engine
// itself never holds candidates beyond one call.
type CachedRetriever struct {
	inner Retriever
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedRetriever creates a caching wrapper around inner.
func NewCachedRetriever(inner Retriever, c cache.Cache, ttl time.Duration) *CachedRetriever {
	return &CachedRetriever{
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

// Candidates serves from cache when possible, falling back to the
// wrapped retriever. Empty results are cached too: repeated zero-match
// names are common in historical corpora and the misses are the
// expensive part.
func (r *CachedRetriever) Candidates(ctx context.Context, toponym string, limit int) ([]model.Candidate, error) {
	key := cache.CandidateKey(NormalizeToponym(toponym), limit)

	if data, found := r.cache.Get(key); found {
		var candidates []model.Candidate
		if err := json.Unmarshal(data, &candidates); err == nil {
			return candidates, nil
		}
		// Corrupt entry - drop it and refetch.
		_ = r.cache.Delete(key)
	}

	candidates, err := r.inner.Candidates(ctx, toponym, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(candidates); err == nil {
		_ = r.cache.Set(key, data, r.ttl)
	}

	return candidates, nil
}
