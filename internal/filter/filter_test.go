package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ossgeo/geoparse/internal/model"
)

func TestIsGroundable_Accepted(t *testing.T) {
	f := New(false)
	for _, name := range []string{
		"Saskatoon", "Prince Albert", "Fort Garry", "Moose Jaw", "Batoche",
	} {
		ok, reason := f.IsGroundable(name, "")
		if !ok {
			t.Errorf("%q should be groundable, rejected as %s", name, reason)
		}
	}
}

func TestIsGroundable_Rejections(t *testing.T) {
	f := New(false)

	tests := []struct {
		toponym string
		context string
		reason  Reason
	}{
		{"the river", "", ReasonGenericDescriptor},
		{"The Lake", "", ReasonGenericDescriptor},
		{"the portage", "", ReasonGenericDescriptor},
		{"north", "", ReasonRelativeReference},
		{"Upstream", "", ReasonRelativeReference},
		{"the place", "", ReasonNonSpecific},
		{"the vicinity", "", ReasonNonSpecific},
		{"the", "", ReasonBlacklisted},
		{"at", "", ReasonBlacklisted},
		{"X", "", ReasonTooShort},
		{"1885", "", ReasonNumericOnly},
		{"1,200", "", ReasonNumericOnly},
		{"fort", "", ReasonAmbiguousTerm},
		{"Junction", "", ReasonAmbiguousTerm},
	}

	for _, tt := range tests {
		ok, reason := f.IsGroundable(tt.toponym, tt.context)
		if ok {
			t.Errorf("%q should be rejected", tt.toponym)
			continue
		}
		if reason != tt.reason {
			t.Errorf("%q rejected as %s, want %s", tt.toponym, reason, tt.reason)
		}
	}
}

func TestIsGroundable_TheGenericSuffix(t *testing.T) {
	f := New(false)

	if ok, reason := f.IsGroundable("the settlement", ""); ok || reason != ReasonGenericDescriptor {
		t.Errorf("'the settlement' = %v, %s", ok, reason)
	}
	// "the Saskatchewan" is not a generic suffix; it survives this rule.
	if ok, _ := f.IsGroundable("the Saskatchewan", ""); !ok {
		t.Error("'the Saskatchewan' should survive the generic-suffix rule")
	}
}

func TestIsGroundable_Abbreviations(t *testing.T) {
	f := New(false)

	// Without context the abbreviation is rejected.
	if ok, reason := f.IsGroundable("N.Y.", ""); ok || reason != ReasonAmbiguousAbbreviation {
		t.Errorf("bare N.Y. = %v, %s", ok, reason)
	}

	// With any context, non-strict mode lets abbreviations through.
	if ok, _ := f.IsGroundable("N.Y.", "the crowded streets"); !ok {
		t.Error("non-strict mode with context should accept N.Y.")
	}

	// Strict mode demands the expansion in context.
	strict := New(true)
	if ok, reason := strict.IsGroundable("N.Y.", "the crowded streets"); ok || reason != ReasonAmbiguousAbbreviation {
		t.Errorf("strict N.Y. without expansion = %v, %s", ok, reason)
	}
	if ok, _ := strict.IsGroundable("N.Y.", "he moved to New York in 1885"); !ok {
		t.Error("strict N.Y. with 'New York' in context should be rescued")
	}
}

func TestIsGroundable_PersonNames(t *testing.T) {
	f := New(false)

	tests := []struct {
		name     string
		toponym  string
		context  string
		isPerson bool
	}{
		{"title prefix", "Macdonald", "He spoke with Mr. Macdonald yesterday", true},
		{"captain prefix", "Albert", "under Capt. Albert the column advanced", true},
		{"speech verb", "Riel", "Riel said the settlement would resist", true},
		{"plain place", "Winnipeg", "the railway reached Winnipeg in 1885", false},
		{"place possessive", "Canada", "Canada's western territories", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := f.IsGroundable(tt.toponym, tt.context)
			if tt.isPerson {
				if ok || reason != ReasonLikelyPersonName {
					t.Errorf("%q should read as a person name, got %v, %s", tt.toponym, ok, reason)
				}
			} else if !ok {
				t.Errorf("%q should be groundable, rejected as %s", tt.toponym, reason)
			}
		})
	}
}

func TestLoadAmbiguousTerms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.txt")
	content := "# comment line\nqu'appelle\n\nTOUCHWOOD\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	f := New(false)
	if err := f.LoadAmbiguousTerms(path); err != nil {
		t.Fatalf("LoadAmbiguousTerms failed: %v", err)
	}

	if ok, reason := f.IsGroundable("Qu'Appelle", ""); ok || reason != ReasonAmbiguousTerm {
		t.Errorf("loaded term should reject, got %v, %s", ok, reason)
	}
	if ok, reason := f.IsGroundable("Touchwood", ""); ok || reason != ReasonAmbiguousTerm {
		t.Errorf("loaded terms are lowercased, got %v, %s", ok, reason)
	}
}

func TestLoadAmbiguousTerms_MissingFile(t *testing.T) {
	f := New(false)
	if err := f.LoadAmbiguousTerms("/no/such/file.txt"); err != nil {
		t.Errorf("missing terms file is not an error, got %v", err)
	}
}

func TestFilterMentions(t *testing.T) {
	f := New(false)

	mentions := []model.Mention{
		{Name: "Saskatoon", Occurrences: []model.Occurrence{{Text: "near Saskatoon"}}},
		{Name: "the river", Occurrences: []model.Occurrence{{Text: "down the river"}}},
		{Name: "north"},
	}

	groundable, rejected := f.FilterMentions(mentions)
	if len(groundable) != 1 || groundable[0].Name != "Saskatoon" {
		t.Errorf("groundable = %v", groundable)
	}
	if len(rejected) != 2 {
		t.Fatalf("expected 2 rejections, got %d", len(rejected))
	}
	if rejected[0].Reason != ReasonGenericDescriptor || rejected[1].Reason != ReasonRelativeReference {
		t.Errorf("rejection reasons = %s, %s", rejected[0].Reason, rejected[1].Reason)
	}
}

func TestStatistics(t *testing.T) {
	rejected := []Filtered{
		{Name: "the river", Reason: ReasonGenericDescriptor},
		{Name: "the lake", Reason: ReasonGenericDescriptor},
		{Name: "north", Reason: ReasonRelativeReference},
	}

	stats := Statistics(rejected)
	if stats[ReasonGenericDescriptor].Count != 2 {
		t.Errorf("generic count = %d, want 2", stats[ReasonGenericDescriptor].Count)
	}
	if len(stats[ReasonGenericDescriptor].Examples) != 2 {
		t.Errorf("examples = %v", stats[ReasonGenericDescriptor].Examples)
	}
	if stats[ReasonRelativeReference].Count != 1 {
		t.Errorf("relative count = %d, want 1", stats[ReasonRelativeReference].Count)
	}
}
