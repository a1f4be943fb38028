package gazetteer

import (
	"context"
	"strings"

	"github.com/ossgeo/geoparse/internal/model"
)

// Retriever returns ranked candidate places for a literal toponym. The
// disambiguation engine treats the returned list as opaque: ordering is
// a display hint, never a correctness signal.
type Retriever interface {
	Candidates(ctx context.Context, toponym string, limit int) ([]model.Candidate, error)
}

// Query narrows a candidate lookup. The zero value matches everything.
type Query struct {
	Country      string // Optional ISO country code, e.g. "CA"
	FeatureClass string // Optional GeoNames feature class, e.g. "P"
}

// NormalizeToponym prepares a toponym for gazetteer matching: strips
// possessive 's, trailing punctuation, and surrounding whitespace.
func NormalizeToponym(toponym string) string {
	toponym = strings.TrimSpace(toponym)
	toponym = strings.TrimSuffix(toponym, "'s")
	toponym = strings.Trim(toponym, ".,;:")
	return strings.TrimSpace(toponym)
}

// caseVariants returns the title, upper, and lower forms of a name.
// Historical gazetteers are inconsistent in casing; the Cypher match
// checks all three.
func caseVariants(name string) (title, upper, lower string) {
	lower = strings.ToLower(name)
	upper = strings.ToUpper(name)

	words := strings.Fields(lower)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	title = strings.Join(words, " ")

	return title, upper, lower
}
