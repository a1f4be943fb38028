package model

// Occurrence is one physical appearance of a toponym in a document.
// It is produced by a parser.Source and never mutated afterwards.
type Occurrence struct {
	Text        string   `json:"text"`                  // Context window around the mention
	NearbyNames []string `json:"nearby_names"`          // Other place names near this occurrence, in document order
	Position    float64  `json:"position"`              // Normalized document position in [0,1]
	ParagraphID string   `json:"paragraph_id,omitempty"` // Source paragraph, when the format carries one
}

// NearbySet returns the occurrence's nearby names as a set.
func (o Occurrence) NearbySet() map[string]struct{} {
	set := make(map[string]struct{}, len(o.NearbyNames))
	for _, name := range o.NearbyNames {
		set[name] = struct{}{}
	}
	return set
}

// Mention aggregates every occurrence of one literal toponym string
// within one document. Read-only to the disambiguation engine.
type Mention struct {
	Name         string       `json:"name"`           // The literal toponym as it appears in text
	Count        int          `json:"mention_count"`  // Total occurrences in the document
	Occurrences  []Occurrence `json:"occurrences"`    // Ordered by document position
	DocumentID   string       `json:"document_id"`
	DocToponyms  []string     `json:"doc_toponyms"`   // Every distinct toponym name in the document
}

// SourceLocation is an optional geographic hint about where the source
// document was published (e.g., the newspaper's home city).
type SourceLocation struct {
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}
