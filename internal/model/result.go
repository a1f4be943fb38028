package model

// Confidence labels a disambiguation decision or a cluster.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"

	// ConfidenceError marks a mention whose reasoning-service exchange
	// failed terminally (unparseable after retries, or transport error).
	ConfidenceError Confidence = "error"
)

// DisambiguationResult is the final output for one mention (or one
// cluster when multi-referent handling is requested). A nil
// SelectedCandidate with explanatory reasoning is the uniform way the
// engine says "I don't know" - deliberately indistinguishable in shape
// from a precision-first refusal.
type DisambiguationResult struct {
	Toponym              string          `json:"toponym"`
	SelectedCandidate    *Candidate      `json:"selected_candidate"`
	Confidence           Confidence      `json:"confidence"`
	Reasoning            string          `json:"reasoning"`
	ClustersDetected     int             `json:"clusters_detected"`
	HasMultipleReferents bool            `json:"has_multiple_referents"`
	AllCandidates        []Candidate     `json:"all_candidates"`
	ContextsUsed         []string        `json:"contexts_used"`
	NearbyNames          []string        `json:"nearby_names"`
	SourceLocation       *SourceLocation `json:"source_location,omitempty"`
}

// GeoparseResult is the complete per-document roll-up.
type GeoparseResult struct {
	DocumentID           string                 `json:"document_id"`
	TotalMentions        int                    `json:"total_mentions"`
	FilteredMentions     int                    `json:"filtered_mentions"`
	ProcessedMentions    int                    `json:"processed_mentions"`
	MultiReferentCount   int                    `json:"multi_referent_detected"`
	Results              []DisambiguationResult `json:"results"`
	FilterStatistics     map[string]FilterStat  `json:"filter_statistics,omitempty"`
	Cooccurrence         map[string][]string    `json:"cooccurrence,omitempty"`
}

// FilterStat records why toponyms were rejected before disambiguation.
type FilterStat struct {
	Count    int      `json:"count"`
	Examples []string `json:"examples"` // First few names, for review
}
