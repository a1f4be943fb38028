package disambig

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ossgeo/geoparse/internal/model"
)

// Decision is the structured record the reasoning service must return.
type Decision struct {
	SelectedID string           // Empty when the service declined to choose
	Confidence model.Confidence
	Reasoning  string
}

// rawDecision tolerates the shapes models actually produce: selected_id
// arrives as a string, a bare number, or null.
type rawDecision struct {
	SelectedID any    `json:"selected_id"`
	Confidence string `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// ParseDecision extracts the structured decision from raw completion
// text, tolerating surrounding prose and markdown code fences.
func ParseDecision(text string) (*Decision, error) {
	payload := stripCodeFences(text)

	var raw rawDecision
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("decode decision: %w", err)
	}

	decision := &Decision{
		Reasoning: raw.Reasoning,
	}
	if decision.Reasoning == "" {
		decision.Reasoning = "No reasoning provided"
	}

	switch id := raw.SelectedID.(type) {
	case nil:
		decision.SelectedID = ""
	case string:
		decision.SelectedID = strings.TrimSpace(id)
		if strings.EqualFold(decision.SelectedID, "null") {
			decision.SelectedID = ""
		}
	case float64:
		// Some models echo the numeric index instead of the handle.
		decision.SelectedID = fmt.Sprintf("c%d", int(id))
	default:
		return nil, fmt.Errorf("decode decision: selected_id has unexpected type %T", raw.SelectedID)
	}

	switch strings.ToLower(strings.TrimSpace(raw.Confidence)) {
	case "high":
		decision.Confidence = model.ConfidenceHigh
	case "low":
		decision.Confidence = model.ConfidenceLow
	default:
		// Missing or unrecognized labels read as medium, the original
		// deployment's fallback.
		decision.Confidence = model.ConfidenceMedium
	}

	return decision, nil
}

// stripCodeFences removes markdown fences around a JSON payload and
// discards prose outside them. Without fences the text is returned
// trimmed as-is.
func stripCodeFences(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}

// retryMaxAttempts bounds reasoning-service exchanges per mention: one
// initial attempt plus one retry with a stricter format instruction.
const retryMaxAttempts = 2

// Termination reasons for a decision exchange, recorded for audit.
const (
	terminationParsed    = "parsed"
	terminationParseFail = "parse_failed"
	terminationTransport = "transport_failed"
)

// exchangeOutcome records how a bounded decision exchange ended.
type exchangeOutcome struct {
	decision    *Decision
	attempts    int
	termination string
	err         error // Last parse or transport error when not parsed
}
