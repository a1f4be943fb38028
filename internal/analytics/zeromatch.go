// Package analytics accumulates toponyms that the gazetteer could not
// match at all. The resulting report drives a human review pass:
// frequent zero-match names are either filtered as ungroundable,
// mapped as historical variants, or flagged for gazetteer additions.
package analytics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

const (
	maxSampleContexts = 3
	maxContextLength  = 200
)

// ReviewItem is one zero-match toponym in the review report.
type ReviewItem struct {
	Toponym   string   `json:"toponym"`
	Frequency int      `json:"frequency"`
	Contexts  []string `json:"contexts"`
}

type zeroMatch struct {
	count    int
	contexts []string
}

// ZeroMatchTracker accumulates zero-candidate toponyms across a run.
// Safe for concurrent use.
type ZeroMatchTracker struct {
	mu      sync.Mutex
	matches map[string]*zeroMatch
}

func NewZeroMatchTracker() *ZeroMatchTracker {
	return &ZeroMatchTracker{matches: make(map[string]*zeroMatch)}
}

// RecordZeroMatch notes a toponym with no gazetteer candidates. Up to
// three sample contexts are kept, truncated to 200 characters.
func (t *ZeroMatchTracker) RecordZeroMatch(toponym, context string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.matches[toponym]
	if !ok {
		m = &zeroMatch{}
		t.matches[toponym] = m
	}
	m.count++

	if context != "" && len(m.contexts) < maxSampleContexts {
		if len(context) > maxContextLength {
			context = context[:maxContextLength] + "..."
		}
		m.contexts = append(m.contexts, context)
	}
}

// UniqueCount returns how many distinct toponyms have been recorded.
func (t *ZeroMatchTracker) UniqueCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.matches)
}

// TotalOccurrences returns the sum of all recorded counts.
func (t *ZeroMatchTracker) TotalOccurrences() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, m := range t.matches {
		total += m.count
	}
	return total
}

// ReviewReport returns items at or above minFrequency, most frequent
// first.
func (t *ZeroMatchTracker) ReviewReport(minFrequency int) []ReviewItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	var items []ReviewItem
	for name, m := range t.matches {
		if m.count < minFrequency {
			continue
		}
		items = append(items, ReviewItem{
			Toponym:   name,
			Frequency: m.count,
			Contexts:  append([]string(nil), m.contexts...),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Frequency != items[j].Frequency {
			return items[i].Frequency > items[j].Frequency
		}
		return items[i].Toponym < items[j].Toponym
	})
	return items
}

// TopN returns the n most frequent zero-match toponyms.
func (t *ZeroMatchTracker) TopN(n int) []ReviewItem {
	items := t.ReviewReport(1)
	if len(items) > n {
		items = items[:n]
	}
	return items
}

type reviewExport struct {
	Metadata     reviewMetadata `json:"metadata"`
	Instructions reviewGuide    `json:"instructions"`
	ReviewItems  []ReviewItem   `json:"review_items"`
}

type reviewMetadata struct {
	Description      string `json:"description"`
	TotalUnique      int    `json:"total_unique"`
	TotalOccurrences int    `json:"total_occurrences"`
	MinFrequency     int    `json:"min_frequency"`
	ItemsInReport    int    `json:"items_in_report"`
}

type reviewGuide struct {
	Workflow []string `json:"workflow"`
	Priority string   `json:"priority"`
}

// ExportForReview writes the review report as indented JSON.
func (t *ZeroMatchTracker) ExportForReview(path string, minFrequency int) error {
	report := t.ReviewReport(minFrequency)
	out := reviewExport{
		Metadata: reviewMetadata{
			Description:      "Zero-match toponyms for human review",
			TotalUnique:      t.UniqueCount(),
			TotalOccurrences: t.TotalOccurrences(),
			MinFrequency:     minFrequency,
			ItemsInReport:    len(report),
		},
		Instructions: reviewGuide{
			Workflow: []string{
				"1. Review each toponym starting from highest frequency",
				"2. Check sample contexts to understand usage",
				"3. Decide action:",
				"   a) FILTER: add to the ambiguous terms file (ungroundable)",
				"   b) MAP: add a historical alias (variant name)",
				"   c) CREATE: flag for gazetteer addition (missing entity)",
				"4. Document decision in the action field",
			},
			Priority: "High-frequency items have the biggest impact on coverage",
		},
		ReviewItems: report,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal review report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write review report: %w", err)
	}
	return nil
}

// WriteSummary prints a short run summary with the top zero-match
// names.
func (t *ZeroMatchTracker) WriteSummary(w io.Writer, topN int) {
	items := t.TopN(topN)
	fmt.Fprintf(w, "Zero-match toponyms: %d unique, %d occurrences\n",
		t.UniqueCount(), t.TotalOccurrences())
	for i, item := range items {
		fmt.Fprintf(w, "%2d. %q  %d occurrences\n", i+1, item.Toponym, item.Frequency)
		if len(item.Contexts) > 0 {
			fmt.Fprintf(w, "    sample: %s\n", item.Contexts[0])
		}
	}
}
