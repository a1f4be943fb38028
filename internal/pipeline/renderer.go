package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ossgeo/geoparse/internal/model"
)

// Renderer writes geoparse results as JSON or Markdown and prints the
// run summary.
type Renderer struct {
	verbose bool
}

func NewRenderer(verbose bool) *Renderer {
	return &Renderer{verbose: verbose}
}

// RenderJSON writes one document result as indented JSON.
func (r *Renderer) RenderJSON(result *model.GeoparseResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	if r.verbose {
		fmt.Printf("✓ Wrote JSON: %s\n", path)
	}
	return nil
}

// RenderBatchJSON writes combined batch results as indented JSON.
func (r *Renderer) RenderBatchJSON(results []*model.GeoparseResult, path string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write batch JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report for one document.
func (r *Renderer) RenderMarkdown(result *model.GeoparseResult, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Geoparse Report: %s\n\n", result.DocumentID)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total mentions | %d |\n", result.TotalMentions)
	fmt.Fprintf(&b, "| Filtered | %d |\n", result.FilteredMentions)
	fmt.Fprintf(&b, "| Processed | %d |\n", result.ProcessedMentions)
	fmt.Fprintf(&b, "| Multi-referent | %d |\n\n", result.MultiReferentCount)

	if len(result.FilterStatistics) > 0 {
		b.WriteString("## Filtered Toponyms\n\n")
		for reason, stat := range result.FilterStatistics {
			fmt.Fprintf(&b, "- **%s** (%d): %s\n", reason, stat.Count, strings.Join(stat.Examples, ", "))
		}
		b.WriteString("\n")
	}

	if len(result.Cooccurrence) > 0 {
		b.WriteString("## Co-occurring Names\n\n")
		names := make([]string, 0, len(result.Cooccurrence))
		for name := range result.Cooccurrence {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- **%s**: %s\n", name, strings.Join(result.Cooccurrence[name], ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Disambiguation Results\n\n")
	for _, res := range result.Results {
		fmt.Fprintf(&b, "### %s\n\n", res.Toponym)
		if res.SelectedCandidate != nil {
			c := res.SelectedCandidate
			fmt.Fprintf(&b, "**Selected:** %s", c.Title)
			if c.Country != "" {
				fmt.Fprintf(&b, ", %s", c.Country)
			}
			fmt.Fprintf(&b, " (%.4f, %.4f)\n\n", c.Lat, c.Lon)
		} else {
			b.WriteString("**Selected:** none\n\n")
		}
		fmt.Fprintf(&b, "- Confidence: %s\n", res.Confidence)
		fmt.Fprintf(&b, "- Clusters detected: %d\n", res.ClustersDetected)
		if res.HasMultipleReferents {
			b.WriteString("- Multiple referents detected\n")
		}
		if res.Reasoning != "" {
			fmt.Fprintf(&b, "- Reasoning: %s\n", res.Reasoning)
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	if r.verbose {
		fmt.Printf("✓ Wrote Markdown: %s\n", path)
	}
	return nil
}

// RenderSummary prints a short result table to stdout.
func (r *Renderer) RenderSummary(result *model.GeoparseResult) {
	fmt.Printf("\nDocument: %s\n", result.DocumentID)
	fmt.Printf("Mentions: %d total, %d filtered, %d processed, %d multi-referent\n",
		result.TotalMentions, result.FilteredMentions,
		result.ProcessedMentions, result.MultiReferentCount)

	counts := make(map[model.Confidence]int)
	resolved := 0
	for _, res := range result.Results {
		counts[res.Confidence]++
		if res.SelectedCandidate != nil {
			resolved++
		}
	}
	fmt.Printf("Resolved: %d/%d (high: %d, medium: %d, low: %d, error: %d)\n",
		resolved, len(result.Results),
		counts[model.ConfidenceHigh], counts[model.ConfidenceMedium],
		counts[model.ConfidenceLow], counts[model.ConfidenceError])

	for _, res := range result.Results {
		mark := "✗"
		place := "unresolved"
		if res.SelectedCandidate != nil {
			mark = "✓"
			place = res.SelectedCandidate.Title
			if res.SelectedCandidate.Country != "" {
				place += ", " + res.SelectedCandidate.Country
			}
		}
		fmt.Printf("  %s %-25s %-8s %s\n", mark, res.Toponym, res.Confidence, place)
	}
}
