package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ossgeo/geoparse/internal/pipeline"
	"github.com/ossgeo/geoparse/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Geoparse multiple documents from a list file in parallel",
	Long: `Batch processes multiple annotated documents concurrently:
- Read document paths from input file (one per line)
- Process documents in parallel with configurable worker count
- Generate individual result files for each document
- Accumulate zero-match toponyms across the whole run

Example:
  geoparse batch documents.txt
  geoparse batch documents.txt --concurrency 8 --output-dir ./results
  geoparse batch documents.txt --source-city Saskatoon --zero-matches review.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./geoparse-results", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 60*time.Minute, "total timeout for batch processing")

	// Shared processing flags
	batchCmd.Flags().StringVar(&docFormat, "format", "toponym", "document format (toponym, inline)")
	batchCmd.Flags().BoolVar(&allClusters, "all-clusters", false, "disambiguate every detected cluster")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable candidate caching")
	batchCmd.Flags().BoolVar(&noFilter, "no-filter", false, "disable the ungroundable-toponym filter")
	batchCmd.Flags().BoolVar(&strictFilter, "strict-filter", false, "reject ambiguous abbreviations even with context")
	batchCmd.Flags().StringVar(&termsFile, "ambiguous-terms", "", "file with additional ambiguous terms (one per line)")
	batchCmd.Flags().StringVar(&sourceCity, "source-city", "", "publication city, used as a geographic prior")
	batchCmd.Flags().StringVar(&sourceState, "source-state", "", "publication state or province")
	batchCmd.Flags().StringVar(&graphURI, "graph-uri", "bolt://localhost:7687", "Neo4j connection URI")
	batchCmd.Flags().StringVar(&graphUser, "graph-user", "neo4j", "Neo4j user")
	batchCmd.Flags().IntVar(&maxCandidates, "max-candidates", 10, "max gazetteer candidates per toponym")
	batchCmd.Flags().StringVar(&zeroMatchOut, "zero-matches", "", "write zero-match review report to this path")

	// LLM flags
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "reasoning provider (openai, anthropic, ollama); empty disables")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "reasoning model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Geoparse Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Concurrency.Workers = concurrency
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewGeoparser(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close(context.Background()) }()

	processor := worker.NewBatchProcessor(p, sourceLocationFromFlags(), concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Reading document paths...\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Processed %d documents with %d workers\n", len(results), concurrency)
	fmt.Fprintf(os.Stderr, "\n")

	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		successCount++

		slug := sanitizeFilename(result.Result.DocumentID)
		jsonPath := filepath.Join(outputDir, slug+".json")

		if err := p.Renderer().RenderJSON(result.Result, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}

		resolved := 0
		for _, r := range result.Result.Results {
			if r.SelectedCandidate != nil {
				resolved++
			}
		}
		fmt.Fprintf(os.Stderr, "✓ %s (%d/%d resolved)\n",
			result.Result.DocumentID, resolved, len(result.Result.Results))
	}

	if zeroMatchOut != "" {
		if err := p.ZeroMatches().ExportForReview(zeroMatchOut, 2); err != nil {
			fmt.Fprintf(os.Stderr, "✗ failed to write zero-match report: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "✓ Wrote zero-match review report: %s\n", zeroMatchOut)
		}
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d documents\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if p.ZeroMatches().UniqueCount() > 0 {
		p.ZeroMatches().WriteSummary(os.Stderr, 10)
	}

	return nil
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filepath.Base(filepath.Clean(s))
	s = strings.TrimSuffix(s, filepath.Ext(s))

	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	s = replacer.Replace(s)

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "document"
	}

	return s
}
