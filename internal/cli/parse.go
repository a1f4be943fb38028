package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ossgeo/geoparse/internal/model"
	"github.com/ossgeo/geoparse/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON      string
	outMD        string
	timeout      time.Duration
	docFormat    string
	allClusters  bool
	noCache      bool
	noFilter     bool
	strictFilter bool
	termsFile    string
	sourceCity   string
	sourceState  string
	graphURI     string
	graphUser    string
	maxCandidates int
	llmProvider  string
	llmModel     string
	zeroMatchOut string
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <document.xml>",
	Short: "Geoparse a single annotated document",
	Long: `Parse resolves every location mention in one NER-annotated document:
- Filter toponyms that cannot be grounded to a specific place
- Cluster contexts per toponym to detect multiple referents
- Retrieve candidates from the GeoNames knowledge graph
- Disambiguate each mention with a language model, declining on weak evidence

Example:
  geoparse parse document.xml
  geoparse parse document.xml --json result.json --md report.md
  geoparse parse document.xml --llm-provider openai --llm-model gpt-4o-mini
  geoparse parse document.xml --source-city Saskatoon --source-state Saskatchewan`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	// Output flags
	parseCmd.Flags().StringVar(&outJSON, "json", "result.json", "output JSON path")
	parseCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	parseCmd.Flags().StringVar(&zeroMatchOut, "zero-matches", "", "write zero-match review report to this path")

	// Processing flags
	parseCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall processing timeout")
	parseCmd.Flags().StringVar(&docFormat, "format", "toponym", "document format (toponym, inline)")
	parseCmd.Flags().BoolVar(&allClusters, "all-clusters", false, "disambiguate every detected cluster, not just the dominant one")
	parseCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable candidate caching")
	parseCmd.Flags().BoolVar(&noFilter, "no-filter", false, "disable the ungroundable-toponym filter")
	parseCmd.Flags().BoolVar(&strictFilter, "strict-filter", false, "reject ambiguous abbreviations even with context")
	parseCmd.Flags().StringVar(&termsFile, "ambiguous-terms", "", "file with additional ambiguous terms (one per line)")

	// Source location flags
	parseCmd.Flags().StringVar(&sourceCity, "source-city", "", "publication city, used as a geographic prior")
	parseCmd.Flags().StringVar(&sourceState, "source-state", "", "publication state or province")

	// Knowledge graph flags
	parseCmd.Flags().StringVar(&graphURI, "graph-uri", "bolt://localhost:7687", "Neo4j connection URI")
	parseCmd.Flags().StringVar(&graphUser, "graph-user", "neo4j", "Neo4j user")
	parseCmd.Flags().IntVar(&maxCandidates, "max-candidates", 10, "max gazetteer candidates per toponym")

	// LLM flags
	parseCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "reasoning provider (openai, anthropic, ollama); empty disables")
	parseCmd.Flags().StringVar(&llmModel, "llm-model", "", "reasoning model name")
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewGeoparser(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close(context.Background()) }()

	source := sourceLocationFromFlags()

	result, err := p.GeoparseDocument(ctx, path, source)
	if err != nil {
		return fmt.Errorf("geoparse failed: %w", err)
	}

	if outJSON != "" {
		if err := p.Renderer().RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if outMD != "" {
		if err := p.Renderer().RenderMarkdown(result, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if zeroMatchOut != "" {
		if err := p.ZeroMatches().ExportForReview(zeroMatchOut, 1); err != nil {
			return fmt.Errorf("export zero matches: %w", err)
		}
	}

	p.Renderer().RenderSummary(result)
	return nil
}

// buildConfig assembles configuration from defaults, flags, and
// environment variables.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Graph.URI = graphURI
	cfg.Graph.User = graphUser
	cfg.Graph.Password = os.Getenv("NEO4J_PASSWORD")
	cfg.Graph.MaxCandidates = maxCandidates
	cfg.Cache.Enabled = !noCache
	cfg.Filter.Enabled = !noFilter
	cfg.Filter.StrictMode = strictFilter
	cfg.Filter.AmbiguousTermsFile = termsFile
	cfg.Output.Verbose = verbose
	cfg.Output.Format = docFormat
	cfg.Output.AllClusters = allClusters

	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		switch llmProvider {
		case "openai", "openrouter":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}

func sourceLocationFromFlags() *model.SourceLocation {
	if sourceCity == "" && sourceState == "" {
		return nil
	}
	return &model.SourceLocation{City: sourceCity, State: sourceState}
}
