// Package pipeline orchestrates the complete geoparse flow: parse an
// annotated document, filter ungroundable toponyms, and disambiguate
// every surviving mention against the gazetteer.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ossgeo/geoparse/internal/analytics"
	"github.com/ossgeo/geoparse/internal/cache"
	"github.com/ossgeo/geoparse/internal/cluster"
	"github.com/ossgeo/geoparse/internal/disambig"
	"github.com/ossgeo/geoparse/internal/filter"
	"github.com/ossgeo/geoparse/internal/gazetteer"
	"github.com/ossgeo/geoparse/internal/llm"
	"github.com/ossgeo/geoparse/internal/model"
	"github.com/ossgeo/geoparse/internal/parser"
	"github.com/ossgeo/geoparse/internal/worker"
)

// Geoparser wires the full pipeline together.
type Geoparser struct {
	source        parser.Source
	filter        *filter.ToponymFilter
	graph         *gazetteer.Graph
	retriever     gazetteer.Retriever
	disambiguator *disambig.Disambiguator
	zeroMatches   *analytics.ZeroMatchTracker
	renderer      *Renderer
	config        *model.Config
}

// NewGeoparser creates a pipeline from configuration. The Neo4j
// connection is mandatory; the reasoning provider is optional and its
// absence degrades every decision to a low-confidence refusal.
func NewGeoparser(cfg *model.Config) (*Geoparser, error) {
	source, err := parser.NewSource(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	graph, err := gazetteer.NewGraph(cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password)
	if err != nil {
		return nil, fmt.Errorf("connect gazetteer: %w", err)
	}

	var retriever gazetteer.Retriever = graph
	if cfg.Cache.Enabled {
		var c cache.Cache
		if cfg.Cache.Dir != "" {
			c = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			c = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL/4)
		}
		retriever = gazetteer.NewCachedRetriever(graph, c, cfg.Cache.TTL)
	}

	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		provider, err = llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize reasoning provider: %v\n", err)
			provider = nil
		}
	}
	if provider != nil && cfg.RateLimit.RequestsPerSecond > 0 {
		limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		provider = llm.Throttle(provider, limiter)
	}

	var topFilter *filter.ToponymFilter
	if cfg.Filter.Enabled {
		topFilter = filter.New(cfg.Filter.StrictMode)
		if cfg.Filter.AmbiguousTermsFile != "" {
			if err := topFilter.LoadAmbiguousTerms(cfg.Filter.AmbiguousTermsFile); err != nil {
				return nil, err
			}
		}
	}

	zeroMatches := analytics.NewZeroMatchTracker()
	disambiguator := disambig.NewDisambiguator(retriever, provider, disambig.Config{
		SimilarityThreshold: cfg.Cluster.SimilarityThreshold,
		MaxContexts:         cfg.Cluster.MaxContexts,
		MaxCandidates:       cfg.Graph.MaxCandidates,
		Model:               cfg.LLM.Model,
		Temperature:         cfg.LLM.Temperature,
	})
	disambiguator.SetZeroMatchSink(zeroMatches)

	return &Geoparser{
		source:        source,
		filter:        topFilter,
		graph:         graph,
		retriever:     retriever,
		disambiguator: disambiguator,
		zeroMatches:   zeroMatches,
		renderer:      NewRenderer(cfg.Output.Verbose),
		config:        cfg,
	}, nil
}

// Close releases the gazetteer connection.
func (g *Geoparser) Close(ctx context.Context) error {
	return g.graph.Close(ctx)
}

// ZeroMatches exposes the accumulated zero-match tracker.
func (g *Geoparser) ZeroMatches() *analytics.ZeroMatchTracker {
	return g.zeroMatches
}

// Renderer exposes the report renderer.
func (g *Geoparser) Renderer() *Renderer {
	return g.renderer
}

// Statistics reports gazetteer contents.
func (g *Geoparser) Statistics(ctx context.Context) (*model.GraphStatistics, error) {
	return g.graph.Statistics(ctx)
}

// GeoparseDocument processes one annotated document end to end. A
// failing mention never aborts the document; it yields an error-grade
// result and processing continues.
func (g *Geoparser) GeoparseDocument(ctx context.Context, path string, source *model.SourceLocation) (*model.GeoparseResult, error) {
	g.progress("=== Geoparsing document: %s ===\n", path)

	mentions, err := parser.ParseFile(g.source, path)
	if err != nil {
		return nil, err
	}
	g.progress("Parsed %d unique location mentions\n", len(mentions))

	result := &model.GeoparseResult{
		DocumentID: filepath.Base(path),
	}
	if len(mentions) == 0 {
		return result, nil
	}

	if g.filter != nil {
		groundable, rejected := g.filter.FilterMentions(mentions)
		g.progress("Filtered %d ungroundable toponyms, %d remain\n", len(rejected), len(groundable))
		result.FilteredMentions = len(rejected)
		result.FilterStatistics = filterStatsByName(rejected)
		mentions = groundable
	}

	result.TotalMentions = len(mentions) + result.FilteredMentions
	result.ProcessedMentions = len(mentions)
	result.Cooccurrence = topCooccurrences(mentions, 5)

	for i, mention := range mentions {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		g.progress("--- Processing %d/%d: %q ---\n", i+1, len(mentions), mention.Name)

		if g.config.Output.AllClusters {
			clusterResults := g.disambiguator.DisambiguateAllClusters(ctx, mention, source)
			if len(clusterResults) > 1 {
				result.MultiReferentCount++
			}
			result.Results = append(result.Results, clusterResults...)
			continue
		}

		r := g.disambiguator.Disambiguate(ctx, mention, source)
		if r.HasMultipleReferents {
			result.MultiReferentCount++
		}
		result.Results = append(result.Results, r)
	}

	return result, nil
}

// GeoparseBatch processes documents sequentially and optionally saves
// the combined results.
func (g *Geoparser) GeoparseBatch(ctx context.Context, paths []string, source *model.SourceLocation, outputPath string) ([]*model.GeoparseResult, error) {
	g.progress("=== Batch geoparsing %d documents ===\n", len(paths))

	results := make([]*model.GeoparseResult, 0, len(paths))
	for i, path := range paths {
		g.progress("Document %d/%d\n", i+1, len(paths))
		r, err := g.GeoparseDocument(ctx, path, source)
		if err != nil {
			if ctx.Err() != nil {
				return results, err
			}
			fmt.Fprintf(os.Stderr, "Warning: %s failed: %v\n", path, err)
			continue
		}
		results = append(results, r)
	}

	if outputPath != "" {
		if err := g.renderer.RenderBatchJSON(results, outputPath); err != nil {
			return results, err
		}
		g.progress("Results saved to: %s\n", outputPath)
	}
	return results, nil
}

func (g *Geoparser) progress(format string, args ...any) {
	if g.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// topCooccurrences summarizes the document's spatial neighborhood: for
// each toponym, its most frequent nearby names across all occurrences.
func topCooccurrences(mentions []model.Mention, limit int) map[string][]string {
	network := cluster.BuildCooccurrenceNetwork(mentions)
	out := make(map[string][]string, len(network))
	for name := range network {
		if top := network.TopNeighbors(name, limit); len(top) > 0 {
			out[name] = top
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func filterStatsByName(rejected []filter.Filtered) map[string]model.FilterStat {
	if len(rejected) == 0 {
		return nil
	}
	byReason := filter.Statistics(rejected)
	out := make(map[string]model.FilterStat, len(byReason))
	for reason, stat := range byReason {
		out[string(reason)] = stat
	}
	return out
}
