package disambig

import (
	"context"
	"fmt"

	"github.com/ossgeo/geoparse/internal/cluster"
	"github.com/ossgeo/geoparse/internal/gazetteer"
	"github.com/ossgeo/geoparse/internal/llm"
	"github.com/ossgeo/geoparse/internal/model"
)

// ZeroMatchSink receives toponyms the gazetteer had no candidates for.
// Advisory instrumentation only; a nil sink is valid.
type ZeroMatchSink interface {
	RecordZeroMatch(toponym, context string)
}

// Config tunes one Disambiguator.
type Config struct {
	SimilarityThreshold float64 // Jaccard threshold for context clustering
	MaxContexts         int     // Evidence occurrences shown per cluster
	MaxCandidates       int     // Candidate list size requested from the gazetteer
	Model               string  // Reasoning model override (provider default when empty)
	Temperature         float64
}

// Disambiguator resolves a mention to a verified gazetteer entry,
// delegating judgment to a reasoning service under a strict protocol.
// Every failure mode resolves to a DisambiguationResult: the public
// contract guarantees exactly one result per request, never an error,
// so batches need no per-item error handling.
type Disambiguator struct {
	retriever gazetteer.Retriever
	provider  llm.Provider
	clusterer *cluster.Clusterer
	config    Config
	zeroMatch ZeroMatchSink
}

// NewDisambiguator creates a disambiguator over the given collaborators.
func NewDisambiguator(retriever gazetteer.Retriever, provider llm.Provider, config Config) *Disambiguator {
	if config.MaxContexts <= 0 {
		config.MaxContexts = 3
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 10
	}
	if config.Temperature == 0 {
		config.Temperature = 0.1
	}

	return &Disambiguator{
		retriever: retriever,
		provider:  provider,
		clusterer: cluster.NewClusterer(config.SimilarityThreshold),
		config:    config,
	}
}

// SetZeroMatchSink installs an optional zero-match tracker.
func (d *Disambiguator) SetZeroMatchSink(sink ZeroMatchSink) {
	d.zeroMatch = sink
}

// Disambiguate resolves the mention's dominant interpretation (its
// largest cluster).
func (d *Disambiguator) Disambiguate(ctx context.Context, mention model.Mention, source *model.SourceLocation) model.DisambiguationResult {
	return d.DisambiguateCluster(ctx, mention, source, -1)
}

// DisambiguateCluster resolves one specific cluster of the mention.
// A negative or out-of-range clusterID targets the largest cluster.
func (d *Disambiguator) DisambiguateCluster(ctx context.Context, mention model.Mention, source *model.SourceLocation, clusterID int) model.DisambiguationResult {
	clusters := d.clusterer.ClusterMention(mention)
	hasMultiple := hasMultipleReferents(clusters, len(mention.Occurrences))

	if len(clusters) == 0 {
		return model.DisambiguationResult{
			Toponym:           mention.Name,
			SelectedCandidate: nil,
			Confidence:        model.ConfidenceLow,
			Reasoning:         "No valid contexts found",
			SourceLocation:    source,
		}
	}

	target := clusters[0]
	if clusterID >= 0 && clusterID < len(clusters) {
		target = clusters[clusterID]
	}

	contexts := cluster.SelectRepresentative(target, d.config.MaxContexts)
	nearbyNames := target.NearbyList()

	candidates, err := d.retriever.Candidates(ctx, mention.Name, d.config.MaxCandidates)
	if err != nil {
		return model.DisambiguationResult{
			Toponym:              mention.Name,
			SelectedCandidate:    nil,
			Confidence:           model.ConfidenceError,
			Reasoning:            fmt.Sprintf("Candidate retrieval failed: %v", err),
			ClustersDetected:     len(clusters),
			HasMultipleReferents: hasMultiple,
			ContextsUsed:         contextTexts(contexts),
			NearbyNames:          nearbyNames,
			SourceLocation:       source,
		}
	}

	if len(candidates) == 0 {
		if d.zeroMatch != nil {
			sample := ""
			if len(contexts) > 0 {
				sample = contexts[0].Text
			}
			d.zeroMatch.RecordZeroMatch(mention.Name, sample)
		}
		return model.DisambiguationResult{
			Toponym:              mention.Name,
			SelectedCandidate:    nil,
			Confidence:           model.ConfidenceLow,
			Reasoning:            "No candidates found in gazetteer",
			ClustersDetected:     len(clusters),
			HasMultipleReferents: hasMultiple,
			AllCandidates:        []model.Candidate{},
			ContextsUsed:         contextTexts(contexts),
			NearbyNames:          nearbyNames,
			SourceLocation:       source,
		}
	}

	if d.provider == nil {
		return model.DisambiguationResult{
			Toponym:              mention.Name,
			SelectedCandidate:    nil,
			Confidence:           model.ConfidenceLow,
			Reasoning:            "No reasoning provider configured",
			ClustersDetected:     len(clusters),
			HasMultipleReferents: hasMultiple,
			AllCandidates:        candidates,
			ContextsUsed:         contextTexts(contexts),
			NearbyNames:          nearbyNames,
			SourceLocation:       source,
		}
	}

	selected, reasoning, exchangeErr := d.decide(ctx, promptInput{
		Toponym:           mention.Name,
		Contexts:          contexts,
		Candidates:        candidates,
		NearbyNames:       nearbyNames,
		SourceLocation:    source,
		ClusterConfidence: target.Confidence,
	})

	confidence := computeConfidence(target.Confidence, len(candidates), hasMultiple)
	if exchangeErr {
		confidence = model.ConfidenceError
	}

	return model.DisambiguationResult{
		Toponym:              mention.Name,
		SelectedCandidate:    selected,
		Confidence:           confidence,
		Reasoning:            reasoning,
		ClustersDetected:     len(clusters),
		HasMultipleReferents: hasMultiple,
		AllCandidates:        candidates,
		ContextsUsed:         contextTexts(contexts),
		NearbyNames:          nearbyNames,
		SourceLocation:       source,
	}
}

// DisambiguateAllClusters produces one result per detected referent.
// For a single-referent mention it is equivalent to Disambiguate. This
// is how a document discussing both London, Ontario and London, England
// surfaces as two independent answers instead of one forced choice.
func (d *Disambiguator) DisambiguateAllClusters(ctx context.Context, mention model.Mention, source *model.SourceLocation) []model.DisambiguationResult {
	hasMultiple, clusters := d.clusterer.DetectMultipleReferents(mention)

	if !hasMultiple || len(clusters) == 1 {
		return []model.DisambiguationResult{d.Disambiguate(ctx, mention, source)}
	}

	results := make([]model.DisambiguationResult, 0, len(clusters))
	for i := range clusters {
		results = append(results, d.DisambiguateCluster(ctx, mention, source, i))
	}
	return results
}

// decide runs the bounded reasoning exchange and applies the
// precision-first acceptance rule. The bool return flags a terminal
// exchange failure (parse exhaustion or transport error).
func (d *Disambiguator) decide(ctx context.Context, in promptInput) (*model.Candidate, string, bool) {
	outcome := d.exchange(ctx, buildPrompt(in))

	switch outcome.termination {
	case terminationTransport:
		return nil, fmt.Sprintf("Reasoning service error: %v", outcome.err), true
	case terminationParseFail:
		return nil, fmt.Sprintf("Reasoning service response parsing failed after %d attempts: %v", outcome.attempts, outcome.err), true
	}

	decision := outcome.decision

	if decision.SelectedID == "" {
		return nil, decision.Reasoning, false
	}

	// Precision-first: a low-confidence guess is equivalent to no
	// answer. A wrong coordinate is strictly worse than an
	// acknowledged gap.
	if decision.Confidence == model.ConfidenceLow {
		return nil, fmt.Sprintf("Low confidence: %s", decision.Reasoning), false
	}

	for i := range in.Candidates {
		if in.Candidates[i].ID == decision.SelectedID {
			selected := in.Candidates[i]
			return &selected, decision.Reasoning, false
		}
	}

	// Structurally inconsistent answer; retrying would not change it.
	return nil, fmt.Sprintf("Selected candidate %q is not in the candidate list: %s", decision.SelectedID, decision.Reasoning), false
}

// exchange submits the prompt, retrying once with a stricter format
// instruction when the response does not parse. Transport failures are
// not retried here: they surface immediately as terminal for the
// mention.
func (d *Disambiguator) exchange(ctx context.Context, prompt string) exchangeOutcome {
	outcome := exchangeOutcome{}

	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		outcome.attempts = attempt

		resp, err := d.provider.Complete(ctx, llm.CompletionRequest{
			System:      systemPrompt,
			Prompt:      prompt,
			Model:       d.config.Model,
			Temperature: d.config.Temperature,
		})
		if err != nil {
			outcome.termination = terminationTransport
			outcome.err = err
			return outcome
		}

		decision, err := ParseDecision(resp.Text)
		if err == nil {
			outcome.decision = decision
			outcome.termination = terminationParsed
			return outcome
		}

		outcome.err = err
		prompt = stricterPrompt(prompt)
	}

	outcome.termination = terminationParseFail
	return outcome
}

// computeConfidence derives the overall result confidence from cluster
// quality and candidate ambiguity. Independent of the reasoning
// service's self-reported confidence; acts as a sanity ceiling on it.
func computeConfidence(clusterConfidence model.Confidence, numCandidates int, hasMultiple bool) model.Confidence {
	switch {
	case clusterConfidence == model.ConfidenceHigh && !hasMultiple && numCandidates <= 5:
		return model.ConfidenceHigh
	case clusterConfidence == model.ConfidenceLow || hasMultiple || numCandidates > 20:
		return model.ConfidenceLow
	default:
		return model.ConfidenceMedium
	}
}

// hasMultipleReferents mirrors Clusterer.DetectMultipleReferents over
// an already-computed cluster list.
func hasMultipleReferents(clusters []*cluster.Cluster, totalOccurrences int) bool {
	if len(clusters) < 2 || totalOccurrences == 0 {
		return false
	}
	return float64(clusters[1].Support)/float64(totalOccurrences) >= 0.2
}

func contextTexts(occurrences []model.Occurrence) []string {
	texts := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		texts = append(texts, occ.Text)
	}
	return texts
}
