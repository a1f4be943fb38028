package cluster

import (
	"sort"

	"github.com/ossgeo/geoparse/internal/model"
)

// Cluster is a group of occurrences believed to refer to the same
// real-world place. Clusters live for the duration of one
// disambiguation call and are never persisted.
type Cluster struct {
	Occurrences []model.Occurrence
	NearbyNames map[string]struct{} // Union of member nearby sets
	Support     int                 // Member count
	Confidence  model.Confidence
}

// NearbyList returns the cluster's nearby-name union as a sorted slice.
func (c *Cluster) NearbyList() []string {
	names := make([]string, 0, len(c.NearbyNames))
	for name := range c.NearbyNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clusterer partitions a mention's occurrences by geographic coherence,
// using nearby-name co-occurrence as the only similarity signal: the
// literal toponym text is identical across occurrences by construction.
type Clusterer struct {
	similarityThreshold float64
}

// NewClusterer creates a clusterer with the given Jaccard threshold.
// A non-positive threshold falls back to the default 0.3.
func NewClusterer(similarityThreshold float64) *Clusterer {
	if similarityThreshold <= 0 {
		similarityThreshold = 0.3
	}
	return &Clusterer{similarityThreshold: similarityThreshold}
}

// ClusterMention groups the mention's occurrences into clusters, sorted
// by support descending (creation order preserved on ties). Pure
// function: the mention is not modified.
//
// The algorithm is online single-pass agglomerative clustering:
// each occurrence joins the existing cluster with the highest Jaccard
// similarity between its nearby set and the cluster's running union,
// provided that similarity meets the threshold; otherwise it seeds a
// new cluster. Occurrences with empty nearby sets all land in one
// cluster regardless of true referent count - a known limitation kept
// on purpose (precision over recall).
func (c *Clusterer) ClusterMention(mention model.Mention) []*Cluster {
	if len(mention.Occurrences) == 0 {
		return nil
	}

	if len(mention.Occurrences) == 1 {
		// One data point - clustering is meaningless.
		occ := mention.Occurrences[0]
		return []*Cluster{{
			Occurrences: []model.Occurrence{occ},
			NearbyNames: occ.NearbySet(),
			Support:     1,
			Confidence:  model.ConfidenceHigh,
		}}
	}

	var clusters []*Cluster

	for _, occ := range mention.Occurrences {
		nearbySet := occ.NearbySet()

		var best *Cluster
		bestSimilarity := 0.0

		// Strict > keeps the earliest-created cluster on ties.
		for _, cl := range clusters {
			similarity := Jaccard(nearbySet, cl.NearbyNames)
			if similarity >= c.similarityThreshold && similarity > bestSimilarity {
				bestSimilarity = similarity
				best = cl
			}
		}

		if best != nil {
			best.Occurrences = append(best.Occurrences, occ)
			for name := range nearbySet {
				best.NearbyNames[name] = struct{}{}
			}
			best.Support++
			continue
		}

		clusters = append(clusters, &Cluster{
			Occurrences: []model.Occurrence{occ},
			NearbyNames: nearbySet,
			Support:     1,
			Confidence:  model.ConfidenceLow, // Recomputed below
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Support > clusters[j].Support
	})

	total := len(mention.Occurrences)
	for _, cl := range clusters {
		proportion := float64(cl.Support) / float64(total)
		switch {
		case proportion >= 0.6:
			cl.Confidence = model.ConfidenceHigh
		case proportion >= 0.3:
			cl.Confidence = model.ConfidenceMedium
		default:
			cl.Confidence = model.ConfidenceLow
		}
	}

	return clusters
}

// DetectMultipleReferents reports whether the mention plausibly names
// several distinct places. It requires more than one cluster AND a
// second cluster supported by at least 20% of occurrences, which
// suppresses noise from one or two stray co-occurrence mismatches.
func (c *Clusterer) DetectMultipleReferents(mention model.Mention) (bool, []*Cluster) {
	clusters := c.ClusterMention(mention)

	if len(clusters) < 2 {
		return false, clusters
	}

	total := 0
	for _, cl := range clusters {
		total += cl.Support
	}

	secondProportion := float64(clusters[1].Support) / float64(total)
	return secondProportion >= 0.2, clusters
}

// Jaccard computes |A∩B| / |A∪B|. Two empty sets are identical (1.0);
// exactly one empty set shares nothing (0.0).
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for name := range a {
		if _, ok := b[name]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection

	return float64(intersection) / float64(union)
}
