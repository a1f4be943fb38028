package cluster

import (
	"math"
	"regexp"
	"sort"

	"github.com/ossgeo/geoparse/internal/model"
)

var (
	numberPattern  = regexp.MustCompile(`\b\d{2,4}\b`)
	capWordPattern = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
)

// SelectRepresentative picks at most maxContexts occurrences from a
// cluster to present as textual evidence, balancing informativeness
// against positional diversity: occurrences from different parts of the
// document carry more independent signal than duplicates from one
// paragraph. Returns exactly min(maxContexts, |cluster|) occurrences.
func SelectRepresentative(cl *Cluster, maxContexts int) []model.Occurrence {
	if maxContexts <= 0 {
		maxContexts = 3
	}
	if len(cl.Occurrences) <= maxContexts {
		return cl.Occurrences
	}

	type scored struct {
		score float64
		occ   model.Occurrence
	}

	ranked := make([]scored, 0, len(cl.Occurrences))
	for _, occ := range cl.Occurrences {
		ranked = append(ranked, scored{score: InformativenessScore(occ), occ: occ})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	// Greedy pick with 10-bucket positional diversity. The bucket
	// constraint is waived while fewer than half the slots are filled,
	// so the top scorers are never starved out.
	var selected []model.Occurrence
	taken := make([]bool, len(ranked))
	usedBuckets := make(map[int]bool)

	for i, s := range ranked {
		if len(selected) >= maxContexts {
			break
		}
		bucket := int(math.Round(s.occ.Position * 10))
		if !usedBuckets[bucket] || len(selected) < maxContexts/2 {
			selected = append(selected, s.occ)
			taken[i] = true
			usedBuckets[bucket] = true
		}
	}

	// Backfill any remaining slots by score, ignoring buckets.
	for i, s := range ranked {
		if len(selected) >= maxContexts {
			break
		}
		if !taken[i] {
			selected = append(selected, s.occ)
			taken[i] = true
		}
	}

	return selected
}

// InformativenessScore rewards occurrences rich in place-name
// co-occurrence, length, and proper-noun density. Numbers and
// capitalized words correlate with dates and named entities in
// historical prose.
func InformativenessScore(occ model.Occurrence) float64 {
	score := float64(len(occ.NearbyNames)) * 2.0
	score += math.Min(float64(len(occ.Text))/500.0, 1.0)
	score += float64(len(numberPattern.FindAllString(occ.Text, -1))) * 0.5
	score += math.Min(float64(len(capWordPattern.FindAllString(occ.Text, -1)))/10.0, 1.0)
	return score
}
