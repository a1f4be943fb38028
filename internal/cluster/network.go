package cluster

import (
	"sort"

	"github.com/ossgeo/geoparse/internal/model"
)

// CooccurrenceNetwork maps each toponym to the count of every other
// place name appearing near its occurrences across a document set.
type CooccurrenceNetwork map[string]map[string]int

// BuildCooccurrenceNetwork aggregates nearby-name counts per toponym.
func BuildCooccurrenceNetwork(mentions []model.Mention) CooccurrenceNetwork {
	network := make(CooccurrenceNetwork)

	for _, mention := range mentions {
		counts, ok := network[mention.Name]
		if !ok {
			counts = make(map[string]int)
			network[mention.Name] = counts
		}
		for _, occ := range mention.Occurrences {
			for _, nearby := range occ.NearbyNames {
				counts[nearby]++
			}
		}
	}

	return network
}

// TopNeighbors returns the n most frequent co-occurring names for a
// toponym, most frequent first, ties broken alphabetically.
func (n CooccurrenceNetwork) TopNeighbors(name string, limit int) []string {
	counts := n[name]
	if len(counts) == 0 {
		return nil
	}

	names := make([]string, 0, len(counts))
	for neighbor := range counts {
		names = append(names, neighbor)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > limit {
		names = names[:limit]
	}
	return names
}
