// Package filter rejects toponyms that cannot be grounded to a
// specific place before they reach candidate retrieval, cutting graph
// queries and LLM calls spent on generic descriptors, directional
// references, and NER errors.
package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ossgeo/geoparse/internal/model"
)

// Reason classifies why a toponym was rejected.
type Reason string

const (
	ReasonGenericDescriptor      Reason = "generic_descriptor"
	ReasonRelativeReference      Reason = "relative_reference"
	ReasonNonSpecific            Reason = "non_specific"
	ReasonAmbiguousAbbreviation  Reason = "ambiguous_abbreviation"
	ReasonTooShort               Reason = "too_short"
	ReasonNumericOnly            Reason = "numeric_only"
	ReasonLikelyPersonName       Reason = "likely_person_name"
	ReasonBlacklisted            Reason = "blacklisted"
	ReasonAmbiguousTerm          Reason = "ambiguous_term"
)

// Filtered records one rejected mention and the reason.
type Filtered struct {
	Name   string `json:"name"`
	Reason Reason `json:"reason"`
}

// ToponymFilter applies groundability rules. Strict mode rejects
// ambiguous abbreviations even when a context is available.
type ToponymFilter struct {
	strict bool

	genericDescriptors map[string]struct{}
	relativeRefs       map[string]struct{}
	nonSpecific        map[string]struct{}
	abbreviations      map[string]struct{}
	blacklist          map[string]struct{}
	personIndicators   []string
	ambiguousTerms     map[string]struct{}
	genericSuffixes    map[string]struct{}
	abbrevExpansions   map[string][]string
}

// New creates a filter with the built-in term lists.
func New(strict bool) *ToponymFilter {
	return &ToponymFilter{
		strict: strict,
		genericDescriptors: toSet(
			"the river", "the lake", "the mountain", "the hill", "the valley",
			"the creek", "the stream", "the bay", "the island", "the peninsula",
			"the rapids", "the falls", "the portage", "the trail", "the road",
			"the bridge", "the pass", "the canyon", "the plateau", "the ridge",
			"the forest", "the woods", "the prairie", "the plains", "the desert",
			"the coast", "the shore", "the beach", "the harbor", "the port",
			"the settlement", "the village", "the town", "the city", "the fort",
			"the post", "the station", "the camp", "the encampment",
		),
		relativeRefs: toSet(
			"north", "south", "east", "west", "northeast", "northwest",
			"southeast", "southwest", "northern", "southern", "eastern", "western",
			"here", "there", "yonder", "beyond", "above", "below",
			"upstream", "downstream", "upriver", "downriver",
		),
		nonSpecific: toSet(
			"the place", "the area", "the region", "the district", "the territory",
			"the country", "the land", "the locality", "the vicinity", "the neighborhood",
			"the site", "the spot", "the location", "the position",
		),
		abbreviations: toSet(
			"N.Y.", "U.S.", "U.K.", "B.C.", "D.C.", "Calif.", "Penn.", "Mass.",
			"Conn.", "N.C.", "S.C.", "N.D.", "S.D.", "La.", "Ont.", "Que.",
			"N.W.T.", "Alta.", "Sask.", "Man.", "N.B.", "P.E.I.", "N.S.",
		),
		blacklist: toSet(
			"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "from",
			"up", "down", "out", "over", "under", "about", "after", "before",
		),
		personIndicators: []string{
			"mr.", "mrs.", "ms.", "miss", "dr.", "prof.", "sir", "lady", "lord",
			"capt.", "captain", "lt.", "col.", "gen.", "rev.", "father", "brother",
		},
		ambiguousTerms: toSet(
			"fort", "river", "lake", "mountain", "hill", "creek", "island",
			"bay", "valley", "falls", "rapids", "portage", "pass", "bridge",
			"city", "town", "village", "settlement", "post", "station", "camp",
			"north", "south", "east", "west", "central", "upper", "lower",
			"new", "old", "great", "little", "big", "small",
			"union", "junction", "center", "centre", "cross", "corner",
			"point", "head", "mouth", "landing", "springs", "wells",
		),
		genericSuffixes: toSet(
			"river", "lake", "mountain", "hill", "valley", "creek", "stream",
			"bay", "island", "rapids", "falls", "portage", "trail", "road",
			"bridge", "pass", "canyon", "plateau", "ridge", "forest", "woods",
			"prairie", "plains", "desert", "coast", "shore", "beach", "harbor",
			"settlement", "village", "town", "city", "fort", "post", "station",
		),
		abbrevExpansions: map[string][]string{
			"N.Y.":   {"new york"},
			"U.S.":   {"united states", "america"},
			"U.K.":   {"united kingdom", "britain", "england"},
			"B.C.":   {"british columbia"},
			"D.C.":   {"district of columbia", "washington"},
			"Calif.": {"california"},
			"Penn.":  {"pennsylvania"},
			"Mass.":  {"massachusetts"},
			"Ont.":   {"ontario"},
			"Que.":   {"quebec"},
			"Sask.":  {"saskatchewan"},
			"Man.":   {"manitoba"},
			"Alta.":  {"alberta"},
		},
	}
}

// LoadAmbiguousTerms adds terms from a file, one per line. Blank lines
// and lines starting with # are skipped. A missing file is not an
// error.
func (f *ToponymFilter) LoadAmbiguousTerms(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open ambiguous terms file: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		term := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if term == "" || strings.HasPrefix(term, "#") {
			continue
		}
		f.ambiguousTerms[term] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ambiguous terms file: %w", err)
	}
	return nil
}

// IsGroundable checks a toponym against all rules. The context, when
// non-empty, can rescue an abbreviation or condemn a person name.
func (f *ToponymFilter) IsGroundable(toponym, context string) (bool, Reason) {
	normalized := strings.ToLower(strings.TrimSpace(toponym))

	if _, ok := f.blacklist[normalized]; ok {
		return false, ReasonBlacklisted
	}
	if len(normalized) <= 1 {
		return false, ReasonTooShort
	}
	if isNumericOnly(normalized) {
		return false, ReasonNumericOnly
	}
	if _, ok := f.genericDescriptors[normalized]; ok {
		return false, ReasonGenericDescriptor
	}
	if suffix, ok := strings.CutPrefix(normalized, "the "); ok {
		if _, generic := f.genericSuffixes[suffix]; generic {
			return false, ReasonGenericDescriptor
		}
	}
	if _, ok := f.relativeRefs[normalized]; ok {
		return false, ReasonRelativeReference
	}
	if _, ok := f.nonSpecific[normalized]; ok {
		return false, ReasonNonSpecific
	}
	if f.strict || context == "" {
		if _, ok := f.abbreviations[toponym]; ok {
			if !f.contextExpandsAbbreviation(toponym, context) {
				return false, ReasonAmbiguousAbbreviation
			}
		}
	}
	if context != "" && f.likelyPersonName(toponym, context) {
		return false, ReasonLikelyPersonName
	}
	if _, ok := f.ambiguousTerms[normalized]; ok {
		return false, ReasonAmbiguousTerm
	}
	return true, ""
}

// FilterMentions splits mentions into groundable and rejected, using
// each mention's first occurrence text as the sample context.
func (f *ToponymFilter) FilterMentions(mentions []model.Mention) ([]model.Mention, []Filtered) {
	var groundable []model.Mention
	var rejected []Filtered
	for _, m := range mentions {
		context := ""
		if len(m.Occurrences) > 0 {
			context = m.Occurrences[0].Text
		}
		ok, reason := f.IsGroundable(m.Name, context)
		if ok {
			groundable = append(groundable, m)
		} else {
			rejected = append(rejected, Filtered{Name: m.Name, Reason: reason})
		}
	}
	return groundable, rejected
}

// Statistics groups rejections by reason with up to ten example names
// each.
func Statistics(rejected []Filtered) map[Reason]model.FilterStat {
	stats := make(map[Reason]model.FilterStat)
	for _, r := range rejected {
		s := stats[r.Reason]
		s.Count++
		if len(s.Examples) < 10 {
			s.Examples = append(s.Examples, r.Name)
		}
		stats[r.Reason] = s
	}
	return stats
}

func (f *ToponymFilter) contextExpandsAbbreviation(abbrev, context string) bool {
	if context == "" {
		return false
	}
	lower := strings.ToLower(context)
	for _, expansion := range f.abbrevExpansions[abbrev] {
		if strings.Contains(lower, expansion) {
			return true
		}
	}
	return false
}

// likelyPersonName looks for title prefixes, possessive usage after a
// title, and speech verbs following the name.
func (f *ToponymFilter) likelyPersonName(toponym, context string) bool {
	lower := strings.ToLower(context)
	pos := strings.Index(lower, strings.ToLower(toponym))
	if pos < 0 {
		return false
	}

	start := pos - 50
	if start < 0 {
		start = 0
	}
	prefix := lower[start:pos]

	for _, ind := range f.personIndicators {
		if idx := strings.LastIndex(prefix, ind); idx >= 0 && len(prefix)-idx < 20 {
			return true
		}
	}

	end := pos + len(toponym) + 2
	if end > len(context) {
		end = len(context)
	}
	if strings.HasSuffix(context[pos:end], "'s") {
		tail := prefix
		if len(tail) > 30 {
			tail = tail[len(tail)-30:]
		}
		for _, ind := range f.personIndicators {
			if strings.Contains(tail, ind) {
				return true
			}
		}
		return false
	}

	suffixEnd := pos + len(toponym) + 30
	if suffixEnd > len(lower) {
		suffixEnd = len(lower)
	}
	suffix := lower[pos+len(toponym) : suffixEnd]
	for _, verb := range []string{" said", " stated", " reported", " wrote", " argued", " claimed"} {
		if strings.Contains(suffix, verb) {
			return true
		}
	}
	return false
}

func isNumericOnly(s string) bool {
	stripped := strings.NewReplacer(".", "", ",", "").Replace(s)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func toSet(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
