package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ossgeo/geoparse/internal/model"
)

// InlineSource parses the legacy pre-extracted format where context
// snippets are already attached to each location element. Positions
// are approximated from context ordering, and nearby names are found
// by scanning each snippet for the document's other location names.
type InlineSource struct {
	nearbyWindow int
}

// NewInlineSource creates a legacy source. nearbyWindow is the number
// of characters around the target name inside a snippet searched for
// other location names.
func NewInlineSource(nearbyWindow int) *InlineSource {
	return &InlineSource{nearbyWindow: nearbyWindow}
}

func (s *InlineSource) Name() string { return "inline" }

type inlineDocument struct {
	XMLName   xml.Name         `xml:"document"`
	ID        string           `xml:"id,attr"`
	Locations []inlineLocation `xml:"locations>location"`
}

type inlineLocation struct {
	Name         string   `xml:"name,attr"`
	MentionCount int      `xml:"mention_count,attr"`
	Contexts     []string `xml:"context"`
}

func (s *InlineSource) Parse(r io.Reader) ([]model.Mention, error) {
	var doc inlineDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode inline document: %w", err)
	}

	docToponyms := make([]string, 0, len(doc.Locations))
	for _, loc := range doc.Locations {
		docToponyms = append(docToponyms, loc.Name)
	}
	sort.Strings(docToponyms)

	mentions := make([]model.Mention, 0, len(doc.Locations))
	for _, loc := range doc.Locations {
		m := model.Mention{
			Name:        loc.Name,
			Count:       loc.MentionCount,
			DocumentID:  doc.ID,
			DocToponyms: docToponyms,
		}
		if m.Count == 0 {
			m.Count = len(loc.Contexts)
		}
		for i, raw := range loc.Contexts {
			text := strings.TrimSpace(raw)
			if text == "" {
				continue
			}
			m.Occurrences = append(m.Occurrences, model.Occurrence{
				Text:        text,
				NearbyNames: s.nearbyInSnippet(text, loc.Name, docToponyms),
				Position:    contextPosition(i, len(loc.Contexts)),
				ParagraphID: strconv.Itoa(i),
			})
		}
		mentions = append(mentions, m)
	}
	return mentions, nil
}

// nearbyInSnippet finds other document toponyms within the character
// window around the target name's first appearance in the snippet.
// Matching is case-insensitive; a target name absent from its own
// snippet yields the whole snippet as the window.
func (s *InlineSource) nearbyInSnippet(text, target string, docToponyms []string) []string {
	lower := strings.ToLower(text)
	lo, hi := 0, len(text)
	if idx := strings.Index(lower, strings.ToLower(target)); idx >= 0 {
		lo = idx - s.nearbyWindow
		if lo < 0 {
			lo = 0
		}
		hi = idx + len(target) + s.nearbyWindow
		if hi > len(text) {
			hi = len(text)
		}
	}
	window := lower[lo:hi]

	var names []string
	for _, name := range docToponyms {
		if strings.EqualFold(name, target) {
			continue
		}
		if strings.Contains(window, strings.ToLower(name)) {
			names = append(names, name)
		}
	}
	return names
}

func contextPosition(idx, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(idx) / float64(total)
}
