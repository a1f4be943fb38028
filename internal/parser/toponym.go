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

// ToponymSource parses the stand-off annotation format: full paragraph
// text up front, toponym annotations referencing character offsets into
// it. Nearby names are other annotated toponyms within a character
// window of each occurrence; context is the annotated paragraph plus
// its neighbors.
type ToponymSource struct {
	contextParagraphs int
	proximityWindow   int
}

// NewToponymSource creates a stand-off source. contextParagraphs is
// how many paragraphs either side of an occurrence go into its context
// text; proximityWindow is the character distance within which another
// toponym counts as nearby.
func NewToponymSource(contextParagraphs, proximityWindow int) *ToponymSource {
	return &ToponymSource{
		contextParagraphs: contextParagraphs,
		proximityWindow:   proximityWindow,
	}
}

func (s *ToponymSource) Name() string { return "toponym" }

type toponymDocument struct {
	XMLName    xml.Name           `xml:"document"`
	ID         string             `xml:"id,attr"`
	City       string             `xml:"city,attr"`
	State      string             `xml:"state,attr"`
	Paragraphs []toponymParagraph `xml:"text>paragraph"`
	Toponyms   []toponymAnnot     `xml:"toponyms>toponym"`
}

type toponymParagraph struct {
	Index int    `xml:"index,attr"`
	Text  string `xml:",chardata"`
}

type toponymAnnot struct {
	Name      string `xml:"name,attr"`
	Paragraph int    `xml:"paragraph,attr"`
	Start     string `xml:"start,attr"`
	End       string `xml:"end,attr"`
}

// annotation with offsets resolved to the whole document
type resolvedAnnot struct {
	name      string
	paragraph int
	docStart  int
	docEnd    int
}

func (s *ToponymSource) Parse(r io.Reader) ([]model.Mention, error) {
	var doc toponymDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode stand-off document: %w", err)
	}
	if len(doc.Paragraphs) == 0 {
		return nil, fmt.Errorf("document %s has no paragraphs", doc.ID)
	}

	sort.Slice(doc.Paragraphs, func(i, j int) bool {
		return doc.Paragraphs[i].Index < doc.Paragraphs[j].Index
	})

	// cumulative character offset of each paragraph within the document,
	// counting a single separator between paragraphs
	paraText := make([]string, len(doc.Paragraphs))
	paraBase := make([]int, len(doc.Paragraphs))
	offset := 0
	for i, p := range doc.Paragraphs {
		paraText[i] = strings.TrimSpace(p.Text)
		paraBase[i] = offset
		offset += len(paraText[i]) + 1
	}

	annots := make([]resolvedAnnot, 0, len(doc.Toponyms))
	for _, t := range doc.Toponyms {
		if t.Paragraph < 0 || t.Paragraph >= len(paraText) {
			continue
		}
		start, err := strconv.Atoi(strings.TrimSpace(t.Start))
		if err != nil {
			continue
		}
		end := start + len(t.Name)
		if e, err := strconv.Atoi(strings.TrimSpace(t.End)); err == nil {
			end = e
		}
		annots = append(annots, resolvedAnnot{
			name:      t.Name,
			paragraph: t.Paragraph,
			docStart:  paraBase[t.Paragraph] + start,
			docEnd:    paraBase[t.Paragraph] + end,
		})
	}

	docToponyms := uniqueNames(annots)
	nPara := len(paraText)

	byName := make(map[string]*model.Mention)
	var order []string
	for _, a := range annots {
		occ := model.Occurrence{
			Text:        s.contextAround(paraText, a.paragraph),
			NearbyNames: s.nearbyNames(annots, a),
			Position:    paragraphPosition(a.paragraph, nPara),
			ParagraphID: strconv.Itoa(a.paragraph),
		}
		m, ok := byName[a.name]
		if !ok {
			m = &model.Mention{
				Name:        a.name,
				DocumentID:  doc.ID,
				DocToponyms: docToponyms,
			}
			byName[a.name] = m
			order = append(order, a.name)
		}
		m.Occurrences = append(m.Occurrences, occ)
		m.Count++
	}

	mentions := make([]model.Mention, 0, len(order))
	for _, name := range order {
		mentions = append(mentions, *byName[name])
	}
	return mentions, nil
}

// SourceLocation reads the publication place attributes without a full
// parse of the annotation body.
func (s *ToponymSource) SourceLocation(r io.Reader) (*model.SourceLocation, error) {
	var doc toponymDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode stand-off document: %w", err)
	}
	if doc.City == "" && doc.State == "" {
		return nil, nil
	}
	return &model.SourceLocation{City: doc.City, State: doc.State}, nil
}

func (s *ToponymSource) contextAround(paras []string, idx int) string {
	lo := idx - s.contextParagraphs
	if lo < 0 {
		lo = 0
	}
	hi := idx + s.contextParagraphs + 1
	if hi > len(paras) {
		hi = len(paras)
	}
	return strings.Join(paras[lo:hi], " ")
}

func (s *ToponymSource) nearbyNames(annots []resolvedAnnot, target resolvedAnnot) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, a := range annots {
		if a.name == target.name {
			continue
		}
		if charDistance(a, target) > s.proximityWindow {
			continue
		}
		if _, ok := seen[a.name]; ok {
			continue
		}
		seen[a.name] = struct{}{}
		names = append(names, a.name)
	}
	sort.Strings(names)
	return names
}

// charDistance is the gap between two annotation spans, zero when they
// overlap.
func charDistance(a, b resolvedAnnot) int {
	if a.docStart > b.docEnd {
		return a.docStart - b.docEnd
	}
	if b.docStart > a.docEnd {
		return b.docStart - a.docEnd
	}
	return 0
}

func paragraphPosition(idx, nParagraphs int) float64 {
	if nParagraphs <= 1 {
		return 0
	}
	return float64(idx) / float64(nParagraphs-1)
}

func uniqueNames(annots []resolvedAnnot) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, a := range annots {
		if _, ok := seen[a.name]; ok {
			continue
		}
		seen[a.name] = struct{}{}
		names = append(names, a.name)
	}
	sort.Strings(names)
	return names
}
