package parser

import (
	"strings"
	"testing"
)

const inlineDoc = `<document id="doc-2">
  <locations>
    <location name="London" mention_count="3">
      <context>The regiment marched from London toward Paris that autumn.</context>
      <context>They returned to London before the frost.</context>
      <context></context>
    </location>
    <location name="Paris">
      <context>Paris stood quiet through the winter.</context>
    </location>
  </locations>
</document>`

func TestInlineSource_Parse(t *testing.T) {
	src := NewInlineSource(100)
	mentions, err := src.Parse(strings.NewReader(inlineDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(mentions) != 2 {
		t.Fatalf("expected 2 mentions, got %d", len(mentions))
	}

	london := mentions[0]
	if london.Name != "London" || london.DocumentID != "doc-2" {
		t.Errorf("mention = %+v", london)
	}
	// Explicit mention_count wins over the context count.
	if london.Count != 3 {
		t.Errorf("London count = %d, want 3", london.Count)
	}
	// The empty context element is dropped.
	if len(london.Occurrences) != 2 {
		t.Fatalf("London occurrences = %d, want 2", len(london.Occurrences))
	}

	paris := mentions[1]
	if paris.Count != 1 {
		t.Errorf("Paris count falls back to context count, got %d", paris.Count)
	}

	want := []string{"London", "Paris"}
	for i, name := range want {
		if london.DocToponyms[i] != name {
			t.Errorf("DocToponyms = %v, want %v", london.DocToponyms, want)
			break
		}
	}
}

func TestInlineSource_NearbyNames(t *testing.T) {
	src := NewInlineSource(100)
	mentions, err := src.Parse(strings.NewReader(inlineDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	london := mentions[0]
	if got := london.Occurrences[0].NearbyNames; len(got) != 1 || got[0] != "Paris" {
		t.Errorf("first snippet nearby = %v, want [Paris]", got)
	}
	if got := london.Occurrences[1].NearbyNames; len(got) != 0 {
		t.Errorf("second snippet nearby = %v, want none", got)
	}
}

func TestInlineSource_NearbyWindow(t *testing.T) {
	src := NewInlineSource(6)
	docToponyms := []string{"London", "Paris"}

	// Paris sits outside the 6-char window around London.
	if got := src.nearbyInSnippet("xxxx London yyyy zzzz Paris", "London", docToponyms); len(got) != 0 {
		t.Errorf("nearby = %v, want none", got)
	}
	// Inside the window it is found, case-insensitively.
	if got := src.nearbyInSnippet("xx London pariS yy", "London", docToponyms); len(got) != 1 || got[0] != "Paris" {
		t.Errorf("nearby = %v, want [Paris]", got)
	}
	// Target absent from its snippet: the whole snippet is searched.
	if got := src.nearbyInSnippet("somewhere far away lies Paris", "London", docToponyms); len(got) != 1 || got[0] != "Paris" {
		t.Errorf("nearby = %v, want [Paris]", got)
	}
}

func TestInlineSource_Positions(t *testing.T) {
	src := NewInlineSource(100)
	mentions, err := src.Parse(strings.NewReader(inlineDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	london := mentions[0]
	if london.Occurrences[0].Position != 0 {
		t.Errorf("first position = %f", london.Occurrences[0].Position)
	}
	// Second of three contexts.
	if got := london.Occurrences[1].Position; got < 0.33 || got > 0.34 {
		t.Errorf("second position = %f", got)
	}
	if london.Occurrences[1].ParagraphID != "1" {
		t.Errorf("ParagraphID = %q", london.Occurrences[1].ParagraphID)
	}
}

func TestInlineSource_BadXML(t *testing.T) {
	src := NewInlineSource(100)
	if _, err := src.Parse(strings.NewReader("not xml at all <<<")); err == nil {
		t.Error("expected decode error")
	}
}
