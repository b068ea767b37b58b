package layout

import (
	"strings"
	"testing"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

// word builds a field with a 20x10 box at (x, y); its centroid lands at
// (x+10, y+5) and its glyph height is 10.
func word(text string, x, y float64) domain.RawField {
	return domain.RawField{
		Text: text,
		Vertices: [4]domain.Vertex{
			{X: x, Y: y},
			{X: x + 20, Y: y},
			{X: x + 20, Y: y + 10},
			{X: x, Y: y + 10},
		},
	}
}

func withConfidence(f domain.RawField, conf float64) domain.RawField {
	f.Confidence = &conf
	return f
}

func paragraphTexts(paragraphs []domain.Paragraph) []string {
	texts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		texts[i] = p.Text
	}
	return texts
}

func TestAnalyzeEmptyInput(t *testing.T) {
	if got := Analyze(nil, DefaultConfidenceThreshold); len(got) != 0 {
		t.Fatalf("expected no paragraphs, got %d", len(got))
	}
}

func TestAnalyzeConfidenceFilter(t *testing.T) {
	fields := []domain.RawField{
		withConfidence(word("low", 0, 0), 0.5),
		withConfidence(word("boundary", 30, 0), 0.8),
		withConfidence(word("good", 0, 0), 0.9),
		word("unscored", 30, 0),
	}

	paragraphs := Analyze(fields, DefaultConfidenceThreshold)
	if len(paragraphs) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paragraphs))
	}
	if got := paragraphs[0].Text; got != "good unscored" {
		t.Fatalf("expected filtered paragraph %q, got %q", "good unscored", got)
	}
}

func TestAnalyzeAllNoiseYieldsNothing(t *testing.T) {
	// Glyph height 10 puts the paragraph eps at 60; two tokens thousands of
	// units apart can never reach the 2-point core requirement.
	fields := []domain.RawField{
		word("lonely", 0, 0),
		word("stray", 5000, 5000),
	}
	if got := Analyze(fields, DefaultConfidenceThreshold); len(got) != 0 {
		t.Fatalf("expected all-noise page to yield no paragraphs, got %d", len(got))
	}
}

func TestAnalyzeTwoParagraphsWithLines(t *testing.T) {
	fields := []domain.RawField{
		word("The", 0, 0),
		word("cat", 30, 0),
		word("sat", 0, 20),
		word("down", 30, 20),
		word("It", 0, 300),
		word("slept.", 30, 300),
	}

	paragraphs := Analyze(fields, DefaultConfidenceThreshold)
	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %v", len(paragraphs), paragraphTexts(paragraphs))
	}
	if got := paragraphs[0].Text; got != "The cat\nsat down" {
		t.Fatalf("unexpected first paragraph: %q", got)
	}
	if got := paragraphs[1].Text; got != "It slept." {
		t.Fatalf("unexpected second paragraph: %q", got)
	}

	wantBox := domain.BoundingBox{
		X1: 10, Y1: 5,
		X2: 40, Y2: 5,
		X3: 40, Y3: 25,
		X4: 10, Y4: 25,
	}
	if paragraphs[0].BBox != wantBox {
		t.Fatalf("unexpected first bbox: %+v", paragraphs[0].BBox)
	}
}

func TestAnalyzeParagraphOrderFollowsDiscovery(t *testing.T) {
	// The lower-on-page paragraph comes first in the field stream, so it
	// seeds cluster 0 and leads the output.
	fields := []domain.RawField{
		word("second", 0, 300),
		word("block", 30, 300),
		word("first", 0, 0),
		word("block", 30, 0),
	}

	paragraphs := Analyze(fields, DefaultConfidenceThreshold)
	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paragraphs))
	}
	if !strings.HasPrefix(paragraphs[0].Text, "second") {
		t.Fatalf("expected discovery order, got first paragraph %q", paragraphs[0].Text)
	}
}

func TestAnalyzeEpsFloorsAtZeroFontSize(t *testing.T) {
	// Degenerate zero-height boxes force fs=0; the paragraph eps floors at
	// 15 and the line eps at 2.
	flat := func(text string, x float64) domain.RawField {
		return domain.RawField{
			Text: text,
			Vertices: [4]domain.Vertex{
				{X: x, Y: 0}, {X: x, Y: 0}, {X: x, Y: 0}, {X: x, Y: 0},
			},
		}
	}
	fields := []domain.RawField{
		flat("a", 0),
		flat("b", 10),
		flat("far", 100),
	}

	paragraphs := Analyze(fields, DefaultConfidenceThreshold)
	if len(paragraphs) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paragraphs))
	}
	if got := paragraphs[0].Text; got != "a b" {
		t.Fatalf("unexpected paragraph under eps floor: %q", got)
	}
}

func TestDBSCANLabels(t *testing.T) {
	points := []point{
		{x: 0, y: 0},
		{x: 1, y: 0},
		{x: 2, y: 0},
		{x: 100, y: 100},
	}
	labels := dbscan(points, 1.5, 2)

	for i := 0; i < 3; i++ {
		if labels[i] != 0 {
			t.Fatalf("point %d: expected cluster 0, got %d", i, labels[i])
		}
	}
	if labels[3] != labelNoise {
		t.Fatalf("expected outlier to be noise, got %d", labels[3])
	}
}

func TestDBSCANMinPtsOneNeverProducesNoise(t *testing.T) {
	points := []point{{y: 0}, {y: 100}, {y: 101}}
	labels := dbscan(points, 2, 1)

	if labels[0] != 0 {
		t.Fatalf("expected singleton cluster 0, got %d", labels[0])
	}
	if labels[1] != 1 || labels[2] != 1 {
		t.Fatalf("expected shared cluster 1, got %d and %d", labels[1], labels[2])
	}
}
