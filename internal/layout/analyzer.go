// Package layout turns the flat word-box stream of an OCR engine into
// paragraph- and line-structured text using two-scale density clustering:
// paragraphs are separated by whitespace proportional to glyph height, lines
// within a paragraph by roughly one glyph height.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

// DefaultConfidenceThreshold drops OCR fields at or below this confidence.
const DefaultConfidenceThreshold = 0.8

const (
	paragraphEpsScale = 6.0
	paragraphEpsFloor = 15.0
	paragraphMinPts   = 2

	lineEpsScale = 0.5
	lineEpsFloor = 2.0
	lineMinPts   = 1
)

type token struct {
	text string
	x, y float64
}

// Analyze converts raw OCR fields into reading-ordered paragraphs. The
// result is empty when no field survives the confidence filter or every
// token is labeled noise by the paragraph pass.
func Analyze(fields []domain.RawField, confThreshold float64) []domain.Paragraph {
	kept := filterByConfidence(fields, confThreshold)
	if len(kept) == 0 {
		return nil
	}

	fs := meanFontSize(kept)
	tokens := reduceTokens(kept)

	points := make([]point, len(tokens))
	for i, tk := range tokens {
		points[i] = point{x: tk.x, y: tk.y}
	}
	eps := math.Max(fs*paragraphEpsScale, paragraphEpsFloor)
	labels := dbscan(points, eps, paragraphMinPts)

	clusters := groupByLabel(tokens, labels)
	paragraphs := make([]domain.Paragraph, 0, len(clusters))
	for _, cluster := range clusters {
		paragraphs = append(paragraphs, buildParagraph(cluster, fs))
	}
	return paragraphs
}

// filterByConfidence keeps fields whose confidence is strictly above the
// threshold. Fields without a reported confidence are kept regardless.
func filterByConfidence(fields []domain.RawField, threshold float64) []domain.RawField {
	kept := make([]domain.RawField, 0, len(fields))
	for _, f := range fields {
		if f.Confidence != nil && *f.Confidence <= threshold {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// meanFontSize estimates glyph height as the mean vertical extent of the
// field polygons.
func meanFontSize(fields []domain.RawField) float64 {
	if len(fields) == 0 {
		return 0
	}
	var sum float64
	for _, f := range fields {
		minY, maxY := f.Vertices[0].Y, f.Vertices[0].Y
		for _, v := range f.Vertices[1:] {
			minY = math.Min(minY, v.Y)
			maxY = math.Max(maxY, v.Y)
		}
		sum += maxY - minY
	}
	return sum / float64(len(fields))
}

// reduceTokens collapses each field polygon to its centroid.
func reduceTokens(fields []domain.RawField) []token {
	tokens := make([]token, len(fields))
	for i, f := range fields {
		var sx, sy float64
		for _, v := range f.Vertices {
			sx += v.X
			sy += v.Y
		}
		tokens[i] = token{
			text: f.Text,
			x:    sx / float64(len(f.Vertices)),
			y:    sy / float64(len(f.Vertices)),
		}
	}
	return tokens
}

// groupByLabel buckets tokens per cluster label, noise discarded, buckets
// ordered by label value.
func groupByLabel(tokens []token, labels []int) [][]token {
	maxLabel := -1
	for _, label := range labels {
		if label > maxLabel {
			maxLabel = label
		}
	}
	groups := make([][]token, maxLabel+1)
	for i, label := range labels {
		if label == labelNoise {
			continue
		}
		groups[label] = append(groups[label], tokens[i])
	}
	return groups
}

// buildParagraph orders a token cluster into lines and computes the
// enclosing bounding quadrilateral.
func buildParagraph(tokens []token, fs float64) domain.Paragraph {
	eps := math.Max(fs*lineEpsScale, lineEpsFloor)
	points := make([]point, len(tokens))
	for i, tk := range tokens {
		points[i] = point{y: tk.y}
	}
	labels := dbscan(points, eps, lineMinPts)
	lines := groupByLabel(tokens, labels)

	sort.SliceStable(lines, func(i, j int) bool {
		return meanY(lines[i]) < meanY(lines[j])
	})

	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].x < line[j].x })
		words := make([]string, len(line))
		for i, tk := range line {
			words[i] = tk.text
		}
		rendered = append(rendered, strings.Join(words, " "))
	}

	return domain.Paragraph{
		Text: strings.Join(rendered, "\n"),
		BBox: enclosingBox(tokens),
	}
}

func meanY(tokens []token) float64 {
	var sum float64
	for _, tk := range tokens {
		sum += tk.y
	}
	return sum / float64(len(tokens))
}

func enclosingBox(tokens []token) domain.BoundingBox {
	minX, maxX := tokens[0].x, tokens[0].x
	minY, maxY := tokens[0].y, tokens[0].y
	for _, tk := range tokens[1:] {
		minX = math.Min(minX, tk.x)
		maxX = math.Max(maxX, tk.x)
		minY = math.Min(minY, tk.y)
		maxY = math.Max(maxY, tk.y)
	}
	return domain.BoundingBox{
		X1: minX, Y1: minY,
		X2: maxX, Y2: minY,
		X3: maxX, Y3: maxY,
		X4: minX, Y4: maxY,
	}
}
