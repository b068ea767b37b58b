package usecase

import (
	"fmt"
	"strings"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

const (
	affectDirective = "[Affect: a gentle, curious narrator guiding a child through a friendly storybook adventure.]"

	pronunciationDirective = "[Pronunciation: clear, unhurried storytelling diction; every word easy for a young listener to follow.]"

	// Front pages carry the book title; both title voices read with the
	// same opening delivery.
	titleInstructions = affectDirective + " " + pronunciationDirective +
		" [Tone: warm] [Emotion: inviting] [Pacing: slow and ceremonial, like opening a new book]"
)

// buildStyleInstructions renders the per-sentence delivery directive handed
// to the speech engine alongside the translated sentence.
func buildStyleInstructions(d domain.SentenceDirection) string {
	return fmt.Sprintf("%s %s [Tone: %s] [Emotion: %s] [Pacing: %s]",
		affectDirective, pronunciationDirective, d.Tone, d.Emotion, d.Pacing)
}

// buildContextBlock frames sentence i with its neighbours so the translator
// can resolve pronouns and keep register consistent across a paragraph.
func buildContextBlock(sentences []string, i int) string {
	var b strings.Builder
	if i > 0 {
		fmt.Fprintf(&b, "[PREVIOUS]: %s\n", sentences[i-1])
	}
	fmt.Fprintf(&b, "[CURRENT]: %s", sentences[i])
	if i < len(sentences)-1 {
		fmt.Fprintf(&b, "\n[NEXT]: %s", sentences[i+1])
	}
	return b.String()
}
