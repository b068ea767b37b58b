package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/storybook-labs/readalong/internal/core/domain"
	"github.com/storybook-labs/readalong/internal/core/ports"
)

// StoryNarrator turns one paragraph of recognized text into per-sentence
// directions: translation plus the tone, emotion and pacing the speech
// engine will be asked to perform.
type StoryNarrator struct {
	splitter  ports.SentenceSplitter
	translate ports.Translator
	sentiment ports.SentimentTagger
	masker    ports.ProfanityMasker
	logger    *slog.Logger
}

func NewStoryNarrator(
	splitter ports.SentenceSplitter,
	translate ports.Translator,
	sentiment ports.SentimentTagger,
	masker ports.ProfanityMasker,
	logger *slog.Logger,
) *StoryNarrator {
	return &StoryNarrator{
		splitter:  splitter,
		translate: translate,
		sentiment: sentiment,
		masker:    masker,
		logger:    logger,
	}
}

// Narrate processes every sentence of the paragraph concurrently. A sentence
// whose translation or sentiment call ultimately fails is dropped rather than
// failing the page; the survivors keep their original order. The second
// return value is the number of sentences dropped along the way.
func (n *StoryNarrator) Narrate(ctx context.Context, paragraph, targetLang string) ([]domain.SentenceDirection, int, error) {
	sentences := n.splitter.Split(paragraph)
	if len(sentences) == 0 {
		return nil, 0, nil
	}

	results := make([]*domain.SentenceDirection, len(sentences))
	var wg sync.WaitGroup
	for i := range sentences {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = n.narrateSentence(ctx, sentences, i, targetLang)
		}()
	}
	wg.Wait()

	directions := make([]domain.SentenceDirection, 0, len(sentences))
	for _, r := range results {
		if r != nil {
			directions = append(directions, *r)
		}
	}
	return directions, len(sentences) - len(directions), nil
}

// narrateSentence runs the translation and sentiment calls for one sentence
// in parallel. Both must succeed for the sentence to be usable.
func (n *StoryNarrator) narrateSentence(ctx context.Context, sentences []string, i int, targetLang string) *domain.SentenceDirection {
	var (
		translated           string
		direction            domain.ToneDirection
		translateErr, tagErr error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		translated, translateErr = n.translate.Translate(ctx, buildContextBlock(sentences, i), targetLang)
	}()
	go func() {
		defer wg.Done()
		direction, tagErr = n.sentiment.Direct(ctx, sentences[i])
	}()
	wg.Wait()

	if translateErr != nil || tagErr != nil {
		n.logger.Warn("sentence dropped",
			"sentence_index", i,
			"translate_error", translateErr,
			"sentiment_error", tagErr,
		)
		return nil
	}

	translated = strings.TrimSpace(translated)
	if translated == "" {
		n.logger.Warn("sentence dropped", "sentence_index", i, "reason", "empty translation")
		return nil
	}
	if n.masker != nil {
		translated = n.masker.Mask(translated)
	}

	return &domain.SentenceDirection{
		Source:      sentences[i],
		Translation: translated,
		Tone:        direction.Tone,
		Emotion:     direction.Emotion,
		Pacing:      direction.Pacing,
	}
}
