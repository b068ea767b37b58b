package openai

import (
	"context"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

// SentimentTagger infers the delivery style of a bare sentence.
type SentimentTagger struct {
	client *Client
}

func NewSentimentTagger(client *Client) *SentimentTagger {
	return &SentimentTagger{client: client}
}

type sentimentResult struct {
	Tone    string `json:"tone"`
	Emotion string `json:"emotion"`
	Pacing  string `json:"pacing"`
}

func (s *SentimentTagger) Direct(ctx context.Context, sentence string) (domain.ToneDirection, error) {
	var result sentimentResult
	err := s.client.chatStructured(ctx, "llm.sentiment", sentimentSystemPrompt, sentence, "sentiment", &result)
	if err != nil {
		return domain.ToneDirection{}, err
	}
	return domain.ToneDirection{
		Tone:    result.Tone,
		Emotion: result.Emotion,
		Pacing:  result.Pacing,
	}, nil
}
