package openai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

// Synthesizer turns one sentence plus style instructions into audio bytes.
type Synthesizer struct {
	client *Client
}

func NewSynthesizer(client *Client) *Synthesizer {
	return &Synthesizer{client: client}
}

func (s *Synthesizer) Synthesize(ctx context.Context, voice domain.VoicePreference, text, instructions string) ([]byte, error) {
	var audio []byte
	call := func(ctx context.Context) error {
		if s.client.limiter != nil {
			if err := s.client.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		start := time.Now()
		resp, err := s.client.api.CreateSpeech(ctx, sdk.CreateSpeechRequest{
			Model:          sdk.SpeechModel(s.client.ttsModel),
			Input:          text,
			Voice:          sdk.SpeechVoice(voice),
			Instructions:   instructions,
			ResponseFormat: s.client.format,
		})
		slog.Debug("tts_call",
			"voice", string(voice),
			"latency_ms", float64(time.Since(start).Microseconds())/1000.0,
			"failed", err != nil,
		)
		if err != nil {
			return fmt.Errorf("openai synthesize: %w", err)
		}
		defer resp.Close()

		audio, err = io.ReadAll(resp)
		if err != nil {
			return fmt.Errorf("read synthesize audio: %w", err)
		}
		return nil
	}

	var err error
	if s.client.executor == nil {
		err = call(ctx)
	} else {
		err = s.client.executor.Execute(ctx, "tts.synthesize", call, classifyOpenAIError)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("tts synthesize", err)
	}
	return audio, nil
}
