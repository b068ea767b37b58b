// Package openai adapts the OpenAI API to the Translator, SentimentTagger
// and SpeechSynthesizer ports. Structured-output policy, retries and rate
// limiting live here so the pipeline sees one uniform LLM capability.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	cache "github.com/patrickmn/go-cache"
	sdk "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"golang.org/x/time/rate"

	"github.com/storybook-labs/readalong/internal/infrastructure/resilience"
)

const defaultTemperature = 0.7

type Client struct {
	api       *sdk.Client
	chatModel string
	ttsModel  string
	format    sdk.SpeechResponseFormat

	executor *resilience.Executor
	limiter  *rate.Limiter

	translations *cache.Cache
}

type Options struct {
	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string

	ChatModel   string
	TTSModel    string
	AudioFormat string

	RateLimitRPS float64
	RateBurst    int

	Executor *resilience.Executor
}

func New(apiKey string, opts Options) *Client {
	config := sdk.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}

	chatModel := opts.ChatModel
	if chatModel == "" {
		chatModel = sdk.GPT4oMini
	}
	ttsModel := opts.TTSModel
	if ttsModel == "" {
		ttsModel = "gpt-4o-mini-tts"
	}
	format := sdk.SpeechResponseFormat(opts.AudioFormat)
	if format == "" {
		format = sdk.SpeechResponseFormatMp3
	}

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}

	return &Client{
		api:          sdk.NewClientWithConfig(config),
		chatModel:    chatModel,
		ttsModel:     ttsModel,
		format:       format,
		executor:     opts.Executor,
		limiter:      limiter,
		translations: cache.New(30*time.Minute, 10*time.Minute),
	}
}

// chatStructured performs one structured completion and decodes the typed
// result into out. The schema is derived from out's type.
func (c *Client) chatStructured(ctx context.Context, operation, system, user, schemaName string, out any) error {
	schema, err := jsonschema.GenerateSchemaForType(out)
	if err != nil {
		return fmt.Errorf("generate %s schema: %w", schemaName, err)
	}

	call := func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		start := time.Now()
		resp, err := c.api.CreateChatCompletion(ctx, sdk.ChatCompletionRequest{
			Model:       c.chatModel,
			Temperature: defaultTemperature,
			Messages: []sdk.ChatCompletionMessage{
				{Role: sdk.ChatMessageRoleSystem, Content: system},
				{Role: sdk.ChatMessageRoleUser, Content: user},
			},
			ResponseFormat: &sdk.ChatCompletionResponseFormat{
				Type: sdk.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &sdk.ChatCompletionResponseFormatJSONSchema{
					Name:   schemaName,
					Schema: schema,
					Strict: true,
				},
			},
		})
		slog.Debug("llm_call",
			"operation", operation,
			"latency_ms", float64(time.Since(start).Microseconds())/1000.0,
			"failed", err != nil,
		)
		if err != nil {
			return fmt.Errorf("openai %s: %w", operation, err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("openai %s: empty choices", operation)
		}
		if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
			return fmt.Errorf("parse %s response: %w", operation, err)
		}
		return nil
	}

	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, call(ctx))
	}
	return wrapTemporaryIfNeeded(operation, c.executor.Execute(ctx, operation, call, classifyOpenAIError))
}
