// Package bootstrap wires configuration, infrastructure and use cases into
// a ready application for the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/storybook-labs/readalong/internal/config"
	"github.com/storybook-labs/readalong/internal/core/ports"
	"github.com/storybook-labs/readalong/internal/core/usecase"
	"github.com/storybook-labs/readalong/internal/infrastructure/llm/openai"
	"github.com/storybook-labs/readalong/internal/infrastructure/ocr"
	"github.com/storybook-labs/readalong/internal/infrastructure/profanity"
	natsqueue "github.com/storybook-labs/readalong/internal/infrastructure/queue/nats"
	"github.com/storybook-labs/readalong/internal/infrastructure/repository/postgres"
	"github.com/storybook-labs/readalong/internal/infrastructure/resilience"
	"github.com/storybook-labs/readalong/internal/infrastructure/splitter"
	"github.com/storybook-labs/readalong/internal/infrastructure/storage/localfs"
)

// The AI ports retry a fixed three times with an even pause; the OCR client
// keeps the default exponential policy.
const (
	aiRetryAttempts = 3
	aiRetryPause    = 700 * time.Millisecond
)

type App struct {
	Config config.Config

	Queue ports.AudioJobQueue

	IngestUC    ports.PageIngestor
	SynthesisUC ports.PageAudioProcessor
	QueryUC     ports.PageReader
	SessionUC   ports.SessionManager

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	sessionRepo := postgres.NewSessionRepository(db)
	pageRepo := postgres.NewPageRepository(db)

	images, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init image storage: %w", err)
	}

	queue, err := natsqueue.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init audio job queue: %w", err)
	}

	aiExecutor := resilience.NewExecutor(resilience.FixedPauseConfig(aiRetryAttempts, aiRetryPause))
	ocrExecutor := resilience.NewExecutor(resilience.DefaultConfig())

	ocrClient := ocr.New(cfg.OCRAPIURL, cfg.OCRSecret, ocrExecutor)

	llmClient := openai.New(cfg.OpenAIAPIKey, openai.Options{
		ChatModel:    cfg.ChatModel,
		TTSModel:     cfg.TTSModel,
		AudioFormat:  cfg.AudioFormat,
		RateLimitRPS: cfg.LLMRateLimitRPS,
		RateBurst:    cfg.LLMRateBurst,
		Executor:     aiExecutor,
	})
	translator := openai.NewTranslator(llmClient)
	sentiment := openai.NewSentimentTagger(llmClient)
	speech := openai.NewSynthesizer(llmClient)

	masker, err := profanity.Load(cfg.ProfanityListPath)
	if err != nil {
		return nil, fmt.Errorf("load profanity list: %w", err)
	}

	narrator := usecase.NewStoryNarrator(splitter.New(), translator, sentiment, masker, logger)

	ingestUC := usecase.NewIngestPageUseCase(
		sessionRepo, pageRepo, images, ocrClient, narrator, speech, queue,
		cfg.ConfidenceThreshold, logger,
	)
	synthesisUC := usecase.NewSynthesizePageAudioUseCase(sessionRepo, pageRepo, speech, logger)
	queryUC := usecase.NewPageQueryUseCase(pageRepo, images)
	sessionUC := usecase.NewSessionUseCase(sessionRepo, images, logger)

	return &App{
		Config: cfg,
		Queue:  queue,

		IngestUC:    ingestUC,
		SynthesisUC: synthesisUC,
		QueryUC:     queryUC,
		SessionUC:   sessionUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
