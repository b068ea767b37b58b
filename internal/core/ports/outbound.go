package ports

import (
	"context"
	"io"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

// OCRClient wraps the remote OCR engine.
type OCRClient interface {
	Recognize(ctx context.Context, image []byte, name string) ([]domain.RawField, error)
}

// Translator produces a single translated sentence from a context block.
type Translator interface {
	Translate(ctx context.Context, contextBlock, targetLang string) (string, error)
}

// SentimentTagger infers tone, emotion and pacing for a bare sentence.
type SentimentTagger interface {
	Direct(ctx context.Context, sentence string) (domain.ToneDirection, error)
}

// SpeechSynthesizer turns text plus style instructions into audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, voice domain.VoicePreference, text, instructions string) ([]byte, error)
}

// ProfanityMasker censors banned words in text bound for synthesis.
type ProfanityMasker interface {
	Mask(text string) string
}

// SentenceSplitter segments a paragraph into sentences.
type SentenceSplitter interface {
	Split(text string) []string
}

// SessionRepository persists reading sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	SetVoicePreference(ctx context.Context, id string, voice domain.VoicePreference) error
	End(ctx context.Context, id string) error
	IncrementTotalPages(ctx context.Context, id string) error
	// DeleteCascade removes the session with its pages and regions and
	// returns the image refs the caller still has to delete.
	DeleteCascade(ctx context.Context, id string) ([]string, error)
}

// PageRepository persists pages and their text regions.
type PageRepository interface {
	// CreatePageWithRegions allocates page.Index inside the transaction and
	// inserts the page together with its regions, order preserved.
	CreatePageWithRegions(ctx context.Context, page *domain.Page, regions []domain.TextRegion) error
	GetPageByIndex(ctx context.Context, sessionID string, index int) (*domain.Page, error)
	GetPageByID(ctx context.Context, pageID string) (*domain.Page, error)
	ListRegions(ctx context.Context, pageID string) ([]domain.TextRegion, error)
	// SetRegionAudio atomically replaces the region's clip list.
	SetRegionAudio(ctx context.Context, regionID string, clips []string) error
	MarkAudioReady(ctx context.Context, pageID string) error
}

// ImageStore stores raw page images by opaque ref.
type ImageStore interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// AudioJobQueue hands pages to the speech synthesis workers.
type AudioJobQueue interface {
	PublishPageAudio(ctx context.Context, job domain.AudioJob) error
	SubscribePageAudio(ctx context.Context, handler func(context.Context, domain.AudioJob) error) error
}
