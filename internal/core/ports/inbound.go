package ports

import (
	"context"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

// PageIngestor is the inbound contract for the synchronous half of page
// processing: OCR, layout analysis and translation.
type PageIngestor interface {
	Ingest(ctx context.Context, sessionID, lang string, image []byte, frontPage bool) (*domain.PageReceipt, error)
}

// PageAudioProcessor is the inbound contract for the detached audio phase.
type PageAudioProcessor interface {
	ProcessPage(ctx context.Context, job domain.AudioJob) error
}

// PageReader answers status and content queries for processed pages.
type PageReader interface {
	CheckOCR(ctx context.Context, sessionID string, pageIndex int) (*domain.PageProgress, error)
	CheckTTS(ctx context.Context, sessionID string, pageIndex int) (*domain.PageProgress, error)
	GetImage(ctx context.Context, sessionID string, pageIndex int) ([]byte, error)
	GetOCR(ctx context.Context, sessionID string, pageIndex int) ([]domain.TextRegion, error)
	GetTTS(ctx context.Context, sessionID string, pageIndex int) ([]domain.RegionAudio, error)
}

// SessionManager is the inbound contract for the session surface.
type SessionManager interface {
	Start(ctx context.Context, targetLang string, voice domain.VoicePreference) (*domain.Session, error)
	End(ctx context.Context, sessionID string) error
	SetVoice(ctx context.Context, sessionID string, voice domain.VoicePreference) error
	Discard(ctx context.Context, sessionID string) error
}
