package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/storybook-labs/readalong/internal/core/domain"
	"github.com/storybook-labs/readalong/internal/core/ports"
	"github.com/storybook-labs/readalong/internal/layout"
)

// Title voices, masculine first. The stored clip order is part of the
// read-model contract.
var titleVoices = [2]domain.VoicePreference{domain.VoiceEcho, domain.VoiceShimmer}

// IngestPageUseCase runs the synchronous half of page processing: store the
// image, recognize and cluster the text, narrate every paragraph, persist the
// page and hand the audio work to the queue. Front pages are the exception
// and get their title audio before the response goes out.
type IngestPageUseCase struct {
	sessions      ports.SessionRepository
	pages         ports.PageRepository
	images        ports.ImageStore
	ocr           ports.OCRClient
	narrator      *StoryNarrator
	speech        ports.SpeechSynthesizer
	queue         ports.AudioJobQueue
	confThreshold float64
	logger        *slog.Logger
}

func NewIngestPageUseCase(
	sessions ports.SessionRepository,
	pages ports.PageRepository,
	images ports.ImageStore,
	ocr ports.OCRClient,
	narrator *StoryNarrator,
	speech ports.SpeechSynthesizer,
	queue ports.AudioJobQueue,
	confThreshold float64,
	logger *slog.Logger,
) *IngestPageUseCase {
	return &IngestPageUseCase{
		sessions:      sessions,
		pages:         pages,
		images:        images,
		ocr:           ocr,
		narrator:      narrator,
		speech:        speech,
		queue:         queue,
		confThreshold: confThreshold,
		logger:        logger,
	}
}

func (uc *IngestPageUseCase) Ingest(ctx context.Context, sessionID, lang string, image []byte, frontPage bool) (*domain.PageReceipt, error) {
	if sessionID == "" || lang == "" || len(image) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest page",
			errors.New("session_id, lang and image are all required"))
	}
	if _, err := uc.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	submittedAt := time.Now().UTC()

	imageRef := fmt.Sprintf("%s_%s.png", sessionID, uuid.NewString())
	if err := uc.images.Save(ctx, imageRef, bytes.NewReader(image)); err != nil {
		return nil, fmt.Errorf("save page image: %w", err)
	}

	fields, err := uc.ocr.Recognize(ctx, image, imageRef)
	if err != nil {
		return nil, fmt.Errorf("recognize page: %w", err)
	}

	paragraphs := layout.Analyze(fields, uc.confThreshold)
	if len(paragraphs) == 0 {
		if err := uc.images.Delete(ctx, imageRef); err != nil {
			uc.logger.Warn("orphan image cleanup failed", "image_ref", imageRef, "error", err)
		}
		return nil, domain.WrapError(domain.ErrUnprocessableImage, "ingest page",
			errors.New("no readable paragraphs on page"))
	}
	if frontPage {
		// A cover holds one title; the largest block wins.
		paragraphs = []domain.Paragraph{largestParagraph(paragraphs)}
	}

	directions := make([][]domain.SentenceDirection, len(paragraphs))
	droppedCounts := make([]int, len(paragraphs))
	g, gctx := errgroup.WithContext(ctx)
	for i := range paragraphs {
		i := i
		g.Go(func() error {
			dirs, dropped, err := uc.narrator.Narrate(gctx, paragraphs[i].Text, lang)
			if err != nil {
				return err
			}
			directions[i] = dirs
			droppedCounts[i] = dropped
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("narrate page: %w", err)
	}

	narrated, dropped := 0, 0
	for i := range directions {
		narrated += len(directions[i])
		dropped += droppedCounts[i]
	}

	page := &domain.Page{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		ImageRef:    imageRef,
		Layout:      paragraphs,
		IsFrontPage: frontPage,
		SubmittedAt: submittedAt,
		ProcessedAt: time.Now().UTC(),
	}

	regions := make([]domain.TextRegion, len(paragraphs))
	for i, para := range paragraphs {
		regions[i] = domain.TextRegion{
			ID:             uuid.NewString(),
			PageID:         page.ID,
			Index:          i,
			OriginalText:   para.Text,
			TranslatedText: joinTranslations(directions[i]),
			Coordinates:    para.BBox,
			Directions:     directions[i],
		}
	}

	if frontPage {
		regions[0].AudioClips = uc.synthesizeTitle(ctx, regions[0].TranslatedText)
		if regions[0].AudioComplete(true) {
			readyAt := time.Now().UTC()
			page.AudioReadyAt = &readyAt
		}
	}

	if err := uc.pages.CreatePageWithRegions(ctx, page, regions); err != nil {
		return nil, err
	}
	if err := uc.sessions.IncrementTotalPages(ctx, sessionID); err != nil {
		return nil, err
	}

	if !frontPage {
		job := domain.AudioJob{SessionID: sessionID, PageID: page.ID, SubmittedAt: submittedAt}
		if err := uc.queue.PublishPageAudio(ctx, job); err != nil {
			return nil, fmt.Errorf("enqueue audio job: %w", err)
		}
	}

	uc.logger.Info("page ingested",
		"session_id", sessionID,
		"page_index", page.Index,
		"regions", len(regions),
		"front_page", frontPage,
	)

	return &domain.PageReceipt{
		SessionID:        sessionID,
		PageIndex:        page.Index,
		Status:           domain.PageStatusReady,
		SubmittedAt:      submittedAt,
		RegionCount:      len(regions),
		SentenceCount:    narrated,
		DroppedSentences: dropped,
	}, nil
}

// synthesizeTitle voices the title in both title voices. Clip order is
// positional, so a single failed voice discards the whole set; a shorter list
// would put the surviving voice in the wrong slot. The page itself is kept.
func (uc *IngestPageUseCase) synthesizeTitle(ctx context.Context, title string) []string {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	clips := make([]string, 0, len(titleVoices))
	for _, voice := range titleVoices {
		audio, err := uc.speech.Synthesize(ctx, voice, title, titleInstructions)
		if err != nil {
			uc.logger.Warn("title synthesis failed", "voice", string(voice), "error", err)
			return nil
		}
		clips = append(clips, base64.StdEncoding.EncodeToString(audio))
	}
	return clips
}

func largestParagraph(paragraphs []domain.Paragraph) domain.Paragraph {
	best := paragraphs[0]
	for _, p := range paragraphs[1:] {
		if p.BBox.Area() > best.BBox.Area() {
			best = p
		}
	}
	return best
}

func joinTranslations(directions []domain.SentenceDirection) string {
	parts := make([]string, 0, len(directions))
	for _, d := range directions {
		parts = append(parts, d.Translation)
	}
	return strings.Join(parts, " ")
}
