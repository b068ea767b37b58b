package usecase

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"

	"github.com/storybook-labs/readalong/internal/core/domain"
	"github.com/storybook-labs/readalong/internal/core/ports"
)

// SynthesizePageAudioUseCase is the detached audio phase. It runs on the
// worker, consuming jobs the ingest side published, and fills in the audio
// clips for every region of a page.
type SynthesizePageAudioUseCase struct {
	sessions ports.SessionRepository
	pages    ports.PageRepository
	speech   ports.SpeechSynthesizer
	logger   *slog.Logger
}

func NewSynthesizePageAudioUseCase(
	sessions ports.SessionRepository,
	pages ports.PageRepository,
	speech ports.SpeechSynthesizer,
	logger *slog.Logger,
) *SynthesizePageAudioUseCase {
	return &SynthesizePageAudioUseCase{
		sessions: sessions,
		pages:    pages,
		speech:   speech,
		logger:   logger,
	}
}

// ProcessPage synthesizes audio for every region of the page. Regions go one
// at a time so a partially finished page is visible region by region;
// sentences within a region run in parallel. A page or session removed by a
// discard in the meantime is not an error, the job just ends.
func (uc *SynthesizePageAudioUseCase) ProcessPage(ctx context.Context, job domain.AudioJob) error {
	page, err := uc.pages.GetPageByID(ctx, job.PageID)
	if err != nil {
		if domain.IsKind(err, domain.ErrPageNotFound) {
			uc.logger.Info("audio job dropped, page gone", "page_id", job.PageID)
			return nil
		}
		return err
	}
	if page.IsFrontPage {
		// Title audio is made during ingest.
		return nil
	}

	session, err := uc.sessions.GetByID(ctx, page.SessionID)
	if err != nil {
		if domain.IsKind(err, domain.ErrSessionNotFound) {
			uc.logger.Info("audio job dropped, session gone", "session_id", page.SessionID)
			return nil
		}
		return err
	}
	voice := session.EffectiveVoice()

	regions, err := uc.pages.ListRegions(ctx, page.ID)
	if err != nil {
		return err
	}

	for _, region := range regions {
		clips := uc.synthesizeRegion(ctx, voice, region)
		if err := uc.pages.SetRegionAudio(ctx, region.ID, clips); err != nil {
			if domain.IsKind(err, domain.ErrRegionNotFound) {
				uc.logger.Info("audio write dropped, region gone", "region_id", region.ID)
				continue
			}
			return err
		}
	}

	if err := uc.pages.MarkAudioReady(ctx, page.ID); err != nil {
		if domain.IsKind(err, domain.ErrPageNotFound) {
			return nil
		}
		return err
	}

	uc.logger.Info("page audio ready",
		"session_id", page.SessionID,
		"page_index", page.Index,
		"regions", len(regions),
		"voice", string(voice),
	)
	return nil
}

// synthesizeRegion voices each sentence direction concurrently. Failed
// sentences are logged and skipped; the surviving clips keep sentence order.
func (uc *SynthesizePageAudioUseCase) synthesizeRegion(ctx context.Context, voice domain.VoicePreference, region domain.TextRegion) []string {
	if len(region.Directions) == 0 {
		return nil
	}

	clips := make([]string, len(region.Directions))
	var wg sync.WaitGroup
	for i, direction := range region.Directions {
		i, direction := i, direction
		wg.Add(1)
		go func() {
			defer wg.Done()
			audio, err := uc.speech.Synthesize(ctx, voice, direction.Translation, buildStyleInstructions(direction))
			if err != nil {
				uc.logger.Warn("sentence synthesis failed",
					"region_id", region.ID,
					"sentence_index", i,
					"error", err,
				)
				return
			}
			clips[i] = base64.StdEncoding.EncodeToString(audio)
		}()
	}
	wg.Wait()

	out := make([]string, 0, len(clips))
	for _, clip := range clips {
		if clip != "" {
			out = append(out, clip)
		}
	}
	return out
}
