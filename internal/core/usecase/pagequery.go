package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/storybook-labs/readalong/internal/core/domain"
	"github.com/storybook-labs/readalong/internal/core/ports"
)

// PageQueryUseCase answers status and content reads for processed pages.
type PageQueryUseCase struct {
	pages  ports.PageRepository
	images ports.ImageStore
}

func NewPageQueryUseCase(pages ports.PageRepository, images ports.ImageStore) *PageQueryUseCase {
	return &PageQueryUseCase{pages: pages, images: images}
}

// CheckOCR reports text-extraction progress. Pages are persisted only after
// recognition and translation finish, so a page that exists is always ready.
func (uc *PageQueryUseCase) CheckOCR(ctx context.Context, sessionID string, pageIndex int) (*domain.PageProgress, error) {
	page, err := uc.pages.GetPageByIndex(ctx, sessionID, pageIndex)
	if err != nil {
		return nil, err
	}
	processedAt := page.ProcessedAt
	return &domain.PageProgress{
		Status:      domain.PageStatusReady,
		Progress:    100,
		SubmittedAt: page.SubmittedAt,
		ProcessedAt: &processedAt,
	}, nil
}

// CheckTTS reports audio progress as the share of regions whose clip list is
// complete, floored to a whole percent.
func (uc *PageQueryUseCase) CheckTTS(ctx context.Context, sessionID string, pageIndex int) (*domain.PageProgress, error) {
	page, err := uc.pages.GetPageByIndex(ctx, sessionID, pageIndex)
	if err != nil {
		return nil, err
	}
	regions, err := uc.pages.ListRegions(ctx, page.ID)
	if err != nil {
		return nil, err
	}

	progress := &domain.PageProgress{
		SubmittedAt: page.SubmittedAt,
		ProcessedAt: page.AudioReadyAt,
	}
	if len(regions) == 0 {
		progress.Status = domain.PageStatusReady
		progress.Progress = 100
		return progress, nil
	}

	complete := 0
	for i := range regions {
		if regions[i].AudioComplete(page.IsFrontPage) {
			complete++
		}
	}
	progress.Progress = complete * 100 / len(regions)
	if complete == len(regions) {
		progress.Status = domain.PageStatusReady
	} else {
		progress.Status = domain.PageStatusProcessing
	}
	return progress, nil
}

func (uc *PageQueryUseCase) GetImage(ctx context.Context, sessionID string, pageIndex int) ([]byte, error) {
	page, err := uc.pages.GetPageByIndex(ctx, sessionID, pageIndex)
	if err != nil {
		return nil, err
	}
	rc, err := uc.images.Open(ctx, page.ImageRef)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPageNotFound, "get page image", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read page image: %w", err)
	}
	return data, nil
}

func (uc *PageQueryUseCase) GetOCR(ctx context.Context, sessionID string, pageIndex int) ([]domain.TextRegion, error) {
	page, err := uc.pages.GetPageByIndex(ctx, sessionID, pageIndex)
	if err != nil {
		return nil, err
	}
	return uc.pages.ListRegions(ctx, page.ID)
}

// GetTTS returns the audio of every region that already has clips. Regions
// still waiting on synthesis are simply absent from the answer.
func (uc *PageQueryUseCase) GetTTS(ctx context.Context, sessionID string, pageIndex int) ([]domain.RegionAudio, error) {
	page, err := uc.pages.GetPageByIndex(ctx, sessionID, pageIndex)
	if err != nil {
		return nil, err
	}
	regions, err := uc.pages.ListRegions(ctx, page.ID)
	if err != nil {
		return nil, err
	}

	audio := make([]domain.RegionAudio, 0, len(regions))
	for _, region := range regions {
		if len(region.AudioClips) == 0 {
			continue
		}
		audio = append(audio, domain.RegionAudio{
			BBoxIndex:  region.Index,
			AudioClips: region.AudioClips,
		})
	}
	return audio, nil
}
