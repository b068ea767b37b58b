package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

type PageRepository struct {
	db *sql.DB
}

func NewPageRepository(db *sql.DB) *PageRepository {
	return &PageRepository{db: db}
}

// CreatePageWithRegions inserts the page and its regions in one
// transaction. The session row is locked so page_index allocation cannot
// race a concurrent upload for the same session; the allocated index is
// written back to page.Index.
func (r *PageRepository) CreatePageWithRegions(ctx context.Context, page *domain.Page, regions []domain.TextRegion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create page tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var sessionID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM sessions WHERE id = $1 FOR UPDATE`, page.SessionID).Scan(&sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WrapError(domain.ErrSessionNotFound, "create page", err)
		}
		return fmt.Errorf("lock session row: %w", err)
	}

	var index int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE session_id = $1`, page.SessionID).Scan(&index); err != nil {
		return fmt.Errorf("count session pages: %w", err)
	}
	page.Index = index

	layoutJSON, err := json.Marshal(page.Layout)
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO pages (id, session_id, page_index, image_ref, layout, is_front_page, submitted_at, processed_at, audio_ready_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		page.ID, page.SessionID, page.Index, page.ImageRef, layoutJSON,
		page.IsFrontPage, page.SubmittedAt, page.ProcessedAt, page.AudioReadyAt,
	)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}

	for i, region := range regions {
		coordsJSON, err := json.Marshal(region.Coordinates)
		if err != nil {
			return fmt.Errorf("marshal region coordinates: %w", err)
		}
		directionsJSON, err := json.Marshal(emptyIfNilDirections(region.Directions))
		if err != nil {
			return fmt.Errorf("marshal region directions: %w", err)
		}
		clipsJSON, err := json.Marshal(emptyIfNil(region.AudioClips))
		if err != nil {
			return fmt.Errorf("marshal region clips: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO text_regions (id, page_id, region_index, original_text, translated_text, coordinates, directions, audio_clips)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
			region.ID, page.ID, i, region.OriginalText, region.TranslatedText,
			coordsJSON, directionsJSON, clipsJSON,
		)
		if err != nil {
			return fmt.Errorf("insert text region %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create page tx: %w", err)
	}
	return nil
}

func (r *PageRepository) GetPageByIndex(ctx context.Context, sessionID string, index int) (*domain.Page, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, session_id, page_index, image_ref, layout, is_front_page, submitted_at, processed_at, audio_ready_at
FROM pages
WHERE session_id = $1 AND page_index = $2
`, sessionID, index)
	return scanPage(row)
}

func (r *PageRepository) GetPageByID(ctx context.Context, pageID string) (*domain.Page, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, session_id, page_index, image_ref, layout, is_front_page, submitted_at, processed_at, audio_ready_at
FROM pages
WHERE id = $1
`, pageID)
	return scanPage(row)
}

func scanPage(row *sql.Row) (*domain.Page, error) {
	var page domain.Page
	var layoutRaw []byte
	err := row.Scan(
		&page.ID, &page.SessionID, &page.Index, &page.ImageRef, &layoutRaw,
		&page.IsFrontPage, &page.SubmittedAt, &page.ProcessedAt, &page.AudioReadyAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrPageNotFound, "get page", err)
		}
		return nil, fmt.Errorf("scan page: %w", err)
	}
	if err := json.Unmarshal(layoutRaw, &page.Layout); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	return &page, nil
}

func (r *PageRepository) ListRegions(ctx context.Context, pageID string) ([]domain.TextRegion, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, page_id, region_index, original_text, translated_text, coordinates, directions, audio_clips
FROM text_regions
WHERE page_id = $1
ORDER BY region_index
`, pageID)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	var regions []domain.TextRegion
	for rows.Next() {
		var region domain.TextRegion
		var coordsRaw, directionsRaw, clipsRaw []byte
		err := rows.Scan(
			&region.ID, &region.PageID, &region.Index, &region.OriginalText,
			&region.TranslatedText, &coordsRaw, &directionsRaw, &clipsRaw,
		)
		if err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		if err := json.Unmarshal(coordsRaw, &region.Coordinates); err != nil {
			return nil, fmt.Errorf("unmarshal region coordinates: %w", err)
		}
		if err := json.Unmarshal(directionsRaw, &region.Directions); err != nil {
			return nil, fmt.Errorf("unmarshal region directions: %w", err)
		}
		if err := json.Unmarshal(clipsRaw, &region.AudioClips); err != nil {
			return nil, fmt.Errorf("unmarshal region clips: %w", err)
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}
	return regions, nil
}

// SetRegionAudio replaces the clip list in one statement, so a status query
// sees either the old list or the full new one. Writing against a region
// removed by a session discard reports ErrRegionNotFound.
func (r *PageRepository) SetRegionAudio(ctx context.Context, regionID string, clips []string) error {
	clipsJSON, err := json.Marshal(emptyIfNil(clips))
	if err != nil {
		return fmt.Errorf("marshal region clips: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE text_regions SET audio_clips = $2 WHERE id = $1
`, regionID, clipsJSON)
	if err != nil {
		return fmt.Errorf("set region audio: %w", err)
	}
	return requireRow(res, domain.ErrRegionNotFound, "set region audio")
}

func (r *PageRepository) MarkAudioReady(ctx context.Context, pageID string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE pages SET audio_ready_at = $2 WHERE id = $1
`, pageID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark audio ready: %w", err)
	}
	return requireRow(res, domain.ErrPageNotFound, "mark audio ready")
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func emptyIfNilDirections(values []domain.SentenceDirection) []domain.SentenceDirection {
	if values == nil {
		return []domain.SentenceDirection{}
	}
	return values
}
