package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (id, target_lang, voice, total_pages, is_ongoing, created_at, ended_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		session.ID, session.TargetLang, string(session.Voice), session.TotalPages,
		session.IsOngoing, session.CreatedAt, session.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, target_lang, voice, total_pages, is_ongoing, created_at, ended_at
FROM sessions
WHERE id = $1
`, id)

	var session domain.Session
	var voice string
	err := row.Scan(
		&session.ID, &session.TargetLang, &voice, &session.TotalPages,
		&session.IsOngoing, &session.CreatedAt, &session.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", err)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.Voice = domain.VoicePreference(voice)
	return &session, nil
}

func (r *SessionRepository) SetVoicePreference(ctx context.Context, id string, voice domain.VoicePreference) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE sessions SET voice = $2 WHERE id = $1
`, id, string(voice))
	if err != nil {
		return fmt.Errorf("set voice preference: %w", err)
	}
	return requireRow(res, domain.ErrSessionNotFound, "set voice preference")
}

func (r *SessionRepository) End(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE sessions SET is_ongoing = FALSE, ended_at = $2 WHERE id = $1
`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return requireRow(res, domain.ErrSessionNotFound, "end session")
}

func (r *SessionRepository) IncrementTotalPages(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE sessions SET total_pages = total_pages + 1 WHERE id = $1
`, id)
	if err != nil {
		return fmt.Errorf("increment total pages: %w", err)
	}
	return requireRow(res, domain.ErrSessionNotFound, "increment total pages")
}

// DeleteCascade removes the session and everything under it. Pages and
// regions go via ON DELETE CASCADE; the returned image refs are the caller's
// to clean up.
func (r *SessionRepository) DeleteCascade(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin discard tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `SELECT image_ref FROM pages WHERE session_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list session image refs: %w", err)
	}
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan image ref: %w", err)
		}
		refs = append(refs, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image refs: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	if err := requireRow(res, domain.ErrSessionNotFound, "delete session"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit discard tx: %w", err)
	}
	return refs, nil
}

func requireRow(res sql.Result, kind error, operation string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(kind, operation, sql.ErrNoRows)
	}
	return nil
}
