package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storybook-labs/readalong/internal/core/domain"
	"github.com/storybook-labs/readalong/internal/core/ports"
)

// SessionUseCase owns the reading-session lifecycle.
type SessionUseCase struct {
	sessions ports.SessionRepository
	images   ports.ImageStore
	logger   *slog.Logger
}

func NewSessionUseCase(sessions ports.SessionRepository, images ports.ImageStore, logger *slog.Logger) *SessionUseCase {
	return &SessionUseCase{sessions: sessions, images: images, logger: logger}
}

func (uc *SessionUseCase) Start(ctx context.Context, targetLang string, voice domain.VoicePreference) (*domain.Session, error) {
	if targetLang == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start session", errors.New("target_lang is required"))
	}
	if voice != "" && !voice.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start session",
			fmt.Errorf("unknown voice %q", voice))
	}

	session := &domain.Session{
		ID:         uuid.NewString(),
		TargetLang: targetLang,
		Voice:      voice,
		IsOngoing:  true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	uc.logger.Info("session started", "session_id", session.ID, "target_lang", targetLang)
	return session, nil
}

func (uc *SessionUseCase) End(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "end session", errors.New("session_id is required"))
	}
	return uc.sessions.End(ctx, sessionID)
}

func (uc *SessionUseCase) SetVoice(ctx context.Context, sessionID string, voice domain.VoicePreference) error {
	if sessionID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "set voice", errors.New("session_id is required"))
	}
	if !voice.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "set voice", fmt.Errorf("unknown voice %q", voice))
	}
	return uc.sessions.SetVoicePreference(ctx, sessionID, voice)
}

// Discard removes the session with all its pages and regions, then deletes
// the stored page images. Image deletion failures are logged, not returned,
// because the database state is already gone.
func (uc *SessionUseCase) Discard(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "discard session", errors.New("session_id is required"))
	}

	refs, err := uc.sessions.DeleteCascade(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if err := uc.images.Delete(ctx, ref); err != nil {
			uc.logger.Warn("image cleanup failed", "image_ref", ref, "error", err)
		}
	}

	uc.logger.Info("session discarded", "session_id", sessionID, "images_removed", len(refs))
	return nil
}
