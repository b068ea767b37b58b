package domain

import "time"

type VoicePreference string

const (
	VoiceShimmer VoicePreference = "shimmer"
	VoiceEcho    VoicePreference = "echo"
	VoiceVerse   VoicePreference = "verse"
	VoiceAlloy   VoicePreference = "alloy"
	VoiceNova    VoicePreference = "nova"
)

// DefaultVoice is used when a session carries no explicit preference.
const DefaultVoice = VoiceShimmer

func (v VoicePreference) Valid() bool {
	switch v {
	case VoiceShimmer, VoiceEcho, VoiceVerse, VoiceAlloy, VoiceNova:
		return true
	default:
		return false
	}
}

// Session is one reading session of a single book.
type Session struct {
	ID         string          `json:"id"`
	TargetLang string          `json:"target_lang"`
	Voice      VoicePreference `json:"voice,omitempty"`
	TotalPages int             `json:"total_pages"`
	IsOngoing  bool            `json:"is_ongoing"`
	CreatedAt  time.Time       `json:"created_at"`
	EndedAt    *time.Time      `json:"ended_at,omitempty"`
}

// EffectiveVoice resolves the narration voice for non-front pages.
func (s *Session) EffectiveVoice() VoicePreference {
	if s.Voice.Valid() {
		return s.Voice
	}
	return DefaultVoice
}
