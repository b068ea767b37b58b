package domain

import (
	"math"
	"strings"
	"time"
)

type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RawField is a single word-level OCR result before layout analysis.
// Confidence is nil when the OCR engine did not report one.
type RawField struct {
	Text       string    `json:"text"`
	Vertices   [4]Vertex `json:"vertices"`
	Confidence *float64  `json:"confidence,omitempty"`
}

// BoundingBox is the quadrilateral enclosing a paragraph, corners ordered
// (xmin,ymin) (xmax,ymin) (xmax,ymax) (xmin,ymax).
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
	X3 float64 `json:"x3"`
	Y3 float64 `json:"y3"`
	X4 float64 `json:"x4"`
	Y4 float64 `json:"y4"`
}

func (b BoundingBox) Area() float64 {
	return math.Abs(b.X3-b.X1) * math.Abs(b.Y3-b.Y1)
}

// Paragraph is one block of recognized text. Lines are joined by newlines,
// tokens within a line by single spaces.
type Paragraph struct {
	Text string      `json:"text"`
	BBox BoundingBox `json:"bbox"`
}

type Page struct {
	ID           string      `json:"id"`
	SessionID    string      `json:"session_id"`
	Index        int         `json:"page_index"`
	ImageRef     string      `json:"image_ref"`
	Layout       []Paragraph `json:"layout"`
	IsFrontPage  bool        `json:"is_front_page"`
	SubmittedAt  time.Time   `json:"submitted_at"`
	ProcessedAt  time.Time   `json:"processed_at"`
	AudioReadyAt *time.Time  `json:"audio_ready_at,omitempty"`
}

// TextRegion is the persistent form of one paragraph on one page.
// AudioClips holds base64-encoded audio payloads in sentence order; for a
// front page the single region holds exactly [masculine, feminine].
type TextRegion struct {
	ID             string              `json:"id"`
	PageID         string              `json:"page_id"`
	Index          int                 `json:"region_index"`
	OriginalText   string              `json:"original_text"`
	TranslatedText string              `json:"translated_text"`
	Coordinates    BoundingBox         `json:"coordinates"`
	Directions     []SentenceDirection `json:"directions,omitempty"`
	AudioClips     []string            `json:"audio_clips"`
}

// AudioComplete reports whether the region has all the audio it will ever
// get. Front-page regions need both the masculine and the feminine clip.
func (r *TextRegion) AudioComplete(frontPage bool) bool {
	if len(r.AudioClips) == 0 {
		return false
	}
	for _, clip := range r.AudioClips {
		if strings.TrimSpace(clip) == "" {
			return false
		}
	}
	if frontPage {
		return len(r.AudioClips) == 2
	}
	return true
}

// ToneDirection is the delivery style inferred for one sentence.
type ToneDirection struct {
	Tone    string `json:"tone"`
	Emotion string `json:"emotion"`
	Pacing  string `json:"pacing"`
}

// SentenceDirection pairs a source sentence with its translation and the
// delivery style used to voice it.
type SentenceDirection struct {
	Source      string `json:"source"`
	Translation string `json:"translation"`
	Tone        string `json:"tone"`
	Emotion     string `json:"emotion"`
	Pacing      string `json:"pacing"`
}

type PageStatus string

const (
	PageStatusProcessing PageStatus = "processing"
	PageStatusReady      PageStatus = "ready"
)

// PageReceipt is the synchronous response to a page upload. RegionCount is
// for observability only and stays out of the wire shape.
type PageReceipt struct {
	SessionID   string     `json:"session_id"`
	PageIndex   int        `json:"page_index"`
	Status      PageStatus `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`

	// Counters below feed metrics only and stay out of the wire shape.
	RegionCount      int `json:"-"`
	SentenceCount    int `json:"-"`
	DroppedSentences int `json:"-"`
}

// PageProgress is the answer to a status query.
type PageProgress struct {
	Status      PageStatus `json:"status"`
	Progress    int        `json:"progress"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ProcessedAt *time.Time `json:"processed_at"`
}

// RegionAudio is the read model returned for completed regions.
type RegionAudio struct {
	BBoxIndex  int      `json:"bbox_index"`
	AudioClips []string `json:"audio_base64_list"`
}

// AudioJob identifies one page whose regions still need speech synthesis.
type AudioJob struct {
	SessionID   string    `json:"session_id"`
	PageID      string    `json:"page_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}
