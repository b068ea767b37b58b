package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

// ocrWord builds a 20x10 word box at (x, y), matching what a real OCR
// response looks like after decoding.
func ocrWord(text string, x, y float64) domain.RawField {
	return domain.RawField{
		Text: text,
		Vertices: [4]domain.Vertex{
			{X: x, Y: y},
			{X: x + 20, Y: y},
			{X: x + 20, Y: y + 10},
			{X: x, Y: y + 10},
		},
	}
}

// twoParagraphFields forms a wide four-word paragraph followed by a narrow
// two-word one, far enough apart to cluster separately.
func twoParagraphFields() []domain.RawField {
	return []domain.RawField{
		ocrWord("The", 0, 0),
		ocrWord("cat", 30, 0),
		ocrWord("sat", 0, 20),
		ocrWord("down", 30, 20),
		ocrWord("It", 0, 300),
		ocrWord("slept.", 30, 300),
	}
}

type ingestFixture struct {
	sessions *sessionRepoFake
	pages    *pageRepoFake
	images   *imageStoreFake
	ocr      *ocrFake
	speech   *speechFake
	queue    *queueFake
	uc       *IngestPageUseCase
}

func newIngestFixture(fields []domain.RawField) *ingestFixture {
	f := &ingestFixture{
		sessions: &sessionRepoFake{session: &domain.Session{ID: "s1", TargetLang: "de", IsOngoing: true}},
		pages:    &pageRepoFake{},
		images:   &imageStoreFake{},
		ocr:      &ocrFake{fields: fields},
		speech:   &speechFake{},
		queue:    &queueFake{},
	}
	narrator := NewStoryNarrator(pipeSplitter{}, &translatorFake{}, &sentimentFake{}, nil, testLogger())
	f.uc = NewIngestPageUseCase(
		f.sessions, f.pages, f.images, f.ocr, narrator, f.speech, f.queue,
		0.8, testLogger(),
	)
	return f
}

func TestIngestRejectsMissingInput(t *testing.T) {
	f := newIngestFixture(nil)

	_, err := f.uc.Ingest(context.Background(), "s1", "", []byte("img"), false)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(f.images.saved) != 0 {
		t.Fatal("image stored despite rejected request")
	}
}

func TestIngestUnknownSession(t *testing.T) {
	f := newIngestFixture(nil)
	f.sessions.getErr = domain.WrapError(domain.ErrSessionNotFound, "get session", errors.New("no rows"))

	_, err := f.uc.Ingest(context.Background(), "missing", "de", []byte("img"), false)
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if len(f.images.saved) != 0 {
		t.Fatal("image stored for unknown session")
	}
}

func TestIngestUnprocessableImage(t *testing.T) {
	f := newIngestFixture(nil) // OCR finds nothing

	_, err := f.uc.Ingest(context.Background(), "s1", "de", []byte("img"), false)
	if !domain.IsKind(err, domain.ErrUnprocessableImage) {
		t.Fatalf("expected unprocessable image, got %v", err)
	}
	if f.pages.page != nil {
		t.Fatal("page persisted for unprocessable image")
	}
	if len(f.images.deleted) != 1 {
		t.Fatalf("expected orphan image cleanup, deleted %d", len(f.images.deleted))
	}
	if len(f.queue.published) != 0 {
		t.Fatal("audio job published for unprocessable image")
	}
}

func TestIngestStoryPage(t *testing.T) {
	f := newIngestFixture(twoParagraphFields())

	receipt, err := f.uc.Ingest(context.Background(), "s1", "de", []byte("img"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receipt.Status != domain.PageStatusReady || receipt.PageIndex != 0 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if receipt.SentenceCount != 2 || receipt.DroppedSentences != 0 {
		t.Fatalf("wrong sentence counters: %+v", receipt)
	}
	if f.pages.page == nil || len(f.pages.regions) != 2 {
		t.Fatalf("expected page with 2 regions, got %+v", f.pages.regions)
	}
	for i, region := range f.pages.regions {
		if region.Index != i {
			t.Fatalf("region %d: wrong index %d", i, region.Index)
		}
		if len(region.Directions) == 0 || region.TranslatedText == "" {
			t.Fatalf("region %d not narrated: %+v", i, region)
		}
		if len(region.AudioClips) != 0 {
			t.Fatalf("story region %d has clips before the audio phase", i)
		}
	}
	if f.sessions.incremented != 1 {
		t.Fatalf("totalPages incremented %d times", f.sessions.incremented)
	}
	if len(f.queue.published) != 1 || f.queue.published[0].PageID != f.pages.page.ID {
		t.Fatalf("unexpected published jobs: %+v", f.queue.published)
	}
	if len(f.speech.calls) != 0 {
		t.Fatal("story page should not synthesize during ingest")
	}
	if len(f.images.saved) != 1 {
		t.Fatalf("expected 1 stored image, got %d", len(f.images.saved))
	}
}

func TestIngestFrontPagePicksLargestRegion(t *testing.T) {
	f := newIngestFixture(twoParagraphFields())

	receipt, err := f.uc.Ingest(context.Background(), "s1", "de", []byte("img"), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Status != domain.PageStatusReady {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	if len(f.pages.regions) != 1 {
		t.Fatalf("front page must keep exactly one region, got %d", len(f.pages.regions))
	}
	region := f.pages.regions[0]
	if region.OriginalText != "The cat\nsat down" {
		t.Fatalf("largest paragraph not selected: %q", region.OriginalText)
	}

	if len(region.AudioClips) != 2 {
		t.Fatalf("expected masculine and feminine title clips, got %d", len(region.AudioClips))
	}
	if len(f.speech.calls) != 2 {
		t.Fatalf("expected 2 synthesis calls, got %d", len(f.speech.calls))
	}
	if f.speech.calls[0].voice != domain.VoiceEcho || f.speech.calls[1].voice != domain.VoiceShimmer {
		t.Fatalf("wrong title voice order: %+v", f.speech.calls)
	}
	if f.pages.page.AudioReadyAt == nil {
		t.Fatal("front page should be audio-ready after ingest")
	}
	if len(f.queue.published) != 0 {
		t.Fatal("front page must not publish an audio job")
	}
}

func TestIngestFrontPageOneVoiceFailureDiscardsAllClips(t *testing.T) {
	for _, failing := range titleVoices {
		t.Run(string(failing), func(t *testing.T) {
			f := newIngestFixture(twoParagraphFields())
			f.speech.errForVoice = map[domain.VoicePreference]error{failing: errors.New("tts down")}

			receipt, err := f.uc.Ingest(context.Background(), "s1", "de", []byte("img"), true)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if receipt.Status != domain.PageStatusReady {
				t.Fatalf("unexpected receipt: %+v", receipt)
			}
			// A single surviving clip would sit in the wrong voice slot, so
			// the whole set goes.
			if clips := f.pages.regions[0].AudioClips; len(clips) != 0 {
				t.Fatalf("expected no clips when voice %s fails, got %d", failing, len(clips))
			}
			if f.pages.page.AudioReadyAt != nil {
				t.Fatal("incomplete title audio must not mark the page ready")
			}
		})
	}
}

func TestIngestFrontPageSurvivesSynthesisFailure(t *testing.T) {
	f := newIngestFixture(twoParagraphFields())

	// With the pipe splitter the largest paragraph is one sentence, so the
	// title text is its single translation.
	title := "tr:The cat\nsat down"
	f.speech.errFor = map[string]error{title: errors.New("tts down")}

	receipt, err := f.uc.Ingest(context.Background(), "s1", "de", []byte("img"), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Status != domain.PageStatusReady {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if len(f.pages.regions[0].AudioClips) != 0 {
		t.Fatalf("expected no clips when synthesis fails, got %d", len(f.pages.regions[0].AudioClips))
	}
	if f.pages.page.AudioReadyAt != nil {
		t.Fatal("incomplete title audio must not mark the page ready")
	}
}
