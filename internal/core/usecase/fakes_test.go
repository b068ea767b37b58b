package usecase

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sessionRepoFake struct {
	session *domain.Session
	getErr  error

	created     *domain.Session
	incremented int
	ended       bool
	voiceSet    domain.VoicePreference

	cascadeRefs []string
	cascadeErr  error
}

func (f *sessionRepoFake) Create(_ context.Context, session *domain.Session) error {
	f.created = session
	return nil
}

func (f *sessionRepoFake) GetByID(context.Context, string) (*domain.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copySession := *f.session
	return &copySession, nil
}

func (f *sessionRepoFake) SetVoicePreference(_ context.Context, _ string, voice domain.VoicePreference) error {
	f.voiceSet = voice
	return nil
}

func (f *sessionRepoFake) End(context.Context, string) error {
	f.ended = true
	return nil
}

func (f *sessionRepoFake) IncrementTotalPages(context.Context, string) error {
	f.incremented++
	return nil
}

func (f *sessionRepoFake) DeleteCascade(context.Context, string) ([]string, error) {
	if f.cascadeErr != nil {
		return nil, f.cascadeErr
	}
	return f.cascadeRefs, nil
}

type audioWrite struct {
	regionID string
	clips    []string
}

type pageRepoFake struct {
	mu sync.Mutex

	page    *domain.Page
	regions []domain.TextRegion

	createErr error
	getErr    error
	listErr   error

	setAudioErr map[string]error
	audioWrites []audioWrite
	audioReady  []string
}

func (f *pageRepoFake) CreatePageWithRegions(_ context.Context, page *domain.Page, regions []domain.TextRegion) error {
	if f.createErr != nil {
		return f.createErr
	}
	page.Index = 0
	f.page = page
	f.regions = regions
	return nil
}

func (f *pageRepoFake) GetPageByIndex(context.Context, string, int) (*domain.Page, error) {
	return f.getPage()
}

func (f *pageRepoFake) GetPageByID(context.Context, string) (*domain.Page, error) {
	return f.getPage()
}

func (f *pageRepoFake) getPage() (*domain.Page, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.page == nil {
		return nil, domain.WrapError(domain.ErrPageNotFound, "get page", domain.ErrPageNotFound)
	}
	copyPage := *f.page
	return &copyPage, nil
}

func (f *pageRepoFake) ListRegions(context.Context, string) ([]domain.TextRegion, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.TextRegion(nil), f.regions...), nil
}

func (f *pageRepoFake) SetRegionAudio(_ context.Context, regionID string, clips []string) error {
	if err := f.setAudioErr[regionID]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioWrites = append(f.audioWrites, audioWrite{regionID: regionID, clips: clips})
	for i := range f.regions {
		if f.regions[i].ID == regionID {
			f.regions[i].AudioClips = clips
		}
	}
	return nil
}

func (f *pageRepoFake) MarkAudioReady(_ context.Context, pageID string) error {
	f.audioReady = append(f.audioReady, pageID)
	if f.page != nil && f.page.ID == pageID {
		now := time.Now().UTC()
		f.page.AudioReadyAt = &now
	}
	return nil
}

type imageStoreFake struct {
	mu      sync.Mutex
	saved   map[string][]byte
	deleted []string
	content []byte
	openErr error
}

func (f *imageStoreFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[key] = raw
	return nil
}

func (f *imageStoreFake) Open(context.Context, string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(bytes.NewReader(f.content)), nil
}

func (f *imageStoreFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

type ocrFake struct {
	fields []domain.RawField
	err    error
}

func (f *ocrFake) Recognize(context.Context, []byte, string) ([]domain.RawField, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.fields, nil
}

type translatorFake struct {
	mu     sync.Mutex
	fn     func(contextBlock, targetLang string) (string, error)
	blocks []string
}

func (f *translatorFake) Translate(_ context.Context, contextBlock, targetLang string) (string, error) {
	f.mu.Lock()
	f.blocks = append(f.blocks, contextBlock)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(contextBlock, targetLang)
	}
	return "tr:" + currentSentence(contextBlock), nil
}

// currentSentence pulls the [CURRENT] text back out of a context block.
// Sentences may span lines, so it cuts markers rather than splitting lines.
func currentSentence(block string) string {
	rest := block
	if i := strings.Index(rest, "[CURRENT]: "); i >= 0 {
		rest = rest[i+len("[CURRENT]: "):]
	}
	if i := strings.Index(rest, "\n[NEXT]: "); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

type sentimentFake struct {
	errFor map[string]error
}

func (f *sentimentFake) Direct(_ context.Context, sentence string) (domain.ToneDirection, error) {
	if err := f.errFor[sentence]; err != nil {
		return domain.ToneDirection{}, err
	}
	return domain.ToneDirection{Tone: "warm", Emotion: "wonder", Pacing: "slow"}, nil
}

type speechCall struct {
	voice        domain.VoicePreference
	text         string
	instructions string
}

type speechFake struct {
	mu          sync.Mutex
	errFor      map[string]error
	errForVoice map[domain.VoicePreference]error
	calls       []speechCall
}

func (f *speechFake) Synthesize(_ context.Context, voice domain.VoicePreference, text, instructions string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, speechCall{voice: voice, text: text, instructions: instructions})
	f.mu.Unlock()
	if err := f.errForVoice[voice]; err != nil {
		return nil, err
	}
	if err := f.errFor[text]; err != nil {
		return nil, err
	}
	return []byte("audio:" + text), nil
}

type queueFake struct {
	published []domain.AudioJob
	err       error
}

func (f *queueFake) PublishPageAudio(_ context.Context, job domain.AudioJob) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, job)
	return nil
}

func (f *queueFake) SubscribePageAudio(context.Context, func(context.Context, domain.AudioJob) error) error {
	return nil
}

// pipeSplitter cuts on "|" so tests control sentence boundaries exactly.
type pipeSplitter struct{}

func (pipeSplitter) Split(text string) []string {
	var out []string
	for _, part := range strings.Split(text, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
