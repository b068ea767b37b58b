// Package httpadapter exposes the page pipeline and session surface over
// HTTP. Uploads are JSON with base64 image payloads; every error uses the
// {error_code, message} envelope with a stable machine code.
package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/storybook-labs/readalong/internal/core/domain"
	"github.com/storybook-labs/readalong/internal/core/ports"
	"github.com/storybook-labs/readalong/internal/observability/metrics"
)

type Router struct {
	ingest   ports.PageIngestor
	reader   ports.PageReader
	sessions ports.SessionManager
	metrics  *metrics.HTTPServerMetrics
	service  string
}

func NewRouter(
	ingest ports.PageIngestor,
	reader ports.PageReader,
	sessions ports.SessionManager,
	m *metrics.HTTPServerMetrics,
	service string,
) *Router {
	return &Router{
		ingest:   ingest,
		reader:   reader,
		sessions: sessions,
		metrics:  m,
		service:  service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)

	mux.HandleFunc("/process/upload_front", rt.uploadFrontPage)
	mux.HandleFunc("/process/upload", rt.uploadPage)
	mux.HandleFunc("/process/check_ocr", rt.checkOCR)
	mux.HandleFunc("/process/check_tts", rt.checkTTS)

	mux.HandleFunc("/page/get_image", rt.getImage)
	mux.HandleFunc("/page/get_ocr", rt.getOCR)
	mux.HandleFunc("/page/get_tts", rt.getTTS)

	mux.HandleFunc("/session/start", rt.startSession)
	mux.HandleFunc("/session/end", rt.endSession)
	mux.HandleFunc("/session/voice", rt.setVoice)
	mux.HandleFunc("/session/discard", rt.discardSession)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type uploadRequest struct {
	SessionID   string `json:"session_id"`
	Lang        string `json:"lang"`
	ImageBase64 string `json:"image_base64"`
}

func (rt *Router) uploadFrontPage(w http.ResponseWriter, r *http.Request) {
	rt.handleUpload(w, r, true)
}

func (rt *Router) uploadPage(w http.ResponseWriter, r *http.Request) {
	rt.handleUpload(w, r, false)
}

func (rt *Router) handleUpload(w http.ResponseWriter, r *http.Request, frontPage bool) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{ErrorCode: http.StatusBadRequest, Message: "INVALID_REQUEST"})
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{ErrorCode: http.StatusBadRequest, Message: "INVALID_REQUEST"})
		return
	}

	start := time.Now()
	receipt, err := rt.ingest.Ingest(r.Context(), req.SessionID, req.Lang, image, frontPage)
	if err != nil {
		if rt.metrics != nil && domain.IsKind(err, domain.ErrUnprocessableImage) {
			rt.metrics.RecordUnprocessablePage(rt.service)
		}
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordPageIngest(rt.service, frontPage, receipt.RegionCount, time.Since(start))
		rt.metrics.RecordSentences(rt.service, receipt.SentenceCount, receipt.DroppedSentences)
	}

	writeJSON(w, http.StatusOK, receipt)
}

func (rt *Router) checkOCR(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	sessionID, pageIndex, ok := pageQueryParams(w, r)
	if !ok {
		return
	}

	progress, err := rt.reader.CheckOCR(r.Context(), sessionID, pageIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (rt *Router) checkTTS(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	sessionID, pageIndex, ok := pageQueryParams(w, r)
	if !ok {
		return
	}

	progress, err := rt.reader.CheckTTS(r.Context(), sessionID, pageIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (rt *Router) getImage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	sessionID, pageIndex, ok := pageQueryParams(w, r)
	if !ok {
		return
	}

	data, err := rt.reader.GetImage(r.Context(), sessionID, pageIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"image_base64": base64.StdEncoding.EncodeToString(data),
	})
}

type ocrRegion struct {
	BBox           domain.BoundingBox `json:"bbox"`
	OriginalTxt    string             `json:"original_txt"`
	TranslationTxt string             `json:"translation_txt"`
}

func (rt *Router) getOCR(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	sessionID, pageIndex, ok := pageQueryParams(w, r)
	if !ok {
		return
	}

	regions, err := rt.reader.GetOCR(r.Context(), sessionID, pageIndex)
	if err != nil {
		writeError(w, err)
		return
	}

	results := make([]ocrRegion, 0, len(regions))
	for _, region := range regions {
		results = append(results, ocrRegion{
			BBox:           region.Coordinates,
			OriginalTxt:    region.OriginalText,
			TranslationTxt: region.TranslatedText,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ocr_results": results})
}

func (rt *Router) getTTS(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	sessionID, pageIndex, ok := pageQueryParams(w, r)
	if !ok {
		return
	}

	audio, err := rt.reader.GetTTS(r.Context(), sessionID, pageIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tts_results": audio})
}

func (rt *Router) startSession(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		TargetLang string `json:"target_lang"`
		Voice      string `json:"voice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{ErrorCode: http.StatusBadRequest, Message: "INVALID_REQUEST"})
		return
	}

	session, err := rt.sessions.Start(r.Context(), req.TargetLang, domain.VoicePreference(req.Voice))
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSessionStart(rt.service)
	}
	writeJSON(w, http.StatusOK, session)
}

func (rt *Router) endSession(w http.ResponseWriter, r *http.Request) {
	rt.sessionMutation(w, r, func(sessionID string, _ string) error {
		return rt.sessions.End(r.Context(), sessionID)
	})
}

func (rt *Router) setVoice(w http.ResponseWriter, r *http.Request) {
	rt.sessionMutation(w, r, func(sessionID, voice string) error {
		return rt.sessions.SetVoice(r.Context(), sessionID, domain.VoicePreference(voice))
	})
}

func (rt *Router) discardSession(w http.ResponseWriter, r *http.Request) {
	rt.sessionMutation(w, r, func(sessionID string, _ string) error {
		return rt.sessions.Discard(r.Context(), sessionID)
	})
}

func (rt *Router) sessionMutation(w http.ResponseWriter, r *http.Request, apply func(sessionID, voice string) error) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		Voice     string `json:"voice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{ErrorCode: http.StatusBadRequest, Message: "INVALID_REQUEST"})
		return
	}

	if err := apply(req.SessionID, req.Voice); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pageQueryParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	sessionID := r.URL.Query().Get("session_id")
	indexRaw := r.URL.Query().Get("page_index")
	if sessionID == "" || indexRaw == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{ErrorCode: http.StatusBadRequest, Message: "INVALID_REQUEST"})
		return "", 0, false
	}
	pageIndex, err := strconv.Atoi(indexRaw)
	if err != nil || pageIndex < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{ErrorCode: http.StatusBadRequest, Message: "INVALID_REQUEST"})
		return "", 0, false
	}
	return sessionID, pageIndex, true
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{
			ErrorCode: http.StatusMethodNotAllowed,
			Message:   "METHOD_NOT_ALLOWED",
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
