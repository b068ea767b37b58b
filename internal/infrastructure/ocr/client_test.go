package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

func TestRecognize(t *testing.T) {
	var gotAuth string
	var gotReq recognizeRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/recognize" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"fields": []map[string]any{
				{
					"text": "hello",
					"vertices": []map[string]float64{
						{"x": 0, "y": 0}, {"x": 10, "y": 0}, {"x": 10, "y": 5}, {"x": 0, "y": 5},
					},
					"confidence": 0.95,
				},
				{
					// Malformed polygon, must be skipped.
					"text":     "broken",
					"vertices": []map[string]float64{{"x": 0, "y": 0}},
				},
				{
					"text": "unscored",
					"vertices": []map[string]float64{
						{"x": 20, "y": 0}, {"x": 30, "y": 0}, {"x": 30, "y": 5}, {"x": 20, "y": 5},
					},
				},
			},
		})
	}))
	defer ts.Close()

	client := New(ts.URL, "secret-token", nil)
	fields, err := client.Recognize(context.Background(), []byte("img-bytes"), "page.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Fatalf("missing bearer auth, got %q", gotAuth)
	}
	if gotReq.Name != "page.png" {
		t.Fatalf("unexpected name: %q", gotReq.Name)
	}
	if decoded, _ := base64.StdEncoding.DecodeString(gotReq.Image); string(decoded) != "img-bytes" {
		t.Fatalf("image payload not base64 round-tripped: %q", gotReq.Image)
	}

	if len(fields) != 2 {
		t.Fatalf("expected malformed field dropped, got %d fields", len(fields))
	}
	if fields[0].Text != "hello" || fields[0].Confidence == nil || *fields[0].Confidence != 0.95 {
		t.Fatalf("unexpected first field: %+v", fields[0])
	}
	if fields[1].Text != "unscored" || fields[1].Confidence != nil {
		t.Fatalf("unexpected second field: %+v", fields[1])
	}
	if fields[0].Vertices[2] != (domain.Vertex{X: 10, Y: 5}) {
		t.Fatalf("vertices not mapped: %+v", fields[0].Vertices)
	}
}

func TestRecognizeServerErrorIsTemporary(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := New(ts.URL, "", nil)
	_, err := client.Recognize(context.Background(), []byte("img"), "page.png")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error for 503, got %v", err)
	}
}

func TestRecognizeClientErrorIsPermanent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad image", http.StatusBadRequest)
	}))
	defer ts.Close()

	client := New(ts.URL, "", nil)
	_, err := client.Recognize(context.Background(), []byte("img"), "page.png")
	if err == nil {
		t.Fatal("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("400 must not read as temporary: %v", err)
	}
}
