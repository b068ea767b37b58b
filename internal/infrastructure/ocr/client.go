// Package ocr wraps the remote OCR service behind the OCRClient port.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/storybook-labs/readalong/internal/core/domain"
	"github.com/storybook-labs/readalong/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, secret string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     secret,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type recognizeRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type recognizeResponse struct {
	Fields []struct {
		Text       string          `json:"text"`
		Vertices   []domain.Vertex `json:"vertices"`
		Confidence *float64        `json:"confidence"`
	} `json:"fields"`
}

// Recognize submits the page image and returns the word-level fields.
func (c *Client) Recognize(ctx context.Context, image []byte, name string) ([]domain.RawField, error) {
	payload := recognizeRequest{
		Name:  name,
		Image: base64.StdEncoding.EncodeToString(image),
	}

	var response recognizeResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1/recognize", payload, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ocr.recognize", call, classifyOCRError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("ocr recognize", err)
	}

	fields := make([]domain.RawField, 0, len(response.Fields))
	for _, f := range response.Fields {
		if len(f.Vertices) != 4 {
			continue
		}
		field := domain.RawField{Text: f.Text, Confidence: f.Confidence}
		copy(field.Vertices[:], f.Vertices)
		fields = append(fields, field)
	}
	return fields, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal recognize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create recognize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ocr recognize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  "recognize",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode recognize response: %w", err)
	}
	return nil
}
