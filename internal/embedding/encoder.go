// Package embedding turns raw text and uploaded files into vectors, both
// synchronously for interactive queries and through the job queue for
// content ingestion.
package embedding

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_encoder.go -package=mocks modalsearch/internal/embedding Encoder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"modalsearch/internal/service"
)

// Encoder produces fixed-size embedding vectors for each supported modality.
type Encoder interface {
	// EncodeText embeds a text snippet.
	EncodeText(ctx context.Context, text string) ([]float32, error)
	// EncodeFile embeds the file at path with the pipeline for the given
	// modality.
	EncodeFile(ctx context.Context, path, mod string) ([]float32, error)
}

// HTTPEncoder is an Encoder backed by the model-serving HTTP API.
type HTTPEncoder struct {
	BaseURL      string
	Model        string
	ExpectedSize int // all returned vectors are validated against this
	client       *http.Client
}

// NewHTTPEncoder creates an encoder client. expectedSize comes from the
// EMBED_VECTOR_SIZE config and must match the database vector columns.
func NewHTTPEncoder(baseURL, model string, expectedSize int) *HTTPEncoder {
	return &HTTPEncoder{
		BaseURL:      baseURL,
		Model:        model,
		ExpectedSize: expectedSize,
		client:       &http.Client{Timeout: 120 * time.Second},
	}
}

type encodeRequest struct {
	Model    string `json:"model"`
	Modality string `json:"modality"`
	// Exactly one of Text or Content is set.
	Text    string `json:"text,omitempty"`
	Content string `json:"content,omitempty"` // base64 file bytes
}

type encodeResponse struct {
	Embedding []float64 `json:"embedding"`
}

// EncodeText embeds a text snippet.
func (e *HTTPEncoder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text input")
	}
	return e.encode(ctx, encodeRequest{Model: e.Model, Modality: "text", Text: text})
}

// EncodeFile embeds the file at path with the pipeline for the given modality.
// File bytes travel base64-encoded; the serving side never touches disk.
func (e *HTTPEncoder) EncodeFile(ctx context.Context, path, mod string) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrStorageIO, err)
	}
	return e.encode(ctx, encodeRequest{
		Model:    e.Model,
		Modality: mod,
		Content:  base64.StdEncoding.EncodeToString(raw),
	})
}

func (e *HTTPEncoder) encode(ctx context.Context, payload encodeRequest) ([]float32, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/encode", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var decoded encodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(decoded.Embedding) != e.ExpectedSize {
		return nil, fmt.Errorf("embedding has size %d, expected %d", len(decoded.Embedding), e.ExpectedSize)
	}

	vec := make([]float32, len(decoded.Embedding))
	for i, v := range decoded.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
