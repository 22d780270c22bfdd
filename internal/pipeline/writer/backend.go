package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	httpclient "replydesk/internal/common/http"
)

var ErrBackendFailed = errors.New("BACKEND_FAILED")

// BackendResponse is what a text-generation backend returns for one
// call.
type BackendResponse struct {
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used"`
}

// Backend is one text-generation service: it accepts a system
// instruction and a user message and returns generated text plus the
// token usage it charged for.
type Backend interface {
	Generate(ctx context.Context, system, message string) (BackendResponse, error)
	ModelID() string
}

// HTTPBackendConfig configures one HTTP generation backend.
type HTTPBackendConfig struct {
	BaseURL     string
	APIKey      string
	ModelID     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// HTTPBackend talks to a generation service over HTTP JSON. There is
// deliberately no retry here: a failed call falls through to the next
// tier instead of being retried against the same backend, which would
// double costs mid-request.
type HTTPBackend struct {
	cfg    HTTPBackendConfig
	client *httpclient.Client
}

func NewHTTPBackend(cfg HTTPBackendConfig) *HTTPBackend {
	return &HTTPBackend{
		cfg:    cfg,
		client: httpclient.NewClient(cfg.Timeout),
	}
}

func (b *HTTPBackend) ModelID() string {
	return b.cfg.ModelID
}

func (b *HTTPBackend) Generate(ctx context.Context, system, message string) (BackendResponse, error) {
	requestBody := map[string]interface{}{
		"model":       b.cfg.ModelID,
		"system":      system,
		"message":     message,
		"max_tokens":  b.cfg.MaxTokens,
		"temperature": b.cfg.Temperature,
	}

	body, _ := json.Marshal(requestBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+"/v1/generate", bytes.NewBuffer(body))
	if err != nil {
		return BackendResponse{}, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return BackendResponse{}, ctx.Err()
		}
		return BackendResponse{}, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return BackendResponse{}, fmt.Errorf("%w: status %d", ErrBackendFailed, resp.StatusCode)
	}

	var out BackendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return BackendResponse{}, fmt.Errorf("%w: decode error: %v", ErrBackendFailed, err)
	}

	if strings.TrimSpace(out.Text) == "" {
		return BackendResponse{}, fmt.Errorf("%w: empty completion", ErrBackendFailed)
	}

	return out, nil
}
