package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replydesk/internal/common/logger"
	"replydesk/internal/models"
	"replydesk/internal/pipeline"
	"replydesk/internal/pipeline/classifier"
	"replydesk/internal/pipeline/writer"
	"replydesk/internal/rules"
)

type stubResolver struct {
	profile  models.SellerProfile
	entitled bool
	err      error
}

func (s *stubResolver) Resolve(ctx context.Context, accountID string) (models.SellerProfile, bool, error) {
	if s.err != nil {
		return models.SellerProfile{}, false, s.err
	}
	return s.profile, s.entitled, nil
}

type stubUsageReader struct {
	event models.UsageEvent
	err   error
}

func (s *stubUsageReader) Daily(ctx context.Context, accountID, date string) (models.UsageEvent, error) {
	if s.err != nil {
		return models.UsageEvent{}, s.err
	}
	return s.event, nil
}

type stubFactsProvider struct {
	result models.FactsResult
}

func (s *stubFactsProvider) FetchFacts(ctx context.Context, accountID, orderID string) models.FactsResult {
	return s.result
}

type harness struct {
	server   *Server
	resolver *stubResolver
	provider *stubFactsProvider
	usage    *stubUsageReader
	lowCalls *int64
	lowFail  *int64
	highFail *int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	var lowCalls, lowFail, highFail int64

	lowSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&lowCalls, 1)
		if atomic.LoadInt64(&lowFail) != 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(writer.BackendResponse{Text: "A drafted low-tier reply.", TokensUsed: 120})
	}))
	t.Cleanup(lowSrv.Close)

	highSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt64(&highFail) != 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(writer.BackendResponse{Text: "A careful high-tier reply.", TokensUsed: 500})
	}))
	t.Cleanup(highSrv.Close)

	r, err := rules.Load("")
	require.NoError(t, err)

	log := logger.NewNoOpLogger()
	low := writer.NewHTTPBackend(writer.HTTPBackendConfig{
		BaseURL: lowSrv.URL, ModelID: "swift-mini-1", Timeout: 5 * time.Second,
	})
	high := writer.NewHTTPBackend(writer.HTTPBackendConfig{
		BaseURL: highSrv.URL, ModelID: "atlas-pro-2", Timeout: 5 * time.Second,
	})

	provider := &stubFactsProvider{result: models.FactsResult{OK: false, Reason: models.ReasonOrderIDMissing}}
	p := pipeline.New(classifier.New(r), provider, writer.New(low, high, r, log), r, nil, nil, log)

	resolver := &stubResolver{
		profile: models.SellerProfile{
			DisplayName:  "Maya",
			BusinessName: "Maya's Mugs",
			Tone:         "friendly",
		},
		entitled: true,
	}

	usage := &stubUsageReader{}
	srv := New(Config{
		Port:            0,
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: time.Second,
	}, p, resolver, usage, nil, log)

	return &harness{
		server:   srv,
		resolver: resolver,
		provider: provider,
		usage:    usage,
		lowCalls: &lowCalls,
		lowFail:  &lowFail,
		highFail: &highFail,
	}
}

func (h *harness) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func accountHeader() map[string]string {
	return map[string]string{"X-Account-ID": "acct-1"}
}

func decodeGenerate(t *testing.T, rec *httptest.ResponseRecorder) GenerateResponse {
	t.Helper()
	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGenerate_TrackingWithFacts(t *testing.T) {
	h := newHarness(t)
	h.provider.result = models.FactsResult{OK: true, Order: &models.OrderFacts{
		OrderID: "12-34567-89012",
		Status:  "shipped",
		Tracking: []models.TrackingEntry{
			{Carrier: "UPS", TrackingNumber: "1Z999", ShippedDate: "2026-08-20"},
		},
	}}

	rec := h.do(t, http.MethodPost, "/api/replies/generate", GenerateRequest{
		CustomerMessage: "Where is my package? It still hasn't arrived!",
		OrderID:         "12-34567-89012",
	}, accountHeader())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeGenerate(t, rec)

	assert.True(t, resp.Success)
	assert.Equal(t, "tracking", resp.Intent)
	assert.Equal(t, "low", resp.Risk)
	assert.Equal(t, "low", resp.Route)
	assert.True(t, resp.FactsUsed)
	assert.NotEmpty(t, resp.Reply)
}

func TestGenerate_PositiveFeedbackRuleTier(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/replies/generate", GenerateRequest{
		CustomerMessage: "Thanks so much, love it! Five stars.",
	}, accountHeader())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeGenerate(t, rec)

	assert.Equal(t, "positive_feedback", resp.Intent)
	assert.Equal(t, "rule", resp.Route)
	assert.Contains(t, resp.Reply, "Maya")
	assert.Zero(t, atomic.LoadInt64(h.lowCalls), "a templated reply must not call a backend")
}

func TestGenerate_LegalThreatRoutesHigh(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/replies/generate", GenerateRequest{
		CustomerMessage: "I'm contacting my lawyer, this is fraud!",
	}, accountHeader())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeGenerate(t, rec)

	assert.Equal(t, "legal_threat", resp.Intent)
	assert.Equal(t, "high", resp.Risk)
	assert.Equal(t, "high", resp.Route)
	assert.Zero(t, atomic.LoadInt64(h.lowCalls), "high-risk requests must never reach the low backend")
}

func TestGenerate_FallbackOnLowFailure(t *testing.T) {
	h := newHarness(t)
	atomic.StoreInt64(h.lowFail, 1)

	rec := h.do(t, http.MethodPost, "/api/replies/generate", GenerateRequest{
		CustomerMessage: "Is this mug dishwasher safe?",
	}, accountHeader())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeGenerate(t, rec)

	assert.Equal(t, "high", resp.Route)
	assert.Equal(t, int64(1), atomic.LoadInt64(h.lowCalls))
}

func TestGenerate_AllBackendsDown(t *testing.T) {
	h := newHarness(t)
	atomic.StoreInt64(h.lowFail, 1)
	atomic.StoreInt64(h.highFail, 1)

	rec := h.do(t, http.MethodPost, "/api/replies/generate", GenerateRequest{
		CustomerMessage: "Is this mug dishwasher safe?",
	}, accountHeader())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "temporarily unavailable")
}

func TestGenerate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    interface{}
		headers map[string]string
		status  int
	}{
		{
			name:    "message too short",
			body:    GenerateRequest{CustomerMessage: "hi"},
			headers: accountHeader(),
			status:  http.StatusBadRequest,
		},
		{
			name:    "whitespace only message",
			body:    GenerateRequest{CustomerMessage: "    "},
			headers: accountHeader(),
			status:  http.StatusBadRequest,
		},
		{
			name:    "missing account header",
			body:    GenerateRequest{CustomerMessage: "Where is my package?"},
			headers: nil,
			status:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.do(t, http.MethodPost, "/api/replies/generate", tt.body, tt.headers)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestGenerate_MalformedBody(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/replies/generate", bytes.NewBufferString("{not json"))
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerate_NotEntitled(t *testing.T) {
	h := newHarness(t)
	h.resolver.entitled = false

	rec := h.do(t, http.MethodPost, "/api/replies/generate", GenerateRequest{
		CustomerMessage: "Where is my package?",
	}, accountHeader())

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGenerate_ResolverFailure(t *testing.T) {
	h := newHarness(t)
	h.resolver.err = assert.AnError

	rec := h.do(t, http.MethodPost, "/api/replies/generate", GenerateRequest{
		CustomerMessage: "Where is my package?",
	}, accountHeader())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestModify_Success(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/replies/modify", ModifyRequest{
		OriginalReply: "Thank you for reaching out about your order.",
		Instructions:  "make it shorter",
	}, accountHeader())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ModifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "modify", resp.Route)
	assert.NotEmpty(t, resp.Reply)
	assert.Equal(t, int64(1), atomic.LoadInt64(h.lowCalls), "modify starts at the low tier")
}

func TestModify_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body ModifyRequest
	}{
		{name: "missing original reply", body: ModifyRequest{Instructions: "shorter"}},
		{name: "missing instructions", body: ModifyRequest{OriginalReply: "A reply."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.do(t, http.MethodPost, "/api/replies/modify", tt.body, accountHeader())
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUsageDaily_Success(t *testing.T) {
	h := newHarness(t)
	h.usage.event = models.UsageEvent{
		AccountID:  "acct-1",
		Replies:    12,
		RuleCount:  3,
		LowCount:   7,
		HighCount:  2,
		TokensUsed: 4800,
		CostUSD:    0.074,
	}

	rec := h.do(t, http.MethodGet, "/api/usage/daily?date=2026-08-30", nil, accountHeader())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp UsageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "acct-1", resp.AccountID)
	assert.Equal(t, "2026-08-30", resp.Date)
	assert.Equal(t, 12, resp.Replies)
	assert.Equal(t, 3, resp.RuleCount)
	assert.Equal(t, 7, resp.LowCount)
	assert.Equal(t, 2, resp.HighCount)
	assert.Equal(t, 4800, resp.TokensUsed)
	assert.InDelta(t, 0.074, resp.CostUSD, 1e-9)
}

func TestUsageDaily_Validation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/usage/daily", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "account header is required")

	rec = h.do(t, http.MethodGet, "/api/usage/daily?date=30-08-2026", nil, accountHeader())
	assert.Equal(t, http.StatusBadRequest, rec.Code, "date must be YYYY-MM-DD")
}

func TestUsageDaily_StoreFailure(t *testing.T) {
	h := newHarness(t)
	h.usage.err = assert.AnError

	rec := h.do(t, http.MethodGet, "/api/usage/daily", nil, accountHeader())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestIDPropagation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/healthz", nil, map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	rec = h.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), "a request id is minted when the caller sends none")
}
