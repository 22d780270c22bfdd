package accounting

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replydesk/internal/models"
)

func newAuditSinkWithServer(t *testing.T, handler http.HandlerFunc) *AuditSink {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{server.URL},
	})
	require.NoError(t, err)
	return NewAuditSink(client, "replies")
}

func TestAuditSink_IndexesRecord(t *testing.T) {
	var path string
	var body []byte

	sink := newAuditSinkWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	record := models.ReplyRecord{
		ID:        "r-1",
		AccountID: "acct-1",
		Intent:    models.IntentTracking,
		Risk:      models.RiskLow,
		Route:     "low",
		ModelID:   "swift-mini-1",
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, sink.Index(context.Background(), record))

	assert.Equal(t, "/replies/_doc/r-1", path)

	var indexed models.ReplyRecord
	require.NoError(t, json.Unmarshal(body, &indexed))
	assert.Equal(t, "acct-1", indexed.AccountID)
	assert.Equal(t, models.IntentTracking, indexed.Intent)
	assert.Equal(t, "low", indexed.Route)
}

func TestAuditSink_IndexError(t *testing.T) {
	sink := newAuditSinkWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"shard failure"}`))
	})

	err := sink.Index(context.Background(), models.ReplyRecord{ID: "r-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index reply record")
}
