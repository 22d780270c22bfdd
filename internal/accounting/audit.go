package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"replydesk/internal/models"
)

// AuditSink indexes one document per generated reply so support staff
// can search the history later.
type AuditSink struct {
	client *elasticsearch.Client
	index  string
}

func NewAuditSink(client *elasticsearch.Client, index string) *AuditSink {
	return &AuditSink{client: client, index: index}
}

func (s *AuditSink) Index(ctx context.Context, record models.ReplyRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal reply record: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(record.ID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index reply record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index reply record: %s", res.Status())
	}
	return nil
}
