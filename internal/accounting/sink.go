package accounting

import (
	"context"
	"time"

	stderr "replydesk/internal/common/errors"
	"replydesk/internal/common/logger"
	"replydesk/internal/models"
)

// UsageRecorder applies one usage delta.
type UsageRecorder interface {
	Record(ctx context.Context, ev models.UsageEvent) error
}

// AuditRecorder persists one reply record for audit/history.
type AuditRecorder interface {
	Index(ctx context.Context, record models.ReplyRecord) error
}

// Sink fans a finished reply out to the usage aggregate and the audit
// index. Both writes are best-effort with their own timeout so a slow
// store cannot hold the response path.
type Sink struct {
	usage   UsageRecorder
	audit   AuditRecorder
	timeout time.Duration
	logger  logger.Logger
}

func NewSink(usage UsageRecorder, audit AuditRecorder, timeout time.Duration, log logger.Logger) *Sink {
	return &Sink{
		usage:   usage,
		audit:   audit,
		timeout: timeout,
		logger:  log.With(map[string]interface{}{"component": "accounting"}),
	}
}

// Publish records the usage event and the audit document. Failures are
// logged and swallowed. The context deliberately does not inherit the
// request context: the reply has already been computed and the cost
// already incurred, so accounting proceeds even after the caller is
// gone.
func (s *Sink) Publish(ev models.UsageEvent, record models.ReplyRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if s.usage != nil {
		if err := s.usage.Record(ctx, ev); err != nil {
			serr := stderr.NewAccountingWriteFailedError(err)
			s.logger.Error("usage write failed", map[string]interface{}{
				"accountId": ev.AccountID,
				"error":     serr.Error(),
			})
		}
	}

	if s.audit != nil {
		if err := s.audit.Index(ctx, record); err != nil {
			serr := stderr.NewAccountingWriteFailedError(err)
			s.logger.Error("audit write failed", map[string]interface{}{
				"replyId": record.ID,
				"error":   serr.Error(),
			})
		}
	}
}
