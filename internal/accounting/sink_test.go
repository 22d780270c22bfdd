package accounting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"replydesk/internal/common/logger"
	"replydesk/internal/models"
)

type stubUsageRecorder struct {
	calls int
	err   error
	ctxs  []context.Context
}

func (s *stubUsageRecorder) Record(ctx context.Context, ev models.UsageEvent) error {
	s.calls++
	s.ctxs = append(s.ctxs, ctx)
	return s.err
}

type stubAuditRecorder struct {
	calls int
	err   error
}

func (s *stubAuditRecorder) Index(ctx context.Context, record models.ReplyRecord) error {
	s.calls++
	return s.err
}

func TestSink_PublishRecordsBoth(t *testing.T) {
	usage := &stubUsageRecorder{}
	audit := &stubAuditRecorder{}
	sink := NewSink(usage, audit, time.Second, logger.NewNoOpLogger())

	sink.Publish(models.UsageEvent{AccountID: "acct-1"}, models.ReplyRecord{ID: "r-1"})

	assert.Equal(t, 1, usage.calls)
	assert.Equal(t, 1, audit.calls)
}

func TestSink_UsageFailureDoesNotBlockAudit(t *testing.T) {
	usage := &stubUsageRecorder{err: errors.New("connection refused")}
	audit := &stubAuditRecorder{}
	sink := NewSink(usage, audit, time.Second, logger.NewNoOpLogger())

	// A failing store must be swallowed, not propagated.
	sink.Publish(models.UsageEvent{AccountID: "acct-1"}, models.ReplyRecord{ID: "r-1"})

	assert.Equal(t, 1, usage.calls)
	assert.Equal(t, 1, audit.calls)
}

func TestSink_BothFailuresSwallowed(t *testing.T) {
	usage := &stubUsageRecorder{err: errors.New("down")}
	audit := &stubAuditRecorder{err: errors.New("down")}
	sink := NewSink(usage, audit, time.Second, logger.NewNoOpLogger())

	assert.NotPanics(t, func() {
		sink.Publish(models.UsageEvent{AccountID: "acct-1"}, models.ReplyRecord{ID: "r-1"})
	})
}

func TestSink_NilRecorders(t *testing.T) {
	sink := NewSink(nil, nil, time.Second, logger.NewNoOpLogger())

	assert.NotPanics(t, func() {
		sink.Publish(models.UsageEvent{}, models.ReplyRecord{})
	})
}

func TestSink_UsesDetachedContext(t *testing.T) {
	usage := &stubUsageRecorder{}
	sink := NewSink(usage, nil, time.Second, logger.NewNoOpLogger())

	sink.Publish(models.UsageEvent{AccountID: "acct-1"}, models.ReplyRecord{})

	// The accounting context carries its own deadline instead of the
	// request's.
	if assert.Len(t, usage.ctxs, 1) {
		deadline, ok := usage.ctxs[0].Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
	}
}
