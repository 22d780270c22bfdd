// Package accounting persists per-day usage aggregates and the
// per-reply audit trail. Every write here is fire-and-forget from the
// pipeline's perspective: a failure is logged and swallowed, never
// allowed to withhold an already-computed reply.
package accounting

import (
	"context"
	"database/sql"
	"fmt"

	"replydesk/internal/models"
)

// UsageStore applies usage deltas to the daily aggregate keyed by
// (account, date).
type UsageStore struct {
	db *sql.DB
}

func NewUsageStore(db *sql.DB) *UsageStore {
	return &UsageStore{db: db}
}

// Record atomically increments (or creates) the daily aggregate row.
// The upsert keeps counts monotonic under concurrent requests from the
// same account; nothing here ever decrements.
func (s *UsageStore) Record(ctx context.Context, ev models.UsageEvent) error {
	const query = `
		INSERT INTO usage_daily (
			account_id, usage_date, replies_count, rule_count, low_count,
			high_count, tokens_used, cost_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_id, usage_date) DO UPDATE SET
			replies_count = usage_daily.replies_count + EXCLUDED.replies_count,
			rule_count    = usage_daily.rule_count + EXCLUDED.rule_count,
			low_count     = usage_daily.low_count + EXCLUDED.low_count,
			high_count    = usage_daily.high_count + EXCLUDED.high_count,
			tokens_used   = usage_daily.tokens_used + EXCLUDED.tokens_used,
			cost_usd      = usage_daily.cost_usd + EXCLUDED.cost_usd`

	_, err := s.db.ExecContext(ctx, query,
		ev.AccountID, ev.Date, ev.Replies, ev.RuleCount, ev.LowCount,
		ev.HighCount, ev.TokensUsed, ev.CostUSD,
	)
	if err != nil {
		return fmt.Errorf("usage upsert: %w", err)
	}
	return nil
}

// Daily returns the aggregate for one account and day, or a zero event
// when no replies were generated yet.
func (s *UsageStore) Daily(ctx context.Context, accountID string, date string) (models.UsageEvent, error) {
	const query = `
		SELECT account_id, usage_date, replies_count, rule_count, low_count,
		       high_count, tokens_used, cost_usd
		FROM usage_daily
		WHERE account_id = $1 AND usage_date = $2`

	var ev models.UsageEvent
	err := s.db.QueryRowContext(ctx, query, accountID, date).Scan(
		&ev.AccountID, &ev.Date, &ev.Replies, &ev.RuleCount, &ev.LowCount,
		&ev.HighCount, &ev.TokensUsed, &ev.CostUSD,
	)
	if err == sql.ErrNoRows {
		return models.UsageEvent{AccountID: accountID}, nil
	}
	if err != nil {
		return models.UsageEvent{}, fmt.Errorf("usage query: %w", err)
	}
	return ev, nil
}
