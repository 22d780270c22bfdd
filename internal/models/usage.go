package models

import "time"

// UsageEvent is the per-reply accounting delta applied to the daily
// aggregate keyed by (account, date). Counts only ever increase within
// a day.
type UsageEvent struct {
	AccountID  string    `json:"accountId"`
	Date       time.Time `json:"date"`
	Replies    int       `json:"repliesCount"`
	RuleCount  int       `json:"ruleCount"`
	LowCount   int       `json:"lowCount"`
	HighCount  int       `json:"highCount"`
	TokensUsed int       `json:"tokensUsed"`
	CostUSD    float64   `json:"costUsd"`
}

// NewUsageEvent builds the delta for one generated reply.
func NewUsageEvent(accountID string, result GenerationResult, now time.Time) UsageEvent {
	ev := UsageEvent{
		AccountID:  accountID,
		Date:       now.UTC().Truncate(24 * time.Hour),
		Replies:    1,
		TokensUsed: result.TokensUsed,
		CostUSD:    result.CostUSD,
	}
	switch result.Tier {
	case TierRule:
		ev.RuleCount = 1
	case TierLow:
		ev.LowCount = 1
	case TierHigh:
		ev.HighCount = 1
	}
	return ev
}

// ReplyRecord is the audit/history document indexed for every generated
// reply.
type ReplyRecord struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"accountId"`
	Intent     Intent    `json:"intent"`
	Risk       RiskTier  `json:"risk"`
	Route      string    `json:"route"`
	ModelID    string    `json:"modelId,omitempty"`
	TokensUsed int       `json:"tokensUsed"`
	CostUSD    float64   `json:"costUsd"`
	LatencyMS  int64     `json:"latencyMs"`
	FactsUsed  bool      `json:"factsUsed"`
	CreatedAt  time.Time `json:"createdAt"`
}
