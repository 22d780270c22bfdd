// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RepliesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replydesk_replies_generated_total",
			Help: "Total number of replies generated, by route",
		},
		[]string{"route"},
	)

	RepliesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replydesk_replies_failed_total",
			Help: "Total number of reply requests that failed terminally",
		},
		[]string{"error_code"},
	)

	TierFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replydesk_tier_fallbacks_total",
			Help: "Fallbacks from one generation tier to the next",
		},
		[]string{"from_tier"},
	)

	BackendTokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replydesk_backend_tokens_used_total",
			Help: "Tokens reported by generation backends",
		},
		[]string{"tier"},
	)

	BackendCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replydesk_backend_cost_usd_total",
			Help: "Estimated spend on generation backends in USD",
		},
		[]string{"tier"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "replydesk_pipeline_stage_duration_seconds",
			Help: "Duration of individual pipeline stages",
		},
		[]string{"stage"},
	)

	ClassifiedIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replydesk_classified_intents_total",
			Help: "Classified buyer-message intents, by intent and risk tier",
		},
		[]string{"intent", "risk"},
	)
)
