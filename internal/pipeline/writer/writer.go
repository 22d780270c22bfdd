// Package writer chooses among the rule template, the low-cost model
// and the high-cost model, executing the fixed fallback chain and
// accounting tokens and cost for every billed call.
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"replydesk/internal/common/logger"
	"replydesk/internal/common/metrics"
	"replydesk/internal/models"
	"replydesk/internal/rules"
)

var ErrBackendsExhausted = errors.New("BACKENDS_EXHAUSTED")

const signaturePlaceholder = "{{signature}}"

type Writer struct {
	low    Backend
	high   Backend
	rules  *rules.Rules
	logger logger.Logger
}

func New(low, high Backend, r *rules.Rules, log logger.Logger) *Writer {
	return &Writer{
		low:    low,
		high:   high,
		rules:  r,
		logger: log.With(map[string]interface{}{"component": "writer"}),
	}
}

// GenerateInput carries everything the writer needs for one request.
type GenerateInput struct {
	Profile        models.SellerProfile
	Classification models.ClassificationResult
	Message        string
	Thread         []models.ThreadMessage
	Reasoning      models.ReasoningBundle
	// FactsRequired is true when the request needed order facts,
	// whether or not they could be fetched. It disqualifies the rule
	// tier.
	FactsRequired bool
	// EditInstructions disqualify the rule tier: a template cannot
	// honor arbitrary edits.
	HasEditInstructions bool
}

// Generate runs the tier state machine. risk=high goes straight to the
// high-cost tier; otherwise rule, then low, then high, stopping at the
// first success. Fallback is strictly sequential so a request is never
// billed twice concurrently. It fails only when every applicable tier
// failed.
func (w *Writer) Generate(ctx context.Context, in GenerateInput) (models.GenerationResult, error) {
	risk := in.Classification.Risk

	if risk != models.RiskHigh {
		if result, ok := w.tryRuleTier(in); ok {
			return result, nil
		}

		if err := ctx.Err(); err != nil {
			return models.GenerationResult{}, err
		}

		system := buildSystemPrompt(in.Profile, in.Reasoning, risk)
		message := buildUserMessage(in.Message, in.Thread)

		result, err := w.callBackend(ctx, w.low, models.TierLow, system, message)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			// Caller is gone; abandon the chain rather than issue
			// another billed call.
			return models.GenerationResult{}, ctx.Err()
		}
		w.logger.Warn("low tier failed, falling back", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.TierFallbacks.WithLabelValues(string(models.TierLow)).Inc()
	}

	system := buildSystemPrompt(in.Profile, in.Reasoning, risk)
	message := buildUserMessage(in.Message, in.Thread)

	result, err := w.callBackend(ctx, w.high, models.TierHigh, system, message)
	if err != nil {
		if ctx.Err() != nil {
			return models.GenerationResult{}, ctx.Err()
		}
		return models.GenerationResult{}, fmt.Errorf("%w: %v", ErrBackendsExhausted, err)
	}
	return result, nil
}

// ModifyInput carries the modify contract: an existing draft plus
// free-text seller edit instructions.
type ModifyInput struct {
	Profile         models.SellerProfile
	OriginalReply   string
	CustomerMessage string
	Instructions    string
}

// Modify re-invokes the low-then-high chain with the reduced prompt.
// The rule tier is never attempted: a template cannot honor arbitrary
// edits.
func (w *Writer) Modify(ctx context.Context, in ModifyInput) (models.GenerationResult, error) {
	system := buildModifySystemPrompt(in.Instructions)
	message := buildModifyUserMessage(in.OriginalReply, in.CustomerMessage)

	result, err := w.callBackend(ctx, w.low, models.TierLow, system, message)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return models.GenerationResult{}, ctx.Err()
	}
	w.logger.Warn("low tier failed on modify, falling back", map[string]interface{}{
		"error": err.Error(),
	})
	metrics.TierFallbacks.WithLabelValues(string(models.TierLow)).Inc()

	result, err = w.callBackend(ctx, w.high, models.TierHigh, system, message)
	if err != nil {
		if ctx.Err() != nil {
			return models.GenerationResult{}, ctx.Err()
		}
		return models.GenerationResult{}, fmt.Errorf("%w: %v", ErrBackendsExhausted, err)
	}
	return result, nil
}

// tryRuleTier returns a zero-cost templated reply when every rule-tier
// condition holds and a template exists for the intent.
func (w *Writer) tryRuleTier(in GenerateInput) (models.GenerationResult, bool) {
	c := in.Classification
	if c.Confidence < w.rules.RuleMinConfidence ||
		c.Risk != models.RiskLow ||
		in.HasEditInstructions ||
		in.FactsRequired {
		return models.GenerationResult{}, false
	}

	template, ok := w.rules.Template(c.Intent)
	if !ok {
		return models.GenerationResult{}, false
	}

	text := strings.ReplaceAll(template, signaturePlaceholder, in.Profile.SignatureName())
	return models.GenerationResult{
		Text:       text,
		Tier:       models.TierRule,
		TokensUsed: 0,
		CostUSD:    0,
	}, true
}

func (w *Writer) callBackend(ctx context.Context, backend Backend, tier models.GenerationTier, system, message string) (models.GenerationResult, error) {
	resp, err := backend.Generate(ctx, system, message)
	if err != nil {
		return models.GenerationResult{}, err
	}

	cost := w.rules.Price(tier, resp.TokensUsed)
	metrics.BackendTokensUsed.WithLabelValues(string(tier)).Add(float64(resp.TokensUsed))
	metrics.BackendCostUSD.WithLabelValues(string(tier)).Add(cost)

	return models.GenerationResult{
		Text:       resp.Text,
		Tier:       tier,
		ModelID:    backend.ModelID(),
		TokensUsed: resp.TokensUsed,
		CostUSD:    cost,
	}, nil
}
