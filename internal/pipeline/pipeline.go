// Package pipeline wires the reply-generation stages together:
// classification, fact fetching, constraint assembly, tiered writing
// and the safety post-filter.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	stderr "replydesk/internal/common/errors"
	"replydesk/internal/common/logger"
	"replydesk/internal/common/metrics"
	"replydesk/internal/models"
	"replydesk/internal/pipeline/agents"
	"replydesk/internal/pipeline/assembler"
	"replydesk/internal/pipeline/classifier"
	"replydesk/internal/pipeline/facts"
	"replydesk/internal/pipeline/safety"
	"replydesk/internal/pipeline/writer"
	"replydesk/internal/rules"
)

// AccountingSink receives the usage delta and the audit record for a
// finished reply. Its failure must never fail the reply.
type AccountingSink interface {
	Publish(ev models.UsageEvent, record models.ReplyRecord)
}

// RiskNotifier is told about high-risk incoming messages.
type RiskNotifier interface {
	Alert(accountID string, c models.ClassificationResult, message string)
}

// Request is one reply-generation request, already validated and
// paired with the caller-resolved seller profile.
type Request struct {
	Profile            models.SellerProfile
	CustomerMessage    string
	ModifyInstructions string
	BuyerName          string
	OrderID            string
	Thread             []models.ThreadMessage
}

// Result is the pipeline's answer for one request.
type Result struct {
	Reply      string
	Intent     models.Intent
	Risk       models.RiskTier
	Route      string
	LatencyMS  int64
	FactsUsed  bool
	Generation models.GenerationResult
}

// ModifyRequest is the reduced contract for editing an existing draft.
type ModifyRequest struct {
	Profile         models.SellerProfile
	OriginalReply   string
	CustomerMessage string
	Instructions    string
}

type Pipeline struct {
	classifier *classifier.Classifier
	provider   facts.Provider
	writer     *writer.Writer
	rules      *rules.Rules
	sink       AccountingSink
	notifier   RiskNotifier
	logger     logger.Logger
}

// New builds the pipeline. sink and notifier may be nil.
func New(cl *classifier.Classifier, provider facts.Provider, w *writer.Writer, r *rules.Rules, sink AccountingSink, notifier RiskNotifier, log logger.Logger) *Pipeline {
	return &Pipeline{
		classifier: cl,
		provider:   provider,
		writer:     w,
		rules:      r,
		sink:       sink,
		notifier:   notifier,
		logger:     log.With(map[string]interface{}{"component": "pipeline"}),
	}
}

// Reply processes one buyer message end to end. Stages run strictly in
// dependency order; the only fatal path is every applicable generation
// tier failing.
func (p *Pipeline) Reply(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	log := p.logger.With(map[string]interface{}{
		"requestId": uuid.NewString(),
		"accountId": req.Profile.AccountID,
	})

	classifyStart := time.Now()
	classification := p.classifier.Classify(req.CustomerMessage)
	metrics.PipelineStageDuration.WithLabelValues("classify").Observe(time.Since(classifyStart).Seconds())
	metrics.ClassifiedIntents.WithLabelValues(string(classification.Intent), string(classification.Risk)).Inc()

	log.Info("message classified", map[string]interface{}{
		"intent":     classification.Intent,
		"confidence": classification.Confidence,
		"risk":       classification.Risk,
	})

	if classification.Risk == models.RiskHigh && p.notifier != nil {
		go p.notifier.Alert(req.Profile.AccountID, classification, req.CustomerMessage)
	}

	orderID := req.OrderID
	if orderID == "" {
		texts := []string{req.CustomerMessage}
		for _, m := range req.Thread {
			texts = append(texts, m.Text)
		}
		orderID = p.classifier.ExtractOrderID(texts...)
	}

	factsRequired := p.rules.RequiresFacts(classification.Intent) || orderID != ""

	factsResult := models.FactsResult{OK: false}
	if factsRequired {
		factsStart := time.Now()
		factsResult = p.provider.FetchFacts(ctx, req.Profile.AccountID, orderID)
		metrics.PipelineStageDuration.WithLabelValues("facts").Observe(time.Since(factsStart).Seconds())
	}

	var order *models.OrderFacts
	if factsResult.OK {
		order = factsResult.Order
	}

	riskConstraints := agents.RiskConstraints(classification, order)
	profitConstraints := agents.ProfitConstraints(classification, order)

	bundle := assembler.Assemble(classification, factsResult, riskConstraints, profitConstraints)
	if req.ModifyInstructions != "" {
		bundle.Constraints = append(bundle.Constraints,
			fmt.Sprintf("The seller asked for this reply specifically: %s", req.ModifyInstructions))
	}

	generateStart := time.Now()
	generation, err := p.writer.Generate(ctx, writer.GenerateInput{
		Profile:             req.Profile,
		Classification:      classification,
		Message:             req.CustomerMessage,
		Thread:              req.Thread,
		Reasoning:           bundle,
		FactsRequired:       factsRequired,
		HasEditInstructions: req.ModifyInstructions != "",
	})
	metrics.PipelineStageDuration.WithLabelValues("generate").Observe(time.Since(generateStart).Seconds())
	if err != nil {
		// Tokens billed on a call that completed before the chain
		// failed are already counted by the writer's metrics.
		metrics.RepliesFailed.WithLabelValues(failureCode(err)).Inc()
		log.Error("generation failed", map[string]interface{}{"error": err.Error()})
		return Result{}, err
	}

	generation.Text = safety.Filter(generation.Text)

	latency := time.Since(started)
	result := Result{
		Reply:      generation.Text,
		Intent:     classification.Intent,
		Risk:       classification.Risk,
		Route:      string(generation.Tier),
		LatencyMS:  latency.Milliseconds(),
		FactsUsed:  factsResult.OK,
		Generation: generation,
	}

	metrics.RepliesGenerated.WithLabelValues(result.Route).Inc()
	p.account(req.Profile.AccountID, classification, result)

	log.Info("reply generated", map[string]interface{}{
		"route":      result.Route,
		"latencyMs":  result.LatencyMS,
		"factsUsed":  result.FactsUsed,
		"tokensUsed": generation.TokensUsed,
	})

	return result, nil
}

// Modify re-drafts an existing reply per the seller's instructions.
// The rule tier is never involved.
func (p *Pipeline) Modify(ctx context.Context, req ModifyRequest) (Result, error) {
	started := time.Now()

	generation, err := p.writer.Modify(ctx, writer.ModifyInput{
		Profile:         req.Profile,
		OriginalReply:   req.OriginalReply,
		CustomerMessage: req.CustomerMessage,
		Instructions:    req.Instructions,
	})
	if err != nil {
		metrics.RepliesFailed.WithLabelValues(failureCode(err)).Inc()
		p.logger.Error("modify failed", map[string]interface{}{"error": err.Error()})
		return Result{}, err
	}

	generation.Text = safety.Filter(generation.Text)

	latency := time.Since(started)
	result := Result{
		Reply:      generation.Text,
		Route:      "modify",
		LatencyMS:  latency.Milliseconds(),
		Generation: generation,
	}

	metrics.RepliesGenerated.WithLabelValues("modify").Inc()
	p.accountModify(req.Profile.AccountID, result)

	return result, nil
}

func failureCode(err error) string {
	switch {
	case errors.Is(err, writer.ErrBackendsExhausted):
		return string(stderr.ErrCodeBackendsExhausted)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELED"
	default:
		return string(stderr.ErrCodeBackendUnavailable)
	}
}

func (p *Pipeline) account(accountID string, c models.ClassificationResult, result Result) {
	if p.sink == nil {
		return
	}
	now := time.Now()
	ev := models.NewUsageEvent(accountID, result.Generation, now)
	record := models.ReplyRecord{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Intent:     c.Intent,
		Risk:       c.Risk,
		Route:      result.Route,
		ModelID:    result.Generation.ModelID,
		TokensUsed: result.Generation.TokensUsed,
		CostUSD:    result.Generation.CostUSD,
		LatencyMS:  result.LatencyMS,
		FactsUsed:  result.FactsUsed,
		CreatedAt:  now.UTC(),
	}
	go p.sink.Publish(ev, record)
}

func (p *Pipeline) accountModify(accountID string, result Result) {
	if p.sink == nil {
		return
	}
	now := time.Now()
	ev := models.NewUsageEvent(accountID, result.Generation, now)
	record := models.ReplyRecord{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Route:      result.Route,
		ModelID:    result.Generation.ModelID,
		TokensUsed: result.Generation.TokensUsed,
		CostUSD:    result.Generation.CostUSD,
		LatencyMS:  result.LatencyMS,
		CreatedAt:  now.UTC(),
	}
	go p.sink.Publish(ev, record)
}
