// Package classifier maps raw buyer-message text to an intent label,
// a confidence score and a risk tier, and extracts order identifiers.
package classifier

import (
	"regexp"
	"strings"

	"replydesk/internal/models"
	"replydesk/internal/rules"
)

const (
	defaultConfidence = 20
	confidencePerHit  = 30
	maxConfidence     = 95
)

// orderIDPattern matches marketplace order identifiers of the form
// 12-34567-89012.
var orderIDPattern = regexp.MustCompile(`\b\d{2}-\d{5}-\d{5}\b`)

type Classifier struct {
	rules *rules.Rules
}

func New(r *rules.Rules) *Classifier {
	return &Classifier{rules: r}
}

// Classify never fails. Each intent's score is the count of its
// patterns found in the case-normalized input; the strictly highest
// score wins and ties break toward the intent earliest in the table.
// When nothing matches the result is the general intent at the floor
// confidence.
func (c *Classifier) Classify(text string) models.ClassificationResult {
	normalized := strings.ToLower(text)

	bestIntent := models.IntentGeneral
	bestScore := 0
	for _, rule := range c.rules.Intents {
		score := 0
		for _, pattern := range rule.Patterns {
			if strings.Contains(normalized, pattern) {
				score++
			}
		}
		// Strict inequality keeps the first-wins tie break stable.
		if score > bestScore {
			bestScore = score
			bestIntent = models.Intent(rule.Name)
		}
	}

	confidence := bestScore*confidencePerHit + defaultConfidence
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return models.ClassificationResult{
		Intent:     bestIntent,
		Confidence: confidence,
		Risk:       c.rules.RiskFor(bestIntent),
	}
}

// ExtractOrderID scans the given texts in order and returns the first
// order-identifier token found, or empty. Extraction is independent of
// intent classification.
func (c *Classifier) ExtractOrderID(texts ...string) string {
	for _, t := range texts {
		if m := orderIDPattern.FindString(t); m != "" {
			return m
		}
	}
	return ""
}
