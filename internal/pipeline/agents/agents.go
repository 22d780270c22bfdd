// Package agents derives the hard constraints and soft guidance that
// the writer must honor. Both agents are pure functions over the
// classification and the already-fetched facts; they never fetch or
// mutate anything.
package agents

import (
	"strings"

	"replydesk/internal/models"
)

// RiskConstraints emits the non-negotiable platform-safety directives.
func RiskConstraints(c models.ClassificationResult, facts *models.OrderFacts) []string {
	constraints := []string{
		"Never suggest contacting the buyer outside the marketplace's messaging system.",
		"Never invent order details, tracking numbers, or delivery dates that are not in the provided facts.",
		"Do not admit fault or legal liability on behalf of the seller.",
	}

	if c.Risk == models.RiskHigh {
		constraints = append(constraints,
			"Keep the tone calm and de-escalating; do not argue, and avoid language that could escalate the dispute.")
	}

	if c.Intent == models.IntentFraudClaim {
		constraints = append(constraints,
			"Do not accuse the buyer of lying or acting in bad faith; acknowledge the concern and point to the official resolution process.")
	}

	return constraints
}

// ProfitConstraints emits intent-specific guidance that protects the
// seller from over-promising.
func ProfitConstraints(c models.ClassificationResult, facts *models.OrderFacts) []string {
	var guidance []string

	switch c.Intent {
	case models.IntentTracking:
		if facts != nil && len(facts.Tracking) > 0 {
			guidance = append(guidance,
				"Confirm the shipment using the carrier and tracking number from the facts.")
		} else {
			guidance = append(guidance,
				"Do not promise a specific delivery date; offer to look into the shipment status instead.")
		}

	case models.IntentRefund, models.IntentReturn:
		guidance = append(guidance,
			"Never promise a refund outcome ahead of the platform's official return process.")

	case models.IntentCancellation:
		if facts != nil && orderShipped(facts.Status) {
			guidance = append(guidance,
				"The order has already shipped, so explain that cancellation is no longer possible and describe the return option instead.")
		} else {
			guidance = append(guidance,
				"If the order has not shipped yet, confirm that a cancellation can be requested and explain the next step.")
		}
	}

	return guidance
}

func orderShipped(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "shipped") ||
		strings.Contains(s, "in_transit") ||
		strings.Contains(s, "in transit") ||
		strings.Contains(s, "delivered")
}
