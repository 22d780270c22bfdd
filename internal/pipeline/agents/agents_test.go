package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"replydesk/internal/models"
)

func classification(intent models.Intent, risk models.RiskTier) models.ClassificationResult {
	return models.ClassificationResult{Intent: intent, Confidence: 50, Risk: risk}
}

func TestRiskConstraints_BaselineAlwaysPresent(t *testing.T) {
	constraints := RiskConstraints(classification(models.IntentGeneral, models.RiskLow), nil)

	assert.Len(t, constraints, 3)
	assert.Contains(t, constraints[0], "outside the marketplace")
	assert.Contains(t, constraints[1], "Never invent")
	assert.Contains(t, constraints[2], "admit fault")
}

func TestRiskConstraints_HighRiskAddsDeescalation(t *testing.T) {
	constraints := RiskConstraints(classification(models.IntentLegalThreat, models.RiskHigh), nil)

	assert.Len(t, constraints, 4)
	assert.Contains(t, constraints[3], "de-escalating")
}

func TestRiskConstraints_FraudClaimAddsNonAccusatory(t *testing.T) {
	constraints := RiskConstraints(classification(models.IntentFraudClaim, models.RiskHigh), nil)

	assert.Len(t, constraints, 5)
	assert.Contains(t, constraints[4], "Do not accuse the buyer")
}

func TestProfitConstraints_Tracking(t *testing.T) {
	t.Run("with tracking facts", func(t *testing.T) {
		facts := &models.OrderFacts{
			Tracking: []models.TrackingEntry{{Carrier: "USPS", TrackingNumber: "9400something"}},
		}
		guidance := ProfitConstraints(classification(models.IntentTracking, models.RiskLow), facts)
		assert.Len(t, guidance, 1)
		assert.Contains(t, guidance[0], "carrier and tracking number")
	})

	t.Run("without facts", func(t *testing.T) {
		guidance := ProfitConstraints(classification(models.IntentTracking, models.RiskLow), nil)
		assert.Len(t, guidance, 1)
		assert.Contains(t, guidance[0], "Do not promise a specific delivery date")
	})
}

func TestProfitConstraints_RefundAndReturn(t *testing.T) {
	for _, intent := range []models.Intent{models.IntentRefund, models.IntentReturn} {
		guidance := ProfitConstraints(classification(intent, models.RiskMedium), nil)
		assert.Len(t, guidance, 1, "intent: %s", intent)
		assert.Contains(t, guidance[0], "official return process", "intent: %s", intent)
	}
}

func TestProfitConstraints_CancellationBranchesOnShipped(t *testing.T) {
	tests := []struct {
		name     string
		facts    *models.OrderFacts
		expected string
	}{
		{"already shipped", &models.OrderFacts{Status: "SHIPPED"}, "no longer possible"},
		{"in transit", &models.OrderFacts{Status: "in_transit"}, "no longer possible"},
		{"not shipped", &models.OrderFacts{Status: "PAID"}, "can be requested"},
		{"no facts", nil, "can be requested"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guidance := ProfitConstraints(classification(models.IntentCancellation, models.RiskMedium), tt.facts)
			assert.Len(t, guidance, 1)
			assert.Contains(t, guidance[0], tt.expected)
		})
	}
}

func TestProfitConstraints_NoGuidanceForOtherIntents(t *testing.T) {
	for _, intent := range []models.Intent{models.IntentGeneral, models.IntentPositiveFeedback, models.IntentLegalThreat} {
		assert.Empty(t, ProfitConstraints(classification(intent, models.RiskLow), nil), "intent: %s", intent)
	}
}

func TestAgents_AreDeterministic(t *testing.T) {
	c := classification(models.IntentFraudClaim, models.RiskHigh)
	facts := &models.OrderFacts{Status: "SHIPPED"}

	first := RiskConstraints(c, facts)
	second := RiskConstraints(c, facts)
	assert.Equal(t, first, second)

	firstP := ProfitConstraints(c, facts)
	secondP := ProfitConstraints(c, facts)
	assert.Equal(t, firstP, secondP)
}
