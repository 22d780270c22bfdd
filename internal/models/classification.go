package models

// Intent is the categorized purpose of a buyer's message.
type Intent string

const (
	IntentGeneral          Intent = "general"
	IntentTracking         Intent = "tracking"
	IntentReturn           Intent = "return"
	IntentRefund           Intent = "refund"
	IntentDamagedItem      Intent = "damaged_item"
	IntentCancellation     Intent = "cancellation"
	IntentItemQuestion     Intent = "item_question"
	IntentPositiveFeedback Intent = "positive_feedback"
	IntentLegalThreat      Intent = "legal_threat"
	IntentFraudClaim       Intent = "fraud_claim"
	IntentOffPlatform      Intent = "off_platform"
)

// RiskTier classifies how sensitive a reply to a message is.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// ClassificationResult is produced once per incoming message and is
// immutable afterwards. Confidence is always of the form
// min(score*30+20, 95).
type ClassificationResult struct {
	Intent     Intent   `json:"intent"`
	Confidence int      `json:"confidence"`
	Risk       RiskTier `json:"risk"`
}
