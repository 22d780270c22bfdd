package models

// GenerationTier identifies which reply-production strategy produced a
// draft.
type GenerationTier string

const (
	TierRule GenerationTier = "rule"
	TierLow  GenerationTier = "low"
	TierHigh GenerationTier = "high"
)

// ReasoningBundle is the sole payload handed to the writer. By
// construction it can contain nothing that was not supplied by
// OrderFacts or the constraint agents.
type ReasoningBundle struct {
	Facts       []string `json:"facts"`
	Questions   []string `json:"questions"`
	Constraints []string `json:"constraints"`
}

// GenerationResult is the writer's output for one request.
// Tier==TierRule implies TokensUsed==0 and CostUSD==0.
type GenerationResult struct {
	Text       string         `json:"text"`
	Tier       GenerationTier `json:"tier"`
	ModelID    string         `json:"modelId"`
	TokensUsed int            `json:"tokensUsed"`
	CostUSD    float64        `json:"costUsd"`
}
