// Package rules loads the versioned tuning document that drives the
// reply pipeline: the ordered intent/pattern tables, risk-tier
// membership, rule templates and the per-tier token price table.
package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	stderr "replydesk/internal/common/errors"
	"replydesk/internal/models"
)

//go:embed default_rules.json
var defaultDocument []byte

// IntentRule is one row of the ordered intent table. Order matters:
// score ties between intents are broken by table position, first wins.
type IntentRule struct {
	Name     string   `json:"name"`
	Patterns []string `json:"patterns"`
	Template string   `json:"template,omitempty"`
}

type document struct {
	Version   int          `json:"version"`
	Intents   []IntentRule `json:"intents"`
	RiskTiers struct {
		High   []string `json:"high"`
		Medium []string `json:"medium"`
	} `json:"risk_tiers"`
	FactsIntents []string `json:"facts_intents"`
	Thresholds   struct {
		RuleMinConfidence int `json:"rule_min_confidence"`
	} `json:"thresholds"`
	Pricing struct {
		PricePer1K struct {
			Low  float64 `json:"low"`
			High float64 `json:"high"`
		} `json:"price_per_1k_tokens_usd"`
	} `json:"pricing"`
}

// Rules is the validated, immutable rules document.
type Rules struct {
	Version           int
	Intents           []IntentRule
	RuleMinConfidence int

	highRisk     map[string]bool
	mediumRisk   map[string]bool
	factsIntents map[string]bool
	templates    map[string]string
	pricePer1K   map[models.GenerationTier]float64
}

// Load reads and validates a rules document from path. An empty path
// selects the embedded default document.
func Load(path string) (*Rules, error) {
	raw := defaultDocument
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rules document: %w", err)
		}
	}
	return Parse(raw)
}

// Parse validates raw JSON against the document schema and builds the
// lookup tables.
func Parse(raw []byte) (*Rules, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, stderr.NewRulesInvalidError(err.Error())
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, stderr.NewRulesInvalidError(strings.Join(details, "; "))
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, stderr.NewRulesInvalidError(err.Error())
	}

	r := &Rules{
		Version:           doc.Version,
		Intents:           doc.Intents,
		RuleMinConfidence: doc.Thresholds.RuleMinConfidence,
		highRisk:          make(map[string]bool),
		mediumRisk:        make(map[string]bool),
		factsIntents:      make(map[string]bool),
		templates:         make(map[string]string),
		pricePer1K: map[models.GenerationTier]float64{
			models.TierLow:  doc.Pricing.PricePer1K.Low,
			models.TierHigh: doc.Pricing.PricePer1K.High,
		},
	}

	known := make(map[string]bool, len(doc.Intents))
	for _, in := range doc.Intents {
		if known[in.Name] {
			return nil, stderr.NewRulesInvalidError(fmt.Sprintf("duplicate intent %q", in.Name))
		}
		known[in.Name] = true
		if in.Template != "" {
			r.templates[in.Name] = in.Template
		}
	}

	for _, name := range doc.RiskTiers.High {
		if !known[name] {
			return nil, stderr.NewRulesInvalidError(fmt.Sprintf("high-risk intent %q not in intent table", name))
		}
		r.highRisk[name] = true
	}
	for _, name := range doc.RiskTiers.Medium {
		if !known[name] {
			return nil, stderr.NewRulesInvalidError(fmt.Sprintf("medium-risk intent %q not in intent table", name))
		}
		if r.highRisk[name] {
			return nil, stderr.NewRulesInvalidError(fmt.Sprintf("intent %q in both risk tiers", name))
		}
		r.mediumRisk[name] = true
	}
	for _, name := range doc.FactsIntents {
		if !known[name] {
			return nil, stderr.NewRulesInvalidError(fmt.Sprintf("facts intent %q not in intent table", name))
		}
		r.factsIntents[name] = true
	}

	return r, nil
}

// RiskFor maps an intent to its risk tier via the fixed membership
// tables. Intents outside both tables are low risk.
func (r *Rules) RiskFor(intent models.Intent) models.RiskTier {
	name := string(intent)
	switch {
	case r.highRisk[name]:
		return models.RiskHigh
	case r.mediumRisk[name]:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Template returns the rule-tier template for an intent, if one exists.
func (r *Rules) Template(intent models.Intent) (string, bool) {
	t, ok := r.templates[string(intent)]
	return t, ok
}

// RequiresFacts reports whether replies for this intent normally need
// order facts, which disqualifies the rule tier.
func (r *Rules) RequiresFacts(intent models.Intent) bool {
	return r.factsIntents[string(intent)]
}

// Price computes the cost in USD for a token count on a tier. The rule
// tier is always free.
func (r *Rules) Price(tier models.GenerationTier, tokens int) float64 {
	return r.pricePer1K[tier] * float64(tokens) / 1000.0
}
