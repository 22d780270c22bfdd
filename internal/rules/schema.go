package rules

// documentSchema is the JSON Schema every rules document must satisfy
// before it is accepted. Tuning the tables means shipping a new
// document version, not redeploying the service, so validation has to
// be strict.
const documentSchema = `{
  "type": "object",
  "required": ["version", "intents", "risk_tiers", "facts_intents", "thresholds", "pricing"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "intents": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "patterns"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "patterns": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          },
          "template": {"type": "string", "minLength": 1}
        }
      }
    },
    "risk_tiers": {
      "type": "object",
      "required": ["high", "medium"],
      "additionalProperties": false,
      "properties": {
        "high": {"type": "array", "items": {"type": "string"}},
        "medium": {"type": "array", "items": {"type": "string"}}
      }
    },
    "facts_intents": {"type": "array", "items": {"type": "string"}},
    "thresholds": {
      "type": "object",
      "required": ["rule_min_confidence"],
      "additionalProperties": false,
      "properties": {
        "rule_min_confidence": {"type": "integer", "minimum": 0, "maximum": 95}
      }
    },
    "pricing": {
      "type": "object",
      "required": ["price_per_1k_tokens_usd"],
      "additionalProperties": false,
      "properties": {
        "price_per_1k_tokens_usd": {
          "type": "object",
          "required": ["low", "high"],
          "additionalProperties": false,
          "properties": {
            "low": {"type": "number", "minimum": 0},
            "high": {"type": "number", "minimum": 0}
          }
        }
      }
    }
  }
}`
