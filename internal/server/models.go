package server

// GenerateRequest is the reply-generation request body.
type GenerateRequest struct {
	CustomerMessage    string          `json:"customer_message"`
	ModifyInstructions string          `json:"modify_instructions,omitempty"`
	BuyerName          string          `json:"buyer_name,omitempty"`
	OrderID            string          `json:"order_id,omitempty"`
	ThreadMessages     []ThreadMessage `json:"thread_messages,omitempty"`
}

type ThreadMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// GenerateResponse is the success body for reply generation.
type GenerateResponse struct {
	Success   bool   `json:"success"`
	Reply     string `json:"reply"`
	Intent    string `json:"intent"`
	Risk      string `json:"risk"`
	Route     string `json:"route"`
	LatencyMS int64  `json:"latency_ms"`
	FactsUsed bool   `json:"facts_used"`
}

// ModifyRequest is the draft-revision request body.
type ModifyRequest struct {
	OriginalReply   string `json:"original_reply"`
	CustomerMessage string `json:"customer_message,omitempty"`
	Instructions    string `json:"instructions"`
}

// ModifyResponse is the success body for draft revision.
type ModifyResponse struct {
	Success bool   `json:"success"`
	Reply   string `json:"reply"`
	Route   string `json:"route"`
}

// UsageResponse is one account's usage aggregate for a single day.
type UsageResponse struct {
	AccountID  string  `json:"account_id"`
	Date       string  `json:"date"`
	Replies    int     `json:"replies_count"`
	RuleCount  int     `json:"rule_count"`
	LowCount   int     `json:"low_count"`
	HighCount  int     `json:"high_count"`
	TokensUsed int     `json:"tokens_used"`
	CostUSD    float64 `json:"cost_usd"`
}

// ErrorResponse carries a generic error message; internal detail never
// leaks to the caller.
type ErrorResponse struct {
	Error string `json:"error"`
}
