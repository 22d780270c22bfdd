package models

// SellerProfile is caller-supplied and read-only for the pipeline.
type SellerProfile struct {
	AccountID    string   `json:"accountId"`
	DisplayName  string   `json:"displayName"`
	BusinessName string   `json:"businessName"`
	Tone         string   `json:"tone"`
	ToneSamples  []string `json:"toneSamples"`
}

// SignatureName is the name substituted into templates and prompts.
func (p SellerProfile) SignatureName() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.BusinessName
}

// ThreadMessage is one message of the conversation excerpt supplied by
// the caller.
type ThreadMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
