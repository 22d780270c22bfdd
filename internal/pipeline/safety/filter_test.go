package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_OffPlatformChannels(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "call me",
			in:       "Just call me and we can sort it out.",
			expected: "Just message me here and we can sort it out.",
		},
		{
			name:     "text me case-insensitive",
			in:       "Text me when you get this.",
			expected: "message me here when you get this.",
		},
		{
			name:     "whatsapp",
			in:       "Reach me on WhatsApp for a faster answer.",
			expected: "Reach me in the order messages for a faster answer.",
		},
		{
			name:     "off the platform",
			in:       "We could handle this off the platform.",
			expected: "We could handle this right here.",
		},
		{
			name:     "phone number",
			in:       "My phone number is 555-0100, use it anytime.",
			expected: "you can reach me here anytime, use it anytime.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Filter(tt.in))
		})
	}
}

func TestFilter_FaultAdmission(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{
			in:       "It was my fault the label printed wrong.",
			expected: "I'm sorry this happened the label printed wrong.",
		},
		{
			in:       "We take full responsibility for the delay.",
			expected: "I'm sorry for the trouble for the delay.",
		},
		{
			in:       "That was my mistake entirely.",
			expected: "That was an oversight entirely.",
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Filter(tt.in))
	}
}

func TestFilter_AbsoluteGuarantees(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{
			in:       "I guarantee it arrives by Friday.",
			expected: "I'll do everything I can to make sure it arrives by Friday.",
		},
		{
			in:       "We promise a replacement will go out today.",
			expected: "I'll do my best to make sure a replacement will go out today.",
		},
		{
			in:       "I'm 100% sure it shipped.",
			expected: "I'm confident it shipped.",
		},
		{
			in:       "You have guaranteed delivery with us.",
			expected: "You have expected delivery with us.",
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Filter(tt.in))
	}
}

func TestFilter_CleanTextUntouched(t *testing.T) {
	clean := "Thanks for reaching out! Your order shipped on Monday via USPS. Best, Sam"
	assert.Equal(t, clean, Filter(clean))
}

func TestFilter_Idempotent(t *testing.T) {
	inputs := []string{
		"Just call me, it was my fault, I guarantee a refund.",
		"Text me on WhatsApp, we take full responsibility.",
		"Clean text with no triggers at all.",
		"",
	}

	for _, in := range inputs {
		once := Filter(in)
		twice := Filter(once)
		assert.Equal(t, once, twice, "input: %q", in)
	}
}

func TestFilter_TotalOnAnyInput(t *testing.T) {
	// Must never panic, whatever the text.
	for _, in := range []string{"", " ", "\n\n", "ünïcodé 💬", "call me call me call me"} {
		_ = Filter(in)
	}
}
