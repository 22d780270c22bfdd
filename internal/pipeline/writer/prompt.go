package writer

import (
	"fmt"
	"strings"

	"replydesk/internal/models"
)

const (
	maxToneSamples      = 3
	toneSampleMaxChars  = 280
	maxThreadMessages   = 6
	escalationNoticeMed = "This conversation is sensitive. Be extra careful, stay factual, and do not make commitments beyond the constraints."
)

// buildSystemPrompt embeds the seller profile, tone samples, the
// reasoning bundle and, for medium risk, an escalation notice. The
// prompt can only carry data that was explicitly supplied upstream.
func buildSystemPrompt(profile models.SellerProfile, reasoning models.ReasoningBundle, risk models.RiskTier) string {
	var parts []string

	parts = append(parts, "You are a customer-service assistant writing replies on behalf of a marketplace seller.")
	if profile.BusinessName != "" {
		parts = append(parts, fmt.Sprintf("The seller's business is %q.", profile.BusinessName))
	}
	if profile.SignatureName() != "" {
		parts = append(parts, fmt.Sprintf("Sign the reply as %s.", profile.SignatureName()))
	}
	if profile.Tone != "" {
		parts = append(parts, fmt.Sprintf("Write in a %s tone.", profile.Tone))
	}

	if len(profile.ToneSamples) > 0 {
		parts = append(parts, "\nExamples of how the seller writes:")
		samples := profile.ToneSamples
		if len(samples) > maxToneSamples {
			samples = samples[:maxToneSamples]
		}
		for _, s := range samples {
			parts = append(parts, "- "+truncate(s, toneSampleMaxChars))
		}
	}

	if len(reasoning.Facts) > 0 {
		parts = append(parts, "\nKnown order facts (use ONLY these, never invent others):")
		for _, f := range reasoning.Facts {
			parts = append(parts, "- "+f)
		}
	}

	if len(reasoning.Questions) > 0 {
		parts = append(parts, "\nOpen questions to address in the reply:")
		for _, q := range reasoning.Questions {
			parts = append(parts, "- "+q)
		}
	}

	if len(reasoning.Constraints) > 0 {
		parts = append(parts, "\nConstraints (non-negotiable):")
		for _, c := range reasoning.Constraints {
			parts = append(parts, "- "+c)
		}
	}

	if risk == models.RiskMedium {
		parts = append(parts, "\n"+escalationNoticeMed)
	}

	parts = append(parts, "\nWrite only the reply text, ready to send.")

	return strings.Join(parts, "\n")
}

// buildUserMessage renders the buyer's message plus a bounded excerpt
// of the conversation thread.
func buildUserMessage(message string, thread []models.ThreadMessage) string {
	if len(thread) == 0 {
		return fmt.Sprintf("Buyer message:\n%s", message)
	}

	excerpt := thread
	if len(excerpt) > maxThreadMessages {
		excerpt = excerpt[len(excerpt)-maxThreadMessages:]
	}

	var parts []string
	parts = append(parts, "Conversation so far:")
	for _, m := range excerpt {
		parts = append(parts, fmt.Sprintf("[%s] %s", m.Role, m.Text))
	}
	parts = append(parts, fmt.Sprintf("\nBuyer message:\n%s", message))
	return strings.Join(parts, "\n")
}

// buildModifySystemPrompt is the reduced prompt for the modify
// contract: the original draft plus the seller's edit instructions,
// verbatim.
func buildModifySystemPrompt(instructions string) string {
	var parts []string
	parts = append(parts, "You revise customer-service replies for a marketplace seller.")
	parts = append(parts, "Apply the seller's instructions to the draft. Keep everything factual that the draft already states; add nothing new about the order.")
	parts = append(parts, fmt.Sprintf("\nSeller's instructions: %s", instructions))
	parts = append(parts, "\nReturn only the revised reply text.")
	return strings.Join(parts, "\n")
}

func buildModifyUserMessage(original, customerMessage string) string {
	var parts []string
	if customerMessage != "" {
		parts = append(parts, fmt.Sprintf("Buyer message:\n%s", customerMessage))
	}
	parts = append(parts, fmt.Sprintf("Draft reply:\n%s", original))
	return strings.Join(parts, "\n\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
