// Package assembler merges fetched facts, unmet data needs and the
// constraint-agent output into the single instruction bundle handed to
// the writer.
package assembler

import (
	"fmt"
	"strings"

	"replydesk/internal/models"
)

// Assemble flattens the facts into short human-readable lines (only
// fields that are actually populated, never placeholders), converts
// missing-data reasons into clarifying questions, and concatenates the
// constraint lists in emission order without de-duplication.
func Assemble(c models.ClassificationResult, factsResult models.FactsResult, constraintSets ...[]string) models.ReasoningBundle {
	bundle := models.ReasoningBundle{}

	if factsResult.OK && factsResult.Order != nil {
		bundle.Facts = flattenFacts(factsResult.Order)
	} else {
		switch factsResult.Reason {
		case models.ReasonOrderIDMissing:
			bundle.Questions = append(bundle.Questions,
				"Ask the buyer for their order number so the order can be looked up.")
		case models.ReasonAccountNotLinked:
			bundle.Questions = append(bundle.Questions,
				"The seller's marketplace account is not linked; order details cannot be fetched until it is reconnected.")
		case models.ReasonUpstreamUnavailable:
			bundle.Questions = append(bundle.Questions,
				"Order details are temporarily unavailable; tell the buyer you are checking on it and will follow up.")
		}
	}

	for _, set := range constraintSets {
		bundle.Constraints = append(bundle.Constraints, set...)
	}

	return bundle
}

func flattenFacts(order *models.OrderFacts) []string {
	var facts []string

	if order.OrderID != "" {
		facts = append(facts, fmt.Sprintf("Order ID: %s", order.OrderID))
	}
	if order.Status != "" {
		facts = append(facts, fmt.Sprintf("Order status: %s", order.Status))
	}
	if order.PaymentStatus != "" {
		facts = append(facts, fmt.Sprintf("Payment status: %s", order.PaymentStatus))
	}
	if order.BuyerUsername != "" {
		facts = append(facts, fmt.Sprintf("Buyer: %s", order.BuyerUsername))
	}
	if len(order.Items) > 0 {
		var items []string
		for _, it := range order.Items {
			if it.Qty > 1 {
				items = append(items, fmt.Sprintf("%s x%d", it.Title, it.Qty))
			} else {
				items = append(items, it.Title)
			}
		}
		facts = append(facts, fmt.Sprintf("Items: %s", strings.Join(items, ", ")))
	}
	if len(order.Tracking) > 0 {
		t := order.Tracking[0]
		line := fmt.Sprintf("Tracking: %s %s", t.Carrier, t.TrackingNumber)
		if t.ShippedDate != "" {
			line += fmt.Sprintf(" (shipped %s)", t.ShippedDate)
		}
		facts = append(facts, line)
	}

	return facts
}
