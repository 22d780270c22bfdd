// Package facts defines the fact-provider boundary and the marketplace
// adapter behind it. A failed lookup is never an error to the
// pipeline: it degrades into a clarifying question in the reply.
package facts

import (
	"context"

	"replydesk/internal/models"
)

// Provider supplies normalized order facts for an order identifier.
type Provider interface {
	FetchFacts(ctx context.Context, accountID, orderID string) models.FactsResult
}
