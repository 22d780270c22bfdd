package models

// OrderItem is one purchased line item on an order.
type OrderItem struct {
	Title  string `json:"title"`
	Qty    int    `json:"qty"`
	ItemID string `json:"itemId"`
}

// TrackingEntry is one shipment tracking record on an order.
type TrackingEntry struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber"`
	ShippedDate    string `json:"shippedDate"`
}

// OrderFacts holds normalized order data fetched from the marketplace.
// Facts are never fabricated downstream: a field absent here is absent
// from every prompt and every reply.
type OrderFacts struct {
	OrderID       string          `json:"orderId"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	BuyerUsername string          `json:"buyerUsername"`
	Items         []OrderItem     `json:"items"`
	Tracking      []TrackingEntry `json:"tracking"`
}

// MissingDataReason explains why order facts could not be fetched.
type MissingDataReason string

const (
	ReasonOrderIDMissing      MissingDataReason = "order_id_missing"
	ReasonAccountNotLinked    MissingDataReason = "account_not_linked"
	ReasonUpstreamUnavailable MissingDataReason = "upstream_unavailable"
)

// FactsResult is the outcome of a fact-provider lookup. OK=false is not
// an error: the pipeline proceeds without facts and surfaces a
// clarifying question instead.
type FactsResult struct {
	OK     bool              `json:"ok"`
	Order  *OrderFacts       `json:"order,omitempty"`
	Reason MissingDataReason `json:"reason,omitempty"`
}
