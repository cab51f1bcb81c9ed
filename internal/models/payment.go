package models

import "encoding/json"

// Payment statuses as the portal reports them. Only approved payments
// contribute to revenue; rejected ones stay visible for audit views.
const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentRejected = "rejected"
)

// BusinessRef is attached to payments in super-admin scope only.
type BusinessRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Payment mirrors the portal payload. Amount and CreatedAt stay raw so a
// malformed record cannot abort decoding; the aggregator parses them once
// per pass and excludes records that fail.
type Payment struct {
	ID        int64        `json:"id"`
	Phone     string       `json:"phone"`
	Amount    json.Number  `json:"amount"`
	Plan      string       `json:"plan"`
	Router    RouterRef    `json:"router"`
	Business  *BusinessRef `json:"business,omitempty"`
	Status    string       `json:"status"`
	CreatedAt string       `json:"created_at"`
}
