package types

import "time"

// Outcomes of a single order attempt.
const (
	AttemptFilled   = "filled"
	AttemptRejected = "rejected"
	AttemptFailed   = "failed"
)

// OrderAttempt records one execution unit end to end. Attempts are ephemeral:
// they exist for logging and notifications only and are never persisted.
type OrderAttempt struct {
	AttemptID      string    `json:"attempt_id"`
	SessionID      string    `json:"session_id"`
	MarketID       string    `json:"market_id"`
	TokenID        string    `json:"token_id"`
	RequestedSize  float64   `json:"requested_size"`
	RequestedPrice float64   `json:"requested_price"`
	Outcome        string    `json:"outcome"` // filled, rejected, failed
	Retries        int       `json:"retries"`
	OrderID        string    `json:"order_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
