package types

import "time"

// Order sides accepted by the exchange.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Token is one outcome of a market, with its current ask price.
type Token struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"` // e.g. "YES" or "NO"
	Price   float64 `json:"price"`
}

// Market is a read-only projection of an exchange-listed question. It is
// never mutated locally; the gateway response is authoritative.
type Market struct {
	MarketID         string  `json:"condition_id"`
	Question         string  `json:"question"`
	Slug             string  `json:"market_slug"`
	Active           bool    `json:"active"`
	Closed           bool    `json:"closed"`
	AcceptingOrders  bool    `json:"accepting_orders"`
	MinimumOrderSize float64 `json:"minimum_order_size"` // 0 means not declared
	Tokens           []Token `json:"tokens"`
}

// Tradable reports whether the market should be considered by the scanner.
func (m Market) Tradable() bool {
	return m.Active && !m.Closed && m.AcceptingOrders
}

// Trade is a single fill record returned by the exchange.
type Trade struct {
	TradeID   string    `json:"id"`
	TokenID   string    `json:"asset_id"`
	Side      string    `json:"side"`
	Size      float64   `json:"size"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Open order statuses as reported by the exchange.
const (
	OrderStatusLive      = "LIVE"
	OrderStatusFilled    = "FILLED"
	OrderStatusCancelled = "CANCELLED"
)

// OpenOrder is an order resting on the exchange book.
type OpenOrder struct {
	OrderID string  `json:"id"`
	TokenID string  `json:"asset_id"`
	Side    string  `json:"side"`
	Size    float64 `json:"original_size"`
	Price   float64 `json:"price"`
	Status  string  `json:"status"`
}

// OrderResult is the exchange's response to an accepted submission.
type OrderResult struct {
	OrderID string `json:"orderID"`
	Status  string `json:"status"`
	Success bool   `json:"success"`
}
