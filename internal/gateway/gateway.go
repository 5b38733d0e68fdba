package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/types"
)

// OrderRequest describes one order submission to the exchange.
type OrderRequest struct {
	MarketID string  `json:"market"`
	TokenID  string  `json:"token_id"`
	Side     string  `json:"side"`
	Size     float64 `json:"size"`
	Price    float64 `json:"price"`
}

// Gateway wraps market-metadata retrieval and order submission on the
// exchange. It is consumed as a capability: the rest of the pipeline only
// depends on this interface.
type Gateway interface {
	// GetMarkets returns the current market/token snapshot.
	GetMarkets(ctx context.Context) ([]types.Market, error)

	// GetMarketMetadata returns the declared minimum order size for a market
	// and whether the exchange declares one at all.
	GetMarketMetadata(ctx context.Context, marketID string) (float64, bool, error)

	// SubmitOrder submits a limit order. Exchange declines are returned as
	// *RejectionError; network failures wrap types.ErrTransport.
	SubmitOrder(ctx context.Context, req OrderRequest) (*types.OrderResult, error)

	// GetTrades returns trades for a market newer than sinceID. An empty
	// sinceID returns the full recent history.
	GetTrades(ctx context.Context, marketID, sinceID string) ([]types.Trade, error)

	// GetOpenOrders returns the orders currently resting for a market.
	GetOpenOrders(ctx context.Context, marketID string) ([]types.OpenOrder, error)

	// GetPrice returns the best price for a token on the given side.
	GetPrice(ctx context.Context, tokenID, side string) (float64, error)
}

// RejectionError is an order declined by the exchange. The payload may be
// structured (MinimumOrderSize set) or free text (Message only); both shapes
// are fed to the size-resolution parsers.
type RejectionError struct {
	StatusCode       int
	Code             string
	Message          string
	MinimumOrderSize float64 // 0 when the payload carries no structured minimum
}

func (e *RejectionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("order rejected (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("order rejected: %s", e.Message)
}

// IsBalanceRejection reports whether the decline looks like an insufficient
// balance or allowance, which is never retried.
func (e *RejectionError) IsBalanceRejection() bool {
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "balance") || strings.Contains(msg, "allowance")
}
