package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/types"
)

// Client is the HTTP implementation of Gateway against a CLOB-style exchange
// API.
type Client struct {
	host       string
	httpClient *http.Client
}

// NewClient creates a gateway client for the given exchange host.
func NewClient(host string) *Client {
	return &Client{
		host: host,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// marketPage is the wire shape of the markets listing. Some deployments
// return a bare array instead of the wrapped page; both are accepted.
type marketPage struct {
	Markets []marketRecord `json:"markets"`
	Data    []marketRecord `json:"data"`
}

type marketRecord struct {
	ConditionID      string        `json:"condition_id"`
	Question         string        `json:"question"`
	Slug             string        `json:"market_slug"`
	Active           bool          `json:"active"`
	Closed           bool          `json:"closed"`
	AcceptingOrders  bool          `json:"accepting_orders"`
	MinimumOrderSize flexFloat     `json:"minimum_order_size"`
	MinOrderSize     flexFloat     `json:"min_order_size"`
	Tokens           []tokenRecord `json:"tokens"`
}

type tokenRecord struct {
	TokenID string    `json:"token_id"`
	Outcome string    `json:"outcome"`
	Price   flexFloat `json:"price"`
}

// flexFloat decodes numeric fields the exchange sometimes serialises as
// strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

func (r marketRecord) toMarket() types.Market {
	m := types.Market{
		MarketID:         r.ConditionID,
		Question:         r.Question,
		Slug:             r.Slug,
		Active:           r.Active,
		Closed:           r.Closed,
		AcceptingOrders:  r.AcceptingOrders,
		MinimumOrderSize: float64(r.MinimumOrderSize),
	}
	if m.MinimumOrderSize == 0 {
		m.MinimumOrderSize = float64(r.MinOrderSize)
	}
	for _, t := range r.Tokens {
		m.Tokens = append(m.Tokens, types.Token{
			TokenID: t.TokenID,
			Outcome: t.Outcome,
			Price:   float64(t.Price),
		})
	}
	return m
}

func (c *Client) GetMarkets(ctx context.Context) ([]types.Market, error) {
	body, err := c.get(ctx, "/markets", url.Values{"limit": {"1000"}})
	if err != nil {
		return nil, err
	}

	var page marketPage
	if err := json.Unmarshal(body, &page); err != nil {
		// Fall back to a bare array response.
		var bare []marketRecord
		if err2 := json.Unmarshal(body, &bare); err2 != nil {
			return nil, fmt.Errorf("decode markets response: %w", err)
		}
		page.Markets = bare
	}

	records := page.Markets
	if len(records) == 0 {
		records = page.Data
	}

	markets := make([]types.Market, 0, len(records))
	for _, r := range records {
		markets = append(markets, r.toMarket())
	}
	return markets, nil
}

func (c *Client) GetMarketMetadata(ctx context.Context, marketID string) (float64, bool, error) {
	body, err := c.get(ctx, "/markets/"+url.PathEscape(marketID), nil)
	if err != nil {
		return 0, false, err
	}

	var record marketRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return 0, false, fmt.Errorf("decode market metadata: %w", err)
	}

	m := record.toMarket()
	if m.MinimumOrderSize > 0 {
		return m.MinimumOrderSize, true, nil
	}
	return 0, false, nil
}

// rejectionPayload covers both structured and free-text decline bodies.
type rejectionPayload struct {
	Error            string    `json:"error"`
	Message          string    `json:"message"`
	MinimumOrderSize flexFloat `json:"minimumOrderSize"`
}

func (c *Client) SubmitOrder(ctx context.Context, req OrderRequest) (*types.OrderResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/order", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: submit order: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read order response: %v", types.ErrTransport, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: exchange returned %d", types.ErrTransport, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		var rej rejectionPayload
		_ = json.Unmarshal(body, &rej)
		msg := rej.Message
		if msg == "" {
			msg = rej.Error
		}
		if msg == "" {
			msg = string(body)
		}
		log.Debug().
			Str("component", "gateway").
			Int("status", resp.StatusCode).
			Str("message", msg).
			Msg("order rejected by exchange")
		return nil, &RejectionError{
			StatusCode:       resp.StatusCode,
			Code:             rej.Error,
			Message:          msg,
			MinimumOrderSize: float64(rej.MinimumOrderSize),
		}
	}

	var result types.OrderResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	if result.Status == "" {
		result.Status = types.OrderStatusLive
	}
	return &result, nil
}

type tradeRecord struct {
	TradeID   string    `json:"id"`
	TokenID   string    `json:"asset_id"`
	Side      string    `json:"side"`
	Size      flexFloat `json:"size"`
	Price     flexFloat `json:"price"`
	Timestamp flexFloat `json:"match_time"`
}

func (c *Client) GetTrades(ctx context.Context, marketID, sinceID string) ([]types.Trade, error) {
	params := url.Values{"market": {marketID}}
	if sinceID != "" {
		params.Set("after", sinceID)
	}
	body, err := c.get(ctx, "/trades", params)
	if err != nil {
		return nil, err
	}

	var records []tradeRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode trades response: %w", err)
	}

	trades := make([]types.Trade, 0, len(records))
	for _, r := range records {
		trades = append(trades, types.Trade{
			TradeID:   r.TradeID,
			TokenID:   r.TokenID,
			Side:      r.Side,
			Size:      float64(r.Size),
			Price:     float64(r.Price),
			Timestamp: time.Unix(int64(r.Timestamp), 0),
		})
	}
	return trades, nil
}

type openOrderRecord struct {
	OrderID string    `json:"id"`
	TokenID string    `json:"asset_id"`
	Side    string    `json:"side"`
	Size    flexFloat `json:"original_size"`
	Price   flexFloat `json:"price"`
	Status  string    `json:"status"`
}

func (c *Client) GetOpenOrders(ctx context.Context, marketID string) ([]types.OpenOrder, error) {
	body, err := c.get(ctx, "/orders", url.Values{"market": {marketID}})
	if err != nil {
		return nil, err
	}

	var records []openOrderRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode open orders response: %w", err)
	}

	orders := make([]types.OpenOrder, 0, len(records))
	for _, r := range records {
		orders = append(orders, types.OpenOrder{
			OrderID: r.OrderID,
			TokenID: r.TokenID,
			Side:    r.Side,
			Size:    float64(r.Size),
			Price:   float64(r.Price),
			Status:  r.Status,
		})
	}
	return orders, nil
}

func (c *Client) GetPrice(ctx context.Context, tokenID, side string) (float64, error) {
	body, err := c.get(ctx, "/price", url.Values{"token_id": {tokenID}, "side": {side}})
	if err != nil {
		return 0, err
	}

	var payload struct {
		Price flexFloat `json:"price"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("decode price response: %w", err)
	}
	return float64(payload.Price), nil
}

// get performs a GET against the exchange host and returns the body on any
// 2xx status. Network failures and 5xx responses wrap types.ErrTransport.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.host + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", types.ErrTransport, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", types.ErrTransport, err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: GET %s returned %d", types.ErrTransport, path, resp.StatusCode)
	}
	return body, nil
}
