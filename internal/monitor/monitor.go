package monitor

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/gateway"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/notify"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/types"
)

// priceEpsilon is the smallest price move worth reporting.
const priceEpsilon = 0.0001

// Watch identifies one independent per-market poll.
type Watch struct {
	WatchID   string
	MarketID  string
	TokenID   string
	Recipient string
}

// Monitor polls trades, open orders and price for a market and streams
// deltas to the notification sink: at most one notification per delta
// category per poll, and unchanged state is never replayed.
type Monitor struct {
	gw       gateway.Gateway
	sink     notify.Sink
	interval time.Duration
	duration time.Duration // 0 means watch until stopped
	logger   zerolog.Logger
}

func New(gw gateway.Gateway, sink notify.Sink, interval, duration time.Duration) *Monitor {
	return &Monitor{
		gw:       gw,
		sink:     sink,
		interval: interval,
		duration: duration,
		logger:   log.With().Str("component", "position_monitor").Logger(),
	}
}

// watchState carries the previous poll's view of the market. Watches for
// different markets never share state.
type watchState struct {
	lastTradeID string
	orderStatus map[string]string
	lastPrice   float64
	priceSeen   bool
}

// Run polls the market until the context is cancelled or the watch duration
// elapses. A failed fetch logs and retries next interval; it never
// terminates the loop.
func (m *Monitor) Run(ctx context.Context, w Watch) {
	logger := m.logger.With().Str("watch_id", w.WatchID).Str("market_id", w.MarketID).Logger()
	logger.Info().Msg("monitor watch started")

	state := &watchState{orderStatus: make(map[string]string)}
	m.baseline(ctx, w, state)
	m.notifyWatch(ctx, w, fmt.Sprintf("Monitoring started for market %s.", w.MarketID))

	var deadline <-chan time.Time
	if m.duration > 0 {
		timer := time.NewTimer(m.duration)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("monitor watch stopped")
			return
		case <-deadline:
			m.notifyWatch(ctx, w, fmt.Sprintf("Monitoring ended for market %s after %s.", w.MarketID, m.duration))
			logger.Info().Msg("monitor watch duration elapsed")
			return
		case <-ticker.C:
			m.Poll(ctx, w, state)
		}
	}
}

// baseline seeds the state so the first poll only reports actual deltas.
func (m *Monitor) baseline(ctx context.Context, w Watch, state *watchState) {
	if trades, err := m.gw.GetTrades(ctx, w.MarketID, ""); err == nil && len(trades) > 0 {
		state.lastTradeID = trades[len(trades)-1].TradeID
	}
	if orders, err := m.gw.GetOpenOrders(ctx, w.MarketID); err == nil {
		for _, o := range orders {
			state.orderStatus[o.OrderID] = o.Status
		}
	}
	if w.TokenID != "" {
		if price, err := m.gw.GetPrice(ctx, w.TokenID, types.SideBuy); err == nil {
			state.lastPrice = price
			state.priceSeen = true
		}
	}
}

// Poll computes the delta versus the previous poll and emits one
// notification per changed category.
func (m *Monitor) Poll(ctx context.Context, w Watch, state *watchState) {
	m.pollTrades(ctx, w, state)
	m.pollOrders(ctx, w, state)
	m.pollPrice(ctx, w, state)
}

func (m *Monitor) pollTrades(ctx context.Context, w Watch, state *watchState) {
	trades, err := m.gw.GetTrades(ctx, w.MarketID, state.lastTradeID)
	if err != nil {
		m.logger.Warn().Err(err).Str("watch_id", w.WatchID).Msg("trade fetch failed, retrying next interval")
		return
	}
	if len(trades) == 0 {
		return
	}

	lines := []string{fmt.Sprintf("%d new trade(s) on %s:", len(trades), w.MarketID)}
	for _, t := range trades {
		lines = append(lines, fmt.Sprintf("  %s %v @ $%.4f", t.Side, t.Size, t.Price))
	}
	state.lastTradeID = trades[len(trades)-1].TradeID
	m.notifyWatch(ctx, w, strings.Join(lines, "\n"))
}

func (m *Monitor) pollOrders(ctx context.Context, w Watch, state *watchState) {
	orders, err := m.gw.GetOpenOrders(ctx, w.MarketID)
	if err != nil {
		m.logger.Warn().Err(err).Str("watch_id", w.WatchID).Msg("open order fetch failed, retrying next interval")
		return
	}

	current := make(map[string]string, len(orders))
	for _, o := range orders {
		current[o.OrderID] = o.Status
	}

	var transitions []string
	for _, o := range orders {
		prev, seen := state.orderStatus[o.OrderID]
		if seen && prev != o.Status && (o.Status == types.OrderStatusFilled || o.Status == types.OrderStatusCancelled) {
			transitions = append(transitions, fmt.Sprintf("  order %s is now %s", o.OrderID, o.Status))
		}
	}
	// An order missing from the open set has left the book.
	for id, prev := range state.orderStatus {
		if _, still := current[id]; !still && prev == types.OrderStatusLive {
			transitions = append(transitions, fmt.Sprintf("  order %s left the book", id))
		}
	}

	state.orderStatus = current
	if len(transitions) > 0 {
		m.notifyWatch(ctx, w, fmt.Sprintf("Order updates on %s:\n%s", w.MarketID, strings.Join(transitions, "\n")))
	}
}

func (m *Monitor) pollPrice(ctx context.Context, w Watch, state *watchState) {
	if w.TokenID == "" {
		return
	}
	price, err := m.gw.GetPrice(ctx, w.TokenID, types.SideBuy)
	if err != nil {
		m.logger.Warn().Err(err).Str("watch_id", w.WatchID).Msg("price fetch failed, retrying next interval")
		return
	}

	if !state.priceSeen {
		state.lastPrice = price
		state.priceSeen = true
		return
	}
	if math.Abs(price-state.lastPrice) <= priceEpsilon {
		return
	}

	m.notifyWatch(ctx, w, fmt.Sprintf("Price moved on %s: $%.4f -> $%.4f", w.MarketID, state.lastPrice, price))
	state.lastPrice = price
}

func (m *Monitor) notifyWatch(ctx context.Context, w Watch, message string) {
	if err := m.sink.Notify(ctx, w.Recipient, message); err != nil {
		m.logger.Warn().Err(err).Str("watch_id", w.WatchID).Msg("notification delivery failed")
	}
}
