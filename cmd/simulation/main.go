package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/database"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/executor"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/gateway"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/notify"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/scanner"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/session"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/sizing"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/types"
)

// scriptedGateway is an in-process exchange covering the interesting
// resolution paths: a declared minimum, a probe-discovered minimum and a
// stale declared minimum that rejects the first sized submission.
type scriptedGateway struct {
	mu          sync.Mutex
	submissions int
	orderSeq    int

	// markets that rejected a sized order once already
	staleRetried map[string]bool
}

func newScriptedGateway() *scriptedGateway {
	return &scriptedGateway{staleRetried: make(map[string]bool)}
}

func (g *scriptedGateway) GetMarkets(_ context.Context) ([]types.Market, error) {
	return []types.Market{
		{
			MarketID: "0xdeclared", Question: "Will the declared-minimum market resolve NO?",
			Active: true, AcceptingOrders: true,
			Tokens: []types.Token{
				{TokenID: "tok-declared-no", Outcome: "NO", Price: 0.008},
				{TokenID: "tok-declared-yes", Outcome: "YES", Price: 0.992},
			},
		},
		{
			MarketID: "0xprobe", Question: "Will the probe-path market resolve NO?",
			Active: true, AcceptingOrders: true,
			Tokens: []types.Token{
				{TokenID: "tok-probe-no", Outcome: "NO", Price: 0.006},
			},
		},
		{
			MarketID: "0xstale", Question: "Will the stale-metadata market resolve NO?",
			Active: true, AcceptingOrders: true,
			Tokens: []types.Token{
				{TokenID: "tok-stale-no", Outcome: "NO", Price: 0.009},
			},
		},
	}, nil
}

func (g *scriptedGateway) GetMarketMetadata(_ context.Context, marketID string) (float64, bool, error) {
	switch marketID {
	case "0xdeclared":
		return 5, true, nil
	case "0xstale":
		// Declared 5, but the exchange now enforces 15.
		return 5, true, nil
	default:
		return 0, false, nil
	}
}

func (g *scriptedGateway) SubmitOrder(_ context.Context, req gateway.OrderRequest) (*types.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submissions++

	switch req.MarketID {
	case "0xprobe":
		if req.Size < 10 {
			return nil, &gateway.RejectionError{
				StatusCode: 400,
				Message:    fmt.Sprintf("Size (%v) lower than the minimum: 10", req.Size),
			}
		}
	case "0xstale":
		if req.Size < 15 {
			if !g.staleRetried[req.MarketID] {
				g.staleRetried[req.MarketID] = true
			}
			return nil, &gateway.RejectionError{
				StatusCode:       400,
				Message:          "minimum order size is 15 shares",
				MinimumOrderSize: 15,
			}
		}
	}

	g.orderSeq++
	return &types.OrderResult{
		OrderID: fmt.Sprintf("sim-order-%d", g.orderSeq),
		Status:  types.OrderStatusFilled,
		Success: true,
	}, nil
}

func (g *scriptedGateway) GetTrades(_ context.Context, _, sinceID string) ([]types.Trade, error) {
	if sinceID != "" {
		return nil, nil
	}
	return []types.Trade{
		{TradeID: "t-1", Side: types.SideBuy, Size: 50, Price: 0.008, Timestamp: time.Now()},
	}, nil
}

func (g *scriptedGateway) GetOpenOrders(_ context.Context, _ string) ([]types.OpenOrder, error) {
	return nil, nil
}

func (g *scriptedGateway) GetPrice(_ context.Context, _, _ string) (float64, error) {
	return 0.009, nil
}

func (g *scriptedGateway) submissionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submissions
}

// main drives two scan iterations against the scripted exchange and prints
// the resulting order flow, demonstrating constraint caching between
// iterations.
func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	db, err := database.NewDatabase("file::memory:?cache=shared")
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to open in-memory store")
	}

	sessions := session.NewService(db, session.Defaults{
		PriceThreshold:  0.01,
		MaxOrderSize:    50,
		SellTargetPrice: 0.05,
	})

	autoOn := true
	if _, err := sessions.Update("sim-chat", session.ConfigPatch{AutoOrder: &autoOn}); err != nil {
		zlog.Fatal().Err(err).Msg("failed to configure simulation session")
	}
	if _, err := sessions.SetScanActive("sim-chat", true); err != nil {
		zlog.Fatal().Err(err).Msg("failed to enable scanning")
	}

	gw := newScriptedGateway()
	sink := notify.LogSink{}
	orders := executor.New(gw, sizing.NewResolver(gw), sink)
	scan := scanner.New(sessions, gw, orders, sink, time.Second, "NO")

	ctx := context.Background()

	zlog.Info().Msg("--- scan iteration 1 ---")
	scan.ScanOnce(ctx, "sim-chat")
	afterFirst := gw.submissionCount()

	zlog.Info().Msg("--- scan iteration 2 (constraints now cached) ---")
	scan.ScanOnce(ctx, "sim-chat")

	zlog.Info().
		Int("submissions_first_iteration", afterFirst).
		Int("submissions_total", gw.submissionCount()).
		Msg("simulation complete")
}
