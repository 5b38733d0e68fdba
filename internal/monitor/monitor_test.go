package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/gateway"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/types"
)

type fakeGateway struct {
	mu sync.Mutex

	trades    []types.Trade
	tradesErr error
	orders    []types.OpenOrder
	ordersErr error
	price     float64
	priceErr  error
}

func (f *fakeGateway) GetMarkets(context.Context) ([]types.Market, error) { return nil, nil }

func (f *fakeGateway) GetMarketMetadata(context.Context, string) (float64, bool, error) {
	return 0, false, nil
}

func (f *fakeGateway) SubmitOrder(context.Context, gateway.OrderRequest) (*types.OrderResult, error) {
	return nil, nil
}

func (f *fakeGateway) GetTrades(_ context.Context, _ string, sinceID string) ([]types.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tradesErr != nil {
		return nil, f.tradesErr
	}
	// Replay only trades after the cursor, like the exchange does.
	if sinceID == "" {
		return append([]types.Trade(nil), f.trades...), nil
	}
	for i, t := range f.trades {
		if t.TradeID == sinceID {
			return append([]types.Trade(nil), f.trades[i+1:]...), nil
		}
	}
	return append([]types.Trade(nil), f.trades...), nil
}

func (f *fakeGateway) GetOpenOrders(context.Context, string) ([]types.OpenOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	return append([]types.OpenOrder(nil), f.orders...), nil
}

func (f *fakeGateway) GetPrice(context.Context, string, string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.price, f.priceErr
}

func (f *fakeGateway) set(fn func(*fakeGateway)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type captureSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *captureSink) Notify(_ context.Context, _, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return nil
}

func (s *captureSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func testWatch() Watch {
	return Watch{WatchID: "w-1", MarketID: "mkt-1", TokenID: "tok-1", Recipient: "chat-1"}
}

func newState() *watchState {
	return &watchState{orderStatus: make(map[string]string)}
}

func TestPollReportsNewTradesOnce(t *testing.T) {
	gw := &fakeGateway{price: 0.01}
	sink := &captureSink{}
	m := New(gw, sink, time.Second, 0)
	w := testWatch()

	state := newState()
	m.baseline(context.Background(), w, state)

	gw.set(func(f *fakeGateway) {
		f.trades = []types.Trade{
			{TradeID: "t-1", Side: types.SideBuy, Size: 50, Price: 0.009},
			{TradeID: "t-2", Side: types.SideSell, Size: 20, Price: 0.011},
		}
	})

	m.Poll(context.Background(), w, state)
	msgs := sink.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "2 new trade(s)")

	// Unchanged state is never replayed.
	m.Poll(context.Background(), w, state)
	assert.Len(t, sink.all(), 1)
}

func TestPollReportsOrderTransitions(t *testing.T) {
	gw := &fakeGateway{price: 0.01}
	gw.orders = []types.OpenOrder{{OrderID: "ord-1", Status: types.OrderStatusLive}}
	sink := &captureSink{}
	m := New(gw, sink, time.Second, 0)
	w := testWatch()

	state := newState()
	m.baseline(context.Background(), w, state)

	gw.set(func(f *fakeGateway) {
		f.orders = []types.OpenOrder{{OrderID: "ord-1", Status: types.OrderStatusFilled}}
	})

	m.Poll(context.Background(), w, state)
	msgs := sink.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "ord-1 is now FILLED")

	m.Poll(context.Background(), w, state)
	assert.Len(t, sink.all(), 1, "a transition is reported exactly once")
}

func TestPollReportsOrderLeavingBook(t *testing.T) {
	gw := &fakeGateway{price: 0.01}
	gw.orders = []types.OpenOrder{{OrderID: "ord-1", Status: types.OrderStatusLive}}
	sink := &captureSink{}
	m := New(gw, sink, time.Second, 0)
	w := testWatch()

	state := newState()
	m.baseline(context.Background(), w, state)

	gw.set(func(f *fakeGateway) { f.orders = nil })

	m.Poll(context.Background(), w, state)
	msgs := sink.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "ord-1 left the book")
}

func TestPollIgnoresSubEpsilonPriceMoves(t *testing.T) {
	gw := &fakeGateway{price: 0.0100}
	sink := &captureSink{}
	m := New(gw, sink, time.Second, 0)
	w := testWatch()

	state := newState()
	m.baseline(context.Background(), w, state)

	gw.set(func(f *fakeGateway) { f.price = 0.01005 })
	m.Poll(context.Background(), w, state)
	assert.Empty(t, sink.all(), "moves within the epsilon are noise")

	gw.set(func(f *fakeGateway) { f.price = 0.02 })
	m.Poll(context.Background(), w, state)
	msgs := sink.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Price moved")
}

func TestPollSkipsPriceWithoutToken(t *testing.T) {
	gw := &fakeGateway{price: 0.5}
	sink := &captureSink{}
	m := New(gw, sink, time.Second, 0)
	w := Watch{WatchID: "w-1", MarketID: "mkt-1", Recipient: "chat-1"}

	state := newState()
	m.baseline(context.Background(), w, state)

	gw.set(func(f *fakeGateway) { f.price = 0.9 })
	m.Poll(context.Background(), w, state)
	assert.Empty(t, sink.all())
}

func TestPollSurvivesFetchFailures(t *testing.T) {
	gw := &fakeGateway{price: 0.01}
	sink := &captureSink{}
	m := New(gw, sink, time.Second, 0)
	w := testWatch()

	state := newState()
	m.baseline(context.Background(), w, state)

	gw.set(func(f *fakeGateway) {
		f.tradesErr = errors.New("exchange down")
		f.ordersErr = errors.New("exchange down")
		f.priceErr = errors.New("exchange down")
	})
	m.Poll(context.Background(), w, state)
	assert.Empty(t, sink.all())

	// Recovery picks up where the baseline left off.
	gw.set(func(f *fakeGateway) {
		f.tradesErr, f.ordersErr, f.priceErr = nil, nil, nil
		f.trades = []types.Trade{{TradeID: "t-1", Side: types.SideBuy, Size: 10, Price: 0.008}}
	})
	m.Poll(context.Background(), w, state)
	assert.Len(t, sink.all(), 1)
}

func TestRunEmitsStartAndEndNotifications(t *testing.T) {
	gw := &fakeGateway{price: 0.01}
	sink := &captureSink{}
	m := New(gw, sink, 5*time.Millisecond, 15*time.Millisecond)

	m.Run(context.Background(), testWatch())

	msgs := sink.all()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Contains(t, msgs[0], "Monitoring started")
	assert.Contains(t, msgs[len(msgs)-1], "Monitoring ended")
}

func TestRunStopsOnCancel(t *testing.T) {
	gw := &fakeGateway{price: 0.01}
	sink := &captureSink{}
	m := New(gw, sink, 5*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, testWatch())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancellation")
	}

	for _, msg := range sink.all() {
		assert.False(t, strings.Contains(msg, "Monitoring ended"),
			"cancellation must not claim the duration elapsed")
	}
}

func TestSupervisorWatchLifecycle(t *testing.T) {
	gw := &fakeGateway{price: 0.01}
	sink := &captureSink{}
	m := New(gw, sink, 5*time.Millisecond, 0)
	sup := NewSupervisor(context.Background(), m)
	defer sup.StopAll()

	id := sup.StartWatch("chat-1", "mkt-1", "tok-1")
	require.NotEmpty(t, id)

	assert.Empty(t, sup.StartWatch("chat-2", "mkt-1", "tok-1"),
		"a market already watched is not watched twice")

	assert.True(t, sup.StopWatch("mkt-1"))
	assert.False(t, sup.StopWatch("mkt-1"))

	assert.NotEmpty(t, sup.StartWatch("chat-1", "mkt-1", "tok-1"),
		"a stopped market can be watched again")
}
