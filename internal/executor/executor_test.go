package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/gateway"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/session"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/sizing"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/types"
)

type fakeGateway struct {
	metadataMin     float64
	metadataPresent bool

	submitFn    func(call int, req gateway.OrderRequest) (*types.OrderResult, error)
	submissions []gateway.OrderRequest
}

func (f *fakeGateway) GetMarkets(context.Context) ([]types.Market, error) { return nil, nil }

func (f *fakeGateway) GetMarketMetadata(context.Context, string) (float64, bool, error) {
	return f.metadataMin, f.metadataPresent, nil
}

func (f *fakeGateway) SubmitOrder(_ context.Context, req gateway.OrderRequest) (*types.OrderResult, error) {
	f.submissions = append(f.submissions, req)
	return f.submitFn(len(f.submissions), req)
}

func (f *fakeGateway) GetTrades(context.Context, string, string) ([]types.Trade, error) {
	return nil, nil
}

func (f *fakeGateway) GetOpenOrders(context.Context, string) ([]types.OpenOrder, error) {
	return nil, nil
}

func (f *fakeGateway) GetPrice(context.Context, string, string) (float64, error) { return 0, nil }

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

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func accept(_ int, _ gateway.OrderRequest) (*types.OrderResult, error) {
	return &types.OrderResult{OrderID: "order-1", Status: types.OrderStatusFilled, Success: true}, nil
}

func newExecutor(gw *fakeGateway, sink *captureSink) *Executor {
	e := New(gw, sizing.NewResolver(gw), sink)
	e.backoffBase = time.Millisecond
	return e
}

func testSession(maxSize float64) *session.Session {
	return &session.Session{
		SessionID:      "chat-1",
		PriceThreshold: 0.01,
		MaxOrderSize:   maxSize,
		AutoOrder:      true,
	}
}

var (
	testMarket = types.Market{MarketID: "mkt-1", Question: "Will it rain?", Active: true, AcceptingOrders: true}
	testToken  = types.Token{TokenID: "tok-no", Outcome: "NO", Price: 0.008}
)

func TestExecuteFillsWithinConstraint(t *testing.T) {
	gw := &fakeGateway{metadataMin: 5, metadataPresent: true, submitFn: accept}
	sink := &captureSink{}

	attempt, err := newExecutor(gw, sink).Execute(context.Background(), testSession(50), testMarket, testToken)
	require.NoError(t, err)

	assert.Equal(t, types.AttemptFilled, attempt.Outcome)
	assert.Equal(t, 50.0, attempt.RequestedSize)
	assert.Equal(t, 0.008, attempt.RequestedPrice)
	assert.Equal(t, 0, attempt.Retries)

	require.Len(t, gw.submissions, 1)
	assert.Equal(t, 50.0, gw.submissions[0].Size)
	assert.Equal(t, 1, sink.count(), "exactly one notification per terminal outcome")
}

func TestExecuteNeverSubmitsBelowResolvedMinimum(t *testing.T) {
	gw := &fakeGateway{metadataMin: 5, metadataPresent: true, submitFn: accept}
	sink := &captureSink{}

	_, err := newExecutor(gw, sink).Execute(context.Background(), testSession(3), testMarket, testToken)
	assert.ErrorIs(t, err, types.ErrBelowMinimumOrderSize)
	assert.Empty(t, gw.submissions, "no submission may happen when the cap is below the minimum")
	assert.Equal(t, 1, sink.count())
}

func TestExecuteCapsPriceAtThreshold(t *testing.T) {
	gw := &fakeGateway{metadataMin: 5, metadataPresent: true, submitFn: accept}
	sink := &captureSink{}

	expensive := types.Token{TokenID: "tok-no", Outcome: "NO", Price: 0.02}
	attempt, err := newExecutor(gw, sink).Execute(context.Background(), testSession(50), testMarket, expensive)
	require.NoError(t, err)
	assert.Equal(t, 0.01, attempt.RequestedPrice)
}

func TestExecuteStaleSizeRetriesExactlyOnce(t *testing.T) {
	// The gateway always rejects for size mismatch: the attempt must end as
	// rejected after exactly two submissions, never an unbounded loop.
	gw := &fakeGateway{
		metadataMin: 5, metadataPresent: true,
		submitFn: func(_ int, req gateway.OrderRequest) (*types.OrderResult, error) {
			return nil, &gateway.RejectionError{
				StatusCode: 400,
				Message:    fmt.Sprintf("Size (%v) lower than the minimum: 5", req.Size),
			}
		},
	}
	sink := &captureSink{}

	attempt, err := newExecutor(gw, sink).Execute(context.Background(), testSession(50), testMarket, testToken)
	assert.ErrorIs(t, err, types.ErrOrderRejected)
	assert.Equal(t, types.AttemptRejected, attempt.Outcome)
	assert.Equal(t, 1, attempt.Retries)
	assert.Len(t, gw.submissions, 2)
	assert.Equal(t, 1, sink.count())
}

func TestExecuteStaleSizeRetrySucceeds(t *testing.T) {
	// First submission hits a raised minimum; the retry with the re-resolved
	// constraint fills.
	gw := &fakeGateway{
		metadataMin: 5, metadataPresent: true,
		submitFn: func(call int, req gateway.OrderRequest) (*types.OrderResult, error) {
			if call == 1 {
				return nil, &gateway.RejectionError{StatusCode: 400, Message: "minimum order size is 15 shares"}
			}
			return accept(call, req)
		},
	}
	sink := &captureSink{}

	attempt, err := newExecutor(gw, sink).Execute(context.Background(), testSession(50), testMarket, testToken)
	require.NoError(t, err)
	assert.Equal(t, types.AttemptFilled, attempt.Outcome)
	assert.Equal(t, 1, attempt.Retries)
	assert.Len(t, gw.submissions, 2)
	assert.Equal(t, 1, sink.count())
}

func TestExecuteRaisedMinimumAboveCapStopsRetry(t *testing.T) {
	gw := &fakeGateway{
		metadataMin: 5, metadataPresent: true,
		submitFn: func(int, gateway.OrderRequest) (*types.OrderResult, error) {
			return nil, &gateway.RejectionError{StatusCode: 400, Message: "minimum order size is 500 shares"}
		},
	}
	sink := &captureSink{}

	_, err := newExecutor(gw, sink).Execute(context.Background(), testSession(50), testMarket, testToken)
	assert.ErrorIs(t, err, types.ErrBelowMinimumOrderSize)
	assert.Len(t, gw.submissions, 1, "retrying cannot help once the minimum exceeds the cap")
}

func TestExecuteNonSizeRejectionNotRetried(t *testing.T) {
	gw := &fakeGateway{
		metadataMin: 5, metadataPresent: true,
		submitFn: func(int, gateway.OrderRequest) (*types.OrderResult, error) {
			return nil, &gateway.RejectionError{StatusCode: 400, Message: "not enough balance / allowance"}
		},
	}
	sink := &captureSink{}

	attempt, err := newExecutor(gw, sink).Execute(context.Background(), testSession(50), testMarket, testToken)
	assert.ErrorIs(t, err, types.ErrOrderRejected)
	assert.Equal(t, types.AttemptRejected, attempt.Outcome)
	assert.Len(t, gw.submissions, 1)
	assert.Equal(t, 1, sink.count())
}

func TestExecuteTransportRetriedWithBackoff(t *testing.T) {
	gw := &fakeGateway{
		metadataMin: 5, metadataPresent: true,
		submitFn: func(call int, req gateway.OrderRequest) (*types.OrderResult, error) {
			if call <= 2 {
				return nil, fmt.Errorf("%w: connection reset", types.ErrTransport)
			}
			return accept(call, req)
		},
	}
	sink := &captureSink{}

	attempt, err := newExecutor(gw, sink).Execute(context.Background(), testSession(50), testMarket, testToken)
	require.NoError(t, err)
	assert.Equal(t, types.AttemptFilled, attempt.Outcome)
	assert.Len(t, gw.submissions, 3)
}

func TestExecuteTransportExhaustionFails(t *testing.T) {
	gw := &fakeGateway{
		metadataMin: 5, metadataPresent: true,
		submitFn: func(int, gateway.OrderRequest) (*types.OrderResult, error) {
			return nil, fmt.Errorf("%w: connection reset", types.ErrTransport)
		},
	}
	sink := &captureSink{}

	attempt, err := newExecutor(gw, sink).Execute(context.Background(), testSession(50), testMarket, testToken)
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.Equal(t, types.AttemptFailed, attempt.Outcome)
	assert.Len(t, gw.submissions, 3, "transport retries are capped")
	assert.Equal(t, 1, sink.count())
}
