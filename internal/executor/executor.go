package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/gateway"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/notify"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/session"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/sizing"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/types"
)

const (
	// Transport failures are retried with exponential backoff up to this
	// many submission attempts.
	defaultMaxTransportAttempts = 3
	defaultBackoffBase          = 200 * time.Millisecond
)

// Executor turns a scan hit into a sized, submitted order. Every terminal
// outcome (filled, rejected, failed) triggers exactly one notification to
// the session.
type Executor struct {
	gw       gateway.Gateway
	resolver *sizing.Resolver
	sink     notify.Sink

	maxTransportAttempts int
	backoffBase          time.Duration
	logger               zerolog.Logger
}

func New(gw gateway.Gateway, resolver *sizing.Resolver, sink notify.Sink) *Executor {
	return &Executor{
		gw:                   gw,
		resolver:             resolver,
		sink:                 sink,
		maxTransportAttempts: defaultMaxTransportAttempts,
		backoffBase:          defaultBackoffBase,
		logger:               log.With().Str("component", "order_executor").Logger(),
	}
}

// Execute resolves the market's size constraint, sizes the order against the
// session's cap and submits it. A rejection caused by a stale size constraint
// is re-resolved from the rejection payload and retried exactly once.
func (e *Executor) Execute(ctx context.Context, sess *session.Session, market types.Market, token types.Token) (*types.OrderAttempt, error) {
	price := token.Price
	if price > sess.PriceThreshold {
		price = sess.PriceThreshold
	}

	attempt := &types.OrderAttempt{
		AttemptID:      uuid.New().String(),
		SessionID:      sess.SessionID,
		MarketID:       market.MarketID,
		TokenID:        token.TokenID,
		RequestedPrice: price,
		CreatedAt:      time.Now(),
	}

	constraint, err := e.resolver.Resolve(ctx, market.MarketID, types.SideBuy, token.TokenID, price)
	if err != nil {
		return e.fail(ctx, attempt, err, fmt.Sprintf("Could not resolve minimum order size for %q: %v", market.Question, err))
	}

	requested := sess.MaxOrderSize
	if requested < constraint.Minimum {
		err := fmt.Errorf("%w: configured size %v < market minimum %v",
			types.ErrBelowMinimumOrderSize, requested, constraint.Minimum)
		return e.fail(ctx, attempt, err, fmt.Sprintf(
			"Skipped %q: your max order size %v is below the market minimum %v. Raise it with a config update.",
			market.Question, requested, constraint.Minimum))
	}
	attempt.RequestedSize = requested

	sizeRetried := false
	for {
		result, err := e.submitWithBackoff(ctx, gateway.OrderRequest{
			MarketID: market.MarketID,
			TokenID:  token.TokenID,
			Side:     types.SideBuy,
			Size:     requested,
			Price:    price,
		})
		if err == nil {
			attempt.Outcome = types.AttemptFilled
			attempt.OrderID = result.OrderID
			e.logger.Info().
				Str("session_id", sess.SessionID).
				Str("token_id", token.TokenID).
				Str("order_id", result.OrderID).
				Float64("size", requested).
				Float64("price", price).
				Int("retries", attempt.Retries).
				Msg("order submitted")
			e.notify(ctx, sess.SessionID, fmt.Sprintf(
				"Order filled: %q — %v shares @ $%.4f (order %s)",
				market.Question, requested, price, result.OrderID))
			return attempt, nil
		}

		var rej *gateway.RejectionError
		if errors.As(err, &rej) {
			// A size-constraint rejection means the cached or declared
			// minimum was stale. The rejection payload itself carries the
			// fresh minimum, so re-resolve from it and retry once.
			if sc, ok := e.resolver.FromRejection(market.MarketID, types.SideBuy, rej); ok {
				if sizeRetried {
					wrapped := fmt.Errorf("%w: size constraint still violated after retry: %s",
						types.ErrOrderRejected, rej.Message)
					return e.fail(ctx, attempt, wrapped, fmt.Sprintf(
						"Order for %q rejected twice over size constraints, giving up: %s",
						market.Question, rej.Message))
				}
				sizeRetried = true
				attempt.Retries++
				if requested < sc.Minimum {
					wrapped := fmt.Errorf("%w: configured size %v < re-resolved minimum %v",
						types.ErrBelowMinimumOrderSize, requested, sc.Minimum)
					return e.fail(ctx, attempt, wrapped, fmt.Sprintf(
						"Skipped %q: market minimum is now %v, above your max order size %v.",
						market.Question, sc.Minimum, requested))
				}
				e.logger.Warn().
					Str("market_id", market.MarketID).
					Float64("minimum", sc.Minimum).
					Msg("stale size constraint, retrying once with fresh minimum")
				continue
			}

			wrapped := fmt.Errorf("%w: %s", types.ErrOrderRejected, rej.Message)
			return e.fail(ctx, attempt, wrapped, fmt.Sprintf(
				"Order for %q rejected: %s", market.Question, rej.Message))
		}

		// Transport attempts exhausted or a non-exchange failure.
		return e.fail(ctx, attempt, err, fmt.Sprintf(
			"Order for %q failed: %v", market.Question, err))
	}
}

// submitWithBackoff retries transport-kinded failures with exponential
// backoff. Exchange rejections are returned immediately.
func (e *Executor) submitWithBackoff(ctx context.Context, req gateway.OrderRequest) (*types.OrderResult, error) {
	var lastErr error
	backoff := e.backoffBase

	for i := 0; i < e.maxTransportAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", types.ErrTransport, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		result, err := e.gw.SubmitOrder(ctx, req)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, types.ErrTransport) {
			return nil, err
		}
		lastErr = err
		e.logger.Warn().Err(err).Int("attempt", i+1).Msg("transport failure submitting order")
	}
	return nil, lastErr
}

// fail marks the attempt terminal, notifies the session once and returns the
// attempt alongside the error.
func (e *Executor) fail(ctx context.Context, attempt *types.OrderAttempt, err error, message string) (*types.OrderAttempt, error) {
	if errors.Is(err, types.ErrOrderRejected) {
		attempt.Outcome = types.AttemptRejected
	} else {
		attempt.Outcome = types.AttemptFailed
	}
	attempt.Reason = err.Error()

	e.logger.Warn().
		Err(err).
		Str("session_id", attempt.SessionID).
		Str("token_id", attempt.TokenID).
		Str("outcome", attempt.Outcome).
		Msg("order attempt did not fill")
	e.notify(ctx, attempt.SessionID, message)
	return attempt, err
}

func (e *Executor) notify(ctx context.Context, sessionID, message string) {
	if err := e.sink.Notify(ctx, sessionID, message); err != nil {
		e.logger.Warn().Err(err).Str("session_id", sessionID).Msg("notification delivery failed")
	}
}
