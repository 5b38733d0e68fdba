package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/gateway"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/notify"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/session"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/types"
)

// OrderPlacer executes a single scan hit. Implemented by the order executor.
type OrderPlacer interface {
	Execute(ctx context.Context, sess *session.Session, market types.Market, token types.Token) (*types.OrderAttempt, error)
}

// Scanner runs the per-session polling loops. Each loop re-reads its session
// every iteration, filters the market snapshot against the session's price
// threshold and hands qualifying tokens to the executor (or emits
// candidate-only notifications when auto-ordering is off).
type Scanner struct {
	sessions *session.Service
	gw       gateway.Gateway
	orders   OrderPlacer
	sink     notify.Sink
	interval time.Duration
	outcome  string // outcome label hunted, e.g. "NO"
	logger   zerolog.Logger
}

func New(sessions *session.Service, gw gateway.Gateway, orders OrderPlacer, sink notify.Sink, interval time.Duration, outcome string) *Scanner {
	return &Scanner{
		sessions: sessions,
		gw:       gw,
		orders:   orders,
		sink:     sink,
		interval: interval,
		outcome:  outcome,
		logger:   log.With().Str("component", "market_scanner").Logger(),
	}
}

// Run executes scan iterations for one session until the context is
// cancelled or the session is disabled. Iterations never overlap: the next
// tick is not consumed until the previous iteration finishes.
func (s *Scanner) Run(ctx context.Context, sessionID string) {
	logger := s.logger.With().Str("session_id", sessionID).Logger()
	logger.Info().Msg("scan loop started")

	if !s.ScanOnce(ctx, sessionID) {
		logger.Info().Msg("scan loop finished")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scan loop cancelled")
			return
		case <-ticker.C:
			if !s.ScanOnce(ctx, sessionID) {
				logger.Info().Msg("scan loop finished")
				return
			}
		}
	}
}

// ScanOnce performs a single iteration and reports whether the loop should
// continue. A disabled session terminates the loop cleanly; transient
// failures keep it alive.
func (s *Scanner) ScanOnce(ctx context.Context, sessionID string) bool {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to read session")
		return true
	}
	if !sess.ScanActive {
		return false
	}

	markets, err := s.gw.GetMarkets(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("market snapshot fetch failed")
		return true
	}

	candidates := 0
	for _, market := range markets {
		if !market.Tradable() {
			continue
		}
		for _, token := range market.Tokens {
			if !strings.EqualFold(token.Outcome, s.outcome) {
				continue
			}
			if token.Price <= 0 || token.Price > sess.PriceThreshold {
				continue
			}
			candidates++
			s.handleCandidate(ctx, sess, market, token)
		}
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("markets", len(markets)).
		Int("candidates", candidates).
		Float64("threshold", sess.PriceThreshold).
		Msg("scan iteration complete")

	if err := s.sessions.TouchLastScan(sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to stamp last scan time")
	}
	return true
}

// handleCandidate processes one qualifying token. Failures are contained to
// the token: the executor has already notified the session, so the iteration
// moves on to the next candidate.
func (s *Scanner) handleCandidate(ctx context.Context, sess *session.Session, market types.Market, token types.Token) {
	if !sess.AutoOrder {
		msg := fmt.Sprintf("Opportunity: %q — %s @ $%.4f (token %s). Auto-ordering is off.",
			market.Question, token.Outcome, token.Price, token.TokenID)
		if err := s.sink.Notify(ctx, sess.SessionID, msg); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sess.SessionID).Msg("candidate notification failed")
		}
		return
	}

	if _, err := s.orders.Execute(ctx, sess, market, token); err != nil {
		s.logger.Warn().
			Err(err).
			Str("session_id", sess.SessionID).
			Str("token_id", token.TokenID).
			Msg("order attempt failed, continuing with remaining candidates")
	}
}
