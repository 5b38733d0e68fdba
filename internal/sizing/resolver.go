package sizing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/gateway"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/types"
)

// defaultProbeSize is the trial order size used when metadata declares no
// minimum. Small enough that the rejection is near-certain on any market
// with a real floor.
const defaultProbeSize = 1

// Resolver produces a SizeConstraint for a (market, side) pair before the
// first real order, minimising wasted submissions. Resolution order: cache,
// declared metadata, probe-and-parse.
type Resolver struct {
	gw        gateway.Gateway
	cache     *cache
	parsers   ParserChain
	probeSize float64
	logger    zerolog.Logger
}

func NewResolver(gw gateway.Gateway) *Resolver {
	return &Resolver{
		gw:        gw,
		cache:     newCache(),
		parsers:   DefaultParsers(),
		probeSize: defaultProbeSize,
		logger:    log.With().Str("component", "size_resolver").Logger(),
	}
}

// Resolve returns the minimum order size for the market/side. The cached
// value is returned without any gateway call when present.
func (r *Resolver) Resolve(ctx context.Context, marketID, side, tokenID string, price float64) (SizeConstraint, error) {
	if sc, ok := r.cache.get(marketID, side); ok {
		return sc, nil
	}

	declared, present, err := r.gw.GetMarketMetadata(ctx, marketID)
	if err != nil {
		// Metadata being unreachable is not fatal for resolution; the probe
		// path can still discover the constraint.
		r.logger.Warn().Err(err).Str("market_id", marketID).Msg("metadata fetch failed, falling back to probe")
	} else if present && declared > 0 {
		sc := SizeConstraint{
			MarketID:   marketID,
			Side:       side,
			Minimum:    declared,
			Source:     SourceDeclared,
			ResolvedAt: time.Now(),
		}
		r.cache.put(sc)
		r.logger.Debug().
			Str("market_id", marketID).
			Str("side", side).
			Float64("minimum", declared).
			Msg("minimum order size declared in metadata")
		return sc, nil
	}

	return r.ForceProbe(ctx, marketID, side, tokenID, price)
}

// ForceProbe bypasses the cache and metadata, submitting a minimally-sized
// trial order and parsing the minimum from the exchange's rejection. The
// result replaces any cached constraint.
func (r *Resolver) ForceProbe(ctx context.Context, marketID, side, tokenID string, price float64) (SizeConstraint, error) {
	result, err := r.gw.SubmitOrder(ctx, gateway.OrderRequest{
		MarketID: marketID,
		TokenID:  tokenID,
		Side:     side,
		Size:     r.probeSize,
		Price:    price,
	})
	if err == nil {
		// The probe was accepted outright, so the probe size itself is
		// tradable on this market.
		sc := SizeConstraint{
			MarketID:   marketID,
			Side:       side,
			Minimum:    r.probeSize,
			Source:     SourceParsed,
			ResolvedAt: time.Now(),
		}
		r.cache.put(sc)
		r.logger.Info().
			Str("market_id", marketID).
			Str("order_id", result.OrderID).
			Float64("minimum", r.probeSize).
			Msg("probe order accepted, no minimum enforced above probe size")
		return sc, nil
	}

	var rej *gateway.RejectionError
	if !errors.As(err, &rej) {
		return SizeConstraint{}, fmt.Errorf("probe submission: %w", err)
	}

	sc, ok := r.FromRejection(marketID, side, rej)
	if !ok {
		return SizeConstraint{}, fmt.Errorf("%w: unparseable rejection for market %s: %s",
			types.ErrSizeResolutionFailed, marketID, rej.Message)
	}
	return sc, nil
}

// FromRejection parses a size constraint out of a rejection payload already
// in hand and caches it with parsed provenance. It reports false when the
// rejection is not a size-constraint error or the parsed minimum is not
// strictly positive.
func (r *Resolver) FromRejection(marketID, side string, rej *gateway.RejectionError) (SizeConstraint, bool) {
	min, ok := r.parsers.ParseMinimum(rej)
	if !ok || min <= 0 {
		return SizeConstraint{}, false
	}

	sc := SizeConstraint{
		MarketID:   marketID,
		Side:       side,
		Minimum:    min,
		Source:     SourceParsed,
		ResolvedAt: time.Now(),
	}
	r.cache.put(sc)
	r.logger.Info().
		Str("market_id", marketID).
		Str("side", side).
		Float64("minimum", min).
		Msg("minimum order size parsed from rejection")
	return sc, true
}
