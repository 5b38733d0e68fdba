package sizing

import "time"

// Source records how a constraint was discovered, preserved for diagnostics.
type Source string

const (
	// SourceDeclared means the minimum came from market metadata.
	SourceDeclared Source = "declared"
	// SourceParsed means the minimum was parsed from a rejection payload.
	SourceParsed Source = "parsed"
)

// SizeConstraint is the resolved minimum order size for a (market, side)
// pair. Constraints are assumed static for a market's lifetime but are
// re-resolved when a fresh size rejection proves the cached value stale.
type SizeConstraint struct {
	MarketID   string
	Side       string
	Minimum    float64
	Source     Source
	ResolvedAt time.Time
}
