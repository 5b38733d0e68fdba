package sizing

import (
	"regexp"
	"strconv"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/gateway"
)

// RejectionParser extracts a minimum order size from a rejection payload.
// The exact grammar of size-constraint errors is exchange-specific, so the
// parser is pluggable rather than a fixed format.
type RejectionParser interface {
	// ParseMinimum returns the minimum order size carried by the rejection
	// and whether the rejection is a size-constraint error at all.
	ParseMinimum(rej *gateway.RejectionError) (float64, bool)
}

// StructuredParser reads the numeric minimumOrderSize field some exchange
// responses carry.
type StructuredParser struct{}

func (StructuredParser) ParseMinimum(rej *gateway.RejectionError) (float64, bool) {
	if rej.MinimumOrderSize > 0 {
		return rej.MinimumOrderSize, true
	}
	return 0, false
}

// TextParser matches the free-text shapes the exchange is known to emit:
//
//	"Size (1) lower than the minimum: 5"
//	"minimum order size is 5 shares"
type TextParser struct {
	patterns []*regexp.Regexp
}

func NewTextParser() *TextParser {
	return &TextParser{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)minimum:\s*([0-9]+(?:\.[0-9]+)?)`),
			regexp.MustCompile(`(?i)minimum order size is\s*([0-9]+(?:\.[0-9]+)?)`),
		},
	}
}

func (p *TextParser) ParseMinimum(rej *gateway.RejectionError) (float64, bool) {
	for _, re := range p.patterns {
		m := re.FindStringSubmatch(rej.Message)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// ParserChain tries each parser in order and returns the first hit.
type ParserChain []RejectionParser

// DefaultParsers handles both payload shapes the exchange produces.
func DefaultParsers() ParserChain {
	return ParserChain{StructuredParser{}, NewTextParser()}
}

func (chain ParserChain) ParseMinimum(rej *gateway.RejectionError) (float64, bool) {
	for _, p := range chain {
		if min, ok := p.ParseMinimum(rej); ok {
			return min, true
		}
	}
	return 0, false
}
