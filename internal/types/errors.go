package types

import "errors"

// Failure kinds for the trading pipeline. Callers wrap these with context via
// fmt.Errorf("%w: ...") and classify with errors.Is.
var (
	// ErrInvalidConfiguration is returned for out-of-range session settings.
	// Surfaced to the caller immediately, never retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrSizeResolutionFailed is returned when a market's minimum order size
	// can neither be read from metadata nor parsed from a rejection payload.
	ErrSizeResolutionFailed = errors.New("size resolution failed")

	// ErrBelowMinimumOrderSize is returned when the session's configured cap
	// is smaller than the market's minimum. No submission is made.
	ErrBelowMinimumOrderSize = errors.New("order size below market minimum")

	// ErrOrderRejected is returned when the exchange declines an order for a
	// reason other than a stale size constraint, or after the single
	// size-mismatch retry is exhausted.
	ErrOrderRejected = errors.New("order rejected by exchange")

	// ErrTransport covers network and HTTP-level failures talking to the
	// exchange. Retried with bounded backoff before being surfaced.
	ErrTransport = errors.New("transport error")
)
