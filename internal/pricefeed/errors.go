package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind classifies a retrieval failure so callers can pick a recovery policy.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedPair
	KindTransport
	KindInternal
	KindPriceNotAvailable
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedPair:
		return "unsupported_pair"
	case KindTransport:
		return "transport"
	case KindInternal:
		return "internal"
	case KindPriceNotAvailable:
		return "price_not_available"
	}
	return "unknown"
}

// UnsupportedPairError is returned when a feed has no symbol for a pair.
type UnsupportedPairError struct {
	Feed   string
	Pair   AssetPair
	Reason string
}

func (e *UnsupportedPairError) Error() string {
	return fmt.Sprintf("%s: unsupported asset pair %s: %s", e.Feed, e.Pair, e.Reason)
}

// TransportError wraps network failures, non-2xx statuses and payloads that
// do not decode into the provider's schema.
type TransportError struct {
	Feed string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Feed, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// InternalError reports a payload that decoded but cannot serve as a price source.
type InternalError struct {
	Feed string
	Msg  string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Feed, e.Msg)
}

// PriceNotAvailableError means the provider answered but has no row for the
// requested day.
type PriceNotAvailableError struct {
	Feed    string
	Pair    AssetPair
	Instant time.Time
}

func (e *PriceNotAvailableError) Error() string {
	return fmt.Sprintf("%s: price not available for %s at %s", e.Feed, e.Pair, e.Instant.Format(time.RFC3339))
}

// KindOf returns the classification of err, or KindUnknown.
func KindOf(err error) Kind {
	var (
		unsupported *UnsupportedPairError
		transport   *TransportError
		internal    *InternalError
		missing     *PriceNotAvailableError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &unsupported):
		return KindUnsupportedPair
	case errors.As(err, &transport):
		return KindTransport
	case errors.As(err, &internal):
		return KindInternal
	case errors.As(err, &missing):
		return KindPriceNotAvailable
	}
	return KindUnknown
}

// Retryable reports whether repeating the same request may succeed.
// A retrieval abandoned by its caller is never retryable.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch KindOf(err) {
	case KindTransport, KindInternal:
		return true
	}
	return false
}
