package repository

import (
	"context"
	"time"

	"VolScreen/internal/domain/models"
)

// MarketDataClient supplies price history and option chains. Implementations
// must be safe for concurrent use by every in-flight symbol computation.
type MarketDataClient interface {
	// FetchHistory returns up to lookback most recent daily bars, oldest first.
	// An unknown symbol is ErrDataUnavailable; a valid symbol with no recent
	// trading returns an empty series and no error.
	FetchHistory(ctx context.Context, symbol string, lookback int) (models.PriceSeries, error)
	// ListOptionExpiries returns expiries in provider order. Empty is valid.
	ListOptionExpiries(ctx context.Context, symbol string) ([]time.Time, error)
	// FetchOptionChain returns the chain for one expiry, ErrDataUnavailable if none.
	FetchOptionChain(ctx context.Context, symbol string, expiry time.Time) (models.OptionsSnapshot, error)
}

// ResultPublisher ships a finished screening run to downstream consumers.
type ResultPublisher interface {
	PublishResult(ctx context.Context, res *models.ScreenResult) error
	Close() error
}

// Metrics records screening observability counters.
type Metrics interface {
	RecordScored(symbol string, score float64)
	RecordDropped(reason string)
	RecordFallback(source string)
	RecordLatency(op string, seconds float64)
}
