package service

import "context"

// EarningsSource looks up the most recent earnings surprise percentage.
// Errors are returned as-is; callers decide whether they are fatal.
type EarningsSource interface {
	LatestSurprise(ctx context.Context, symbol string) (float64, error)
}

// EarningsSignalProvider is the fail-soft view of an EarningsSource: any
// absence or failure yields 0, the neutral signal.
type EarningsSignalProvider interface {
	LatestSurprise(ctx context.Context, symbol string) float64
}
