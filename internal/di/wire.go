//go:build wireinject
// +build wireinject

package di

import (
	"VolScreen/internal/usecase"
	"VolScreen/pkg/config"
	"VolScreen/pkg/server"

	"github.com/google/wire"
)

var screeningSet = wire.NewSet(
	// Observability
	ProvideLogger,
	ProvideMetrics,

	// Infrastructure clients
	ProvideCache,
	ProvideResultPublisher,

	// Data sources
	ProvideMarketDataClient,
	ProvideEarningsSource,
	ProvideEarningsProvider,

	// Use cases
	ProvideMetricsCalculator,
	ProvideScreeningService,
)

// InitializeApp wires up all dependencies and returns the HTTP application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		screeningSet,
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeScreener wires the screening use case alone, for one-shot runs.
func InitializeScreener(cfg *config.Config) (*usecase.ScreeningService, func(), error) {
	wire.Build(screeningSet)
	return nil, nil, nil
}
