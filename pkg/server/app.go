package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"VolScreen/pkg/config"
	xhttp "VolScreen/pkg/http"
	applogger "VolScreen/pkg/logger"
)

// App encapsulates the HTTP application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	log        *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, httpServer *xhttp.Server, l *applogger.Logger) *App {
	return &App{cfg: cfg, httpServer: httpServer, log: l}
}

// Run starts the HTTP server and blocks until ctx is done or the process is
// interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("screener ready",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("provider", a.cfg.Market.Provider),
		applogger.Strings("watchlist", a.cfg.Screening.Watchlist),
		applogger.Int("top_n", a.cfg.Screening.TopN),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops the HTTP server. Clients owned by DI are closed
// by the injector's cleanup.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
