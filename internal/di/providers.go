package di

import (
	"fmt"

	"VolScreen/internal/domain/repository"
	"VolScreen/internal/domain/service"
	"VolScreen/internal/handler/api"
	internalrepo "VolScreen/internal/repository"
	"VolScreen/internal/service/ratelimit"
	"VolScreen/internal/services/earnings"
	"VolScreen/internal/services/market"
	"VolScreen/internal/usecase"
	"VolScreen/pkg/cache"
	"VolScreen/pkg/config"
	xhttp "VolScreen/pkg/http"
	pkgkafka "VolScreen/pkg/kafka"
	applogger "VolScreen/pkg/logger"
	"VolScreen/pkg/metrics"
	"VolScreen/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideCache creates the market data cache. The "none" backend yields nil.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	var (
		svc cache.Service
		err error
	)
	switch cfg.Market.Cache.Backend {
	case "none":
		return nil, func() {}, nil
	case "memory":
		svc = cache.NewMemoryCache(cache.WithMemoryTTL(cfg.Market.Cache.HistoryTTL))
	case "redis", "layered":
		var rc *cache.RedisCache
		rc, err = cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
			cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
			cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.PoolSize/2, cfg.Market.Timeout),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = rc
		if cfg.Market.Cache.Backend == "layered" {
			svc = cache.NewLayeredCache(rc, cache.WithLayeredMemoryTTL(cfg.Market.Cache.HistoryTTL))
		}
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Market.Cache.Backend)
	}
	return svc, func() { _ = svc.Close() }, nil
}

// ProvideMarketDataClient builds the configured provider, cached when a cache exists.
func ProvideMarketDataClient(cfg *config.Config, c cache.Service, l *applogger.Logger) repository.MarketDataClient {
	var client repository.MarketDataClient
	switch cfg.Market.Provider {
	case "csv":
		client = market.NewCSVClient(cfg.Market.DataDir)
	default:
		client = market.NewHTTPClient(cfg.Market.BaseURL, cfg.Market.Timeout, cfg.Market.MaxRequestsPerMinute, l)
	}
	if c == nil {
		return client
	}
	return market.NewCachedClient(client, c, cfg.Market.Cache.HistoryTTL, cfg.Market.Cache.OptionsTTL, l)
}

// ProvideEarningsSource selects the earnings source.
func ProvideEarningsSource(cfg *config.Config) service.EarningsSource {
	switch cfg.Earnings.Provider {
	case "html":
		return earnings.NewHTMLSource(cfg.Earnings.URLTemplate, cfg.Earnings.Timeout)
	case "static":
		return earnings.NewStaticSource(cfg.Earnings.Static)
	default:
		return earnings.Neutral{}
	}
}

// ProvideEarningsProvider wraps the source so failures read as a neutral signal.
func ProvideEarningsProvider(src service.EarningsSource, l *applogger.Logger, m repository.Metrics) service.EarningsSignalProvider {
	return earnings.NewFailSoft(src, l, m)
}

// ProvideMetricsCalculator creates the per-symbol calculator.
func ProvideMetricsCalculator(
	cfg *config.Config,
	md repository.MarketDataClient,
	ep service.EarningsSignalProvider,
	l *applogger.Logger,
	m repository.Metrics,
) service.MetricsCalculator {
	return usecase.NewVolatilityCalculator(md, ep, cfg.Screening.LookbackBars, l, m)
}

// ProvideResultPublisher creates the Kafka publisher, or nil when Kafka is disabled.
func ProvideResultPublisher(cfg *config.Config) (repository.ResultPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topic)
	return pub, func() { _ = pub.Close() }, nil
}

// ProvideScreeningService creates the screening use case.
func ProvideScreeningService(
	cfg *config.Config,
	calc service.MetricsCalculator,
	pub repository.ResultPublisher,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.ScreeningService {
	return usecase.NewScreeningService(calc, pub, usecase.ScreeningConfig{
		Watchlist:   cfg.Screening.Watchlist,
		TopN:        cfg.Screening.TopN,
		Concurrency: cfg.Screening.Concurrency,
		Timeout:     cfg.Screening.Timeout,
	}, l, m)
}

// ProvideRateLimiter creates the per-client API limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.API.RateLimit.Capacity, cfg.API.RateLimit.RefillPerSec)
}

// ProvideHTTPHandler creates the screening HTTP handler.
func ProvideHTTPHandler(cfg *config.Config, svc *usecase.ScreeningService, limiter *ratelimit.Limiter, l *applogger.Logger) xhttp.Handler {
	return api.NewScreenEchoHandler(l, svc, limiter, cfg.Screening.TopN)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h, l,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, srv *xhttp.Server, l *applogger.Logger) *server.App {
	return server.New(cfg, srv, l)
}
