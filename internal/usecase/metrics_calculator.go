package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"VolScreen/internal/domain/models"
	domrepo "VolScreen/internal/domain/repository"
	domsvc "VolScreen/internal/domain/service"
	"VolScreen/internal/services/indicators"
	applogger "VolScreen/pkg/logger"
)

const DefaultLookbackBars = 60

// VolatilityCalculator turns one symbol's market data into a VolatilityMetrics
// record. History problems drop the symbol; options and earnings problems fall
// back to 0.
type VolatilityCalculator struct {
	market   domrepo.MarketDataClient
	earnings domsvc.EarningsSignalProvider
	lookback int
	log      *applogger.Logger
	metrics  domrepo.Metrics
}

func NewVolatilityCalculator(market domrepo.MarketDataClient, earnings domsvc.EarningsSignalProvider, lookback int, l *applogger.Logger, m domrepo.Metrics) *VolatilityCalculator {
	if lookback < 2 {
		lookback = DefaultLookbackBars
	}
	return &VolatilityCalculator{market: market, earnings: earnings, lookback: lookback, log: l, metrics: m}
}

// ComputeMetrics never panics and never returns an error: any failure is
// logged with its kind and reported as ok == false.
func (c *VolatilityCalculator) ComputeMetrics(ctx context.Context, symbol string) (m *models.VolatilityMetrics, ok bool) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.drop(symbol, "panic", fmt.Errorf("panic: %v", r))
			m, ok = nil, false
		}
		c.metrics.RecordLatency("compute_metrics", time.Since(start).Seconds())
	}()

	m, err := c.compute(ctx, symbol)
	if err != nil {
		c.drop(symbol, models.ErrorKind(err), err)
		return nil, false
	}
	c.metrics.RecordScored(symbol, m.VolatilityScore)
	return m, true
}

func (c *VolatilityCalculator) compute(ctx context.Context, symbol string) (*models.VolatilityMetrics, error) {
	series, err := c.market.FetchHistory(ctx, symbol, c.lookback)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if series.Empty() {
		return nil, fmt.Errorf("no recent bars: %w", models.ErrDataUnavailable)
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	ind := indicators.Compute(series)
	hv, err := indicators.AnnualizedVolatility(ind.Returns.Values())
	if err != nil {
		return nil, fmt.Errorf("historical volatility: %w", err)
	}

	latest := series.Latest()
	sma20, ok := ind.SMA20.Last()
	if !ok {
		return nil, fmt.Errorf("sma%d needs %d bars, have %d: %w",
			indicators.SMAShortWindow, indicators.SMAShortWindow, series.Len(), models.ErrInsufficientData)
	}
	direction := models.DirectionDown
	if latest.Close > sma20 {
		direction = models.DirectionUp
	}

	iv := c.impliedVolatility(ctx, symbol)
	surprise := c.earnings.LatestSurprise(ctx, symbol)

	var volumeRatio float64
	if mean := indicators.MeanVolume(series); mean > 0 {
		volumeRatio = latest.Volume / mean
	}

	score := hv * math.Abs(surprise) * volumeRatio
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, fmt.Errorf("volatility score is %v: %w", score, models.ErrDataUnavailable)
	}

	out := &models.VolatilityMetrics{
		Symbol:               symbol,
		HistoricalVolatility: hv,
		ImpliedVolatility:    iv,
		EarningsSurprise:     surprise,
		PredictedDirection:   direction,
		CurrentPrice:         latest.Close,
		LatestVolume:         latest.Volume,
		VolatilityScore:      score,
	}
	if rsi, ok := ind.RSI14.Last(); ok {
		out.RSILatest = &rsi
	}
	return out, nil
}

// impliedVolatility is the mean call IV of the first listed expiry, 0 when
// anything along the way is missing or fails.
func (c *VolatilityCalculator) impliedVolatility(ctx context.Context, symbol string) float64 {
	expiries, err := c.market.ListOptionExpiries(ctx, symbol)
	if err != nil {
		c.fallback(symbol, "options", err)
		return 0
	}
	if len(expiries) == 0 {
		return 0
	}

	chain, err := c.market.FetchOptionChain(ctx, symbol, expiries[0])
	if err != nil {
		c.fallback(symbol, "options", err)
		return 0
	}
	iv, ok := chain.MeanCallIV()
	if !ok || math.IsNaN(iv) || math.IsInf(iv, 0) {
		return 0
	}
	return iv
}

func (c *VolatilityCalculator) fallback(symbol, source string, err error) {
	c.log.Debug("using default for unavailable input",
		applogger.String("symbol", symbol),
		applogger.String("source", source),
		applogger.String("kind", models.ErrorKind(err)),
		applogger.Error(err),
	)
	c.metrics.RecordFallback(source)
}

func (c *VolatilityCalculator) drop(symbol, kind string, err error) {
	c.log.Warn("symbol dropped from run",
		applogger.String("symbol", symbol),
		applogger.String("kind", kind),
		applogger.Error(err),
	)
	c.metrics.RecordDropped(kind)
}

var _ domsvc.MetricsCalculator = (*VolatilityCalculator)(nil)
