package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"VolScreen/internal/domain/models"
	"VolScreen/internal/services/earnings"
	"VolScreen/internal/services/indicators"
	applogger "VolScreen/pkg/logger"
	"VolScreen/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

type fakeMarket struct {
	history     map[string]models.PriceSeries
	historyErr  map[string]error
	expiries    map[string][]time.Time
	expiriesErr error
	chains      map[string]models.OptionsSnapshot
	panicOn     string

	mu    sync.Mutex
	calls int
}

func (f *fakeMarket) FetchHistory(_ context.Context, symbol string, _ int) (models.PriceSeries, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if symbol == f.panicOn {
		panic("provider returned garbage")
	}
	if err, ok := f.historyErr[symbol]; ok {
		return models.PriceSeries{}, err
	}
	s, ok := f.history[symbol]
	if !ok {
		return models.PriceSeries{}, models.ErrDataUnavailable
	}
	return s, nil
}

func (f *fakeMarket) ListOptionExpiries(_ context.Context, symbol string) ([]time.Time, error) {
	if f.expiriesErr != nil {
		return nil, f.expiriesErr
	}
	return f.expiries[symbol], nil
}

func (f *fakeMarket) FetchOptionChain(_ context.Context, symbol string, expiry time.Time) (models.OptionsSnapshot, error) {
	snap, ok := f.chains[symbol+expiry.Format(time.DateOnly)]
	if !ok {
		return models.OptionsSnapshot{}, models.ErrDataUnavailable
	}
	return snap, nil
}

// seriesWithVolatility builds n bars whose daily returns have an annualized
// sample volatility of exactly hv. volumes is applied cyclically.
func seriesWithVolatility(symbol string, n int, hv float64, volumes ...float64) models.PriceSeries {
	base := make([]float64, n-1)
	for i := range base {
		base[i] = math.Sin(float64(i + 1))
	}
	var mean float64
	for _, b := range base {
		mean += b
	}
	mean /= float64(len(base))
	var ss float64
	for _, b := range base {
		ss += (b - mean) * (b - mean)
	}
	std := math.Sqrt(ss / float64(len(base)-1))
	k := hv / (std * math.Sqrt(indicators.TradingDaysPerYear))

	s := models.PriceSeries{Symbol: symbol}
	price := 100.0
	for i := 0; i < n; i++ {
		if i > 0 {
			price *= 1 + k*base[i-1] + 0.0005
		}
		s.Bars = append(s.Bars, models.PriceBar{
			Timestamp: day0.AddDate(0, 0, i),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    volumes[i%len(volumes)],
		})
	}
	return s
}

func flatVolume(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func newCalculator(m *fakeMarket, surprises map[string]float64) *VolatilityCalculator {
	return NewVolatilityCalculator(m,
		earnings.NewFailSoft(earnings.NewStaticSource(surprises), applogger.Nop(), metrics.Nop{}),
		DefaultLookbackBars, applogger.Nop(), metrics.Nop{})
}

func exampleA() models.PriceSeries {
	// 59 bars at 58000/59 and a final bar at 2000 average to exactly 1000.
	vols := flatVolume(60, 58000.0/59.0)
	vols[59] = 2000
	return seriesWithVolatility("A", 60, 0.4, vols...)
}

func TestComputeMetricsScore(t *testing.T) {
	m := &fakeMarket{history: map[string]models.PriceSeries{"A": exampleA()}}
	calc := newCalculator(m, map[string]float64{"A": 5})

	got, ok := calc.ComputeMetrics(context.Background(), "A")
	require.True(t, ok)
	assert.Equal(t, "A", got.Symbol)
	assert.InDelta(t, 0.4, got.HistoricalVolatility, 1e-9)
	assert.Equal(t, 5.0, got.EarningsSurprise)
	assert.Equal(t, 2000.0, got.LatestVolume)
	assert.InDelta(t, 4.0, got.VolatilityScore, 1e-9)
	assert.Equal(t, 0.0, got.ImpliedVolatility, "no listed options")
	require.NotNil(t, got.RSILatest)
	assert.GreaterOrEqual(t, *got.RSILatest, 0.0)
	assert.LessOrEqual(t, *got.RSILatest, 100.0)

	assert.Equal(t, exampleA().Latest().Close, got.CurrentPrice)
}

func seriesFromCloses(symbol string, closes ...float64) models.PriceSeries {
	s := models.PriceSeries{Symbol: symbol}
	for i, c := range closes {
		s.Bars = append(s.Bars, models.PriceBar{
			Timestamp: day0.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		})
	}
	return s
}

func TestComputeMetricsPredictedDirection(t *testing.T) {
	// 19 closes at 100 then the last close, so SMA20 is above 100 exactly when
	// the last close is.
	withLast := func(last float64) []float64 {
		closes := flatVolume(20, 100)
		closes[19] = last
		return closes
	}
	tests := []struct {
		name   string
		closes []float64
		want   models.Direction
	}{
		{name: "above sma20", closes: withLast(110), want: models.DirectionUp},
		{name: "below sma20", closes: withLast(90), want: models.DirectionDown},
		{name: "equal to sma20", closes: withLast(100), want: models.DirectionDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMarket{history: map[string]models.PriceSeries{"D": seriesFromCloses("D", tt.closes...)}}
			got, ok := newCalculator(m, map[string]float64{"D": 1}).ComputeMetrics(context.Background(), "D")
			require.True(t, ok)
			assert.Equal(t, tt.want, got.PredictedDirection)
			assert.Equal(t, tt.closes[19], got.CurrentPrice)
		})
	}
}

// overflowingSeries has finite positive closes whose daily return overflows.
func overflowingSeries(symbol string) models.PriceSeries {
	s := seriesWithVolatility(symbol, 60, 0.3, 1000)
	s.Bars[40].Close = 1e-300
	s.Bars[41].Close = 1e300
	return s
}

func TestComputeMetricsDropsNonFiniteVolatility(t *testing.T) {
	s := overflowingSeries("X")
	require.NoError(t, s.Validate())

	m := &fakeMarket{history: map[string]models.PriceSeries{"X": s}}
	got, ok := newCalculator(m, map[string]float64{"X": 5}).ComputeMetrics(context.Background(), "X")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestComputeMetricsNegativeSurpriseUsesMagnitude(t *testing.T) {
	m := &fakeMarket{history: map[string]models.PriceSeries{"A": exampleA()}}
	got, ok := newCalculator(m, map[string]float64{"A": -5}).ComputeMetrics(context.Background(), "A")
	require.True(t, ok)
	assert.Equal(t, -5.0, got.EarningsSurprise)
	assert.InDelta(t, 4.0, got.VolatilityScore, 1e-9)
}

func TestComputeMetricsMissingEarningsScoresZero(t *testing.T) {
	m := &fakeMarket{history: map[string]models.PriceSeries{"A": exampleA()}}
	got, ok := newCalculator(m, nil).ComputeMetrics(context.Background(), "A")
	require.True(t, ok)
	assert.Equal(t, 0.0, got.EarningsSurprise)
	assert.Equal(t, 0.0, got.VolatilityScore)
}

func TestComputeMetricsZeroMeanVolume(t *testing.T) {
	m := &fakeMarket{history: map[string]models.PriceSeries{"Z": seriesWithVolatility("Z", 60, 0.3, 0)}}
	got, ok := newCalculator(m, map[string]float64{"Z": 10}).ComputeMetrics(context.Background(), "Z")
	require.True(t, ok)
	assert.Equal(t, 0.0, got.VolatilityScore)
	assert.False(t, math.IsNaN(got.VolatilityScore))
}

func TestComputeMetricsDropsSymbol(t *testing.T) {
	nanSeries := seriesWithVolatility("NAN", 60, 0.3, 1000)
	nanSeries.Bars[30].Close = math.NaN()

	m := &fakeMarket{
		history: map[string]models.PriceSeries{
			"ONE":   seriesWithVolatility("ONE", 1, 0.3, 1000),
			"EMPTY": {Symbol: "EMPTY"},
			"SHORT": seriesWithVolatility("SHORT", 19, 0.3, 1000),
			"NAN":   nanSeries,
		},
		historyErr: map[string]error{
			"FAIL": errors.New("connection reset"),
		},
		panicOn: "BOOM",
	}
	calc := newCalculator(m, map[string]float64{"ONE": 1, "SHORT": 1, "NAN": 1})

	for _, sym := range []string{"ONE", "EMPTY", "SHORT", "NAN", "FAIL", "UNKNOWN", "BOOM"} {
		t.Run(sym, func(t *testing.T) {
			got, ok := calc.ComputeMetrics(context.Background(), sym)
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestComputeMetricsTwentyBarsIsEnough(t *testing.T) {
	m := &fakeMarket{history: map[string]models.PriceSeries{"T": seriesWithVolatility("T", 20, 0.3, 1000)}}
	got, ok := newCalculator(m, map[string]float64{"T": 2}).ComputeMetrics(context.Background(), "T")
	require.True(t, ok)
	assert.InDelta(t, 0.6, got.VolatilityScore, 1e-9)
}

func TestComputeMetricsImpliedVolatility(t *testing.T) {
	first := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	nearer := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	m := &fakeMarket{
		history: map[string]models.PriceSeries{
			"A": exampleA(),
			"B": exampleA(),
		},
		expiries: map[string][]time.Time{
			"A": {first, nearer},
			"B": {first},
		},
		chains: map[string]models.OptionsSnapshot{
			"A2024-03-15": {Calls: []models.OptionContract{
				{Kind: models.OptionCall, ImpliedVolatility: 0.5},
				{Kind: models.OptionCall, ImpliedVolatility: 0.3},
			}},
			"A2024-03-08": {Calls: []models.OptionContract{{Kind: models.OptionCall, ImpliedVolatility: 9}}},
			"B2024-03-15": {Puts: []models.OptionContract{{Kind: models.OptionPut, ImpliedVolatility: 0.7}}},
		},
	}
	calc := newCalculator(m, map[string]float64{"A": 5, "B": 5})

	got, ok := calc.ComputeMetrics(context.Background(), "A")
	require.True(t, ok)
	assert.InDelta(t, 0.4, got.ImpliedVolatility, 1e-12, "first listed expiry wins")
	assert.InDelta(t, 4.0, got.VolatilityScore, 1e-9, "implied volatility is not part of the score")

	got, ok = calc.ComputeMetrics(context.Background(), "B")
	require.True(t, ok)
	assert.Equal(t, 0.0, got.ImpliedVolatility, "no calls")

	m.expiriesErr = models.ErrProviderFailure
	got, ok = calc.ComputeMetrics(context.Background(), "A")
	require.True(t, ok, "options failures are fail-soft")
	assert.Equal(t, 0.0, got.ImpliedVolatility)
}

func TestComputeMetricsRSIBounds(t *testing.T) {
	m := &fakeMarket{history: map[string]models.PriceSeries{"R": seriesWithVolatility("R", 60, 0.9, 1000)}}
	got, ok := newCalculator(m, map[string]float64{"R": 1}).ComputeMetrics(context.Background(), "R")
	require.True(t, ok)
	require.NotNil(t, got.RSILatest)
	assert.True(t, *got.RSILatest >= 0 && *got.RSILatest <= 100)
}
