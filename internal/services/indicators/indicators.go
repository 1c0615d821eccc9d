// Package indicators derives technical indicators from a price series.
// Every function is pure; undefined entries are reported as invalid Points.
package indicators

import (
	"fmt"
	"math"

	"VolScreen/internal/domain/models"
)

const (
	TradingDaysPerYear = 252
	SMAShortWindow     = 20
	SMALongWindow      = 50
	RSIWindow          = 14
)

// Compute builds the full IndicatorSet for series.
func Compute(series models.PriceSeries) models.IndicatorSet {
	return models.IndicatorSet{
		Returns: DailyReturns(series),
		SMA20:   SimpleMovingAverage(series, SMAShortWindow),
		SMA50:   SimpleMovingAverage(series, SMALongWindow),
		RSI14:   RSI(series, RSIWindow),
	}
}

// DailyReturns is the percentage change of close, (c[i]-c[i-1])/c[i-1].
// The first entry is undefined.
func DailyReturns(series models.PriceSeries) models.Series {
	closes := series.Closes()
	out := make(models.Series, len(closes))
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			continue
		}
		out[i] = models.Point{Value: (closes[i] - prev) / prev, Valid: true}
	}
	return out
}

// SimpleMovingAverage is the trailing mean of window closes. Entries before
// index window-1 are undefined.
func SimpleMovingAverage(series models.PriceSeries, window int) models.Series {
	closes := series.Closes()
	out := make(models.Series, len(closes))
	if window < 1 {
		return out
	}
	var sum float64
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			out[i] = models.Point{Value: sum / float64(window), Valid: true}
		}
	}
	return out
}

// RSI uses trailing simple means of gains and losses over window entries. The
// first bar has no delta and counts as zero gain and zero loss, so the first
// defined entry is at index window-1. With no losses in the window RSI is 100;
// with neither gains nor losses there is no signal.
func RSI(series models.PriceSeries, window int) models.Series {
	closes := series.Closes()
	n := len(closes)
	out := make(models.Series, n)
	if window < 1 || n < window {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := window - 1; i < n; i++ {
		var g, l float64
		for j := i - window + 1; j <= i; j++ {
			g += gains[j]
			l += losses[j]
		}
		avgGain := g / float64(window)
		avgLoss := l / float64(window)

		switch {
		case avgLoss == 0 && avgGain == 0:
			// flat window
		case avgLoss == 0:
			out[i] = models.Point{Value: 100, Valid: true}
		default:
			rs := avgGain / avgLoss
			out[i] = models.Point{Value: 100 - 100/(1+rs), Valid: true}
		}
	}
	return out
}

// AnnualizedVolatility is the sample standard deviation of returns scaled by
// sqrt(252). Non-finite returns, or a result that overflows, are reported as
// malformed data.
func AnnualizedVolatility(returns []float64) (float64, error) {
	n := len(returns)
	if n < 2 {
		return 0, fmt.Errorf("volatility needs 2 returns, have %d: %w", n, models.ErrInsufficientData)
	}
	var sum float64
	for i, r := range returns {
		if !isFinite(r) {
			return 0, fmt.Errorf("return %d is %v: %w", i, r, models.ErrDataUnavailable)
		}
		sum += r
	}
	mean := sum / float64(n)

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	vol := math.Sqrt(ss/float64(n-1)) * math.Sqrt(TradingDaysPerYear)
	if !isFinite(vol) {
		return 0, fmt.Errorf("volatility overflows: %w", models.ErrDataUnavailable)
	}
	return vol, nil
}

// MeanVolume is the arithmetic mean volume across the series; 0 when empty.
func MeanVolume(series models.PriceSeries) float64 {
	if series.Empty() {
		return 0
	}
	var sum float64
	for _, v := range series.Volumes() {
		sum += v
	}
	return sum / float64(series.Len())
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
