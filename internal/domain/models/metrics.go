package models

import "time"

// Direction is the naive trend call: close vs. SMA20.
type Direction int

const (
	DirectionUp   Direction = 1
	DirectionDown Direction = -1
)

// VolatilityMetrics is the per-symbol output record of a screening run.
type VolatilityMetrics struct {
	Symbol               string    `json:"symbol"`
	HistoricalVolatility float64   `json:"historical_volatility"`
	ImpliedVolatility    float64   `json:"implied_volatility"`
	RSILatest            *float64  `json:"rsi_latest"`
	EarningsSurprise     float64   `json:"earnings_surprise"`
	PredictedDirection   Direction `json:"predicted_direction"`
	CurrentPrice         float64   `json:"current_price"`
	LatestVolume         float64   `json:"latest_volume"`
	VolatilityScore      float64   `json:"volatility_score"`
}

// ScreenResult wraps one screening run.
type ScreenResult struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	DurationMS int64               `json:"duration_ms"`
	Watchlist  []string            `json:"watchlist"`
	TopN       int                 `json:"top_n"`
	Succeeded  int                 `json:"succeeded"`
	Dropped    []string            `json:"dropped"`
	Results    []VolatilityMetrics `json:"results"`
}
