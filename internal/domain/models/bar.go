package models

import (
	"fmt"
	"math"
	"time"
)

// PriceBar is one trading session of OHLCV data.
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceSeries holds bars for one symbol, oldest first.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

func (s PriceSeries) Len() int { return len(s.Bars) }

func (s PriceSeries) Empty() bool { return len(s.Bars) == 0 }

// Latest returns the most recent bar. Callers must check Empty first.
func (s PriceSeries) Latest() PriceBar { return s.Bars[len(s.Bars)-1] }

func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Validate rejects series that would otherwise score silently wrong: bars out
// of order, or closes/volumes that are not finite, or non-positive closes.
func (s PriceSeries) Validate() error {
	for i, b := range s.Bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			return fmt.Errorf("%s bar %d: malformed close %v: %w", s.Symbol, i, b.Close, ErrDataUnavailable)
		}
		if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
			return fmt.Errorf("%s bar %d: malformed volume %v: %w", s.Symbol, i, b.Volume, ErrDataUnavailable)
		}
		if i > 0 && !b.Timestamp.After(s.Bars[i-1].Timestamp) {
			return fmt.Errorf("%s bar %d: timestamps not ascending: %w", s.Symbol, i, ErrDataUnavailable)
		}
	}
	return nil
}
