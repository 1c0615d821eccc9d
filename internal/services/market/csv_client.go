package market

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"VolScreen/internal/domain/models"
	domrepo "VolScreen/internal/domain/repository"

	"github.com/gocarina/gocsv"
)

// CSVClient serves market data from flat files:
//
//	<dir>/<SYMBOL>.csv          date,open,high,low,close,volume
//	<dir>/<SYMBOL>_options.csv  expiry,contract_symbol,kind,strike,implied_volatility
//
// Files are read on every call, so it is safe for concurrent use.
type CSVClient struct {
	dir string
}

func NewCSVClient(dir string) *CSVClient {
	return &CSVClient{dir: dir}
}

// csvDate accepts YYYY-MM-DD or RFC3339.
type csvDate struct {
	time.Time
}

func (d *csvDate) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

func (d csvDate) MarshalCSV() (string, error) {
	return d.Format(time.DateOnly), nil
}

type barRow struct {
	Date   csvDate `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

type optionRow struct {
	Expiry            csvDate `csv:"expiry"`
	ContractSymbol    string  `csv:"contract_symbol"`
	Kind              string  `csv:"kind"`
	Strike            float64 `csv:"strike"`
	ImpliedVolatility float64 `csv:"implied_volatility"`
}

func (c *CSVClient) FetchHistory(ctx context.Context, symbol string, lookback int) (models.PriceSeries, error) {
	series := models.PriceSeries{Symbol: symbol}
	if err := ctx.Err(); err != nil {
		return series, fmt.Errorf("history %s: %v: %w", symbol, err, models.ErrProviderFailure)
	}

	var rows []*barRow
	if err := c.read(symbol+".csv", &rows); err != nil {
		return series, fmt.Errorf("history %s: %w", symbol, err)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date.Time) })

	for _, r := range rows {
		series.Bars = append(series.Bars, models.PriceBar{
			Timestamp: r.Date.Time,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	if lookback > 0 && len(series.Bars) > lookback {
		series.Bars = series.Bars[len(series.Bars)-lookback:]
	}
	return series, nil
}

// ListOptionExpiries returns expiries in file order. A missing options file
// means the symbol has no listed options.
func (c *CSVClient) ListOptionExpiries(ctx context.Context, symbol string) ([]time.Time, error) {
	rows, err := c.optionRows(ctx, symbol)
	if err != nil {
		if errors.Is(err, models.ErrDataUnavailable) {
			return nil, nil
		}
		return nil, fmt.Errorf("expiries %s: %w", symbol, err)
	}

	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, r := range rows {
		if _, ok := seen[r.Expiry.Time]; ok {
			continue
		}
		seen[r.Expiry.Time] = struct{}{}
		out = append(out, r.Expiry.Time)
	}
	return out, nil
}

func (c *CSVClient) FetchOptionChain(ctx context.Context, symbol string, expiry time.Time) (models.OptionsSnapshot, error) {
	snap := models.OptionsSnapshot{Symbol: symbol, Expiry: expiry}
	rows, err := c.optionRows(ctx, symbol)
	if err != nil {
		return snap, fmt.Errorf("chain %s: %w", symbol, err)
	}

	found := false
	for _, r := range rows {
		if !r.Expiry.Equal(expiry) {
			continue
		}
		found = true
		contract := models.OptionContract{
			ContractSymbol:    r.ContractSymbol,
			Kind:              models.OptionKind(strings.ToLower(strings.TrimSpace(r.Kind))),
			Strike:            r.Strike,
			ImpliedVolatility: r.ImpliedVolatility,
		}
		switch contract.Kind {
		case models.OptionCall:
			snap.Calls = append(snap.Calls, contract)
		case models.OptionPut:
			snap.Puts = append(snap.Puts, contract)
		}
	}
	if !found {
		return snap, fmt.Errorf("chain %s %s: %w", symbol, expiry.Format(time.DateOnly), models.ErrDataUnavailable)
	}
	return snap, nil
}

func (c *CSVClient) optionRows(ctx context.Context, symbol string) ([]*optionRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, models.ErrProviderFailure)
	}
	var rows []*optionRow
	if err := c.read(symbol+"_options.csv", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *CSVClient) read(name string, out interface{}) error {
	f, err := os.Open(filepath.Join(c.dir, filepath.Base(name)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, models.ErrDataUnavailable)
		}
		return fmt.Errorf("open %s: %v: %w", name, err, models.ErrProviderFailure)
	}
	defer f.Close()

	if err := gocsv.Unmarshal(f, out); err != nil {
		return fmt.Errorf("parse %s: %v: %w", name, err, models.ErrDataUnavailable)
	}
	return nil
}

var _ domrepo.MarketDataClient = (*CSVClient)(nil)
