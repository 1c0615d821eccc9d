package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"VolScreen/internal/domain/models"
	domrepo "VolScreen/internal/domain/repository"
	xhttp "VolScreen/pkg/http"
	applogger "VolScreen/pkg/logger"

	"golang.org/x/time/rate"
)

// HTTPClient talks to a Yahoo-finance style chart/options JSON API.
// One instance is shared by every symbol of a run; the underlying transport
// pools connections and the limiter keeps the provider's request budget.
type HTTPClient struct {
	baseURL string
	client  *xhttp.Client
	limiter *rate.Limiter
	log     *applogger.Logger
	now     func() time.Time
}

type HTTPClientOption func(*HTTPClient)

// WithClock overrides time.Now, used to compute the history window.
func WithClock(now func() time.Time) HTTPClientOption {
	return func(c *HTTPClient) { c.now = now }
}

// NewHTTPClient builds a client; maxPerMinute <= 0 disables throttling.
func NewHTTPClient(baseURL string, timeout time.Duration, maxPerMinute int, l *applogger.Logger, opts ...HTTPClientOption) *HTTPClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if maxPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxPerMinute)), 4)
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: xhttp.NewClient(
			xhttp.WithTimeout(timeout),
			xhttp.WithUserAgent("Mozilla/5.0 (compatible; VolScreen/1.0)"),
			xhttp.WithMaxConnsPerHost(8),
		),
		limiter: limiter,
		log:     l,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type optionsResponse struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				ExpirationDate int64         `json:"expirationDate"`
				Calls          []optionQuote `json:"calls"`
				Puts           []optionQuote `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"optionChain"`
}

type optionQuote struct {
	ContractSymbol    string  `json:"contractSymbol"`
	Strike            float64 `json:"strike"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// FetchHistory requests enough calendar days to cover lookback sessions and
// keeps the trailing lookback bars. Bars with a null close are skipped.
func (c *HTTPClient) FetchHistory(ctx context.Context, symbol string, lookback int) (models.PriceSeries, error) {
	series := models.PriceSeries{Symbol: symbol}
	if lookback < 1 {
		return series, fmt.Errorf("lookback must be positive: %w", models.ErrInsufficientData)
	}

	end := c.now().UTC()
	start := end.AddDate(0, 0, -(lookback*7/5 + 10))
	var resp chartResponse
	err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), map[string][]string{
		"period1":  {strconv.FormatInt(start.Unix(), 10)},
		"period2":  {strconv.FormatInt(end.Unix(), 10)},
		"interval": {"1d"},
	}, &resp)
	if err != nil {
		return series, fmt.Errorf("history %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return series, fmt.Errorf("history %s: %s: %w", symbol, resp.Chart.Error.Description, classifyAPIError(resp.Chart.Error))
	}
	if len(resp.Chart.Result) == 0 {
		return series, fmt.Errorf("history %s: empty result: %w", symbol, models.ErrDataUnavailable)
	}

	res := resp.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return series, nil
	}
	q := res.Indicators.Quote[0]
	for i, ts := range res.Timestamp {
		px := at(q.Close, i)
		if px == nil {
			continue
		}
		series.Bars = append(series.Bars, models.PriceBar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      deref(at(q.Open, i)),
			High:      deref(at(q.High, i)),
			Low:       deref(at(q.Low, i)),
			Close:     *px,
			Volume:    deref(at(q.Volume, i)),
		})
	}
	if len(series.Bars) > lookback {
		series.Bars = series.Bars[len(series.Bars)-lookback:]
	}
	return series, nil
}

// ListOptionExpiries returns expiries in the order the provider lists them.
func (c *HTTPClient) ListOptionExpiries(ctx context.Context, symbol string) ([]time.Time, error) {
	resp, err := c.options(ctx, symbol, nil)
	if err != nil {
		if errors.Is(err, models.ErrDataUnavailable) {
			return nil, nil
		}
		return nil, fmt.Errorf("expiries %s: %w", symbol, err)
	}
	if len(resp.OptionChain.Result) == 0 {
		return nil, nil
	}
	dates := resp.OptionChain.Result[0].ExpirationDates
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		out = append(out, time.Unix(d, 0).UTC())
	}
	return out, nil
}

func (c *HTTPClient) FetchOptionChain(ctx context.Context, symbol string, expiry time.Time) (models.OptionsSnapshot, error) {
	snap := models.OptionsSnapshot{Symbol: symbol, Expiry: expiry}
	resp, err := c.options(ctx, symbol, map[string][]string{
		"date": {strconv.FormatInt(expiry.Unix(), 10)},
	})
	if err != nil {
		return snap, fmt.Errorf("chain %s %s: %w", symbol, expiry.Format(time.DateOnly), err)
	}
	if len(resp.OptionChain.Result) == 0 || len(resp.OptionChain.Result[0].Options) == 0 {
		return snap, fmt.Errorf("chain %s %s: no chain: %w", symbol, expiry.Format(time.DateOnly), models.ErrDataUnavailable)
	}
	chain := resp.OptionChain.Result[0].Options[0]
	snap.Calls = toContracts(chain.Calls, models.OptionCall)
	snap.Puts = toContracts(chain.Puts, models.OptionPut)
	return snap, nil
}

func (c *HTTPClient) options(ctx context.Context, symbol string, query map[string][]string) (*optionsResponse, error) {
	var resp optionsResponse
	if err := c.get(ctx, "/v7/finance/options/"+url.PathEscape(symbol), query, &resp); err != nil {
		return nil, err
	}
	if resp.OptionChain.Error != nil {
		return nil, fmt.Errorf("%s: %w", resp.OptionChain.Error.Description, classifyAPIError(resp.OptionChain.Error))
	}
	return &resp, nil
}

// get waits for the rate limiter, performs the request and maps failures onto
// the domain error kinds.
func (c *HTTPClient) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %v: %w", err, models.ErrProviderFailure)
	}

	start := time.Now()
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: query,
		Headers:     map[string]string{"Accept": "application/json"},
	}, dest)
	if err == nil {
		c.log.Debug("market request",
			applogger.String("path", path),
			applogger.Duration("latency_ms", time.Since(start)),
		)
		return nil
	}

	var se *xhttp.StatusError
	if errors.As(err, &se) && (se.Code == http.StatusNotFound || se.Code == http.StatusUnprocessableEntity) {
		return fmt.Errorf("%v: %w", err, models.ErrDataUnavailable)
	}
	return fmt.Errorf("%v: %w", err, models.ErrProviderFailure)
}

func classifyAPIError(e *apiError) error {
	if strings.EqualFold(e.Code, "Not Found") {
		return models.ErrDataUnavailable
	}
	return models.ErrProviderFailure
}

func toContracts(quotes []optionQuote, kind models.OptionKind) []models.OptionContract {
	out := make([]models.OptionContract, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, models.OptionContract{
			ContractSymbol:    q.ContractSymbol,
			Kind:              kind,
			Strike:            q.Strike,
			ImpliedVolatility: q.ImpliedVolatility,
		})
	}
	return out
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

var _ domrepo.MarketDataClient = (*HTTPClient)(nil)
