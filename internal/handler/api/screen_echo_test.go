package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	models "VolScreen/internal/domain/models"
	"VolScreen/internal/service/ratelimit"
	xhttp "VolScreen/pkg/http"
	xlogger "VolScreen/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScreener struct {
	mu        sync.Mutex
	watchlist []string
	topN      int
}

func (s *stubScreener) Run(_ context.Context, watchlist []string, topN int) *models.ScreenResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchlist, s.topN = watchlist, topN

	rsi := 62.5
	return &models.ScreenResult{
		RunID:     "run-42",
		Watchlist: []string{"TSLA", "AAPL"},
		TopN:      topN,
		Succeeded: 1,
		Dropped:   []string{"AAPL"},
		Results: []models.VolatilityMetrics{{
			Symbol:               "TSLA",
			HistoricalVolatility: 0.55,
			RSILatest:            &rsi,
			EarningsSurprise:     -3,
			PredictedDirection:   models.DirectionDown,
			CurrentPrice:         240.1,
			LatestVolume:         1.2e8,
			VolatilityScore:      2.1,
		}},
	}
}

func newTestEcho(screener Screener, limiter *ratelimit.Limiter) *echo.Echo {
	h := NewScreenEchoHandler(xlogger.Nop(), screener, limiter, 7)
	return xhttp.NewServer(h, xlogger.Nop()).Echo()
}

func do(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestVolatileStocks(t *testing.T) {
	s := &stubScreener{}
	e := newTestEcho(s, nil)

	rec := do(e, "/api/volatile-stocks?symbols=tsla,%20AAPL&top_n=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"tsla", "AAPL"}, s.watchlist)
	assert.Equal(t, 3, s.topN)
	assert.Equal(t, "run-42", rec.Header().Get("X-Run-Id"))

	var body struct {
		Status int                      `json:"status"`
		Data   []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.Status)
	require.Len(t, body.Data, 1)
	row := body.Data[0]
	for _, field := range []string{
		"symbol", "historical_volatility", "implied_volatility", "rsi_latest", "earnings_surprise",
		"predicted_direction", "current_price", "latest_volume", "volatility_score",
	} {
		assert.Contains(t, row, field)
	}
	assert.Equal(t, -1.0, row["predicted_direction"])
}

func TestVolatileStocksDefaults(t *testing.T) {
	s := &stubScreener{}
	e := newTestEcho(s, nil)

	rec := do(e, "/api/volatile-stocks")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.watchlist)
	assert.Equal(t, 7, s.topN)
}

func TestVolatileStocksValidation(t *testing.T) {
	e := newTestEcho(&stubScreener{}, nil)

	for _, target := range []string{
		"/api/volatile-stocks?top_n=500",
		"/api/volatile-stocks?top_n=abc",
		"/api/volatile-stocks?symbols=AAPL,DROP%20TABLE",
	} {
		rec := do(e, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestScreenEnvelope(t *testing.T) {
	e := newTestEcho(&stubScreener{}, nil)

	rec := do(e, "/api/screen?symbols=TSLA,AAPL")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data models.ScreenResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-42", body.Data.RunID)
	assert.Equal(t, []string{"AAPL"}, body.Data.Dropped)
	require.Len(t, body.Data.Results, 1)
	require.NotNil(t, body.Data.Results[0].RSILatest)
	assert.Equal(t, 62.5, *body.Data.Results[0].RSILatest)
}

func TestRateLimit(t *testing.T) {
	e := newTestEcho(&stubScreener{}, ratelimit.New(1, 0.001))

	assert.Equal(t, http.StatusOK, do(e, "/api/volatile-stocks").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, "/api/volatile-stocks").Code)
	assert.Equal(t, http.StatusOK, do(e, "/healthz").Code, "health is not rate limited")
}
