package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"VolScreen/internal/domain/models"
	applogger "VolScreen/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartAAPL = `{"chart":{"result":[{
  "timestamp":[1704205800,1704292200,1704378600,1704465000],
  "indicators":{"quote":[{
    "open":[185.1,184.2,null,182.0],
    "high":[186.0,185.0,null,183.5],
    "low":[183.9,183.4,null,181.2],
    "close":[185.6,184.25,null,181.9],
    "volume":[82488700,58414500,null,71983600]
  }]}
}],"error":null}}`

const optionsAAPL = `{"optionChain":{"result":[{
  "expirationDates":[1706832000,1706227200],
  "options":[{
    "expirationDate":1706832000,
    "calls":[{"contractSymbol":"AAPL240202C00180000","strike":180,"impliedVolatility":0.30},
             {"contractSymbol":"AAPL240202C00190000","strike":190,"impliedVolatility":0.20}],
    "puts":[{"contractSymbol":"AAPL240202P00180000","strike":180,"impliedVolatility":0.35}]
  }]
}],"error":null}}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v8/finance/chart/AAPL", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(chartAAPL))
	})
	mux.HandleFunc("/v8/finance/chart/BROKEN", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	mux.HandleFunc("/v8/finance/chart/DELISTED", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})
	mux.HandleFunc("/v7/finance/options/AAPL", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(optionsAAPL))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *HTTPClient {
	now := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	return NewHTTPClient(srv.URL, 2*time.Second, 0, applogger.Nop(), WithClock(func() time.Time { return now }))
}

func TestHTTPClientFetchHistory(t *testing.T) {
	c := newTestClient(newTestServer(t))

	series, err := c.FetchHistory(context.Background(), "AAPL", 60)
	require.NoError(t, err)
	require.Equal(t, 3, series.Len(), "null close is skipped")
	assert.Equal(t, "AAPL", series.Symbol)
	assert.Equal(t, 181.9, series.Latest().Close)
	assert.Equal(t, 71983600.0, series.Latest().Volume)
	assert.NoError(t, series.Validate())

	series, err = c.FetchHistory(context.Background(), "AAPL", 2)
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, 184.25, series.Bars[0].Close)
}

func TestHTTPClientFetchHistoryErrors(t *testing.T) {
	c := newTestClient(newTestServer(t))
	ctx := context.Background()

	_, err := c.FetchHistory(ctx, "NOPE", 60)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)

	_, err = c.FetchHistory(ctx, "DELISTED", 60)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)

	_, err = c.FetchHistory(ctx, "BROKEN", 60)
	assert.ErrorIs(t, err, models.ErrProviderFailure)
}

func TestHTTPClientCancelledContext(t *testing.T) {
	c := newTestClient(newTestServer(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchHistory(ctx, "AAPL", 60)
	assert.ErrorIs(t, err, models.ErrProviderFailure)
}

func TestHTTPClientOptions(t *testing.T) {
	c := newTestClient(newTestServer(t))
	ctx := context.Background()

	expiries, err := c.ListOptionExpiries(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, expiries, 2)
	assert.Equal(t, int64(1706832000), expiries[0].Unix(), "provider order is kept")

	snap, err := c.FetchOptionChain(ctx, "AAPL", expiries[0])
	require.NoError(t, err)
	require.Len(t, snap.Calls, 2)
	require.Len(t, snap.Puts, 1)
	assert.Equal(t, models.OptionCall, snap.Calls[0].Kind)

	iv, ok := snap.MeanCallIV()
	require.True(t, ok)
	assert.InDelta(t, 0.25, iv, 1e-12)

	expiries, err = c.ListOptionExpiries(ctx, "NOOPTS")
	require.NoError(t, err)
	assert.Empty(t, expiries)
}
