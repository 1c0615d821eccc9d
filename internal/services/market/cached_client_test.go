package market

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"VolScreen/internal/domain/models"
	"VolScreen/pkg/cache"
	applogger "VolScreen/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	history  atomic.Int32
	expiries atomic.Int32
	chains   atomic.Int32
	fail     bool
}

func (c *countingClient) FetchHistory(_ context.Context, symbol string, lookback int) (models.PriceSeries, error) {
	c.history.Add(1)
	if c.fail {
		return models.PriceSeries{}, models.ErrProviderFailure
	}
	return models.PriceSeries{Symbol: symbol, Bars: []models.PriceBar{
		{Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 10, Volume: 100},
		{Timestamp: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: 11, Volume: 200},
	}}, nil
}

func (c *countingClient) ListOptionExpiries(context.Context, string) ([]time.Time, error) {
	c.expiries.Add(1)
	return []time.Time{time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)}, nil
}

func (c *countingClient) FetchOptionChain(_ context.Context, symbol string, expiry time.Time) (models.OptionsSnapshot, error) {
	c.chains.Add(1)
	return models.OptionsSnapshot{
		Symbol: symbol,
		Expiry: expiry,
		Calls:  []models.OptionContract{{Kind: models.OptionCall, Strike: 10, ImpliedVolatility: 0.4}},
	}, nil
}

func TestCachedClientHitsCache(t *testing.T) {
	next := &countingClient{}
	c := NewCachedClient(next, cache.NewMemoryCache(), time.Minute, time.Minute, applogger.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		series, err := c.FetchHistory(ctx, "AAPL", 60)
		require.NoError(t, err)
		require.Equal(t, 2, series.Len())
		assert.Equal(t, 11.0, series.Latest().Close)
	}
	assert.Equal(t, int32(1), next.history.Load())

	_, err := c.FetchHistory(ctx, "AAPL", 30)
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.history.Load(), "lookback is part of the key")

	for i := 0; i < 2; i++ {
		expiries, err := c.ListOptionExpiries(ctx, "AAPL")
		require.NoError(t, err)
		require.Len(t, expiries, 1)

		snap, err := c.FetchOptionChain(ctx, "AAPL", expiries[0])
		require.NoError(t, err)
		iv, ok := snap.MeanCallIV()
		require.True(t, ok)
		assert.Equal(t, 0.4, iv)
	}
	assert.Equal(t, int32(1), next.expiries.Load())
	assert.Equal(t, int32(1), next.chains.Load())
}

func TestCachedClientDoesNotCacheErrors(t *testing.T) {
	next := &countingClient{fail: true}
	c := NewCachedClient(next, cache.NewMemoryCache(), time.Minute, time.Minute, applogger.Nop())

	for i := 0; i < 2; i++ {
		_, err := c.FetchHistory(context.Background(), "AAPL", 60)
		assert.ErrorIs(t, err, models.ErrProviderFailure)
	}
	assert.Equal(t, int32(2), next.history.Load())
}
