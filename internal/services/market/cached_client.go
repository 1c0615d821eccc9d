package market

import (
	"context"
	"errors"
	"time"

	"VolScreen/internal/domain/models"
	domrepo "VolScreen/internal/domain/repository"
	"VolScreen/pkg/cache"
	applogger "VolScreen/pkg/logger"
)

const (
	historyKeyPrefix = "history"
	expiryKeyPrefix  = "expiries"
	chainKeyPrefix   = "chain"
)

// CachedClient memoizes successful provider responses. Errors are never
// cached and a broken cache only costs a provider round trip.
type CachedClient struct {
	next       domrepo.MarketDataClient
	cache      cache.Service
	historyTTL time.Duration
	optionsTTL time.Duration
	log        *applogger.Logger
}

func NewCachedClient(next domrepo.MarketDataClient, c cache.Service, historyTTL, optionsTTL time.Duration, l *applogger.Logger) *CachedClient {
	return &CachedClient{
		next:       next,
		cache:      c,
		historyTTL: historyTTL,
		optionsTTL: optionsTTL,
		log:        l,
	}
}

func (c *CachedClient) FetchHistory(ctx context.Context, symbol string, lookback int) (models.PriceSeries, error) {
	key := cache.GenerateKeyWithParams(historyKeyPrefix, symbol, lookback)

	var series models.PriceSeries
	if c.lookup(ctx, key, &series) {
		return series, nil
	}
	series, err := c.next.FetchHistory(ctx, symbol, lookback)
	if err != nil {
		return series, err
	}
	c.store(ctx, key, series, c.historyTTL)
	return series, nil
}

func (c *CachedClient) ListOptionExpiries(ctx context.Context, symbol string) ([]time.Time, error) {
	key := cache.GenerateKey(expiryKeyPrefix, symbol)

	var expiries []time.Time
	if c.lookup(ctx, key, &expiries) {
		return expiries, nil
	}
	expiries, err := c.next.ListOptionExpiries(ctx, symbol)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, expiries, c.optionsTTL)
	return expiries, nil
}

func (c *CachedClient) FetchOptionChain(ctx context.Context, symbol string, expiry time.Time) (models.OptionsSnapshot, error) {
	key := cache.GenerateKeyWithParams(chainKeyPrefix, symbol, expiry.Unix())

	var snap models.OptionsSnapshot
	if c.lookup(ctx, key, &snap) {
		return snap, nil
	}
	snap, err := c.next.FetchOptionChain(ctx, symbol, expiry)
	if err != nil {
		return snap, err
	}
	c.store(ctx, key, snap, c.optionsTTL)
	return snap, nil
}

func (c *CachedClient) lookup(ctx context.Context, key string, dest interface{}) bool {
	err := c.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.log.Warn("market cache get failed", applogger.String("key", key), applogger.Error(err))
	}
	return false
}

func (c *CachedClient) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		c.log.Warn("market cache set failed", applogger.String("key", key), applogger.Error(err))
	}
}

var _ domrepo.MarketDataClient = (*CachedClient)(nil)
