package repository

import (
	"context"
	"errors"
	"time"

	"FXRisk/internal/domain/models"
	domrepo "FXRisk/internal/domain/repository"
	"FXRisk/pkg/cache"
	applogger "FXRisk/pkg/logger"
)

// CachedMarketData memoizes GetSeries results per (pair, start, end).
// Cache failures are logged and fall through to the wrapped provider.
type CachedMarketData struct {
	next  domrepo.MarketDataProvider
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedMarketData(next domrepo.MarketDataProvider, c cache.Service, ttl time.Duration) *CachedMarketData {
	return &CachedMarketData{next: next, cache: c, ttl: ttl}
}

func (m *CachedMarketData) SetLogger(l *applogger.Logger) { m.l = l }

func (m *CachedMarketData) GetSeries(ctx context.Context, pair string, start, end time.Time) (models.PriceSeries, error) {
	key := cache.GenerateKeyWithParams("series", pair, start.Format(models.DateLayout), end.Format(models.DateLayout))

	var hit models.PriceSeries
	err := m.cache.Get(ctx, key, &hit)
	switch {
	case err == nil:
		return hit, nil
	case !errors.Is(err, cache.ErrCacheMiss) && m.l != nil:
		m.l.Warn("series cache get failed", applogger.String("key", key), applogger.Error(err))
	}

	series, err := m.next.GetSeries(ctx, pair, start, end)
	if err != nil {
		return series, err
	}
	if err := m.cache.Set(ctx, key, series, m.ttl); err != nil && m.l != nil {
		m.l.Warn("series cache set failed", applogger.String("key", key), applogger.Error(err))
	}
	return series, nil
}

var _ domrepo.MarketDataProvider = (*CachedMarketData)(nil)
