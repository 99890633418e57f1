package pricing

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"FXRisk/internal/domain/models"
	"FXRisk/internal/services/calendar"
	"FXRisk/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMarket struct {
	calls atomic.Int64
	err   error
}

// GetSeries returns business-day closes alternating between 1.10 and 1.11.
func (m *stubMarket) GetSeries(_ context.Context, pair string, start, end time.Time) (models.PriceSeries, error) {
	m.calls.Add(1)
	if m.err != nil {
		return models.PriceSeries{}, m.err
	}
	s := models.PriceSeries{Pair: pair}
	i := 0
	for _, d := range calendar.New().BusinessDays(start, end) {
		p := 1.10
		if i%2 == 1 {
			p = 1.11
		}
		s.Points = append(s.Points, models.PricePoint{Date: d, Price: p})
		i++
	}
	return s, nil
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Pricing.Rates = map[string]config.RatePair{"EURUSD": {Domestic: 0.05, Foreign: 0.03}}
	return cfg
}

func TestModelProviderQuotes(t *testing.T) {
	market := &stubMarket{}
	p := NewModelPricingProvider(testConfig(), market, calendar.New())
	ctx := context.Background()
	pricingDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	expiry := pricingDate.AddDate(0, 6, 0)
	spec := models.InstrumentSpec{Pair: "EURUSD", Expiry: expiry}

	spot, err := p.GetSpot(ctx, pricingDate, "EURUSD")
	require.NoError(t, err)
	assert.Contains(t, []float64{1.10, 1.11}, spot)

	fwd, err := p.GetForward(ctx, pricingDate, spec)
	require.NoError(t, err)
	tau := expiry.Sub(pricingDate).Hours() / (365 * 24)
	assert.InDelta(t, spot*math.Exp(0.02*tau), fwd, 1e-12)

	hi, err := p.GetPercentileStrike(ctx, pricingDate, expiry, 0.95, spec)
	require.NoError(t, err)
	lo, err := p.GetPercentileStrike(ctx, pricingDate, expiry, 0.05, spec)
	require.NoError(t, err)
	assert.Greater(t, hi, fwd)
	assert.Less(t, lo, fwd)

	assert.Equal(t, int64(1), market.calls.Load(), "market state is memoized per pair and date")
}

func TestModelProviderRejectsPercentile(t *testing.T) {
	p := NewModelPricingProvider(testConfig(), &stubMarket{}, calendar.New())
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := p.GetPercentileStrike(context.Background(), d, d.AddDate(0, 1, 0), 1.5, models.InstrumentSpec{Pair: "EURUSD"})
	assert.ErrorIs(t, err, models.ErrInvalidPercentile)
}

func TestModelProviderPropagatesMarketErrors(t *testing.T) {
	boom := errors.New("clickhouse down")
	p := NewModelPricingProvider(testConfig(), &stubMarket{err: boom}, calendar.New())
	_, err := p.GetSpot(context.Background(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "EURUSD")
	assert.ErrorIs(t, err, boom)
}
