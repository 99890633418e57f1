package pricing

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"FXRisk/internal/domain/models"
	domrepo "FXRisk/internal/domain/repository"
	domsvc "FXRisk/internal/domain/service"
	"FXRisk/internal/services/calendar"
	"FXRisk/internal/services/features"
	"FXRisk/pkg/config"
)

const maxMarketStates = 256

// ModelPricingProvider quotes forwards by interest parity and percentile
// strikes from a lognormal forward with realized volatility.
type ModelPricingProvider struct {
	market   domrepo.MarketDataProvider
	cal      *calendar.Calendar
	rates    map[string]config.RatePair
	lookback int
	volFloor float64

	mu     sync.Mutex
	states map[string]marketState
}

type marketState struct {
	spot  float64
	sigma float64
}

func NewModelPricingProvider(cfg *config.Config, market domrepo.MarketDataProvider, cal *calendar.Calendar) *ModelPricingProvider {
	lookback := cfg.Pricing.VolLookbackDays
	if lookback < 2 {
		lookback = 63
	}
	return &ModelPricingProvider{
		market:   market,
		cal:      cal,
		rates:    cfg.Pricing.Rates,
		lookback: lookback,
		volFloor: cfg.Pricing.VolFloor,
		states:   make(map[string]marketState),
	}
}

// state loads spot and realized volatility as of pricingDate, memoized per pair and date.
func (p *ModelPricingProvider) state(ctx context.Context, pair string, pricingDate time.Time) (marketState, error) {
	key := pair + "|" + pricingDate.Format(models.DateLayout)
	p.mu.Lock()
	st, ok := p.states[key]
	p.mu.Unlock()
	if ok {
		return st, nil
	}

	// calendar days covering the lookback plus weekends and holidays
	start := pricingDate.AddDate(0, 0, -(p.lookback*7/5 + 14))
	series, err := p.market.GetSeries(ctx, pair, start, pricingDate)
	if err != nil {
		return marketState{}, fmt.Errorf("history %s: %w", pair, err)
	}
	series, err = series.Fill(p.cal.BusinessDays(start, pricingDate))
	if err != nil {
		return marketState{}, err
	}
	last, _ := series.Last()

	sigma := features.RealizedVolatility(features.ComputeLogReturns(series.Points), p.lookback, features.TradingDaysPerYear)
	st = marketState{spot: last.Price, sigma: math.Max(sigma, p.volFloor)}

	p.mu.Lock()
	if len(p.states) >= maxMarketStates {
		p.states = make(map[string]marketState)
	}
	p.states[key] = st
	p.mu.Unlock()
	return st, nil
}

func (p *ModelPricingProvider) GetSpot(ctx context.Context, pricingDate time.Time, pair string) (float64, error) {
	st, err := p.state(ctx, pair, models.DateOnly(pricingDate))
	if err != nil {
		return 0, err
	}
	return st.spot, nil
}

func (p *ModelPricingProvider) GetForward(ctx context.Context, pricingDate time.Time, spec models.InstrumentSpec) (float64, error) {
	pricingDate = models.DateOnly(pricingDate)
	st, err := p.state(ctx, spec.Pair, pricingDate)
	if err != nil {
		return 0, err
	}
	r := p.rates[spec.Pair]
	return Forward(st.spot, r.Domestic, r.Foreign, features.YearFraction(pricingDate, spec.Expiry)), nil
}

func (p *ModelPricingProvider) GetPercentileStrike(ctx context.Context, pricingDate, expiry time.Time, percentile float64, spec models.InstrumentSpec) (float64, error) {
	if !(percentile > 0 && percentile < 1) {
		return 0, fmt.Errorf("%w: %v", models.ErrInvalidPercentile, percentile)
	}
	pricingDate = models.DateOnly(pricingDate)
	st, err := p.state(ctx, spec.Pair, pricingDate)
	if err != nil {
		return 0, err
	}
	t := features.YearFraction(pricingDate, expiry)
	r := p.rates[spec.Pair]
	fwd := Forward(st.spot, r.Domestic, r.Foreign, t)
	return LognormalStrike(fwd, st.sigma, t, models.InstrumentForPercentile(percentile)), nil
}

var _ domsvc.PricingProvider = (*ModelPricingProvider)(nil)
