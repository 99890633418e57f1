package pricing

import (
	"context"
	"fmt"
	"time"

	"FXRisk/internal/domain/models"
	domsvc "FXRisk/internal/domain/service"
	"FXRisk/pkg/config"
)

// HTTPPricingProvider delegates quotes to the pricing service.
type HTTPPricingProvider struct {
	base     *HTTPServiceBase
	attempts int
}

func NewHTTPPricingProvider(cfg *config.Config) *HTTPPricingProvider {
	return &HTTPPricingProvider{base: NewHTTPServiceBase(cfg), attempts: cfg.Pricing.Retries + 1}
}

type spotReq struct {
	Pair        string `json:"pair"`
	PricingDate string `json:"pricing_date"`
}

type forwardReq struct {
	Pair        string `json:"pair"`
	PricingDate string `json:"pricing_date"`
	Expiry      string `json:"expiry"`
}

type strikeReq struct {
	Pair        string            `json:"pair"`
	PricingDate string            `json:"pricing_date"`
	Expiry      string            `json:"expiry"`
	Percentile  float64           `json:"percentile"`
	Side        models.OptionSide `json:"side"`
	Probability float64           `json:"probability"`
}

type priceResp struct {
	Price float64 `json:"price"`
}

func (p *HTTPPricingProvider) GetSpot(ctx context.Context, pricingDate time.Time, pair string) (float64, error) {
	var r priceResp
	err := p.base.PostJSONWithRetry(ctx, "/spot", spotReq{Pair: pair, PricingDate: pricingDate.Format(models.DateLayout)}, &r, p.attempts)
	if err != nil {
		return 0, fmt.Errorf("pricing spot: %w", err)
	}
	return r.Price, nil
}

func (p *HTTPPricingProvider) GetForward(ctx context.Context, pricingDate time.Time, spec models.InstrumentSpec) (float64, error) {
	var r priceResp
	err := p.base.PostJSONWithRetry(ctx, "/forward", forwardReq{
		Pair:        spec.Pair,
		PricingDate: pricingDate.Format(models.DateLayout),
		Expiry:      spec.Expiry.Format(models.DateLayout),
	}, &r, p.attempts)
	if err != nil {
		return 0, fmt.Errorf("pricing forward: %w", err)
	}
	return r.Price, nil
}

func (p *HTTPPricingProvider) GetPercentileStrike(ctx context.Context, pricingDate, expiry time.Time, percentile float64, spec models.InstrumentSpec) (float64, error) {
	inst := models.InstrumentForPercentile(percentile)
	var r priceResp
	err := p.base.PostJSONWithRetry(ctx, "/binary/strike", strikeReq{
		Pair:        spec.Pair,
		PricingDate: pricingDate.Format(models.DateLayout),
		Expiry:      expiry.Format(models.DateLayout),
		Percentile:  percentile,
		Side:        inst.Side,
		Probability: inst.Probability,
	}, &r, p.attempts)
	if err != nil {
		return 0, fmt.Errorf("pricing strike: %w", err)
	}
	return r.Price, nil
}

var _ domsvc.PricingProvider = (*HTTPPricingProvider)(nil)
