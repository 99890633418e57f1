package service

import (
	"context"
	"time"

	"FXRisk/internal/domain/models"
)

// PricingProvider quotes spot, forwards and percentile strikes for a pair.
// Percentile strikes follow models.InstrumentForPercentile: p above the median
// is quoted from the call side with probability 1-p, otherwise from the put side.
type PricingProvider interface {
	GetSpot(ctx context.Context, pricingDate time.Time, pair string) (float64, error)
	GetForward(ctx context.Context, pricingDate time.Time, spec models.InstrumentSpec) (float64, error)
	GetPercentileStrike(ctx context.Context, pricingDate, expiry time.Time, percentile float64, spec models.InstrumentSpec) (float64, error)
}
