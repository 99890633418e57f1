package features

import (
	"math"
	"testing"
	"time"

	"FXRisk/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func points(prices ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(prices))
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range prices {
		out[i] = models.PricePoint{Date: d.AddDate(0, 0, i), Price: p}
	}
	return out
}

func TestComputeLogReturns(t *testing.T) {
	assert.Nil(t, ComputeLogReturns(points(1.1)))

	r := ComputeLogReturns(points(100, 110, 0, 121))
	assert.Len(t, r, 3)
	assert.InDelta(t, math.Log(1.1), r[0], 1e-12)
	assert.Zero(t, r[1])
	assert.Zero(t, r[2])
}

func TestRealizedVolatility(t *testing.T) {
	assert.Zero(t, RealizedVolatility([]float64{0.01}, 5, TradingDaysPerYear))
	assert.InDelta(t, 0, RealizedVolatility([]float64{0.01, 0.01, 0.01}, 3, TradingDaysPerYear), 1e-6)

	// alternating +-1% has sample stdev 0.01*sqrt(n/(n-1))
	r := []float64{0.5, 0.01, -0.01, 0.01, -0.01}
	got := RealizedVolatility(r, 4, 1)
	assert.InDelta(t, 0.01*math.Sqrt(4.0/3.0), got, 1e-12)
	assert.InDelta(t, got*math.Sqrt(TradingDaysPerYear), RealizedVolatility(r, 4, TradingDaysPerYear), 1e-12)
}

func TestYearFraction(t *testing.T) {
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 1.0, YearFraction(from, from.AddDate(0, 0, 365)), 1e-12)
	assert.Zero(t, YearFraction(from, from))
}
