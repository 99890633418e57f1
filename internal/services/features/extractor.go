package features

import (
	"math"
	"time"

	"FXRisk/internal/domain/models"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252.0

// ComputeLogReturns computes r_t = ln(P_t / P_{t-1}) over a series.
// It returns len(points)-1 values, or nil if there is insufficient data.
func ComputeLogReturns(points []models.PricePoint) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Price
		cur := points[i].Price
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes annualized volatility over the trailing window
// of log returns. A window larger than the sample uses the whole sample.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 0 || window > len(logReturns) {
		window = len(logReturns)
	}
	if window < 2 {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// YearFraction measures the act/365 year fraction between two dates.
func YearFraction(from, to time.Time) float64 {
	return to.Sub(from).Hours() / (365 * 24)
}
