package indicators

import (
	"fmt"

	"FXRisk/internal/domain/models"
	"FXRisk/internal/services/features"

	"github.com/markcheno/go-talib"
)

const (
	rsiPeriod   = 14
	macdFast    = 12
	macdSlow    = 26
	macdSignal  = 9
	bbPeriod    = 20
	bbDeviation = 2.0
	volWindow   = 21
)

// MinObservations is the shortest series a snapshot accepts.
const MinObservations = macdSlow + macdSignal

// Snapshot computes the latest indicator readings over a filled daily series.
func Snapshot(series models.PriceSeries) (*models.IndicatorSnapshot, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrEmptySeries, series.Pair)
	}
	if series.Len() < MinObservations {
		return nil, fmt.Errorf("%w: %s has %d observations, need %d",
			models.ErrEmptySeries, series.Pair, series.Len(), MinObservations)
	}

	closes := series.Prices()
	n := len(closes) - 1
	last, _ := series.Last()

	rsi := talib.Rsi(closes, rsiPeriod)
	macd, signal, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	upper, middle, lower := talib.BBands(closes, bbPeriod, bbDeviation, bbDeviation, talib.SMA)

	s := &models.IndicatorSnapshot{
		Pair:     series.Pair,
		AsOf:     last.Date,
		Close:    last.Price,
		RSI:      rsi[n],
		MACD:     macd[n],
		MACDSig:  signal[n],
		MACDHist: hist[n],
		BBUpper:  upper[n],
		BBMiddle: middle[n],
		BBLower:  lower[n],
		SMA50:    lastSMA(closes, 50),
		SMA200:   lastSMA(closes, 200),
		RealVol:  features.RealizedVolatility(features.ComputeLogReturns(series.Points), volWindow, features.TradingDaysPerYear),
	}
	s.Signals = signals(s, hist)
	return s, nil
}

func lastSMA(closes []float64, period int) float64 {
	if len(closes) < period {
		return 0
	}
	return talib.Sma(closes, period)[len(closes)-1]
}

func signals(s *models.IndicatorSnapshot, hist []float64) []string {
	out := []string{}
	switch {
	case s.RSI >= 70:
		out = append(out, "rsi_overbought")
	case s.RSI <= 30:
		out = append(out, "rsi_oversold")
	}
	if n := len(hist) - 1; n > 0 {
		if hist[n-1] <= 0 && hist[n] > 0 {
			out = append(out, "macd_bullish_cross")
		} else if hist[n-1] >= 0 && hist[n] < 0 {
			out = append(out, "macd_bearish_cross")
		}
	}
	if s.Close > s.BBUpper {
		out = append(out, "above_upper_band")
	} else if s.Close < s.BBLower {
		out = append(out, "below_lower_band")
	}
	if s.SMA50 > 0 && s.SMA200 > 0 {
		if s.SMA50 > s.SMA200 {
			out = append(out, "sma50_above_sma200")
		} else {
			out = append(out, "sma50_below_sma200")
		}
	}
	return out
}
