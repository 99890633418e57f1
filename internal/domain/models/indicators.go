package models

import "time"

// IndicatorSnapshot holds the latest technical-indicator readings for a series.
type IndicatorSnapshot struct {
	Pair     string    `json:"pair"`
	AsOf     time.Time `json:"as_of"`
	Close    float64   `json:"close"`
	RSI      float64   `json:"rsi"`
	MACD     float64   `json:"macd"`
	MACDSig  float64   `json:"macd_signal"`
	MACDHist float64   `json:"macd_hist"`
	BBUpper  float64   `json:"bb_upper"`
	BBMiddle float64   `json:"bb_middle"`
	BBLower  float64   `json:"bb_lower"`
	SMA50    float64   `json:"sma_50"`
	SMA200   float64   `json:"sma_200"`
	RealVol  float64   `json:"realized_vol"`
	Signals  []string  `json:"signals"`
}
