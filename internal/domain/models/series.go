package models

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the wire format of every date in request and result tables.
const DateLayout = "2006-01-02"

// PricePoint is a single daily close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceSeries is a chronologically sorted daily series with unique dates.
type PriceSeries struct {
	Pair   string       `json:"pair"`
	Points []PricePoint `json:"points"`
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func usable(p float64) bool { return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0) }

// Len returns the number of points.
func (s PriceSeries) Len() int { return len(s.Points) }

// Prices returns the close column.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// Dates returns the date column.
func (s PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

// Last returns the final point.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Fill reindexes the series onto axis, forward-filling and then back-filling
// missing or unusable prices. A nil axis keeps the series' own dates.
func (s PriceSeries) Fill(axis []time.Time) (PriceSeries, error) {
	byDate := make(map[time.Time]float64, len(s.Points))
	for _, p := range s.Points {
		if usable(p.Price) {
			byDate[DateOnly(p.Date)] = p.Price
		}
	}
	if len(byDate) == 0 {
		return PriceSeries{}, fmt.Errorf("%w: %s", ErrEmptySeries, s.Pair)
	}
	if axis == nil {
		axis = s.Dates()
	}

	out := PriceSeries{Pair: s.Pair, Points: make([]PricePoint, len(axis))}
	last, firstValid := math.NaN(), -1
	for i, d := range axis {
		d = DateOnly(d)
		if p, ok := byDate[d]; ok {
			last = p
			if firstValid < 0 {
				firstValid = i
			}
		}
		out.Points[i] = PricePoint{Date: d, Price: last}
	}
	if firstValid < 0 {
		return PriceSeries{}, fmt.Errorf("%w: %s has no observation on the requested dates", ErrEmptySeries, s.Pair)
	}
	for i := 0; i < firstValid; i++ {
		out.Points[i].Price = out.Points[firstValid].Price
	}
	return out, nil
}
