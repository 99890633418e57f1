package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Fixed risk-cone column names consumed by reporting.
const (
	ColumnForward = "ForwardCurve"
	ColumnSpot    = "CurrentSpot"
)

// OptionSide is the side of the binary option that quotes a percentile.
type OptionSide string

const (
	SideCall OptionSide = "call"
	SidePut  OptionSide = "put"
)

// InstrumentSpec identifies what the pricing collaborator is asked to price.
type InstrumentSpec struct {
	Pair   string    `json:"pair"`
	Expiry time.Time `json:"expiry"`
}

// BinaryInstrument is the binary option quoting one percentile.
type BinaryInstrument struct {
	Side        OptionSide `json:"side"`
	Probability float64    `json:"probability"`
}

// InstrumentForPercentile maps a percentile to the binary option that quotes it.
// Percentiles above the median are priced as calls paying with probability 1-p,
// the rest as puts paying with probability p.
func InstrumentForPercentile(p float64) BinaryInstrument {
	if p > 0.5 {
		return BinaryInstrument{Side: SideCall, Probability: 1 - p}
	}
	return BinaryInstrument{Side: SidePut, Probability: p}
}

// PercentileLabel renders p as an ordinal column name: 0.95 -> "95th", 0.01 -> "1st".
func PercentileLabel(p float64) string {
	v := math.Round(p*100*1e6) / 1e6
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v != math.Trunc(v) {
		return s + "th"
	}
	n := int(v)
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return s + suffix
}

// TenorMarker is a highlighted date on the cone.
type TenorMarker struct {
	Label string    `json:"label"`
	Date  time.Time `json:"date"`
}

// RiskConeRow is one date of the cone.
type RiskConeRow struct {
	Date        time.Time
	Forward     float64
	Spot        float64
	Percentiles map[string]float64
}

// MarshalJSON flattens the row into {"Date", <percentile labels>, "ForwardCurve", "CurrentSpot"}.
func (r RiskConeRow) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(r.Percentiles)+3)
	for k, v := range r.Percentiles {
		m[k] = v
	}
	m["Date"] = r.Date.Format(DateLayout)
	m[ColumnForward] = r.Forward
	m[ColumnSpot] = r.Spot
	return json.Marshal(m)
}

// UnmarshalJSON reverses MarshalJSON: every key other than Date and the
// forward/spot columns is a percentile column.
func (r *RiskConeRow) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	out := RiskConeRow{Percentiles: make(map[string]float64, len(m))}
	for k, raw := range m {
		if k == "Date" {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("risk cone row date: %w", err)
			}
			d, err := time.Parse(DateLayout, s)
			if err != nil {
				return fmt.Errorf("risk cone row date: %w", err)
			}
			out.Date = d
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("risk cone row %s: %w", k, err)
		}
		switch k {
		case ColumnForward:
			out.Forward = v
		case ColumnSpot:
			out.Spot = v
		default:
			out.Percentiles[k] = v
		}
	}
	*r = out
	return nil
}

// Value returns the cell of the named column.
func (r RiskConeRow) Value(column string) float64 {
	switch column {
	case ColumnForward:
		return r.Forward
	case ColumnSpot:
		return r.Spot
	default:
		return r.Percentiles[column]
	}
}

// RiskConeTable is the assembled cone, rows ascending by date.
type RiskConeTable struct {
	Pair        string        `json:"pair"`
	PricingDate time.Time     `json:"pricing_date"`
	Precision   int           `json:"precision"`
	Columns     []string      `json:"columns"`
	Rows        []RiskConeRow `json:"rows"`
	Tenors      []TenorMarker `json:"tenors"`
}

// Records renders the table as CSV records with a header row.
func (t *RiskConeTable) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string{"Date"}, t.Columns...))
	for _, r := range t.Rows {
		rec := make([]string, 0, len(t.Columns)+1)
		rec = append(rec, r.Date.Format(DateLayout))
		for _, c := range t.Columns {
			rec = append(rec, strconv.FormatFloat(r.Value(c), 'f', -1, 64))
		}
		out = append(out, rec)
	}
	return out
}
