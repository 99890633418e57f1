package models

import (
	"fmt"
	"strings"
	"time"
)

// Tenor is a named forward offset from a pricing date.
type Tenor string

const (
	Tenor3M Tenor = "3m"
	Tenor6M Tenor = "6m"
	Tenor9M Tenor = "9m"
	Tenor1Y Tenor = "1y"
	Tenor2Y Tenor = "2y"
)

// tenorTable is ordered by duration; the index is the tenor rank.
var tenorTable = []struct {
	tenor  Tenor
	months int
}{
	{Tenor3M, 3},
	{Tenor6M, 6},
	{Tenor9M, 9},
	{Tenor1Y, 12},
	{Tenor2Y, 24},
}

// Tenors returns all supported tenors ordered by duration.
func Tenors() []Tenor {
	out := make([]Tenor, len(tenorTable))
	for i, e := range tenorTable {
		out[i] = e.tenor
	}
	return out
}

// ParseTenor normalizes and validates a tenor label.
func ParseTenor(s string) (Tenor, error) {
	t := Tenor(strings.ToLower(strings.TrimSpace(s)))
	if t.Rank() < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTenor, s)
	}
	return t, nil
}

// ParseTenors parses a list of labels, failing on the first invalid one.
func ParseTenors(labels []string) ([]Tenor, error) {
	out := make([]Tenor, 0, len(labels))
	for _, l := range labels {
		t, err := ParseTenor(l)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Rank returns the duration position of t, or -1 when t is unknown.
func (t Tenor) Rank() int {
	for i, e := range tenorTable {
		if e.tenor == t {
			return i
		}
	}
	return -1
}

// Months returns the calendar length of t in months.
func (t Tenor) Months() int {
	if r := t.Rank(); r >= 0 {
		return tenorTable[r].months
	}
	return 0
}

// Offset shifts d by the tenor's months. Days past the end of the target
// month are clamped to its last day (Jan 31 + 1m = Feb 28/29).
func (t Tenor) Offset(d time.Time) time.Time {
	return AddMonths(d, t.Months())
}

// MaxTenor returns the longest tenor in ts, or "" for an empty list.
func MaxTenor(ts []Tenor) Tenor {
	var max Tenor
	for _, t := range ts {
		if max == "" || t.Rank() > max.Rank() {
			max = t
		}
	}
	return max
}

// AddMonths adds n calendar months to d, clamping the day to the target month's end.
func AddMonths(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, d.Location())
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, d.Location())
}
