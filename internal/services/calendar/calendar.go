package calendar

import (
	"fmt"
	"time"

	"FXRisk/internal/domain/models"
)

// Calendar is a business-day calendar: weekends plus a fixed holiday set.
type Calendar struct {
	holidays map[time.Time]struct{}
}

// New creates a calendar from holiday dates.
func New(holidays ...time.Time) *Calendar {
	c := &Calendar{holidays: make(map[time.Time]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[models.DateOnly(h)] = struct{}{}
	}
	return c
}

// FromStrings builds a calendar from YYYY-MM-DD holiday strings.
func FromStrings(holidays []string) (*Calendar, error) {
	ds := make([]time.Time, 0, len(holidays))
	for _, s := range holidays {
		d, err := time.Parse(models.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", s, err)
		}
		ds = append(ds, d)
	}
	return New(ds...), nil
}

// IsBusinessDay reports whether d is neither a weekend nor a holiday.
func (c *Calendar) IsBusinessDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, hol := c.holidays[models.DateOnly(d)]
	return !hol
}

// RollForward returns d if it is a business day, else the next one.
func (c *Calendar) RollForward(d time.Time) time.Time {
	d = models.DateOnly(d)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// RollBackward returns d if it is a business day, else the previous one.
func (c *Calendar) RollBackward(d time.Time) time.Time {
	d = models.DateOnly(d)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// AddTenor offsets d by the tenor and rolls forward to a business day.
func (c *Calendar) AddTenor(d time.Time, t models.Tenor) time.Time {
	return c.RollForward(t.Offset(models.DateOnly(d)))
}

// BusinessDays lists the business days in [start, end].
func (c *Calendar) BusinessDays(start, end time.Time) []time.Time {
	start, end = models.DateOnly(start), models.DateOnly(end)
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsBusinessDay(d) {
			out = append(out, d)
		}
	}
	return out
}

// Dates generates the frequency dates in [start, end]. Weekly and month-end
// anchors falling on a holiday roll back to the preceding business day.
func (c *Calendar) Dates(start, end time.Time, f models.Frequency) ([]time.Time, error) {
	start, end = models.DateOnly(start), models.DateOnly(end)
	if f == models.FreqBusinessDaily {
		return c.BusinessDays(start, end), nil
	}

	var anchors []time.Time
	if wd, ok := f.WeeklyAnchor(); ok {
		d := start.AddDate(0, 0, (int(wd)-int(start.Weekday())+7)%7)
		for ; !d.After(end); d = d.AddDate(0, 0, 7) {
			anchors = append(anchors, d)
		}
	} else if f == models.FreqBusinessMonthEnd {
		y, m, _ := start.Date()
		for d := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC); !d.After(end); {
			anchors = append(anchors, d)
			y, m, _ = d.Date()
			d = time.Date(y, m+2, 0, 0, 0, 0, 0, time.UTC)
		}
	} else {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidFrequency, f)
	}

	out := make([]time.Time, 0, len(anchors))
	for _, a := range anchors {
		a = c.RollBackward(a)
		if a.Before(start) || (len(out) > 0 && !a.After(out[len(out)-1])) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
