package models

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the sampling rule of a risk-cone date grid.
type Frequency string

const (
	FreqBusinessDaily    Frequency = "B"
	FreqWeeklyMonday     Frequency = "W-MON"
	FreqWeeklyTuesday    Frequency = "W-TUE"
	FreqWeeklyWednesday  Frequency = "W-WED"
	FreqWeeklyThursday   Frequency = "W-THU"
	FreqWeeklyFriday     Frequency = "W-FRI"
	FreqBusinessMonthEnd Frequency = "BM"
)

var weeklyAnchors = map[Frequency]time.Weekday{
	FreqWeeklyMonday:    time.Monday,
	FreqWeeklyTuesday:   time.Tuesday,
	FreqWeeklyWednesday: time.Wednesday,
	FreqWeeklyThursday:  time.Thursday,
	FreqWeeklyFriday:    time.Friday,
}

// ParseFrequency validates a frequency label.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if f == FreqBusinessDaily || f == FreqBusinessMonthEnd {
		return f, nil
	}
	if _, ok := weeklyAnchors[f]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
}

// WeeklyAnchor reports the weekday of a weekly frequency.
func (f Frequency) WeeklyAnchor() (time.Weekday, bool) {
	wd, ok := weeklyAnchors[f]
	return wd, ok
}

// WindowSize maps a window label to a number of trading observations.
type WindowSize string

var windowTable = []struct {
	label WindowSize
	obs   int
}{
	{"1w", 5},
	{"2w", 10},
	{"1m", 21},
	{"3m", 63},
	{"6m", 126},
	{"1y", 252},
}

// ParseWindowSize resolves a window label to its observation count.
func ParseWindowSize(s string) (int, error) {
	l := WindowSize(strings.ToLower(strings.TrimSpace(s)))
	for _, e := range windowTable {
		if e.label == l {
			return e.obs, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedWindowSize, s)
}

// Period is a lookback length for historical series.
type Period string

var periodTable = []struct {
	label  Period
	months int
}{
	{"6m", 6},
	{"1y", 12},
	{"2y", 24},
	{"3y", 36},
	{"5y", 60},
	{"10y", 120},
}

// ParsePeriod validates a lookback label.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, e := range periodTable {
		if e.label == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Start returns the first calendar date of the lookback ending at end.
func (p Period) Start(end time.Time) time.Time {
	for _, e := range periodTable {
		if e.label == p {
			return AddMonths(end, -e.months)
		}
	}
	return end
}

// Direction selects whether the largest or smallest returns are searched.
type Direction string

const (
	Largest  Direction = "largest"
	Smallest Direction = "smallest"
)

// HighlightPolicy decides which table rows of an accepted move are flagged.
type HighlightPolicy string

const (
	HighlightWindow HighlightPolicy = "window"
	HighlightEnd    HighlightPolicy = "end"
)

// WarmupPolicy decides how indices lacking a full window are treated during selection.
type WarmupPolicy string

const (
	WarmupExclude WarmupPolicy = "exclude"
	WarmupZero    WarmupPolicy = "zero"
)
