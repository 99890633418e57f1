package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate parses YYYY-MM-DD, RFC3339 or unix seconds and truncates to the UTC day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return truncateDay(t), nil
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return truncateDay(time.Unix(ts, 0)), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseDateDefault parses s or returns def when s is empty.
func ParseDateDefault(s string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return ParseDate(s)
}

// Today returns the current UTC date at midnight.
func Today() time.Time {
	return truncateDay(time.Now())
}

// NormalizePair uppercases a pair and drops separators: "eur/usd" -> "EURUSD".
func NormalizePair(s string) string {
	r := strings.NewReplacer("/", "", "-", "", "_", "", " ", "")
	return strings.ToUpper(r.Replace(s))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
