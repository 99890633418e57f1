package models

import (
	"strconv"
	"time"
)

// Move is an accepted window of consecutive observations.
type Move struct {
	Rank       int       `json:"rank"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	StartPrice float64   `json:"start_price"`
	EndPrice   float64   `json:"end_price"`
	Return     float64   `json:"return_pct"`
}

// Contains reports whether d falls inside the move window.
func (m Move) Contains(d time.Time) bool {
	return !d.Before(m.Start) && !d.After(m.End)
}

// BigMovesRow is one observation of the detector output.
type BigMovesRow struct {
	Date          time.Time `json:"date"`
	Price         float64   `json:"price"`
	RollingReturn float64   `json:"rolling_return"`
	IsMoveStart   bool      `json:"is_move_start"`
}

// BigMovesTable is the detector output for one series.
type BigMovesTable struct {
	Pair       string          `json:"pair"`
	WindowSize int             `json:"window_size"`
	Direction  Direction       `json:"direction"`
	Highlight  HighlightPolicy `json:"highlight"`
	Rows       []BigMovesRow   `json:"rows"`
	Moves      []Move          `json:"moves"`
}

// Records renders the row table as CSV records with a header row.
func (t *BigMovesTable) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, []string{"Date", "Price", "RollingReturn", "IsMoveStart"})
	for _, r := range t.Rows {
		out = append(out, []string{
			r.Date.Format(DateLayout),
			strconv.FormatFloat(r.Price, 'f', -1, 64),
			strconv.FormatFloat(r.RollingReturn, 'f', -1, 64),
			strconv.FormatBool(r.IsMoveStart),
		})
	}
	return out
}
