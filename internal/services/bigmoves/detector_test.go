package bigmoves

import (
	"math"
	"testing"
	"time"

	"FXRisk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesOf(prices ...float64) models.PriceSeries {
	s := models.PriceSeries{Pair: "EURUSD"}
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, p := range prices {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		s.Points = append(s.Points, models.PricePoint{Date: d, Price: p})
		d = d.AddDate(0, 0, 1)
	}
	return s
}

// spike rises 21% over indices 2..4 and falls ~25.6% over 6..8.
func spike() models.PriceSeries {
	return seriesOf(100, 100, 100, 110, 121, 121, 121, 100, 90, 90, 90, 90)
}

func TestRollingReturn(t *testing.T) {
	r := RollingReturn(spike().Prices(), 3)
	require.Len(t, r, 12)
	assert.Equal(t, 0.0, r[0])
	assert.Equal(t, 0.0, r[1])
	assert.InDelta(t, 10.0, r[3], 1e-9)
	assert.InDelta(t, 21.0, r[4], 1e-9)
	assert.InDelta(t, (90.0/121.0-1)*100, r[8], 1e-9)

	assert.Equal(t, []float64{0, 0}, RollingReturn([]float64{1, 2}, 5))
}

func TestDetectLargestDisjoint(t *testing.T) {
	s := spike()
	table, err := Detect(s, Config{WindowSize: 3, NumMoves: 2, Direction: models.Largest})
	require.NoError(t, err)

	require.Len(t, table.Moves, 2)
	top := table.Moves[0]
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, s.Points[2].Date, top.Start)
	assert.Equal(t, s.Points[4].Date, top.End)
	assert.Equal(t, 100.0, top.StartPrice)
	assert.Equal(t, 121.0, top.EndPrice)
	assert.InDelta(t, 21.0, top.Return, 1e-9)

	// overlapping 10% windows are skipped; the next free window is flat
	second := table.Moves[1]
	assert.Equal(t, s.Points[8].Date, second.Start)
	assert.Equal(t, s.Points[10].Date, second.End)
	assert.Equal(t, 0.0, second.Return)

	for i, m := range table.Moves {
		for _, o := range table.Moves[i+1:] {
			assert.True(t, m.End.Before(o.Start) || o.End.Before(m.Start), "moves overlap")
		}
	}
}

func TestDetectSmallest(t *testing.T) {
	s := spike()
	table, err := Detect(s, Config{WindowSize: 3, NumMoves: 1, Direction: models.Smallest})
	require.NoError(t, err)
	require.Len(t, table.Moves, 1)
	assert.Equal(t, s.Points[6].Date, table.Moves[0].Start)
	assert.Equal(t, s.Points[8].Date, table.Moves[0].End)
	assert.Less(t, table.Moves[0].Return, -25.0)
}

func TestHighlightPolicies(t *testing.T) {
	s := spike()
	flagged := func(tbl *models.BigMovesTable) []int {
		var out []int
		for i, r := range tbl.Rows {
			if r.IsMoveStart {
				out = append(out, i)
			}
		}
		return out
	}

	win, err := Detect(s, Config{WindowSize: 3, NumMoves: 1, Highlight: models.HighlightWindow})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, flagged(win))
	assert.Equal(t, models.HighlightWindow, win.Highlight)

	end, err := Detect(s, Config{WindowSize: 3, NumMoves: 1, Highlight: models.HighlightEnd})
	require.NoError(t, err)
	assert.Equal(t, []int{4}, flagged(end))
}

func TestWarmupPolicies(t *testing.T) {
	s := spike()

	excl, err := Detect(s, Config{WindowSize: 3, NumMoves: 2, Warmup: models.WarmupExclude})
	require.NoError(t, err)
	assert.Equal(t, s.Points[10].Date, excl.Moves[1].End)

	zero, err := Detect(s, Config{WindowSize: 3, NumMoves: 2, Warmup: models.WarmupZero})
	require.NoError(t, err)
	assert.Equal(t, s.Points[0].Date, zero.Moves[1].Start)
	assert.Equal(t, s.Points[0].Date, zero.Moves[1].End)
}

func TestDetectRowsCarrySeries(t *testing.T) {
	s := spike()
	table, err := Detect(s, Config{WindowSize: 3, NumMoves: 1})
	require.NoError(t, err)
	require.Len(t, table.Rows, s.Len())
	for i, r := range table.Rows {
		assert.Equal(t, s.Points[i].Date, r.Date)
		assert.Equal(t, s.Points[i].Price, r.Price)
	}
	assert.Equal(t, models.Largest, table.Direction)
	assert.Equal(t, 3, table.WindowSize)
}

// On a straight line from 100 to 150 the trailing return shrinks as the base
// grows, so the first full window is the largest move.
func TestLinearTrendTopMovesStartEarly(t *testing.T) {
	prices := make([]float64, 300)
	for i := range prices {
		prices[i] = 100 + 50*float64(i)/299
	}
	s := seriesOf(prices...)

	table, err := Detect(s, Config{WindowSize: 21, NumMoves: 3, Direction: models.Largest})
	require.NoError(t, err)
	require.Len(t, table.Moves, 3)
	assert.Equal(t, s.Points[20].Date, table.Moves[0].End)
	assert.Equal(t, s.Points[0].Date, table.Moves[0].Start)
	assert.Equal(t, s.Points[41].Date, table.Moves[1].End)
	assert.Equal(t, s.Points[62].Date, table.Moves[2].End)
	assert.NotEqual(t, s.Points[299].Date, table.Moves[0].End)
	for i := 1; i < len(table.Moves); i++ {
		assert.Greater(t, table.Moves[i-1].Return, table.Moves[i].Return)
		assert.True(t, table.Moves[i].Start.After(table.Moves[i-1].End))
	}
}

// A convex rise accelerates, so the latest window is the largest move.
func TestConvexTrendTopMovesEndLate(t *testing.T) {
	prices := make([]float64, 300)
	for i := range prices {
		x := float64(i) / 299
		prices[i] = 100 + 50*math.Pow(x, 2)
	}
	s := seriesOf(prices...)

	table, err := Detect(s, Config{WindowSize: 21, NumMoves: 3})
	require.NoError(t, err)
	require.Len(t, table.Moves, 3)
	assert.Equal(t, s.Points[299].Date, table.Moves[0].End)
	assert.Equal(t, s.Points[279].Date, table.Moves[0].Start)
	assert.Equal(t, s.Points[278].Date, table.Moves[1].End)
	assert.Equal(t, s.Points[257].Date, table.Moves[2].End)
	assert.Greater(t, table.Moves[0].Return, table.Moves[1].Return)
}

func TestConfigValidation(t *testing.T) {
	s := spike()

	_, err := Detect(s, Config{WindowSize: 0, NumMoves: 1})
	assert.ErrorIs(t, err, models.ErrUnsupportedWindowSize)

	_, err = Detect(s, Config{WindowSize: 3, NumMoves: 0})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)

	_, err = Detect(s, Config{WindowSize: 3, NumMoves: 1, Direction: "sideways"})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)

	_, err = Detect(models.PriceSeries{Pair: "EURUSD"}, Config{WindowSize: 3, NumMoves: 1})
	assert.ErrorIs(t, err, models.ErrEmptySeries)
}

func TestNumMovesClamped(t *testing.T) {
	prices := make([]float64, 200)
	for i := range prices {
		prices[i] = 100 + float64(i%7)
	}
	table, err := Detect(seriesOf(prices...), Config{WindowSize: 3, NumMoves: 50})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(table.Moves), MaxMoves)
	assert.Equal(t, MaxMoves, len(table.Moves))
}
