package riskcone

import (
	"context"
	"testing"
	"time"

	"FXRisk/internal/domain/models"
	"FXRisk/internal/services/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func baseConfig() Config {
	return Config{
		Pair:        "EURUSD",
		PricingDate: day(2024, 1, 2),
		End:         "6m",
		Frequency:   "W-FRI",
		Tenors:      []string{"3m", "6m"},
		Percentiles: []float64{0.95, 0.05},
		Precision:   4,
	}
}

func TestNewSchedulerResolvesEnd(t *testing.T) {
	s, err := NewScheduler(calendar.New(), baseConfig())
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 2), s.PricingDate())
	assert.Equal(t, day(2024, 7, 2), s.EndDate())
}

func TestWeeklyGridEndsOnEndDate(t *testing.T) {
	s, err := NewScheduler(calendar.New(), baseConfig())
	require.NoError(t, err)

	grid, err := s.BuildDateGrid()
	require.NoError(t, err)
	require.Len(t, grid, 27)
	assert.Equal(t, day(2024, 1, 5), grid[0])
	assert.Equal(t, day(2024, 6, 28), grid[25])
	assert.Equal(t, day(2024, 7, 2), grid[26])
	for i := 1; i < len(grid); i++ {
		assert.True(t, grid[i].After(grid[i-1]))
	}
}

func TestGridExcludesPricingDate(t *testing.T) {
	// pricing on a Friday: the first anchor is the following Friday
	grid, err := BuildDateGrid(calendar.New(), day(2024, 1, 5), day(2024, 1, 19), models.FreqWeeklyFriday)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2024, 1, 12), day(2024, 1, 19)}, grid)
}

func TestGridRejectsInvertedRange(t *testing.T) {
	_, err := BuildDateGrid(calendar.New(), day(2024, 1, 5), day(2024, 1, 5), models.FreqBusinessDaily)
	assert.ErrorIs(t, err, models.ErrInvalidEndDate)
}

func TestTenorLongerThanEnd(t *testing.T) {
	cfg := baseConfig()
	cfg.End = "3m"
	_, err := NewScheduler(calendar.New(), cfg)
	assert.ErrorIs(t, err, models.ErrTenorExceedsRange)
}

func TestExplicitEndDate(t *testing.T) {
	cfg := baseConfig()
	cfg.EndDate = day(2024, 5, 1)
	_, err := NewScheduler(calendar.New(), cfg)
	assert.ErrorIs(t, err, models.ErrTenorExceedsRange, "6m tenor lands after 2024-05-01")

	cfg.Tenors = []string{"3m"}
	s, err := NewScheduler(calendar.New(), cfg)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 5, 1), s.EndDate())

	markers := s.BuildTenorSchedule()
	require.Len(t, markers, 2)
	assert.Equal(t, "3m", markers[0].Label)
	assert.Equal(t, "2024-05-01", markers[1].Label)

	cfg.EndDate = day(2023, 12, 29)
	_, err = NewScheduler(calendar.New(), cfg)
	assert.ErrorIs(t, err, models.ErrInvalidEndDate)
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"tenor", func(c *Config) { c.Tenors = []string{"4m"} }, models.ErrInvalidTenor},
		{"end", func(c *Config) { c.End = "18m" }, models.ErrInvalidTenor},
		{"frequency", func(c *Config) { c.Frequency = "W-SAT" }, models.ErrInvalidFrequency},
		{"percentile", func(c *Config) { c.Percentiles = []float64{0.5, 1} }, models.ErrInvalidPercentile},
		{"precision", func(c *Config) { c.Precision = -1 }, models.ErrInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			_, err := NewScheduler(calendar.New(), cfg)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTenorScheduleSortedAndDeduplicated(t *testing.T) {
	cfg := baseConfig()
	cfg.End = "1y"
	cfg.Tenors = []string{"6m", "3m", "6m", "1y"}
	s, err := NewScheduler(calendar.New(), cfg)
	require.NoError(t, err)

	markers := s.BuildTenorSchedule()
	labels := make([]string, len(markers))
	for i, m := range markers {
		labels[i] = m.Label
	}
	assert.Equal(t, []string{"3m", "6m", "1y"}, labels)
	assert.Equal(t, day(2025, 1, 2), markers[2].Date)
}

func TestDuplicatePercentilesCollapse(t *testing.T) {
	cfg := baseConfig()
	cfg.Percentiles = []float64{0.95, 0.05, 0.95}
	s, err := NewScheduler(calendar.New(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.95, 0.05}, s.Percentiles())
}

func TestExplicitEndDateRollsToBusinessDay(t *testing.T) {
	cfg := baseConfig()
	cfg.Tenors = []string{"3m"}
	cfg.EndDate = day(2024, 5, 4) // saturday
	s, err := NewScheduler(calendar.New(), cfg)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 5, 6), s.EndDate())

	grid, err := s.BuildDateGrid()
	require.NoError(t, err)
	last := grid[len(grid)-1]
	assert.Equal(t, day(2024, 5, 6), last)
	for _, d := range grid {
		assert.NotEqual(t, time.Saturday, d.Weekday())
		assert.NotEqual(t, time.Sunday, d.Weekday())
	}
}

func TestPercentilesCollapseByLabel(t *testing.T) {
	cfg := baseConfig()
	cfg.Percentiles = []float64{0.95, 0.9500000001, 0.05}
	s, err := NewScheduler(calendar.New(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.95, 0.05}, s.Percentiles())

	table, err := s.Assemble(context.Background(), []time.Time{day(2024, 1, 5)}, fixedPricer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"95th", "5th", models.ColumnForward, models.ColumnSpot}, table.Columns)
}
