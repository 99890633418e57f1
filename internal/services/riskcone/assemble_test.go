package riskcone

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"FXRisk/internal/domain/models"
	"FXRisk/internal/services/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPricer quotes spot 1.1, forwards drifting by 0.0001 per day, and
// strikes offset from the forward by (p-0.5)/10.
type stubPricer struct {
	failOn time.Time
	calls  atomic.Int64
}

func (p *stubPricer) GetSpot(context.Context, time.Time, string) (float64, error) {
	return 1.100049, nil
}

func (p *stubPricer) forward(pricingDate, expiry time.Time) float64 {
	days := expiry.Sub(pricingDate).Hours() / 24
	return 1.1 + 0.0001*days
}

func (p *stubPricer) GetForward(_ context.Context, pricingDate time.Time, spec models.InstrumentSpec) (float64, error) {
	p.calls.Add(1)
	if !p.failOn.IsZero() && spec.Expiry.Equal(p.failOn) {
		return 0, errors.New("pricing service unavailable")
	}
	return p.forward(pricingDate, spec.Expiry), nil
}

func (p *stubPricer) GetPercentileStrike(_ context.Context, pricingDate, expiry time.Time, percentile float64, _ models.InstrumentSpec) (float64, error) {
	return p.forward(pricingDate, expiry) + (percentile-0.5)/10, nil
}

func TestRunAssemblesCone(t *testing.T) {
	cfg := baseConfig()
	cfg.Concurrency = 4
	s, err := NewScheduler(calendar.New(), cfg)
	require.NoError(t, err)

	table, err := s.Run(context.Background(), &stubPricer{})
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", table.Pair)
	assert.Equal(t, []string{"95th", "5th", models.ColumnForward, models.ColumnSpot}, table.Columns)
	require.Len(t, table.Rows, 28)

	first := table.Rows[0]
	assert.Equal(t, day(2024, 1, 2), first.Date)
	assert.Equal(t, 1.1, first.Spot)
	assert.Equal(t, 1.1, first.Forward)
	assert.Equal(t, 1.1, first.Percentiles["95th"])
	assert.Equal(t, 1.1, first.Percentiles["5th"])

	// 2024-01-05 is three days out
	second := table.Rows[1]
	assert.Equal(t, day(2024, 1, 5), second.Date)
	assert.Equal(t, 1.1003, second.Forward)
	assert.Equal(t, 1.1453, second.Percentiles["95th"])
	assert.Equal(t, 1.0553, second.Percentiles["5th"])
	assert.Equal(t, 1.1, second.Spot)

	last := table.Rows[len(table.Rows)-1]
	assert.Equal(t, day(2024, 7, 2), last.Date)
	for i := 1; i < len(table.Rows); i++ {
		assert.True(t, table.Rows[i].Date.After(table.Rows[i-1].Date))
		assert.Greater(t, table.Rows[i].Percentiles["95th"], table.Rows[i].Percentiles["5th"])
	}

	require.Len(t, table.Tenors, 2)
	assert.Equal(t, "3m", table.Tenors[0].Label)
	assert.Equal(t, day(2024, 4, 2), table.Tenors[0].Date)
	assert.Equal(t, "6m", table.Tenors[1].Label)
	assert.Equal(t, day(2024, 7, 2), table.Tenors[1].Date)
}

func TestAssembleFailsWhole(t *testing.T) {
	s, err := NewScheduler(calendar.New(), baseConfig())
	require.NoError(t, err)

	table, err := s.Run(context.Background(), &stubPricer{failOn: day(2024, 3, 1)})
	require.Error(t, err)
	assert.Nil(t, table)
	assert.Contains(t, err.Error(), "2024-03-01")
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 1.1235, round(1.12345, 4))
	assert.Equal(t, -1.1235, round(-1.12345, 4))
	assert.Equal(t, 2.0, round(1.5, 0))
	assert.Equal(t, 1.1, round(1.1, 8))
}

type fixedPricer struct{}

func (fixedPricer) GetSpot(context.Context, time.Time, string) (float64, error) { return 1.05, nil }

func (fixedPricer) GetForward(context.Context, time.Time, models.InstrumentSpec) (float64, error) {
	return 1.05, nil
}

func (fixedPricer) GetPercentileStrike(_ context.Context, _, _ time.Time, percentile float64, _ models.InstrumentSpec) (float64, error) {
	if percentile > 0.5 {
		return 1.10, nil
	}
	return 1.00, nil
}

func TestAssembleFixedQuotes(t *testing.T) {
	s, err := NewScheduler(calendar.New(), baseConfig())
	require.NoError(t, err)

	table, err := s.Assemble(context.Background(), []time.Time{day(2024, 1, 5)}, fixedPricer{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	synthetic := table.Rows[0]
	assert.Equal(t, day(2024, 1, 2), synthetic.Date)
	for _, c := range table.Columns {
		assert.Equal(t, 1.05, synthetic.Value(c), c)
	}

	row := table.Rows[1]
	assert.Equal(t, 1.1, row.Value("95th"))
	assert.Equal(t, 1.0, row.Value("5th"))
	assert.Equal(t, 1.05, row.Value(models.ColumnForward))
	assert.Equal(t, 1.05, row.Value(models.ColumnSpot))
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := baseConfig()
	cfg.Concurrency = 8
	s, err := NewScheduler(calendar.New(), cfg)
	require.NoError(t, err)

	a, err := s.Run(context.Background(), &stubPricer{})
	require.NoError(t, err)
	b, err := s.Run(context.Background(), &stubPricer{})
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
	assert.Equal(t, ja, jb)
}

func TestAssembleDefaultsPrecision(t *testing.T) {
	cfg := baseConfig()
	cfg.Precision = 0
	s, err := NewScheduler(calendar.New(), cfg)
	require.NoError(t, err)

	table, err := s.Assemble(context.Background(), []time.Time{day(2024, 1, 5)}, fixedPricer{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPrecision, table.Precision)

	row := table.Rows[1]
	assert.Equal(t, 1.1, row.Value("95th"))
	assert.Equal(t, 1.0, row.Value("5th"))
	assert.Equal(t, 1.05, row.Value(models.ColumnForward))
	assert.Equal(t, 1.05, row.Value(models.ColumnSpot))
}
