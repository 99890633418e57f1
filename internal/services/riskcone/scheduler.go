package riskcone

import (
	"fmt"
	"sort"
	"time"

	"FXRisk/internal/domain/models"
	"FXRisk/internal/services/calendar"
)

// DefaultPrecision is the number of decimals kept in assembled cells.
const DefaultPrecision = 4

// Config is the per-call input of a risk-cone computation.
// EndDate wins over End when both are set. A zero Precision means DefaultPrecision.
type Config struct {
	Pair        string
	PricingDate time.Time
	End         string
	EndDate     time.Time
	Frequency   string
	Tenors      []string
	Percentiles []float64
	Precision   int
	Concurrency int
}

// Scheduler is a validated risk-cone configuration bound to a calendar.
type Scheduler struct {
	cal         *calendar.Calendar
	pair        string
	pricingDate time.Time
	endDate     time.Time
	endLabel    string
	frequency   models.Frequency
	tenors      []models.Tenor
	percentiles []float64
	precision   int
	concurrency int
}

// NewScheduler validates cfg and resolves the end date.
func NewScheduler(cal *calendar.Calendar, cfg Config) (*Scheduler, error) {
	if cal == nil {
		cal = calendar.New()
	}
	freq, err := models.ParseFrequency(cfg.Frequency)
	if err != nil {
		return nil, err
	}
	tenors, err := models.ParseTenors(cfg.Tenors)
	if err != nil {
		return nil, err
	}
	percentiles, err := normalizePercentiles(cfg.Percentiles)
	if err != nil {
		return nil, err
	}
	if cfg.Precision < 0 {
		return nil, fmt.Errorf("%w: precision must be >= 0, got %d", models.ErrInvalidRequest, cfg.Precision)
	}

	s := &Scheduler{
		cal:         cal,
		pair:        cfg.Pair,
		pricingDate: models.DateOnly(cfg.PricingDate),
		frequency:   freq,
		tenors:      tenors,
		percentiles: percentiles,
		precision:   cfg.Precision,
		concurrency: cfg.Concurrency,
	}
	if s.concurrency <= 0 {
		s.concurrency = 1
	}
	if s.precision == 0 {
		s.precision = DefaultPrecision
	}

	if !cfg.EndDate.IsZero() {
		s.endDate = cal.RollForward(cfg.EndDate)
		s.endLabel = s.endDate.Format(models.DateLayout)
		if !s.endDate.After(s.pricingDate) {
			return nil, fmt.Errorf("%w: %s <= %s", models.ErrInvalidEndDate, s.endLabel, s.pricingDate.Format(models.DateLayout))
		}
		for _, t := range tenors {
			if d := cal.AddTenor(s.pricingDate, t); d.After(s.endDate) {
				return nil, fmt.Errorf("%w: %s resolves to %s after end %s",
					models.ErrTenorExceedsRange, t, d.Format(models.DateLayout), s.endLabel)
			}
		}
		return s, nil
	}

	end, err := models.ParseTenor(cfg.End)
	if err != nil {
		return nil, err
	}
	if max := models.MaxTenor(tenors); max != "" && max.Rank() > end.Rank() {
		return nil, fmt.Errorf("%w: %s > %s", models.ErrTenorExceedsRange, max, end)
	}
	s.endDate = cal.AddTenor(s.pricingDate, end)
	s.endLabel = string(end)
	return s, nil
}

// normalizePercentiles drops values whose column label repeats an earlier one.
func normalizePercentiles(ps []float64) ([]float64, error) {
	seen := make(map[string]struct{}, len(ps))
	out := make([]float64, 0, len(ps))
	for _, p := range ps {
		if !(p > 0 && p < 1) {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidPercentile, p)
		}
		label := models.PercentileLabel(p)
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// PricingDate returns the normalized pricing date.
func (s *Scheduler) PricingDate() time.Time { return s.pricingDate }

// EndDate returns the resolved end of the cone.
func (s *Scheduler) EndDate() time.Time { return s.endDate }

// Percentiles returns the validated percentiles in request order.
func (s *Scheduler) Percentiles() []float64 { return append([]float64(nil), s.percentiles...) }

// BuildDateGrid samples the scheduler's range at its frequency.
func (s *Scheduler) BuildDateGrid() ([]time.Time, error) {
	return BuildDateGrid(s.cal, s.pricingDate, s.endDate, s.frequency)
}

// BuildDateGrid returns the frequency dates in (pricingDate, endDate], with
// endDate appended when it is not itself a frequency date.
func BuildDateGrid(cal *calendar.Calendar, pricingDate, endDate time.Time, freq models.Frequency) ([]time.Time, error) {
	pricingDate, endDate = models.DateOnly(pricingDate), models.DateOnly(endDate)
	if !endDate.After(pricingDate) {
		return nil, fmt.Errorf("%w: %s <= %s", models.ErrInvalidEndDate,
			endDate.Format(models.DateLayout), pricingDate.Format(models.DateLayout))
	}
	dates, err := cal.Dates(pricingDate, endDate, freq)
	if err != nil {
		return nil, err
	}

	grid := make([]time.Time, 0, len(dates)+1)
	for _, d := range dates {
		if !d.After(pricingDate) || !d.Before(endDate) {
			continue
		}
		grid = append(grid, d)
	}
	return append(grid, endDate), nil
}

// BuildTenorSchedule resolves each highlight tenor to a business date and
// appends the end marker.
func (s *Scheduler) BuildTenorSchedule() []models.TenorMarker {
	return BuildTenorSchedule(s.cal, s.pricingDate, s.tenors, models.TenorMarker{Label: s.endLabel, Date: s.endDate})
}

// BuildTenorSchedule returns markers sorted by date, deduplicated by label.
func BuildTenorSchedule(cal *calendar.Calendar, pricingDate time.Time, tenors []models.Tenor, end models.TenorMarker) []models.TenorMarker {
	seen := map[string]struct{}{end.Label: {}}
	out := make([]models.TenorMarker, 0, len(tenors)+1)
	for _, t := range tenors {
		if _, dup := seen[string(t)]; dup {
			continue
		}
		seen[string(t)] = struct{}{}
		out = append(out, models.TenorMarker{Label: string(t), Date: cal.AddTenor(pricingDate, t)})
	}
	out = append(out, end)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
