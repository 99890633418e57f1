package riskcone

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"FXRisk/internal/domain/models"
	domsvc "FXRisk/internal/domain/service"

	"github.com/shopspring/decimal"
)

// Run builds the grid and tenor schedule and assembles the cone.
func (s *Scheduler) Run(ctx context.Context, pricing domsvc.PricingProvider) (*models.RiskConeTable, error) {
	grid, err := s.BuildDateGrid()
	if err != nil {
		return nil, err
	}
	table, err := s.Assemble(ctx, grid, pricing)
	if err != nil {
		return nil, err
	}
	table.Tenors = s.BuildTenorSchedule()
	return table, nil
}

// Assemble prices every grid date and returns the table sorted by date with
// the synthetic pricing-date row first. Any pricing failure fails the whole
// table; rows are never returned partially.
func (s *Scheduler) Assemble(ctx context.Context, grid []time.Time, pricing domsvc.PricingProvider) (*models.RiskConeTable, error) {
	spot, err := pricing.GetSpot(ctx, s.pricingDate, s.pair)
	if err != nil {
		return nil, fmt.Errorf("spot %s: %w", s.pair, err)
	}
	spot = round(spot, s.precision)

	rows, err := s.priceGrid(ctx, grid, pricing, spot)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(s.percentiles))
	synthetic := models.RiskConeRow{
		Date:        s.pricingDate,
		Forward:     spot,
		Spot:        spot,
		Percentiles: make(map[string]float64, len(s.percentiles)),
	}
	for i, p := range s.percentiles {
		labels[i] = models.PercentileLabel(p)
		synthetic.Percentiles[labels[i]] = spot
	}

	out := make([]models.RiskConeRow, 0, len(rows)+1)
	out = append(out, synthetic)
	out = append(out, rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	return &models.RiskConeTable{
		Pair:        s.pair,
		PricingDate: s.pricingDate,
		Precision:   s.precision,
		Columns:     append(labels, models.ColumnForward, models.ColumnSpot),
		Rows:        out,
	}, nil
}

func (s *Scheduler) priceGrid(ctx context.Context, grid []time.Time, pricing domsvc.PricingProvider, spot float64) ([]models.RiskConeRow, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type item struct {
		idx int
		row models.RiskConeRow
		err error
	}
	ch := make(chan item, len(grid))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, d := range grid {
		wg.Add(1)
		go func(i int, d time.Time) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				ch <- item{idx: i, err: ctx.Err()}
				return
			}
			defer func() { <-sem }()
			row, err := s.priceDate(ctx, pricing, models.DateOnly(d), spot)
			ch <- item{idx: i, row: row, err: err}
		}(i, d)
	}
	go func() { wg.Wait(); close(ch) }()

	rows := make([]models.RiskConeRow, len(grid))
	var firstErr error
	for it := range ch {
		if it.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("price %s: %w", grid[it.idx].Format(models.DateLayout), it.err)
				cancel()
			}
			continue
		}
		rows[it.idx] = it.row
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return rows, nil
}

func (s *Scheduler) priceDate(ctx context.Context, pricing domsvc.PricingProvider, d time.Time, spot float64) (models.RiskConeRow, error) {
	spec := models.InstrumentSpec{Pair: s.pair, Expiry: d}
	fwd, err := pricing.GetForward(ctx, s.pricingDate, spec)
	if err != nil {
		return models.RiskConeRow{}, fmt.Errorf("forward: %w", err)
	}
	row := models.RiskConeRow{
		Date:        d,
		Forward:     round(fwd, s.precision),
		Spot:        spot,
		Percentiles: make(map[string]float64, len(s.percentiles)),
	}
	for _, p := range s.percentiles {
		k, err := pricing.GetPercentileStrike(ctx, s.pricingDate, d, p, spec)
		if err != nil {
			return models.RiskConeRow{}, fmt.Errorf("strike %s: %w", models.PercentileLabel(p), err)
		}
		row.Percentiles[models.PercentileLabel(p)] = round(k, s.precision)
	}
	return row, nil
}

// round keeps precision decimals, halves away from zero.
func round(v float64, precision int) float64 {
	f, _ := decimal.NewFromFloat(v).Round(int32(precision)).Float64()
	return f
}
