package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"FXRisk/internal/domain/models"
	domrepo "FXRisk/internal/domain/repository"
	domsvc "FXRisk/internal/domain/service"
	"FXRisk/internal/services/calendar"
	"FXRisk/internal/services/riskcone"
	"FXRisk/pkg/cache"
	"FXRisk/pkg/config"
	applogger "FXRisk/pkg/logger"
)

// RiskConeUseCase resolves request defaults, prices the cone and caches the table.
type RiskConeUseCase struct {
	pricing     domsvc.PricingProvider
	cal         *calendar.Calendar
	defaults    riskConeDefaults
	concurrency int
	cache       cache.Service
	cacheTTL    time.Duration
	metrics     domrepo.Metrics
	l           *applogger.Logger
	now         func() time.Time
}

type riskConeDefaults struct {
	end         string
	frequency   string
	tenors      []string
	percentiles []float64
	precision   int
}

// NewRiskConeUseCase wires the cone computation. c may be nil to disable result caching.
func NewRiskConeUseCase(cfg *config.Config, pricing domsvc.PricingProvider, cal *calendar.Calendar, c cache.Service, m domrepo.Metrics) *RiskConeUseCase {
	return &RiskConeUseCase{
		pricing: pricing,
		cal:     cal,
		defaults: riskConeDefaults{
			end:         cfg.RiskCone.End,
			frequency:   cfg.RiskCone.Frequency,
			tenors:      cfg.RiskCone.Tenors,
			percentiles: cfg.RiskCone.Percentiles,
			precision:   cfg.RiskCone.Precision,
		},
		concurrency: cfg.Pricing.Concurrency,
		cache:       c,
		cacheTTL:    cfg.MarketData.CacheTTL,
		metrics:     m,
		now:         time.Now,
	}
}

func (u *RiskConeUseCase) SetLogger(l *applogger.Logger) { u.l = l }

// DefaultRequest returns a request for pair carrying the configured defaults.
func (u *RiskConeUseCase) DefaultRequest(pair string) models.RiskConeRequest {
	return models.RiskConeRequest{
		Pair:        pair,
		End:         u.defaults.end,
		Frequency:   u.defaults.frequency,
		Tenors:      u.defaults.tenors,
		Percentiles: u.defaults.percentiles,
		Precision:   u.defaults.precision,
		Format:      "json",
	}
}

func (u *RiskConeUseCase) Compute(ctx context.Context, req models.RiskConeRequest) (table *models.RiskConeTable, err error) {
	start := time.Now()
	defer func() { observe(u.metrics, kindRiskCone, start, err) }()

	cfg, err := u.schedulerConfig(req)
	if err != nil {
		return nil, err
	}
	sched, err := riskcone.NewScheduler(u.cal, cfg)
	if err != nil {
		return nil, err
	}

	key := riskConeCacheKey(cfg, sched)
	if u.cache != nil {
		var hit models.RiskConeTable
		if gerr := u.cache.Get(ctx, key, &hit); gerr == nil {
			return &hit, nil
		} else if !errors.Is(gerr, cache.ErrCacheMiss) && u.l != nil {
			u.l.Warn("risk cone cache get failed", applogger.String("key", key), applogger.Error(gerr))
		}
	}

	table, err = sched.Run(ctx, u.pricing)
	if err != nil {
		if u.l != nil {
			u.l.Error("risk cone failed",
				applogger.String("pair", cfg.Pair),
				applogger.Date("pricing_date", cfg.PricingDate),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("risk cone %s: %w", cfg.Pair, err)
	}

	if u.metrics != nil && len(table.Rows) > 0 {
		u.metrics.RecordLastSpot(table.Pair, table.Rows[0].Spot)
	}
	if u.cache != nil {
		if serr := u.cache.Set(ctx, key, table, u.cacheTTL); serr != nil && u.l != nil {
			u.l.Warn("risk cone cache set failed", applogger.String("key", key), applogger.Error(serr))
		}
	}
	if u.l != nil {
		u.l.Info("risk cone computed",
			applogger.String("pair", table.Pair),
			applogger.Date("pricing_date", table.PricingDate),
			applogger.Date("end_date", sched.EndDate()),
			applogger.Int("rows", len(table.Rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return table, nil
}

func (u *RiskConeUseCase) schedulerConfig(req models.RiskConeRequest) (riskcone.Config, error) {
	pair, err := normalizePair(req.Pair)
	if err != nil {
		return riskcone.Config{}, err
	}
	pricingDate, err := asOfDate(u.cal, req.PricingDate, u.now())
	if err != nil {
		return riskcone.Config{}, err
	}

	cfg := riskcone.Config{
		Pair:        pair,
		PricingDate: pricingDate,
		End:         orDefault(req.End, u.defaults.end),
		Frequency:   orDefault(req.Frequency, u.defaults.frequency),
		Tenors:      req.Tenors,
		Percentiles: req.Percentiles,
		Precision:   req.Precision,
		Concurrency: u.concurrency,
	}
	if strings.TrimSpace(req.EndDate) != "" {
		end, err := asOfDate(u.cal, req.EndDate, u.now())
		if err != nil {
			return riskcone.Config{}, err
		}
		cfg.EndDate = end
	}
	if len(cfg.Tenors) == 0 {
		cfg.Tenors = u.defaults.tenors
	}
	if len(cfg.Percentiles) == 0 {
		cfg.Percentiles = u.defaults.percentiles
	}
	return cfg, nil
}

func riskConeCacheKey(cfg riskcone.Config, sched *riskcone.Scheduler) string {
	ps := make([]string, 0, len(cfg.Percentiles))
	for _, p := range sched.Percentiles() {
		ps = append(ps, strconv.FormatFloat(p, 'f', -1, 64))
	}
	return cache.GenerateKeyWithParams("riskcone",
		cfg.Pair,
		sched.PricingDate().Format(models.DateLayout),
		sched.EndDate().Format(models.DateLayout),
		strings.ToUpper(cfg.Frequency),
		strings.ToLower(strings.Join(cfg.Tenors, ",")),
		strings.Join(ps, ","),
		cfg.Precision,
	)
}
