package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FXRisk/internal/domain/models"
	domrepo "FXRisk/internal/domain/repository"
	"FXRisk/internal/services/bigmoves"
	"FXRisk/internal/services/calendar"
	"FXRisk/pkg/config"
	applogger "FXRisk/pkg/logger"
)

type bigMovesDefaults struct {
	period    string
	window    string
	numMoves  int
	direction string
	highlight string
	warmup    string
}

// BigMovesUseCase loads a filled business-day history and runs the detector.
type BigMovesUseCase struct {
	market   domrepo.MarketDataProvider
	cal      *calendar.Calendar
	defaults bigMovesDefaults
	metrics  domrepo.Metrics
	l        *applogger.Logger
	now      func() time.Time
}

func NewBigMovesUseCase(cfg *config.Config, market domrepo.MarketDataProvider, cal *calendar.Calendar, m domrepo.Metrics) *BigMovesUseCase {
	return &BigMovesUseCase{
		market: market,
		cal:    cal,
		defaults: bigMovesDefaults{
			period:    cfg.BigMoves.Period,
			window:    cfg.BigMoves.Window,
			numMoves:  cfg.BigMoves.NumMoves,
			direction: cfg.BigMoves.Direction,
			highlight: cfg.BigMoves.Highlight,
			warmup:    cfg.BigMoves.Warmup,
		},
		metrics: m,
		now:     time.Now,
	}
}

func (u *BigMovesUseCase) SetLogger(l *applogger.Logger) { u.l = l }

// DefaultRequest returns a request for pair carrying the configured defaults.
func (u *BigMovesUseCase) DefaultRequest(pair string) models.BigMovesRequest {
	return models.BigMovesRequest{
		Pair:      pair,
		Period:    u.defaults.period,
		Window:    u.defaults.window,
		NumMoves:  u.defaults.numMoves,
		Direction: u.defaults.direction,
		Highlight: u.defaults.highlight,
		Warmup:    u.defaults.warmup,
		Format:    "json",
	}
}

func (u *BigMovesUseCase) Compute(ctx context.Context, req models.BigMovesRequest) (table *models.BigMovesTable, err error) {
	start := time.Now()
	defer func() { observe(u.metrics, kindBigMoves, start, err) }()

	window, err := models.ParseWindowSize(orDefault(req.Window, u.defaults.window))
	if err != nil {
		return nil, err
	}
	numMoves := req.NumMoves
	if numMoves == 0 {
		numMoves = u.defaults.numMoves
	}
	cfg := bigmoves.Config{
		WindowSize: window,
		NumMoves:   numMoves,
		Direction:  models.Direction(strings.ToLower(orDefault(req.Direction, u.defaults.direction))),
		Warmup:     models.WarmupPolicy(strings.ToLower(orDefault(req.Warmup, u.defaults.warmup))),
		Highlight:  models.HighlightPolicy(strings.ToLower(orDefault(req.Highlight, u.defaults.highlight))),
	}

	series, err := loadFilled(ctx, u.market, u.cal, req.Pair, req.Period, u.defaults.period, req.EndDate, u.now())
	if err != nil {
		return nil, err
	}

	table, err = bigmoves.Detect(series, cfg)
	if err != nil {
		return nil, fmt.Errorf("big moves %s: %w", series.Pair, err)
	}
	if u.l != nil {
		u.l.Info("big moves computed",
			applogger.String("pair", table.Pair),
			applogger.Int("window", table.WindowSize),
			applogger.Int("observations", len(table.Rows)),
			applogger.Int("moves", len(table.Moves)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return table, nil
}

// loadFilled fetches [period start, end] and fills it onto the business-day axis.
func loadFilled(ctx context.Context, market domrepo.MarketDataProvider, cal *calendar.Calendar,
	rawPair, rawPeriod, defPeriod, rawEnd string, now time.Time) (models.PriceSeries, error) {
	pair, err := normalizePair(rawPair)
	if err != nil {
		return models.PriceSeries{}, err
	}
	period, err := models.ParsePeriod(orDefault(rawPeriod, defPeriod))
	if err != nil {
		return models.PriceSeries{}, err
	}
	end, err := asOfDate(cal, rawEnd, now)
	if err != nil {
		return models.PriceSeries{}, err
	}
	begin := period.Start(end)

	series, err := market.GetSeries(ctx, pair, begin, end)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("load %s: %w", pair, err)
	}
	series.Pair = pair
	filled, err := series.Fill(cal.BusinessDays(begin, end))
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("fill %s: %w", pair, err)
	}
	return filled, nil
}
