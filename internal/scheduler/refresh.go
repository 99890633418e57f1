// Package scheduler runs the periodic end-of-day refresh: it recomputes risk
// cones and big moves for the configured pairs and publishes the results.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FXRisk/internal/domain/models"
	domrepo "FXRisk/internal/domain/repository"
	"FXRisk/pkg/cache"
	"FXRisk/pkg/config"
	applogger "FXRisk/pkg/logger"

	"github.com/robfig/cron/v3"
)

const lockKey = "scheduler:refresh"

type RiskConeJob interface {
	DefaultRequest(pair string) models.RiskConeRequest
	Compute(ctx context.Context, req models.RiskConeRequest) (*models.RiskConeTable, error)
}

type BigMovesJob interface {
	DefaultRequest(pair string) models.BigMovesRequest
	Compute(ctx context.Context, req models.BigMovesRequest) (*models.BigMovesTable, error)
}

// Archiver copies recent vendor closes into the local store.
type Archiver struct {
	Market domrepo.MarketDataProvider
	Sink   domrepo.SeriesSink
	Days   int
	Source string
}

// Refresher is a cron-driven batch over the configured pairs.
type Refresher struct {
	cron      *cron.Cron
	spec      string
	pairs     []string
	timeout   time.Duration
	riskCone  RiskConeJob
	bigMoves  BigMovesJob
	publisher domrepo.ResultPublisher
	lock      cache.Service
	archiver  *Archiver
	l         *applogger.Logger
	now       func() time.Time
}

func NewRefresher(cfg *config.Config, rc RiskConeJob, bm BigMovesJob, publisher domrepo.ResultPublisher) *Refresher {
	return &Refresher{
		cron:      cron.New(cron.WithParser(config.CronParser), cron.WithLocation(time.UTC)),
		spec:      cfg.Schedule.Cron,
		pairs:     cfg.Schedule.Pairs,
		timeout:   cfg.Schedule.Timeout,
		riskCone:  rc,
		bigMoves:  bm,
		publisher: publisher,
		now:       time.Now,
	}
}

func (r *Refresher) SetLogger(l *applogger.Logger) { r.l = l }

// SetLock makes concurrent replicas skip a run another replica holds.
func (r *Refresher) SetLock(c cache.Service) { r.lock = c }

// SetArchiver enables copying recent closes before each run.
func (r *Refresher) SetArchiver(a *Archiver) { r.archiver = a }

// Start schedules the refresh; runs happen on cron's goroutine.
func (r *Refresher) Start() error {
	if _, err := r.cron.AddFunc(r.spec, func() {
		if err := r.RunOnce(context.Background()); err != nil && r.l != nil {
			r.l.Error("scheduled refresh failed", applogger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", r.spec, err)
	}
	r.cron.Start()
	if r.l != nil {
		r.l.Info("refresh scheduled", applogger.String("cron", r.spec), applogger.Strings("pairs", r.pairs))
	}
	return nil
}

// Stop halts scheduling and waits for a running refresh or ctx.
func (r *Refresher) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for refresh: %w", ctx.Err())
	}
}

// RunOnce refreshes every pair. A failing pair does not stop the others; the
// joined errors are returned.
func (r *Refresher) RunOnce(ctx context.Context) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if r.lock != nil {
		ok, err := r.lock.TryLock(ctx, lockKey, r.lockTTL())
		if err != nil {
			return fmt.Errorf("refresh lock: %w", err)
		}
		if !ok {
			if r.l != nil {
				r.l.Info("refresh skipped, lock held elsewhere")
			}
			return nil
		}
		defer func() { _ = r.lock.Unlock(context.Background(), lockKey) }()
	}

	start := time.Now()
	var errs []error
	for _, pair := range r.pairs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := r.refreshPair(ctx, pair); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pair, err))
		}
	}

	if r.l != nil {
		r.l.Info("refresh finished",
			applogger.Int("pairs", len(r.pairs)),
			applogger.Int("failed", len(errs)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return errors.Join(errs...)
}

func (r *Refresher) refreshPair(ctx context.Context, pair string) error {
	if r.archiver != nil {
		if err := r.archive(ctx, pair); err != nil {
			return err
		}
	}

	cone, err := r.riskCone.Compute(ctx, r.riskCone.DefaultRequest(pair))
	if err != nil {
		return err
	}
	if err := r.publisher.PublishRiskCone(ctx, "", cone); err != nil {
		return err
	}

	moves, err := r.bigMoves.Compute(ctx, r.bigMoves.DefaultRequest(pair))
	if err != nil {
		return err
	}
	return r.publisher.PublishBigMoves(ctx, "", moves)
}

func (r *Refresher) archive(ctx context.Context, pair string) error {
	end := models.DateOnly(r.now())
	days := r.archiver.Days
	if days <= 0 {
		days = 10
	}
	series, err := r.archiver.Market.GetSeries(ctx, pair, end.AddDate(0, 0, -days), end)
	if err != nil {
		return fmt.Errorf("archive fetch: %w", err)
	}
	if err := r.archiver.Sink.SaveSeries(ctx, series, r.archiver.Source); err != nil {
		return fmt.Errorf("archive save: %w", err)
	}
	return nil
}

func (r *Refresher) lockTTL() time.Duration {
	if r.timeout > 0 {
		return r.timeout + time.Minute
	}
	return 10 * time.Minute
}
