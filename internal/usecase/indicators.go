package usecase

import (
	"context"
	"time"

	"FXRisk/internal/domain/models"
	domrepo "FXRisk/internal/domain/repository"
	"FXRisk/internal/services/calendar"
	"FXRisk/internal/services/indicators"
	applogger "FXRisk/pkg/logger"
)

// IndicatorsUseCase reports technical indicators over a filled history.
type IndicatorsUseCase struct {
	market  domrepo.MarketDataProvider
	cal     *calendar.Calendar
	metrics domrepo.Metrics
	l       *applogger.Logger
	now     func() time.Time
}

func NewIndicatorsUseCase(market domrepo.MarketDataProvider, cal *calendar.Calendar, m domrepo.Metrics) *IndicatorsUseCase {
	return &IndicatorsUseCase{market: market, cal: cal, metrics: m, now: time.Now}
}

func (u *IndicatorsUseCase) SetLogger(l *applogger.Logger) { u.l = l }

func (u *IndicatorsUseCase) Snapshot(ctx context.Context, req models.IndicatorsRequest) (snap *models.IndicatorSnapshot, err error) {
	start := time.Now()
	defer func() { observe(u.metrics, kindIndicators, start, err) }()

	series, err := loadFilled(ctx, u.market, u.cal, req.Pair, req.Period, "1y", req.EndDate, u.now())
	if err != nil {
		return nil, err
	}
	snap, err = indicators.Snapshot(series)
	if err != nil {
		return nil, err
	}
	if u.l != nil {
		u.l.Debug("indicators computed", applogger.String("pair", snap.Pair), applogger.Strings("signals", snap.Signals))
	}
	return snap, nil
}
