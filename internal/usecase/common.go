package usecase

import (
	"fmt"
	"strings"
	"time"

	"FXRisk/internal/domain/models"
	domrepo "FXRisk/internal/domain/repository"
	"FXRisk/internal/services/calendar"
	"FXRisk/pkg/util"
)

// Computation kinds used as metric labels.
const (
	kindRiskCone   = models.KindRiskCone
	kindBigMoves   = models.KindBigMoves
	kindIndicators = "indicators"
)

func observe(m domrepo.Metrics, kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case models.IsInvalidInput(err):
		status = "invalid"
	default:
		status = "error"
		m.RecordError(kind)
	}
	m.RecordComputation(kind, status)
	m.RecordLatency(kind, time.Since(start).Seconds())
}

func normalizePair(raw string) (string, error) {
	pair := util.NormalizePair(raw)
	if len(pair) != 6 {
		return "", fmt.Errorf("%w: pair %q must be six letters", models.ErrInvalidRequest, raw)
	}
	return pair, nil
}

// asOfDate parses s or falls back to the last business day on or before today.
func asOfDate(cal *calendar.Calendar, s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return cal.RollBackward(models.DateOnly(now)), nil
	}
	d, err := util.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}
	return d, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
