package repository

import (
	"context"
	"time"

	"FXRisk/internal/domain/models"
)

// MarketDataProvider supplies historical daily closes for a currency pair.
// Series are returned chronologically sorted and business-day only.
type MarketDataProvider interface {
	GetSeries(ctx context.Context, pair string, start, end time.Time) (models.PriceSeries, error)
}

// SeriesSink archives fetched closes, e.g. vendor data into the local store.
type SeriesSink interface {
	SaveSeries(ctx context.Context, series models.PriceSeries, source string) error
}

// ResultPublisher ships computed tables to downstream consumers.
type ResultPublisher interface {
	PublishRiskCone(ctx context.Context, requestID string, t *models.RiskConeTable) error
	PublishBigMoves(ctx context.Context, requestID string, t *models.BigMovesTable) error
	Close() error
}

type Metrics interface {
	RecordComputation(kind, status string)
	RecordError(kind string)
	RecordLastSpot(pair string, spot float64)
	RecordLatency(op string, seconds float64)
}
