package repository

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"FXRisk/internal/domain/models"
	domrepo "FXRisk/internal/domain/repository"
	applogger "FXRisk/pkg/logger"

	polygonrest "github.com/polygon-io/client-go/rest"
	rmodels "github.com/polygon-io/client-go/rest/models"
)

// aggsFetcher returns daily closes for a polygon ticker.
type aggsFetcher func(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error)

// PolygonSeriesProvider reads daily FX aggregates ("C:EURUSD") from Polygon.
type PolygonSeriesProvider struct {
	fetch aggsFetcher
	l     *applogger.Logger
}

func NewPolygonSeriesProvider(apiKey string, httpClient *http.Client) *PolygonSeriesProvider {
	client := polygonrest.NewWithClient(apiKey, httpClient)
	return &PolygonSeriesProvider{fetch: func(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
		params := rmodels.ListAggsParams{
			Ticker:     ticker,
			Multiplier: 1,
			Timespan:   rmodels.Day,
			From:       rmodels.Millis(from),
			To:         rmodels.Millis(to),
		}.WithOrder(rmodels.Asc).WithLimit(50000).WithAdjusted(true)

		var out []models.PricePoint
		iter := client.ListAggs(ctx, params)
		for iter.Next() {
			a := iter.Item()
			out = append(out, models.PricePoint{Date: models.DateOnly(time.Time(a.Timestamp)), Price: a.Close})
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		return out, nil
	}}
}

// SetLogger injects a structured logger.
func (p *PolygonSeriesProvider) SetLogger(l *applogger.Logger) { p.l = l }

// PolygonTicker maps "EURUSD" to Polygon's currency ticker "C:EURUSD".
func PolygonTicker(pair string) string {
	pair = strings.ToUpper(pair)
	if strings.HasPrefix(pair, "C:") {
		return pair
	}
	return "C:" + pair
}

func (p *PolygonSeriesProvider) GetSeries(ctx context.Context, pair string, start, end time.Time) (models.PriceSeries, error) {
	begin := time.Now()
	ticker := PolygonTicker(pair)
	pts, err := p.fetch(ctx, ticker, models.DateOnly(start), models.DateOnly(end))
	if err != nil {
		if p.l != nil {
			p.l.Error("polygon list_aggs error", applogger.String("ticker", ticker), applogger.Error(err))
		}
		return models.PriceSeries{}, fmt.Errorf("polygon aggs %s: %w", ticker, err)
	}

	// FX trades around the clock; keep weekdays and one close per day
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	out := models.PriceSeries{Pair: strings.ToUpper(pair), Points: make([]models.PricePoint, 0, len(pts))}
	for _, pt := range pts {
		if wd := pt.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if pt.Date.Before(models.DateOnly(start)) || pt.Date.After(models.DateOnly(end)) {
			continue
		}
		if n := len(out.Points); n > 0 && out.Points[n-1].Date.Equal(pt.Date) {
			out.Points[n-1] = pt
			continue
		}
		out.Points = append(out.Points, pt)
	}

	if p.l != nil {
		p.l.Debug("polygon list_aggs ok",
			applogger.String("ticker", ticker),
			applogger.Int("rows", out.Len()),
			applogger.Duration("duration_ms", time.Since(begin)),
		)
	}
	if out.Len() == 0 {
		return out, fmt.Errorf("%w: polygon returned no closes for %s", models.ErrEmptySeries, ticker)
	}
	return out, nil
}

var _ domrepo.MarketDataProvider = (*PolygonSeriesProvider)(nil)
