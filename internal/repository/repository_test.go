package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"FXRisk/internal/domain/models"
	"FXRisk/pkg/cache"
	pkgkafka "FXRisk/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPolygonTicker(t *testing.T) {
	assert.Equal(t, "C:EURUSD", PolygonTicker("eurusd"))
	assert.Equal(t, "C:EURUSD", PolygonTicker("C:EURUSD"))
}

func TestPolygonGetSeriesCleansBars(t *testing.T) {
	var gotTicker string
	p := &PolygonSeriesProvider{fetch: func(_ context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
		gotTicker = ticker
		return []models.PricePoint{
			{Date: day(2024, 1, 5), Price: 1.095},
			{Date: day(2024, 1, 2), Price: 1.094},
			{Date: day(2024, 1, 6), Price: 1.096}, // saturday
			{Date: day(2024, 1, 3), Price: 1.091},
			{Date: day(2024, 1, 3), Price: 1.092}, // later bar wins
			{Date: day(2024, 1, 10), Price: 1.1},  // out of range
		}, nil
	}}

	s, err := p.GetSeries(context.Background(), "eurusd", day(2024, 1, 1), day(2024, 1, 8))
	require.NoError(t, err)
	assert.Equal(t, "C:EURUSD", gotTicker)
	assert.Equal(t, "EURUSD", s.Pair)
	assert.Equal(t, []time.Time{day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 5)}, s.Dates())
	assert.Equal(t, []float64{1.094, 1.092, 1.095}, s.Prices())
}

func TestPolygonGetSeriesErrors(t *testing.T) {
	boom := errors.New("429 too many requests")
	p := &PolygonSeriesProvider{fetch: func(context.Context, string, time.Time, time.Time) ([]models.PricePoint, error) {
		return nil, boom
	}}
	_, err := p.GetSeries(context.Background(), "EURUSD", day(2024, 1, 1), day(2024, 1, 8))
	assert.ErrorIs(t, err, boom)

	p.fetch = func(context.Context, string, time.Time, time.Time) ([]models.PricePoint, error) { return nil, nil }
	_, err = p.GetSeries(context.Background(), "EURUSD", day(2024, 1, 1), day(2024, 1, 8))
	assert.ErrorIs(t, err, models.ErrEmptySeries)
}

type countingProvider struct {
	calls int
	err   error
}

func (c *countingProvider) GetSeries(_ context.Context, pair string, start, _ time.Time) (models.PriceSeries, error) {
	c.calls++
	if c.err != nil {
		return models.PriceSeries{}, c.err
	}
	return models.PriceSeries{Pair: pair, Points: []models.PricePoint{{Date: start, Price: 1.1}}}, nil
}

func TestCachedMarketData(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	next := &countingProvider{}
	m := NewCachedMarketData(next, mc, time.Minute)
	ctx := context.Background()

	a, err := m.GetSeries(ctx, "EURUSD", day(2024, 1, 2), day(2024, 2, 2))
	require.NoError(t, err)
	b, err := m.GetSeries(ctx, "EURUSD", day(2024, 1, 2), day(2024, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, next.calls)

	_, err = m.GetSeries(ctx, "GBPUSD", day(2024, 1, 2), day(2024, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedMarketDataDoesNotCacheErrors(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	next := &countingProvider{err: models.ErrEmptySeries}
	m := NewCachedMarketData(next, mc, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := m.GetSeries(context.Background(), "EURUSD", day(2024, 1, 2), day(2024, 2, 2))
		assert.ErrorIs(t, err, models.ErrEmptySeries)
	}
	assert.Equal(t, 2, next.calls)
}

type published struct {
	topic   string
	key     string
	value   interface{}
	headers map[string]string
}

type recordingProducer struct {
	mu     sync.Mutex
	msgs   []published
	closed bool
}

func (r *recordingProducer) Publish(_ context.Context, topic string, key []byte, value interface{}, headers map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, published{topic: topic, key: string(key), value: value, headers: headers})
	return nil
}

func (r *recordingProducer) Close() error {
	r.closed = true
	return nil
}

func TestKafkaResultPublisher(t *testing.T) {
	rp := &recordingProducer{}
	pub := newKafkaResultPublisher(rp, "fxrisk.riskcone", "fxrisk.bigmoves")
	ctx := pkgkafka.WithTraceID(context.Background(), "trace-9")

	require.NoError(t, pub.PublishRiskCone(ctx, "req-1", &models.RiskConeTable{Pair: "EURUSD"}))
	require.NoError(t, pub.PublishBigMoves(context.Background(), "req-2", &models.BigMovesTable{Pair: "GBPUSD"}))
	require.NoError(t, pub.Close())
	assert.True(t, rp.closed)

	require.Len(t, rp.msgs, 2)
	cone := rp.msgs[0]
	assert.Equal(t, "fxrisk.riskcone", cone.topic)
	assert.Equal(t, "EURUSD", cone.key)
	assert.Equal(t, "riskcone", cone.headers["kind"])
	assert.Equal(t, "trace-9", cone.headers[pkgkafka.TraceHeader])

	env, ok := cone.value.(ResultEnvelope)
	require.True(t, ok)
	assert.Equal(t, "req-1", env.RequestID)
	assert.NotEmpty(t, env.ID)

	moves := rp.msgs[1]
	assert.Equal(t, "fxrisk.bigmoves", moves.topic)
	assert.Equal(t, "req-2", moves.headers[pkgkafka.TraceHeader])

	b, err := json.Marshal(moves.value)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"kind":"bigmoves"`)
}

func TestCHSeriesStoreValidatesIdentifiers(t *testing.T) {
	_, err := newCHSeriesStore(nil, "fxrisk", "fx_daily_close; DROP TABLE x")
	assert.Error(t, err)

	s, err := newCHSeriesStore(nil, "fxrisk", "fx_daily_close")
	require.NoError(t, err)
	stmts := s.SchemaStatements()
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS fxrisk", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS fxrisk.fx_daily_close")
	assert.Contains(t, stmts[1], "ReplacingMergeTree")
}

func TestCHSeriesStoreSaveSkipsEmpty(t *testing.T) {
	s, err := newCHSeriesStore(nil, "fxrisk", "fx_daily_close")
	require.NoError(t, err)
	// no usable rows means no statement reaches the (nil) connection
	assert.NoError(t, s.SaveSeries(context.Background(), models.PriceSeries{
		Pair:   "EURUSD",
		Points: []models.PricePoint{{Date: day(2024, 1, 2), Price: 0}},
	}, "polygon"))
}
