package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"FXRisk/internal/domain/models"
	domrepo "FXRisk/internal/domain/repository"
	pkgch "FXRisk/pkg/clickhouse"
	applogger "FXRisk/pkg/logger"
)

const insertChunk = 2000

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CHSeriesStore reads and writes daily closes in a ClickHouse table
// (pair String, day Date, close Float64, source String).
type CHSeriesStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSeriesStore(ch *pkgch.Client, database, table string) (*CHSeriesStore, error) {
	return newCHSeriesStore(ch.DB(), database, table)
}

func newCHSeriesStore(db *sql.DB, database, table string) (*CHSeriesStore, error) {
	if !identRe.MatchString(database) || !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table %q.%q", database, table)
	}
	return &CHSeriesStore{db: db, table: database + "." + table}, nil
}

// SetLogger injects a structured logger.
func (s *CHSeriesStore) SetLogger(l *applogger.Logger) { s.l = l }

// SchemaStatements returns the idempotent DDL for the closes table.
func (s *CHSeriesStore) SchemaStatements() []string {
	db := s.table[:strings.IndexByte(s.table, '.')]
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            pair   LowCardinality(String),
            day    Date,
            close  Float64,
            source LowCardinality(String),
            ingested_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(ingested_at)
        ORDER BY (pair, day)`, s.table),
	}
}

// GetSeries returns the closes of pair within [start, end], oldest first.
func (s *CHSeriesStore) GetSeries(ctx context.Context, pair string, start, end time.Time) (models.PriceSeries, error) {
	begin := time.Now()
	q := fmt.Sprintf(`
        SELECT day, argMax(close, ingested_at) AS close
        FROM %s
        WHERE pair = ? AND day >= ? AND day <= ?
        GROUP BY day
        ORDER BY day ASC`, s.table)

	rows, err := s.db.QueryContext(ctx, q, pair, models.DateOnly(start), models.DateOnly(end))
	if err != nil {
		s.logErr("clickhouse get_series query error", pair, err)
		return models.PriceSeries{}, fmt.Errorf("get series %s: %w", pair, err)
	}
	defer rows.Close()

	out := models.PriceSeries{Pair: pair, Points: make([]models.PricePoint, 0, 512)}
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Price); err != nil {
			s.logErr("clickhouse get_series scan error", pair, err)
			return models.PriceSeries{}, fmt.Errorf("scan close: %w", err)
		}
		p.Date = models.DateOnly(p.Date)
		out.Points = append(out.Points, p)
	}
	if err := rows.Err(); err != nil {
		s.logErr("clickhouse get_series rows error", pair, err)
		return models.PriceSeries{}, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse get_series ok",
			applogger.String("pair", pair),
			applogger.Date("start", start),
			applogger.Date("end", end),
			applogger.Int("rows", out.Len()),
			applogger.Duration("duration_ms", time.Since(begin)),
		)
	}
	if out.Len() == 0 {
		return out, fmt.Errorf("%w: no closes for %s between %s and %s", models.ErrEmptySeries,
			pair, start.Format(models.DateLayout), end.Format(models.DateLayout))
	}
	return out, nil
}

// SaveSeries inserts closes in multi-row chunks. Re-inserting a day replaces it
// once ClickHouse merges; reads already pick the latest row.
func (s *CHSeriesStore) SaveSeries(ctx context.Context, series models.PriceSeries, source string) error {
	pts := series.Points
	for start := 0; start < len(pts); start += insertChunk {
		end := start + insertChunk
		if end > len(pts) {
			end = len(pts)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, p := range pts[start:end] {
			if p.Price <= 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, series.Pair, models.DateOnly(p.Date), p.Price, source)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (pair, day, close, source) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.logErr("clickhouse save_series error", series.Pair, err)
			return fmt.Errorf("save series %s: %w", series.Pair, err)
		}
	}
	return nil
}

func (s *CHSeriesStore) logErr(msg, pair string, err error) {
	if s.l != nil {
		s.l.Error(msg, applogger.String("table", s.table), applogger.String("pair", pair), applogger.Error(err))
	}
}

var _ domrepo.MarketDataProvider = (*CHSeriesStore)(nil)
var _ domrepo.SeriesSink = (*CHSeriesStore)(nil)
