package di

import (
	"context"
	"fmt"
	"time"

	"FXRisk/internal/domain/repository"
	"FXRisk/internal/domain/service"
	"FXRisk/internal/handler/api"
	internalrepo "FXRisk/internal/repository"
	"FXRisk/internal/scheduler"
	"FXRisk/internal/service/ratelimit"
	"FXRisk/internal/services/calendar"
	"FXRisk/internal/services/pricing"
	"FXRisk/internal/usecase"
	"FXRisk/pkg/cache"
	pkgch "FXRisk/pkg/clickhouse"
	"FXRisk/pkg/config"
	xhttp "FXRisk/pkg/http"
	pkgkafka "FXRisk/pkg/kafka"
	applogger "FXRisk/pkg/logger"
	"FXRisk/pkg/metrics"
	"FXRisk/pkg/server"

	"github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

func ProvideCalendar(cfg *config.Config) (*calendar.Calendar, error) {
	cal, err := calendar.FromStrings(cfg.Calendar.Holidays)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	return cal, nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when no host is configured.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.ClickHouse.Host == "" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSeriesStore creates the ClickHouse close store and its schema.
func ProvideSeriesStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (*internalrepo.CHSeriesStore, error) {
	if ch == nil {
		return nil, nil
	}
	store, err := internalrepo.NewCHSeriesStore(ch, cfg.ClickHouse.Database, cfg.ClickHouse.Table)
	if err != nil {
		return nil, err
	}
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ch.InitSchema(ctx, store.SchemaStatements()); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideCache returns Redis when enabled, otherwise an in-process cache.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(2000), cache.WithMemoryCleanup(time.Minute)), nil
	}
	c, err := cache.NewRedisCache(redisOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

func redisOptions(cfg *config.Config) []cache.RedisOption {
	opts := []cache.RedisOption{
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	}
	if p := cfg.Redis.Pool; p.Size > 0 {
		opts = append(opts, cache.WithRedisPool(p.Size, p.MinIdle, p.WaitTimeout))
	}
	return opts
}

// ProvidePolygonProvider creates the vendor history client, or nil when unused.
func ProvidePolygonProvider(cfg *config.Config, l *applogger.Logger) *internalrepo.PolygonSeriesProvider {
	if cfg.MarketData.Polygon.APIKey == "" {
		return nil
	}
	hc := xhttp.NewClient(xhttp.WithTimeout(cfg.MarketData.Polygon.Timeout), xhttp.WithUserAgent("fxrisk"))
	p := internalrepo.NewPolygonSeriesProvider(cfg.MarketData.Polygon.APIKey, hc.HTTPClient())
	p.SetLogger(l)
	return p
}

// ProvideMarketData selects the configured history backend behind the series cache.
func ProvideMarketData(
	cfg *config.Config,
	store *internalrepo.CHSeriesStore,
	poly *internalrepo.PolygonSeriesProvider,
	c cache.Service,
	l *applogger.Logger,
) (repository.MarketDataProvider, error) {
	var next repository.MarketDataProvider
	switch cfg.MarketData.Backend {
	case "clickhouse":
		if store == nil {
			return nil, fmt.Errorf("market data: clickhouse store not configured")
		}
		next = store
	case "polygon":
		if poly == nil {
			return nil, fmt.Errorf("market data: polygon api key not configured")
		}
		next = poly
	default:
		return nil, fmt.Errorf("market data: unknown backend %q", cfg.MarketData.Backend)
	}
	cached := internalrepo.NewCachedMarketData(next, c, cfg.MarketData.CacheTTL)
	cached.SetLogger(l)
	return cached, nil
}

// ProvidePricing selects the in-process model or the remote pricing service.
func ProvidePricing(cfg *config.Config, market repository.MarketDataProvider, cal *calendar.Calendar) service.PricingProvider {
	if cfg.Pricing.Backend == "http" {
		return pricing.NewHTTPPricingProvider(cfg)
	}
	return pricing.NewModelPricingProvider(cfg, market, cal)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideResultPublisher publishes to Kafka when a producer exists.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ResultPublisher {
	if producer == nil {
		return internalrepo.NoopResultPublisher{}
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topics.RiskCone, cfg.Kafka.Topics.BigMoves)
}

func ProvideRiskConeUseCase(cfg *config.Config, p service.PricingProvider, cal *calendar.Calendar, c cache.Service, m repository.Metrics, l *applogger.Logger) *usecase.RiskConeUseCase {
	uc := usecase.NewRiskConeUseCase(cfg, p, cal, c, m)
	uc.SetLogger(l)
	return uc
}

func ProvideBigMovesUseCase(cfg *config.Config, market repository.MarketDataProvider, cal *calendar.Calendar, m repository.Metrics, l *applogger.Logger) *usecase.BigMovesUseCase {
	uc := usecase.NewBigMovesUseCase(cfg, market, cal, m)
	uc.SetLogger(l)
	return uc
}

func ProvideIndicatorsUseCase(market repository.MarketDataProvider, cal *calendar.Calendar, m repository.Metrics, l *applogger.Logger) *usecase.IndicatorsUseCase {
	uc := usecase.NewIndicatorsUseCase(market, cal, m)
	uc.SetLogger(l)
	return uc
}

// ProvideKafkaConsumer creates the request consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(
	cfg *config.Config,
	rc *usecase.RiskConeUseCase,
	bm *usecase.BigMovesUseCase,
	pub repository.ResultPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	h := usecase.NewKafkaRequestsHandler(cfg.Kafka.Topics.Requests, rc, bm, pub)
	h.SetLogger(l)
	consumer.RegisterHandler(h)
	consumer.Use(
		pkgkafka.TraceHook(),
		pkgkafka.HookFuncs{
			Err: func(_ context.Context, _ string, _ kafka.Message, _ error) {
				m.RecordError("kafka_request")
			},
		},
	)
	return consumer, nil
}

// ProvideRefresher creates the scheduled refresh, or nil when disabled.
func ProvideRefresher(
	cfg *config.Config,
	rc *usecase.RiskConeUseCase,
	bm *usecase.BigMovesUseCase,
	pub repository.ResultPublisher,
	c cache.Service,
	poly *internalrepo.PolygonSeriesProvider,
	store *internalrepo.CHSeriesStore,
	l *applogger.Logger,
) *scheduler.Refresher {
	if !cfg.Schedule.Enabled {
		return nil
	}
	r := scheduler.NewRefresher(cfg, rc, bm, pub)
	r.SetLogger(l)
	r.SetLock(c)
	if cfg.Schedule.ArchiveCloses && poly != nil && store != nil {
		r.SetArchiver(&scheduler.Archiver{Market: poly, Sink: store, Days: cfg.Schedule.ArchiveDays, Source: "polygon"})
	}
	return r
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideAnalyticsHandler creates the HTTP handler with dependency health checks.
func ProvideAnalyticsHandler(
	l *applogger.Logger,
	rc *usecase.RiskConeUseCase,
	bm *usecase.BigMovesUseCase,
	ind *usecase.IndicatorsUseCase,
	limiter *ratelimit.Limiter,
	ch *pkgch.Client,
	c cache.Service,
) *api.AnalyticsEchoHandler {
	h := api.NewAnalyticsEchoHandler(l, rc, bm, ind, limiter)
	if ch != nil {
		h.AddHealthCheck("clickhouse", ch.Health)
	}
	if p, ok := c.(interface{ Ping(context.Context) error }); ok {
		h.AddHealthCheck("redis", p.Ping)
	}
	return h
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.AnalyticsEchoHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins...),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	refresher *scheduler.Refresher,
	pub repository.ResultPublisher,
	ch *pkgch.Client,
	c cache.Service,
) *server.App {
	app := server.New(cfg, l, httpServer)
	if consumer != nil {
		app.SetConsumer(consumer)
	}
	if refresher != nil {
		app.SetRefresher(refresher)
	}
	app.AddCloser("publisher", pub)
	app.AddCloser("cache", c)
	if ch != nil {
		app.AddCloser("clickhouse", ch)
	}
	return app
}
