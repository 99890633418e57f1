package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"FXRisk/internal/domain/models"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// RatePair holds the annual deposit rates of a pair's quote (domestic) and base (foreign) currencies.
type RatePair struct {
	Domestic float64 `yaml:"domestic"`
	Foreign  float64 `yaml:"foreign"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowRequest     time.Duration `yaml:"slow_request"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Logger struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		Output     string `yaml:"output"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"logger"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	MarketData struct {
		Backend  string        `yaml:"backend"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
		Polygon  struct {
			APIKey  string        `yaml:"api_key"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"polygon"`
	} `yaml:"market_data"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
		Pool     struct {
			Size        int           `yaml:"size"`
			MinIdle     int           `yaml:"min_idle"`
			WaitTimeout time.Duration `yaml:"wait_timeout"`
		} `yaml:"pool"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Topics       struct {
			Requests string `yaml:"requests"`
			RiskCone string `yaml:"riskcone"`
			BigMoves string `yaml:"bigmoves"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Pricing struct {
		Backend         string              `yaml:"backend"`
		ServiceURL      string              `yaml:"service_url"`
		Timeout         time.Duration       `yaml:"timeout"`
		Retries         int                 `yaml:"retries"`
		Concurrency     int                 `yaml:"concurrency"`
		VolLookbackDays int                 `yaml:"vol_lookback_days"`
		VolFloor        float64             `yaml:"vol_floor"`
		Rates           map[string]RatePair `yaml:"rates"`
	} `yaml:"pricing"`
	RiskCone struct {
		End         string    `yaml:"end"`
		Frequency   string    `yaml:"frequency"`
		Tenors      []string  `yaml:"tenors"`
		Percentiles []float64 `yaml:"percentiles"`
		Precision   int       `yaml:"precision"`
	} `yaml:"risk_cone"`
	BigMoves struct {
		Period    string `yaml:"period"`
		Window    string `yaml:"window"`
		NumMoves  int    `yaml:"num_moves"`
		Direction string `yaml:"direction"`
		Highlight string `yaml:"highlight"`
		Warmup    string `yaml:"warmup"`
	} `yaml:"big_moves"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Schedule struct {
		Enabled       bool          `yaml:"enabled"`
		Cron          string        `yaml:"cron"`
		Pairs         []string      `yaml:"pairs"`
		Timeout       time.Duration `yaml:"timeout"`
		ArchiveCloses bool          `yaml:"archive_closes"`
		ArchiveDays   int           `yaml:"archive_days"`
	} `yaml:"schedule"`
	Calendar struct {
		Holidays []string `yaml:"holidays"`
	} `yaml:"calendar"`
}

// CronParser accepts six-field specs with a leading seconds field.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// envOverrides are read from FXRISK_* variables.
type envOverrides struct {
	Environment       string   `envconfig:"ENVIRONMENT"`
	LogLevel          string   `envconfig:"LOG_LEVEL"`
	MarketDataBackend string   `envconfig:"MARKET_DATA_BACKEND"`
	PolygonAPIKey     string   `envconfig:"POLYGON_API_KEY"`
	PricingBackend    string   `envconfig:"PRICING_BACKEND"`
	PricingServiceURL string   `envconfig:"PRICING_SERVICE_URL"`
	ClickHouseHost    string   `envconfig:"CLICKHOUSE_HOST"`
	ClickHousePass    string   `envconfig:"CLICKHOUSE_PASSWORD"`
	RedisHost         string   `envconfig:"REDIS_HOST"`
	RedisPassword     string   `envconfig:"REDIS_PASSWORD"`
	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS"`
	SchedulePairs     []string `envconfig:"SCHEDULE_PAIRS"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Defaults()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides it with FXRISK_* environment
// variables, reading a local .env file first when one exists.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	var ov envOverrides
	if err := envconfig.Process("FXRISK", &ov); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	c.applyOverrides(ov)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyOverrides(ov envOverrides) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Environment, ov.Environment)
	set(&c.Logger.Level, ov.LogLevel)
	set(&c.MarketData.Backend, ov.MarketDataBackend)
	set(&c.MarketData.Polygon.APIKey, ov.PolygonAPIKey)
	set(&c.Pricing.Backend, ov.PricingBackend)
	set(&c.Pricing.ServiceURL, ov.PricingServiceURL)
	set(&c.ClickHouse.Host, ov.ClickHouseHost)
	set(&c.ClickHouse.Password, ov.ClickHousePass)
	set(&c.Redis.Host, ov.RedisHost)
	set(&c.Redis.Password, ov.RedisPassword)
	if len(ov.KafkaBrokers) > 0 {
		c.Kafka.Brokers = ov.KafkaBrokers
	}
	if len(ov.SchedulePairs) > 0 {
		c.Schedule.Pairs = ov.SchedulePairs
	}
}

// Defaults returns a config with every optional field filled.
func Defaults() *Config {
	c := &Config{}
	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.SlowRequest = 2 * time.Second
	c.Logger.Level = "info"
	c.Logger.Format = "json"
	c.Logger.Output = "stdout"
	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"
	c.MarketData.Backend = "clickhouse"
	c.MarketData.CacheTTL = 15 * time.Minute
	c.MarketData.Polygon.Timeout = 15 * time.Second
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "fxrisk"
	c.ClickHouse.Table = "fx_daily_close"
	c.Redis.Port = 6379
	c.Redis.Prefix = "fxrisk"
	c.Redis.Pool.Size = 10
	c.Redis.Pool.MinIdle = 2
	c.Redis.Pool.WaitTimeout = 5 * time.Second
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "gzip"
	c.Kafka.Topics.Requests = "fxrisk.requests"
	c.Kafka.Topics.RiskCone = "fxrisk.riskcone"
	c.Kafka.Topics.BigMoves = "fxrisk.bigmoves"
	c.Kafka.Consumer.GroupID = "fxrisk"
	c.Kafka.Consumer.Workers = 2
	c.Pricing.Backend = "model"
	c.Pricing.Timeout = 5 * time.Second
	c.Pricing.Retries = 2
	c.Pricing.Concurrency = 4
	c.Pricing.VolLookbackDays = 63
	c.Pricing.VolFloor = 0.01
	c.RiskCone.End = "6m"
	c.RiskCone.Frequency = string(models.FreqWeeklyFriday)
	c.RiskCone.Percentiles = []float64{0.95, 0.75, 0.25, 0.05}
	c.RiskCone.Precision = 4
	c.BigMoves.Period = "5y"
	c.BigMoves.Window = "1m"
	c.BigMoves.NumMoves = 5
	c.BigMoves.Direction = string(models.Largest)
	c.BigMoves.Highlight = string(models.HighlightWindow)
	c.BigMoves.Warmup = string(models.WarmupExclude)
	c.RateLimit.RPS = 10
	c.RateLimit.Burst = 20
	c.Schedule.Cron = "0 30 22 * * 1-5"
	c.Schedule.Timeout = 2 * time.Minute
	c.Schedule.ArchiveDays = 10
	return c
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.MarketData.Backend {
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for market_data.backend=clickhouse")
		}
	case "polygon":
		if c.MarketData.Polygon.APIKey == "" {
			return fmt.Errorf("market_data.polygon.api_key is required for market_data.backend=polygon")
		}
	default:
		return fmt.Errorf("market_data.backend must be 'clickhouse' or 'polygon', got '%s'", c.MarketData.Backend)
	}
	switch c.Pricing.Backend {
	case "model":
	case "http":
		if c.Pricing.ServiceURL == "" {
			return fmt.Errorf("pricing.service_url is required for pricing.backend=http")
		}
	default:
		return fmt.Errorf("pricing.backend must be 'model' or 'http', got '%s'", c.Pricing.Backend)
	}

	if _, err := models.ParseTenor(c.RiskCone.End); err != nil {
		return fmt.Errorf("risk_cone.end: %w", err)
	}
	if _, err := models.ParseTenors(c.RiskCone.Tenors); err != nil {
		return fmt.Errorf("risk_cone.tenors: %w", err)
	}
	if _, err := models.ParseFrequency(c.RiskCone.Frequency); err != nil {
		return fmt.Errorf("risk_cone.frequency: %w", err)
	}
	for _, p := range c.RiskCone.Percentiles {
		if !(p > 0 && p < 1) {
			return fmt.Errorf("risk_cone.percentiles: %w: %v", models.ErrInvalidPercentile, p)
		}
	}
	if c.RiskCone.Precision < 0 {
		return fmt.Errorf("risk_cone.precision must be >= 0")
	}

	if _, err := models.ParseWindowSize(c.BigMoves.Window); err != nil {
		return fmt.Errorf("big_moves.window: %w", err)
	}
	if _, err := models.ParsePeriod(c.BigMoves.Period); err != nil {
		return fmt.Errorf("big_moves.period: %w", err)
	}
	if c.BigMoves.NumMoves < 1 || c.BigMoves.NumMoves > 20 {
		return fmt.Errorf("big_moves.num_moves must be in [1,20], got %d", c.BigMoves.NumMoves)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Schedule.Enabled {
		if c.Schedule.Cron == "" {
			return fmt.Errorf("schedule.cron is required when schedule is enabled")
		}
		if _, err := CronParser.Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
		if len(c.Schedule.Pairs) == 0 {
			return fmt.Errorf("schedule.pairs cannot be empty when schedule is enabled")
		}
		if c.Schedule.ArchiveCloses && (c.MarketData.Backend != "polygon" || c.ClickHouse.Host == "") {
			return fmt.Errorf("schedule.archive_closes needs market_data.backend=polygon and clickhouse.host")
		}
	}
	return nil
}

// RatesFor returns the configured rates of a pair, zero when absent.
func (c *Config) RatesFor(pair string) RatePair {
	return c.Pricing.Rates[pair]
}
