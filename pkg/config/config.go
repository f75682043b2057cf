package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"500ms"`
	} `yaml:"metrics"`
	TwelveData struct {
		BaseURL         string        `yaml:"base_url" default:"https://api.twelvedata.com"`
		APIKey          string        `yaml:"api_key"`
		Timeout         time.Duration `yaml:"timeout" default:"15s"`
		RequestsPerSec  int           `yaml:"requests_per_sec" default:"8"`
		MaxRetryElapsed time.Duration `yaml:"max_retry_elapsed" default:"20s"`
	} `yaml:"twelvedata"`
	Finnhub struct {
		BaseURL         string        `yaml:"base_url" default:"https://finnhub.io/api/v1"`
		APIKey          string        `yaml:"api_key"`
		Timeout         time.Duration `yaml:"timeout" default:"15s"`
		RequestsPerSec  int           `yaml:"requests_per_sec" default:"5"`
		MaxRetryElapsed time.Duration `yaml:"max_retry_elapsed" default:"20s"`
		Stream          struct {
			Enabled      bool     `yaml:"enabled"`
			WebSocketURL string   `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
			Symbols      []string `yaml:"symbols"`
			// stream symbol -> symbol used by API callers, e.g. BINANCE:BTCUSDT -> BTC/USDT
			Aliases        map[string]string `yaml:"aliases"`
			MaxTicksPerSec int               `yaml:"max_ticks_per_sec" default:"20"`
			BufferSize     int               `yaml:"buffer_size" default:"1000"`
			ArchiveTicks   bool              `yaml:"archive_ticks"`
			ReconnectDelay time.Duration     `yaml:"reconnect_delay" default:"5s"`
			PingInterval   time.Duration     `yaml:"ping_interval" default:"30s"`
		} `yaml:"stream"`
	} `yaml:"finnhub"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"marketintel"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		Compress         bool          `yaml:"compress" default:"true"`
		MaxOpenConns     int           `yaml:"max_open_conns" default:"10"`
		MaxIdleConns     int           `yaml:"max_idle_conns" default:"5"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
		CandleTable      string        `yaml:"candle_table" default:"candles"`
		PositionTable    string        `yaml:"position_table" default:"positions"`
		TickTable        string        `yaml:"tick_table" default:"ticks"`
		AsyncInsert      bool          `yaml:"async_insert" default:"true"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		EventsTopic  string   `yaml:"events_topic" default:"marketintel.analytics"`
		TicksTopic   string   `yaml:"ticks_topic" default:"marketintel.ticks"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"marketintel-quotes"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			FromLatest bool          `yaml:"from_latest" default:"true"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Cache struct {
		Backend       string `yaml:"backend" default:"memory"` // memory, redis or layered
		MemoryMaxSize int    `yaml:"memory_max_size" default:"1000"`
		Redis         struct {
			Host        string        `yaml:"host" default:"localhost"`
			Port        int           `yaml:"port" default:"6379"`
			Password    string        `yaml:"password"`
			DB          int           `yaml:"db"`
			PoolSize    int           `yaml:"pool_size" default:"10"`
			DialTimeout time.Duration `yaml:"dial_timeout" default:"3s"`
			ReadTimeout time.Duration `yaml:"read_timeout" default:"500ms"`
			Prefix      string        `yaml:"prefix" default:"marketintel"`
		} `yaml:"redis"`
		TTL struct {
			Signal     time.Duration `yaml:"signal" default:"30s"`
			Volatility time.Duration `yaml:"volatility" default:"60s"`
			Arbitrage  time.Duration `yaml:"arbitrage" default:"10s"`
			Sentiment  time.Duration `yaml:"sentiment" default:"5m"`
			Risk       time.Duration `yaml:"risk" default:"15s"`
			Overview   time.Duration `yaml:"overview" default:"30s"`
		} `yaml:"ttl"`
	} `yaml:"cache"`
	RateLimit struct {
		Enabled        bool    `yaml:"enabled" default:"true"`
		RequestsPerSec float64 `yaml:"requests_per_sec" default:"10"`
		Burst          int     `yaml:"burst" default:"20"`
	} `yaml:"rate_limit"`
	Analytics struct {
		Timeout          time.Duration `yaml:"timeout" default:"10s"`
		CandleSource     string        `yaml:"candle_source" default:"twelvedata"` // twelvedata or clickhouse
		CandleOutputSize int           `yaml:"candle_output_size" default:"100"`
		QuoteMaxAge      time.Duration `yaml:"quote_max_age" default:"15s"`
		NewsWindow       time.Duration `yaml:"news_window" default:"168h"`
		MaxArticles      int           `yaml:"max_articles" default:"50"`
	} `yaml:"analytics"`
	Arbitrage struct {
		MinSpreadPct    float64 `yaml:"min_spread_pct" default:"0.1"`
		TopN            int     `yaml:"top_n" default:"10"`
		TradeSizeUSD    float64 `yaml:"trade_size_usd" default:"10000"`
		GasUnitsPerSwap float64 `yaml:"gas_units_per_swap" default:"150000"`
		SwapsPerRoute   int     `yaml:"swaps_per_route" default:"2"`
		NativeAssetUSD  float64 `yaml:"native_asset_usd" default:"3000"`
		Watch           struct {
			Enabled        bool     `yaml:"enabled"`
			Schedule       string   `yaml:"schedule" default:"@every 1m"`
			Groups         []string `yaml:"groups"` // comma separated symbol lists
			AlertSpreadPct float64  `yaml:"alert_spread_pct" default:"1.5"`
		} `yaml:"watch"`
	} `yaml:"arbitrage"`
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads an optional .env file, the YAML config, then applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("TWELVEDATA_API_KEY"); v != "" {
		c.TwelveData.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("STREAM_SYMBOLS"); v != "" {
		c.Finnhub.Stream.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Host = host
		if p, err := strconv.Atoi(port); ok && err == nil {
			c.Cache.Redis.Port = p
		}
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	switch c.Analytics.CandleSource {
	case "twelvedata":
	case "clickhouse":
		if !c.ClickHouse.Enabled {
			return fmt.Errorf("analytics.candle_source 'clickhouse' requires clickhouse.enabled")
		}
	default:
		return fmt.Errorf("analytics.candle_source must be 'twelvedata' or 'clickhouse', got '%s'", c.Analytics.CandleSource)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Consumer.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("kafka.consumer requires kafka.enabled")
	}
	if c.Finnhub.Stream.Enabled && len(c.Finnhub.Stream.Symbols) == 0 {
		return fmt.Errorf("finnhub.stream.symbols cannot be empty when the stream is enabled")
	}
	if c.Finnhub.Stream.ArchiveTicks && !c.ClickHouse.Enabled {
		return fmt.Errorf("finnhub.stream.archive_ticks requires clickhouse.enabled")
	}
	if c.Arbitrage.Watch.Enabled && len(c.Arbitrage.Watch.Groups) == 0 {
		return fmt.Errorf("arbitrage.watch.groups cannot be empty when the watch is enabled")
	}
	if c.Analytics.CandleOutputSize < 2 {
		return fmt.Errorf("analytics.candle_output_size must be at least 2")
	}
	return nil
}
