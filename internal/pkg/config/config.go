package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	CORS      CORSConfig
	Log       LogConfig
	Booking   BookingConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Sweep     SweepConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" required:"true"`
	Password    string `envconfig:"DB_PASSWORD" required:"true"`
	DBName      string `envconfig:"DB_NAME" required:"true"`
	SSLMode     string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone    string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"20"`
	TxRetries   int    `envconfig:"DB_TX_MAX_RETRIES" default:"3"`
	StmtTimeout string `envconfig:"DB_STATEMENT_TIMEOUT" default:"5s"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,X-Request-ID"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,Retry-After,X-Request-ID"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"false"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type BookingConfig struct {
	HoldTTL time.Duration `envconfig:"BOOKING_HOLD_TTL" default:"5m"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type QueueConfig struct {
	Enabled     bool   `envconfig:"QUEUE_ENABLED" default:"true"`
	Name        string `envconfig:"QUEUE_NAME" default:"bookings"`
	Concurrency int    `envconfig:"QUEUE_CONCURRENCY" default:"10"`
	MaxRetry    int    `envconfig:"QUEUE_MAX_RETRY" default:"5"`
}

// ExpiryMode selects how lapsed holds are reclaimed.
type ExpiryMode string

const (
	ExpiryPush ExpiryMode = "push"
	ExpiryPull ExpiryMode = "pull"
	ExpiryBoth ExpiryMode = "both"
)

type SweepConfig struct {
	Mode      ExpiryMode    `envconfig:"EXPIRY_MODE" default:"both"`
	Interval  time.Duration `envconfig:"SWEEP_INTERVAL" default:"30s"`
	BatchSize int           `envconfig:"SWEEP_BATCH_SIZE" default:"100"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:""`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"booking-events"`
}

type RateLimitConfig struct {
	RPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst int     `envconfig:"RATE_LIMIT_BURST" default:"40"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

// PullEnabled is true when the periodic scan should run. Without a queue there is no push delivery.
func (c *Config) PullEnabled() bool {
	return !c.Queue.Enabled || c.Sweep.Mode == ExpiryPull || c.Sweep.Mode == ExpiryBoth
}

func (c *Config) PushEnabled() bool {
	return c.Queue.Enabled && (c.Sweep.Mode == ExpiryPush || c.Sweep.Mode == ExpiryBoth)
}

func (c *Config) validate() error {
	switch c.Sweep.Mode {
	case ExpiryPush, ExpiryPull, ExpiryBoth:
	default:
		return fmt.Errorf("invalid EXPIRY_MODE %q: expected push, pull or both", c.Sweep.Mode)
	}
	if c.Booking.HoldTTL <= 0 {
		return fmt.Errorf("BOOKING_HOLD_TTL must be positive, got %s", c.Booking.HoldTTL)
	}
	if c.Sweep.BatchSize <= 0 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be positive, got %d", c.Sweep.BatchSize)
	}
	return nil
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (Config, error) {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:        "localhost",
			Port:        "15433", // Test DB port
			User:        "test",
			Password:    "test",
			DBName:      "test_db",
			SSLMode:     "disable",
			TimeZone:    "UTC",
			MaxConns:    20,
			TxRetries:   3,
			StmtTimeout: "5s",
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Booking: BookingConfig{
			HoldTTL: 5 * time.Minute,
		},
		Queue: QueueConfig{
			Enabled: false, // Inline dispatch, no Redis
			Name:    "bookings",
		},
		Sweep: SweepConfig{
			Mode:      ExpiryPull,
			Interval:  time.Second,
			BatchSize: 100,
		},
		Kafka: KafkaConfig{
			Topic: "booking-events",
		},
		RateLimit: RateLimitConfig{
			RPS:   1000,
			Burst: 1000,
		},
	}
}
