package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Billing   BillingConfig
	Scheduler SchedulerConfig
	Events    EventsConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction reports whether the app runs in the production environment
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	LogLevel        string // silent, error, warn, info
	SlowThreshold   time.Duration
}

// RedisConfig holds Redis connection settings. When disabled, advisory locks
// are held in process.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	RequestTimeout   time.Duration // Per-request context deadline, 0 disables
	MaxBodySize      int64
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// BillingConfig holds monthly bill generation settings
type BillingConfig struct {
	DefaultElectricityRate decimal.Decimal
	DueDays                int
	RequireMeterReading    bool
	GenerationWorkers      int
	LockTTL                time.Duration
}

// SchedulerConfig holds the overdue sweep schedule
type SchedulerConfig struct {
	Enabled     bool
	OverdueCron string
	JobTimeout  time.Duration
}

// EventsConfig holds the Kafka forwarding settings for ledger events
type EventsConfig struct {
	KafkaEnabled bool
	Brokers      []string
	Topic        string
	ClientID     string
	RequiredAcks string // none, leader, all
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled    bool
	AllowedIPs []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
}

// Load reads configuration. Priority, highest first:
//  1. PG_-prefixed environment variables (PG_DATABASE_PASSWORD, PG_BILLING_DUE_DAYS)
//  2. a .env file in the working directory
//  3. config.toml
//  4. built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("PG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	rate, err := decimal.NewFromString(v.GetString("billing.default_electricity_rate"))
	if err != nil {
		return nil, fmt.Errorf("billing.default_electricity_rate: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			RequestTimeout:   v.GetDuration("http.request_timeout"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: stringSlice(v, "http.cors_allow_origins"),
			TrustedProxies:   stringSlice(v, "http.trusted_proxies"),
		},
		Billing: BillingConfig{
			DefaultElectricityRate: rate,
			DueDays:                v.GetInt("billing.due_days"),
			RequireMeterReading:    v.GetBool("billing.require_meter_reading"),
			GenerationWorkers:      v.GetInt("billing.generation_workers"),
			LockTTL:                v.GetDuration("billing.lock_ttl"),
		},
		Scheduler: SchedulerConfig{
			Enabled:     v.GetBool("scheduler.enabled"),
			OverdueCron: v.GetString("scheduler.overdue_cron"),
			JobTimeout:  v.GetDuration("scheduler.job_timeout"),
		},
		Events: EventsConfig{
			KafkaEnabled: v.GetBool("events.kafka_enabled"),
			Brokers:      stringSlice(v, "events.brokers"),
			Topic:        v.GetString("events.topic"),
			ClientID:     v.GetString("events.client_id"),
			RequiredAcks: v.GetString("events.required_acks"),
		},
		Swagger: SwaggerConfig{
			Enabled:    v.GetBool("swagger.enabled"),
			AllowedIPs: stringSlice(v, "swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stringSlice reads a list that may come from TOML as an array or from the
// environment as a comma-separated string
func stringSlice(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pg-ledger")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "pgledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "pgledger.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_threshold", 200*time.Millisecond)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.request_timeout", 25*time.Second)
	v.SetDefault("http.max_body_size", 1<<20)

	v.SetDefault("billing.default_electricity_rate", "12")
	v.SetDefault("billing.due_days", 10)
	v.SetDefault("billing.require_meter_reading", true)
	v.SetDefault("billing.generation_workers", 4)
	v.SetDefault("billing.lock_ttl", 30*time.Second)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.overdue_cron", "0 1 * * *")
	v.SetDefault("scheduler.job_timeout", 5*time.Minute)

	v.SetDefault("events.topic", "pg-ledger.events")
	v.SetDefault("events.client_id", "pg-ledger")
	v.SetDefault("events.required_acks", "all")

	v.SetDefault("swagger.enabled", true)

	v.SetDefault("telemetry.collector_endpoint", "localhost:4317")
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.service_name", "pg-ledger")
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) must be between 0 and database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Billing.DefaultElectricityRate.IsNegative() {
		return fmt.Errorf("billing.default_electricity_rate cannot be negative")
	}
	if c.Billing.DueDays < 0 {
		return fmt.Errorf("billing.due_days cannot be negative")
	}
	if c.Billing.GenerationWorkers <= 0 {
		return fmt.Errorf("billing.generation_workers must be positive")
	}
	if c.Billing.LockTTL <= 0 {
		return fmt.Errorf("billing.lock_ttl must be positive")
	}

	if c.Scheduler.Enabled && strings.TrimSpace(c.Scheduler.OverdueCron) == "" {
		return fmt.Errorf("scheduler.overdue_cron is required when the scheduler is enabled")
	}

	if c.Events.KafkaEnabled {
		if len(c.Events.Brokers) == 0 {
			return fmt.Errorf("events.brokers is required when kafka is enabled")
		}
		switch c.Events.RequiredAcks {
		case "none", "leader", "all":
		default:
			return fmt.Errorf("events.required_acks must be none, leader or all")
		}
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.IsProduction() {
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("database.driver must be postgres in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if !c.Redis.Enabled {
			return fmt.Errorf("redis.enabled must be true in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("http.cors_allow_origins cannot be '*' in production")
			}
		}
	}
	return nil
}

// DSN returns the postgres connection string with escaped credentials
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
