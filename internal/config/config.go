// Package config loads service configuration from defaults, an optional
// config.yaml, a .env file and REGISTRACION_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REGISTRACION"

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Weighing WeighingConfig `mapstructure:"weighing"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the system-of-record pool and the optional ERP pool.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	ERPURL          string        `mapstructure:"erp_url"`
	ApplicationName string        `mapstructure:"application_name"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// WeighingConfig tunes the status engine and the orchestrator.
type WeighingConfig struct {
	ToleranceRootPct         float64 `mapstructure:"tolerance_root_pct"`
	ToleranceIntermediatePct float64 `mapstructure:"tolerance_intermediate_pct"`
	LabelsFromCounter        bool    `mapstructure:"labels_from_counter"`
}

type AuditConfig struct {
	CompressThreshold int `mapstructure:"compress_threshold"`
}

type OutboxConfig struct {
	BatchSize    int           `mapstructure:"batch_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	// WorkerAddr is where the outbox worker exposes its metrics.
	WorkerAddr string `mapstructure:"worker_addr"`
}

// SeedConfig is only read by cmd/seed.
type SeedConfig struct {
	SupervisorUsername string `mapstructure:"supervisor_username"`
	SupervisorPassword string `mapstructure:"supervisor_password"`
	SupervisorRoleID   int    `mapstructure:"supervisor_role_id"`
}

// Load reads .env (if present), config.yaml (if present) and the environment.
func Load() (*Config, error) {
	// A missing .env is the normal production case.
	_ = godotenv.Load()
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration into v and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/registracion")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{"database.url", "database.erp_url", "auth.jwt_secret"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.application_name", "registracion")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("weighing.tolerance_root_pct", 0.05)
	v.SetDefault("weighing.tolerance_intermediate_pct", 0.01)
	v.SetDefault("weighing.labels_from_counter", false)

	v.SetDefault("audit.compress_threshold", 10*1024)

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", "2s")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "registracion.events")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.worker_addr", ":9091")

	v.SetDefault("seed.supervisor_username", "supervisor")
	v.SetDefault("seed.supervisor_role_id", 1)
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, fmt.Errorf("database.url is required (%s_DATABASE_URL)", EnvPrefix))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("auth.jwt_secret is required (%s_AUTH_JWT_SECRET)", EnvPrefix))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port must not be empty"))
	}
	if !validPct(c.Weighing.ToleranceRootPct) {
		errs = append(errs, fmt.Errorf("weighing.tolerance_root_pct must be in [0,1), got %v", c.Weighing.ToleranceRootPct))
	}
	if !validPct(c.Weighing.ToleranceIntermediatePct) {
		errs = append(errs, fmt.Errorf("weighing.tolerance_intermediate_pct must be in [0,1), got %v", c.Weighing.ToleranceIntermediatePct))
	}
	if c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("outbox.batch_size must be positive"))
	}
	return errors.Join(errs...)
}

// KafkaEnabled reports whether the worker has brokers to relay to.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func validPct(p float64) bool {
	return p >= 0 && p < 1
}

// splitList accepts both YAML lists and a single comma separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
