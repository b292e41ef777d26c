package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Environment string `toml:"-"`
	Host        string `toml:"host" env:"GYMBOOK_HOST"`
	Port        int    `toml:"port" env:"GYMBOOK_PORT"`

	// storage
	DBPath          string `toml:"db_path" env:"GYMBOOK_DB_PATH"`
	UploadsDir      string `toml:"uploads_dir" env:"GYMBOOK_UPLOADS_DIR"`
	MaxUploadSizeMB int64  `toml:"max_upload_size_mb" env:"GYMBOOK_MAX_UPLOAD_SIZE_MB"`

	// logging
	LogLevel      string `toml:"log_level" env:"GYMBOOK_LOG_LEVEL"`
	LogsPath      string `toml:"logs_path" env:"GYMBOOK_LOGS_PATH"`
	LogToStdout   bool   `toml:"log_to_stdout" env:"GYMBOOK_LOG_TO_STDOUT"`
	LogFormatJSON bool   `toml:"log_format_json" env:"GYMBOOK_LOG_FORMAT_JSON"`
	SentryEnabled bool   `toml:"sentry_enabled" env:"GYMBOOK_SENTRY_ENABLED"`
	SentryDSN     string `toml:"-" env:"SENTRY_DSN"`

	// http
	CorsAllowedOrigins []string `toml:"cors_allowed_origins" env:"GYMBOOK_CORS_ALLOWED_ORIGINS" envSeparator:","`

	// metrics & tracing
	PrometheusMetricsHost string `toml:"prometheus_metrics_host" env:"GYMBOOK_PROMETHEUS_METRICS_HOST"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port" env:"GYMBOOK_PROMETHEUS_METRICS_PORT"`
	OtelEndpoint          string `toml:"otel_endpoint" env:"GYMBOOK_OTEL_ENDPOINT"`

	// redis, used only for rate limiting user creation; disabled when host is empty
	RedisHost                 string `toml:"redis_host" env:"GYMBOOK_REDIS_HOST"`
	RedisPort                 string `toml:"redis_port" env:"GYMBOOK_REDIS_PORT"`
	RedisPassword             string `toml:"-" env:"GYMBOOK_REDIS_PASS"`
	CreateUserRateLimitPerMin int    `toml:"create_user_rate_limit_per_min" env:"GYMBOOK_CREATE_USER_RATE_LIMIT_PER_MIN"`
}

type Toml struct {
	Development *Config `toml:"development"`
	Production  *Config `toml:"production"`
}

func (t *Toml) Get(env string) (*Config, error) {
	section, err := sectionName(env)
	if err != nil {
		return nil, err
	}
	if section == "development" {
		return t.Development, nil
	}
	return t.Production, nil
}

func sectionName(env string) (string, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return "development", nil
	case "prod", "production":
		return "production", nil
	default:
		return "", fmt.Errorf("unknown env: %s", env)
	}
}

// Default returns the config used when no config file is present.
func Default() *Config {
	return &Config{
		Host:                      "localhost",
		Port:                      5000,
		DBPath:                    "gym.db",
		UploadsDir:                "uploads",
		MaxUploadSizeMB:           10,
		LogLevel:                  "trace",
		LogToStdout:               true,
		CorsAllowedOrigins:        []string{"*"},
		PrometheusMetricsHost:     "localhost",
		PrometheusMetricsPort:     "2112",
		RedisPort:                 "6379",
		CreateUserRateLimitPerMin: 10,
	}
}

// Load reads the TOML config section for the given environment, fills in
// defaults for missing values and applies environment variable overrides.
// A missing config file is not an error.
func Load(environment, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		var t Toml
		meta, err := toml.DecodeFile(path, &t)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Warnf("config file [%s] not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("decode config file: %w", err)
		default:
			envCfg, err := t.Get(environment)
			if err != nil {
				return nil, err
			}
			if envCfg == nil {
				return nil, fmt.Errorf("config for env [%s] missing in [%s]", environment, path)
			}
			section, _ := sectionName(environment)
			cfg.merge(envCfg, func(key string) bool {
				return meta.IsDefined(section, key)
			})
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Environment = environment
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// merge overrides defaults with non-zero values from the file section. Booleans
// are taken only when isDefined reports the key as present, since false is
// also their zero value.
func (c *Config) merge(other *Config, isDefined func(key string) bool) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.DBPath != "" {
		c.DBPath = other.DBPath
	}
	if other.UploadsDir != "" {
		c.UploadsDir = other.UploadsDir
	}
	if other.MaxUploadSizeMB != 0 {
		c.MaxUploadSizeMB = other.MaxUploadSizeMB
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogsPath != "" {
		c.LogsPath = other.LogsPath
	}
	if isDefined("log_to_stdout") {
		c.LogToStdout = other.LogToStdout
	}
	if isDefined("log_format_json") {
		c.LogFormatJSON = other.LogFormatJSON
	}
	if isDefined("sentry_enabled") {
		c.SentryEnabled = other.SentryEnabled
	}
	if len(other.CorsAllowedOrigins) > 0 {
		c.CorsAllowedOrigins = other.CorsAllowedOrigins
	}
	if other.PrometheusMetricsHost != "" {
		c.PrometheusMetricsHost = other.PrometheusMetricsHost
	}
	if other.PrometheusMetricsPort != "" {
		c.PrometheusMetricsPort = other.PrometheusMetricsPort
	}
	if other.OtelEndpoint != "" {
		c.OtelEndpoint = other.OtelEndpoint
	}
	if other.RedisHost != "" {
		c.RedisHost = other.RedisHost
	}
	if other.RedisPort != "" {
		c.RedisPort = other.RedisPort
	}
	if other.CreateUserRateLimitPerMin != 0 {
		c.CreateUserRateLimitPerMin = other.CreateUserRateLimitPerMin
	}
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("db path cannot be empty")
	}
	if c.UploadsDir == "" {
		return errors.New("uploads dir cannot be empty")
	}
	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d", c.MaxUploadSizeMB)
	}
	if c.CreateUserRateLimitPerMin <= 0 {
		return fmt.Errorf("invalid create user rate limit: %d", c.CreateUserRateLimitPerMin)
	}
	return nil
}

func (c *Config) MaxUploadSizeBytes() int64 {
	return c.MaxUploadSizeMB << 20
}
