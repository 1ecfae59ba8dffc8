package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. YAML keys mirror the
// environment variable names.
type Config struct {
	AppEnv   string `yaml:"APP_ENV"`
	LogLevel string `yaml:"LOG_LEVEL"`

	HTTPPort    int    `yaml:"HTTP_PORT"`
	APIBasePath string `yaml:"API_BASE_PATH"`

	GRPCPort              int  `yaml:"GRPC_PORT"`
	GRPCReflectionEnabled bool `yaml:"GRPC_REFLECTION_ENABLED"`

	DBDriver string `yaml:"DB_DRIVER"`
	DBPath   string `yaml:"DB_PATH"`

	RedisAddr         string        `yaml:"REDIS_ADDR"`
	CacheEnabled      bool          `yaml:"CACHE_ENABLED"`
	DashboardCacheTTL time.Duration `yaml:"DASHBOARD_CACHE_TTL"`

	InferenceCropURL    string        `yaml:"INFERENCE_CROP_URL"`
	InferenceDiseaseURL string        `yaml:"INFERENCE_DISEASE_URL"`
	InferenceTimeout    time.Duration `yaml:"INFERENCE_TIMEOUT"`

	AnalyticsTimezone string `yaml:"ANALYTICS_TIMEZONE"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		AppEnv:              "development",
		HTTPPort:            8080,
		APIBasePath:         "/api",
		GRPCPort:            50051,
		DBDriver:            "sqlite3",
		DBPath:              "./data/krishi.db",
		RedisAddr:           "localhost:6379",
		DashboardCacheTTL:   10 * time.Minute,
		InferenceCropURL:    "http://localhost:8000/crop-recommend",
		InferenceDiseaseURL: "http://localhost:8001/predict",
		InferenceTimeout:    30 * time.Second,
		AnalyticsTimezone:   "UTC",
	}
}

// Load layers configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setString(&c.AppEnv, "APP_ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	errs = append(errs, setInt(&c.HTTPPort, "HTTP_PORT"))
	setString(&c.APIBasePath, "API_BASE_PATH")
	errs = append(errs, setInt(&c.GRPCPort, "GRPC_PORT"))
	errs = append(errs, setBool(&c.GRPCReflectionEnabled, "GRPC_REFLECTION_ENABLED"))
	setString(&c.DBDriver, "DB_DRIVER")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.RedisAddr, "REDIS_ADDR")
	errs = append(errs, setBool(&c.CacheEnabled, "CACHE_ENABLED"))
	errs = append(errs, setDuration(&c.DashboardCacheTTL, "DASHBOARD_CACHE_TTL"))
	setString(&c.InferenceCropURL, "INFERENCE_CROP_URL")
	setString(&c.InferenceDiseaseURL, "INFERENCE_DISEASE_URL")
	errs = append(errs, setDuration(&c.InferenceTimeout, "INFERENCE_TIMEOUT"))
	setString(&c.AnalyticsTimezone, "ANALYTICS_TIMEZONE")

	return errors.Join(errs...)
}

// Validate checks ranges and normalizes the base path.
func (c *Config) Validate() error {
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT %d out of range", c.HTTPPort)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("GRPC_PORT %d out of range", c.GRPCPort)
	}
	switch c.DBDriver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q: want sqlite3 or sqlite", c.DBDriver)
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.InferenceTimeout < 0 {
		return errors.New("INFERENCE_TIMEOUT must be >= 0")
	}
	if c.DashboardCacheTTL < 0 {
		return errors.New("DASHBOARD_CACHE_TTL must be >= 0")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	c.APIBasePath = "/" + strings.Trim(c.APIBasePath, "/")
	return nil
}

// Location resolves ANALYTICS_TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	if c.AnalyticsTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.AnalyticsTimezone)
	if err != nil {
		return nil, fmt.Errorf("ANALYTICS_TIMEZONE %q: %w", c.AnalyticsTimezone, err)
	}
	return loc, nil
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.AppEnv == "production" {
		zcfg = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zcfg.Build()
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s=%q: not an integer", key, val)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("%s=%q: not a boolean", key, val)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("%s=%q: not a duration", key, val)
	}
	*dst = d
	return nil
}
