// Package config loads and validates runtime configuration.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file, then environment variables. The file is the one passed to Load, or
// config.<ENV>.yml in the working directory when that exists.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jintaekimmm/cn-bis/internal/geo"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: field %q: %s", e.Field, e.Message)
}

// Config holds all runtime configuration.
type Config struct {
	Env      string `yaml:"env" env:"ENV" validate:"oneof=local development production testing"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Port     int    `yaml:"port" env:"PORT" validate:"min=1,max=65535"`

	DB     DBConfig     `yaml:"db"`
	Search SearchConfig `yaml:"search"`
	HTTP   HTTPConfig   `yaml:"http"`
}

// DBConfig locates the PostGIS database. DSN wins over the individual parts.
type DBConfig struct {
	DSN      string `yaml:"dsn" env:"DB_DSN" validate:"required"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT" validate:"omitempty,min=1,max=65535"`
	Name     string `yaml:"name" env:"DB_NAME"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	MaxConns int32  `yaml:"max_conns" env:"DB_MAX_CONNS" validate:"min=1"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	RadiusMeters        float64 `yaml:"radius_m" env:"SEARCH_RADIUS_M" validate:"gt=0,lte=50000"`
	ProximityMode       string  `yaml:"proximity_mode" env:"PROXIMITY_MODE"`
	DestinationDistrict string  `yaml:"destination_district" env:"DESTINATION_DISTRICT" validate:"required"`
}

// HTTPConfig holds request-layer settings. A zero RateLimitRPS disables rate limiting.
type HTTPConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" validate:"gt=0"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS" validate:"gte=0"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST" validate:"gte=0"`
	CORSOrigins    []string      `yaml:"cors_origins" env:"CORS_ORIGINS"`
}

// Proximity returns the configured proximity mode. Load has already
// rejected unknown modes, so the error is dropped.
func (c *Config) Proximity() geo.Proximity {
	p, _ := geo.ParseProximity(c.Search.ProximityMode)
	return p
}

// Default returns the configuration used before any file or variable is read.
func Default() *Config {
	return &Config{
		Env:      "local",
		LogLevel: "info",
		Port:     8080,
		DB: DBConfig{
			Port:     5432,
			MaxConns: 20,
		},
		Search: SearchConfig{
			RadiusMeters:        150,
			ProximityMode:       geo.Planar.String(),
			DestinationDistrict: "성동구",
		},
		HTTP: HTTPConfig{
			RequestTimeout: 10 * time.Second,
			RateLimitBurst: 20,
		},
	}
}

// Load resolves the configuration. path may be empty.
// Returns a ConfigError for any missing or invalid value.
func Load(path string) (*Config, error) {
	cfg := Default()

	env := strings.TrimSpace(os.Getenv("ENV"))
	if env == "" {
		env = cfg.Env
	}
	if path == "" {
		if candidate := "config." + env + ".yml"; fileExists(candidate) {
			path = candidate
		}
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}
	if cfg.DB.DSN == "" && cfg.DB.Host != "" {
		cfg.DB.DSN = cfg.DB.buildDSN()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Field: "config", Message: err.Error()}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ConfigError{Field: "config", Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return nil
}

func (c *Config) mergeEnv() error {
	var errs []error
	setString(&c.Env, "ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	errs = append(errs, setInt(&c.Port, "PORT"))

	setString(&c.DB.DSN, "DB_DSN")
	setString(&c.DB.Host, "DB_HOST")
	errs = append(errs, setInt(&c.DB.Port, "DB_PORT"))
	setString(&c.DB.Name, "DB_NAME")
	setString(&c.DB.User, "DB_USER")
	setString(&c.DB.Password, "DB_PASSWORD")
	var maxConns int
	if err := setInt(&maxConns, "DB_MAX_CONNS"); err != nil {
		errs = append(errs, err)
	} else if maxConns != 0 {
		c.DB.MaxConns = int32(maxConns)
	}

	errs = append(errs, setFloat(&c.Search.RadiusMeters, "SEARCH_RADIUS_M"))
	setString(&c.Search.ProximityMode, "PROXIMITY_MODE")
	setString(&c.Search.DestinationDistrict, "DESTINATION_DISTRICT")

	errs = append(errs, setDuration(&c.HTTP.RequestTimeout, "REQUEST_TIMEOUT"))
	errs = append(errs, setFloat(&c.HTTP.RateLimitRPS, "RATE_LIMIT_RPS"))
	errs = append(errs, setInt(&c.HTTP.RateLimitBurst, "RATE_LIMIT_BURST"))
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		c.HTTP.CORSOrigins = splitList(raw)
	}
	return errors.Join(errs...)
}

// Validate re-checks every field on an already-constructed Config.
func (c *Config) Validate() error {
	var errs []error
	if err := newValidator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, &ConfigError{Field: fe.Field(), Message: describe(fe)})
		}
	}
	if _, err := geo.ParseProximity(c.Search.ProximityMode); err != nil {
		errs = append(errs, &ConfigError{Field: "PROXIMITY_MODE", Message: err.Error()})
	}
	return errors.Join(errs...)
}

func (d DBConfig) buildDSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	return u.String()
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return v
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required but not set"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return &ConfigError{Field: key, Message: "must be a valid integer"}
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return &ConfigError{Field: key, Message: "must be a valid number"}
	}
	*dst = v
	return nil
}

// setDuration accepts Go duration strings like "10s" or "1m30s".
func setDuration(dst *time.Duration, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return &ConfigError{Field: key, Message: "must be a duration such as 10s"}
	}
	*dst = d
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
