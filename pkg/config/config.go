package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = "gastrack"
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Rental       RentalConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GASTRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"GASTRACK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"GASTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GASTRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"GASTRACK_DB_DSN"`

	Host     string `envconfig:"GASTRACK_DB_HOST"`
	Port     int    `envconfig:"GASTRACK_DB_PORT" default:"5432"`
	User     string `envconfig:"GASTRACK_DB_USER"`
	Password string `envconfig:"GASTRACK_DB_PASSWORD"`
	Name     string `envconfig:"GASTRACK_DB_NAME"`
	SSLMode  string `envconfig:"GASTRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GASTRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GASTRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GASTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GASTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either GASTRACK_DB_DSN or GASTRACK_DB_HOST/USER/NAME must be set")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

// RentalConfig controls the rental window applied when a rental order is
// handed to the customer. The window length is negotiable business input,
// not a fixed rule, so it lives in configuration.
type RentalConfig struct {
	DefaultDurationDays int `envconfig:"GASTRACK_RENTAL_DEFAULT_DURATION_DAYS" default:"30"`
}

func (r RentalConfig) DefaultDuration() time.Duration {
	return time.Duration(r.DefaultDurationDays) * 24 * time.Hour
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GASTRACK_AUTO_MIGRATE" default:"false"`
}
