/*
Package config loads service configuration.

SOURCES (later wins):
  1. Defaults below
  2. Config file (YAML or JSON), when a path is given
  3. Environment variables prefixed REVENUE_ (REVENUE_DB_DRIVER, ...)
  4. Command-line flags bound by cmd/server

KEYS:
  port                int       HTTP port                       8080
  db_driver           string    sqlite | postgres | memory      sqlite
  db_path             string    SQLite file                     revenue.db
  postgres_dsn        string    PostgreSQL connection string
  scheduler_enabled   bool      run the cancellation scheduler  true
  scheduler_interval  duration  time between sweeps             15m
  sweep_workers       int       concurrent cancellations        4
  payment_timeout     duration  pending -> cancelled window     1h
  extended_timeout    duration  second timeout window           24h
  allowed_origins     []string  CORS origins                    localhost dev servers
  tax_rate            float     quote tax rate, in (0, 1)       0.12
  service_fee_rate    float     quote service fee rate, (0, 1)  0.05

SEE ALSO:
  - cmd/server/main.go: flag binding
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const EnvPrefix = "REVENUE"

type Config struct {
	Port              int           `mapstructure:"port"`
	DBDriver          string        `mapstructure:"db_driver"`
	DBPath            string        `mapstructure:"db_path"`
	PostgresDSN       string        `mapstructure:"postgres_dsn"`
	SchedulerEnabled  bool          `mapstructure:"scheduler_enabled"`
	SchedulerInterval time.Duration `mapstructure:"scheduler_interval"`
	SweepWorkers      int           `mapstructure:"sweep_workers"`
	PaymentTimeout    time.Duration `mapstructure:"payment_timeout"`
	ExtendedTimeout   time.Duration `mapstructure:"extended_timeout"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	TaxRate           float64       `mapstructure:"tax_rate"`
	ServiceFeeRate    float64       `mapstructure:"service_fee_rate"`
}

// SetDefaults registers every key so that environment variables are
// picked up by Unmarshal even when no file mentions them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_path", "revenue.db")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("scheduler_interval", "15m")
	v.SetDefault("sweep_workers", 4)
	v.SetDefault("payment_timeout", "1h")
	v.SetDefault("extended_timeout", "24h")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("tax_rate", 0.12)
	v.SetDefault("service_fee_rate", 0.05)
}

// Load reads cfgFile (optional) into v and decodes the result.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	decoderConfigOption := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&cfg, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("config: db_path is required for sqlite")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("config: postgres_dsn is required for postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown db_driver %q (want sqlite, postgres or memory)", c.DBDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.SchedulerEnabled && c.SchedulerInterval <= 0 {
		return fmt.Errorf("config: scheduler_interval must be positive")
	}
	if c.SweepWorkers < 1 {
		return fmt.Errorf("config: sweep_workers must be at least 1")
	}
	if c.PaymentTimeout <= 0 || c.ExtendedTimeout <= 0 {
		return fmt.Errorf("config: cancellation timeouts must be positive")
	}
	// The quote aggregator reads a zero rate as "use the default", so zero
	// cannot be configured.
	if c.TaxRate <= 0 || c.TaxRate >= 1 || c.ServiceFeeRate <= 0 || c.ServiceFeeRate >= 1 {
		return fmt.Errorf("config: tax_rate and service_fee_rate must be in (0, 1)")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
