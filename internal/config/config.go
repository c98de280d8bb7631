// Package config loads the application configuration from defaults,
// command-line flags and environment variables, in that priority order
// (environment wins). A .env file is honored when present.
package config

import (
	"flag"
	"log"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the linktrack service.
type Config struct {
	RunAddr              string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel             string        `env:"LOG_LEVEL" validate:"loglevel"`
	DBFileName           string        `env:"FILE_STORAGE_PATH"`
	DatabaseDSN          string        `env:"DATABASE_DSN"`
	DBConnectionTimeout  time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	MigrationsDir        string        `env:"MIGRATIONS_DIR"`
	PlausibleAPIBase     string        `env:"PLAUSIBLE_API_BASE" validate:"url"`
	PlausibleSiteID      string        `env:"PLAUSIBLE_SITE_ID"`
	PlausibleAPIKey      string        `env:"PLAUSIBLE_API_KEY"`
	StatsRequestTimeout  time.Duration `env:"STATS_REQUEST_TIMEOUT"`
	SyncConcurrencyLimit int           `env:"SYNC_CONCURRENCY_LIMIT" validate:"gt=0"`
	RefreshInterval      time.Duration `env:"REFRESH_INTERVAL"`
}

var defaultConfig = Config{
	RunAddr:              ":4000",
	LogLevel:             "info",
	DBFileName:           "",
	DatabaseDSN:          "",
	DBConnectionTimeout:  10 * time.Second,
	MigrationsDir:        "migrations",
	PlausibleAPIBase:     "https://plausible.io",
	PlausibleSiteID:      "",
	PlausibleAPIKey:      "",
	StatsRequestTimeout:  10 * time.Second,
	SyncConcurrencyLimit: 8,
	RefreshInterval:      0,
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

// InitOption customizes the behavior of New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing disables command-line flag parsing.
// It is intended for tests, where the flag set is owned by the test binary.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func applyDefaults(target *Config, defaults Config) {
	*target = defaults
}

func applyEnvOverrides(target *Config, fromEnv Config) {
	if fromEnv.RunAddr != "" {
		target.RunAddr = fromEnv.RunAddr
	}
	if fromEnv.LogLevel != "" {
		target.LogLevel = fromEnv.LogLevel
	}
	if fromEnv.DBFileName != "" {
		target.DBFileName = fromEnv.DBFileName
	}
	if fromEnv.DatabaseDSN != "" {
		target.DatabaseDSN = fromEnv.DatabaseDSN
	}
	if fromEnv.DBConnectionTimeout != 0 {
		target.DBConnectionTimeout = fromEnv.DBConnectionTimeout
	}
	if fromEnv.MigrationsDir != "" {
		target.MigrationsDir = fromEnv.MigrationsDir
	}
	if fromEnv.PlausibleAPIBase != "" {
		target.PlausibleAPIBase = fromEnv.PlausibleAPIBase
	}
	if fromEnv.PlausibleSiteID != "" {
		target.PlausibleSiteID = fromEnv.PlausibleSiteID
	}
	if fromEnv.PlausibleAPIKey != "" {
		target.PlausibleAPIKey = fromEnv.PlausibleAPIKey
	}
	if fromEnv.StatsRequestTimeout != 0 {
		target.StatsRequestTimeout = fromEnv.StatsRequestTimeout
	}
	if fromEnv.SyncConcurrencyLimit != 0 {
		target.SyncConcurrencyLimit = fromEnv.SyncConcurrencyLimit
	}
	if fromEnv.RefreshInterval != 0 {
		target.RefreshInterval = fromEnv.RefreshInterval
	}
}

// New builds a validated Config from defaults, flags and environment.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	cfg := &Config{}
	applyDefaults(cfg, defaultConfig)

	if !options.disableFlagsParsing {
		flag.StringVar(&cfg.RunAddr, "a", cfg.RunAddr, "address and port to run server")
		flag.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "logger level")
		flag.StringVar(&cfg.DBFileName, "f", cfg.DBFileName, "JSON file name with database")
		flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "a string with the database connection details")
		flag.StringVar(&cfg.MigrationsDir, "m", cfg.MigrationsDir, "directory with goose migrations")
		flag.StringVar(&cfg.PlausibleSiteID, "s", cfg.PlausibleSiteID, "Plausible site ID the tracked URLs belong to")
		flag.IntVar(&cfg.SyncConcurrencyLimit, "c", cfg.SyncConcurrencyLimit, "max concurrent stats requests per sync pass")
		flag.DurationVar(&cfg.RefreshInterval, "r", cfg.RefreshInterval, "background refresh period, 0 disables")
		flag.Parse()
	}

	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg, fromEnv)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
