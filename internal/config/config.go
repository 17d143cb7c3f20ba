package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when neither a flag nor FUNDLEDGER_CONFIG is set.
const DefaultConfigPath = "config.yaml"

// AppConfig carries process-level options supplied on the command line.
type AppConfig struct {
	ConfigPath string
}

// Config is the on-disk service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	AutoPayout AutoPayoutConfig `yaml:"auto-payout"`
	Outbox     OutboxConfig     `yaml:"outbox"`
	Profit     ProfitConfig     `yaml:"profit"`
	Bootstrap  BootstrapConfig  `yaml:"bootstrap"`
}

// ServerConfig configures the admin HTTP listener.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// DatabaseConfig configures the record store connection.
type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max-open-conns"`
	MaxIdleConns    int    `yaml:"max-idle-conns"`
	ConnMaxLifetime string `yaml:"conn-max-lifetime"`
}

// JWTConfig configures admin token signing.
type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry-hours"`
}

// Expiry returns the token lifetime.
func (c JWTConfig) Expiry() time.Duration {
	if c.ExpiryHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.ExpiryHours) * time.Hour
}

// RedisConfig enables the distributed wallet lock when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig configures logrus output.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// AutoPayoutConfig configures the scheduled monthly profit payout.
type AutoPayoutConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval-minutes"`
}

// Interval returns how often the auto payout runner wakes up.
func (c AutoPayoutConfig) Interval() time.Duration {
	if c.IntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// OutboxConfig configures notification delivery.
type OutboxConfig struct {
	IntervalSeconds int `yaml:"interval-seconds"`
	BatchSize       int `yaml:"batch-size"`
	MaxAttempts     int `yaml:"max-attempts"`
}

// ProfitConfig configures manual profit distribution.
type ProfitConfig struct {
	MaxConcurrency int `yaml:"max-concurrency"`
}

// BootstrapConfig seeds the first super admin on an empty database.
type BootstrapConfig struct {
	AdminUsername string `yaml:"admin-username"`
	AdminPassword string `yaml:"admin-password"`
}

// ResolveConfigPath picks the config path from the flag, the environment or the default.
func ResolveConfigPath(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv("FUNDLEDGER_CONFIG")); env != "" {
		return env
	}
	return DefaultConfigPath
}

// ConfigExists reports whether a config file exists at path.
func ConfigExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the YAML file at path, applies environment overrides and defaults.
// A missing file is not an error; the environment alone may configure the service.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, errRead := os.ReadFile(path)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// LoadDatabaseDSN loads only the database DSN, failing when none is configured.
func LoadDatabaseDSN(path string) (string, error) {
	cfg, err := Load(path)
	if err != nil {
		return "", err
	}
	dsn := strings.TrimSpace(cfg.Database.DSN)
	if dsn == "" {
		return "", errors.New("config: database dsn is required")
	}
	return dsn, nil
}

// Validate checks the settings required to serve the admin API.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn is required")
	}
	if len(strings.TrimSpace(c.JWT.Secret)) < 16 {
		return errors.New("config: jwt secret must be at least 16 characters")
	}
	if c.Database.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Database.ConnMaxLifetime); err != nil {
			return fmt.Errorf("config: invalid conn-max-lifetime: %w", err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"FUNDLEDGER_DATABASE_DSN", &cfg.Database.DSN},
		{"FUNDLEDGER_JWT_SECRET", &cfg.JWT.Secret},
		{"FUNDLEDGER_REDIS_ADDR", &cfg.Redis.Addr},
		{"FUNDLEDGER_REDIS_PASSWORD", &cfg.Redis.Password},
		{"FUNDLEDGER_LISTEN", &cfg.Server.Listen},
		{"FUNDLEDGER_LOG_LEVEL", &cfg.Logging.Level},
	}
	for _, o := range overrides {
		if value, ok := os.LookupEnv(o.key); ok && strings.TrimSpace(value) != "" {
			*o.target = strings.TrimSpace(value)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = 50
	}
	if cfg.Logging.MaxBackups <= 0 {
		cfg.Logging.MaxBackups = 5
	}
	if cfg.Logging.MaxAgeDays <= 0 {
		cfg.Logging.MaxAgeDays = 30
	}
	if cfg.Outbox.IntervalSeconds <= 0 {
		cfg.Outbox.IntervalSeconds = 5
	}
	if cfg.Outbox.BatchSize <= 0 {
		cfg.Outbox.BatchSize = 100
	}
	if cfg.Outbox.MaxAttempts <= 0 {
		cfg.Outbox.MaxAttempts = 10
	}
	if cfg.Profit.MaxConcurrency <= 0 {
		cfg.Profit.MaxConcurrency = 4
	}
}
