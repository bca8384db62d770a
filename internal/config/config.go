package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	AppPort string `yaml:"app_port"`
	LogMode string `yaml:"log_mode"`

	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`

	TracesStdout bool `yaml:"traces_stdout"`
}

type StorageConfig struct {
	Driver      string        `yaml:"driver"`
	Key         string        `yaml:"key"`
	SQLitePath  string        `yaml:"sqlite_path"`
	MySQLDSN    string        `yaml:"mysql_dsn"`
	PostgresDSN string        `yaml:"pg_dsn"`
	RedisAddr   string        `yaml:"redis_addr"`
	LoadTimeout time.Duration `yaml:"load_timeout"`
	SaveTimeout time.Duration `yaml:"save_timeout"`
}

// AuthConfig enables bearer-token checks on the cart API when TokenSecret is set.
type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

func Default() Config {
	return Config{
		AppPort: "8080",
		LogMode: "dev",
		Storage: StorageConfig{
			Driver:      DriverSQLite,
			Key:         "gomarket:cart:products",
			SQLitePath:  "cart.db",
			LoadTimeout: 10 * time.Second,
			SaveTimeout: 5 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 30 * 24 * time.Hour,
		},
	}
}

// Load layers defaults, the YAML file named by CART_CONFIG_FILE (if any) and
// environment variables, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CART_CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.AppPort = getenv("APP_PORT", cfg.AppPort)
	cfg.LogMode = getenv("LOG_MODE", cfg.LogMode)
	cfg.Storage.Driver = strings.ToLower(getenv("CART_STORAGE_DRIVER", cfg.Storage.Driver))
	cfg.Storage.Key = getenv("CART_STORAGE_KEY", cfg.Storage.Key)
	cfg.Storage.SQLitePath = getenv("SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.MySQLDSN = getenv("MYSQL_DSN", cfg.Storage.MySQLDSN)
	cfg.Storage.PostgresDSN = getenv("PG_DSN", cfg.Storage.PostgresDSN)
	cfg.Storage.RedisAddr = getenv("REDIS_ADDR", cfg.Storage.RedisAddr)
	cfg.Auth.TokenSecret = getenv("CART_TOKEN_SECRET", cfg.Auth.TokenSecret)

	var err error
	if cfg.Storage.LoadTimeout, err = getenvDuration("CART_LOAD_TIMEOUT", cfg.Storage.LoadTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Storage.SaveTimeout, err = getenvDuration("CART_SAVE_TIMEOUT", cfg.Storage.SaveTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Auth.TokenTTL, err = getenvDuration("CART_TOKEN_TTL", cfg.Auth.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.TracesStdout, err = getenvBool("OTEL_TRACES_STDOUT", cfg.TracesStdout); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("app port required")
	}
	if c.Storage.Key == "" {
		return errors.New("storage key required")
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("sqlite driver requires SQLITE_PATH")
		}
	case DriverMySQL:
		if c.Storage.MySQLDSN == "" {
			return errors.New("mysql driver requires MYSQL_DSN")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("postgres driver requires PG_DSN")
		}
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("redis driver requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	return nil
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func getenvBool(k string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}
