package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application level configuration. Values come from an optional
// YAML file and are then overridden by environment variables.
type Config struct {
	AppEnv      string         `yaml:"app_env"`
	ServerPort  string         `yaml:"server_port"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
	Auth        AuthConfig     `yaml:"auth"`
	SwaggerHost string         `yaml:"swagger_host"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // mysql or postgres
	DSN    string `yaml:"dsn"`
	Reset  bool   `yaml:"reset"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	BcryptCost   int           `yaml:"bcrypt_cost"`
	CookieName   string        `yaml:"cookie_name"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

// Defaults returns the configuration used when nothing is set.
// JWTSecret has no default on purpose; Validate rejects it when empty.
func Defaults() *Config {
	return &Config{
		AppEnv:     "local",
		ServerPort: "8080",
		Database: DatabaseConfig{
			Driver: "mysql",
			DSN:    "user:password@tcp(localhost:3306)/todos?charset=utf8mb4&parseTime=True&loc=Local",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Auth: AuthConfig{
			TokenTTL:   20 * time.Minute,
			BcryptCost: 10,
			CookieName: "access_token",
		},
	}
}

// Load builds Config from the YAML file at path (skipped when path is empty)
// and the environment. CONFIG_FILE is used when path is empty.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that must abort startup.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.CookieName == "" {
		return errors.New("auth cookie name is empty")
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// IsProduction reports whether the app runs in a production environment.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func overrideWithEnv(cfg *Config) error {
	cfg.AppEnv = getEnv(EnvAppEnv, cfg.AppEnv)
	cfg.ServerPort = getEnv(EnvServerPort, cfg.ServerPort)

	cfg.Database.Driver = getEnv(EnvDBDriver, cfg.Database.Driver)
	cfg.Database.DSN = getEnv(EnvDatabaseDSN, getEnv(EnvMySQLDSN, cfg.Database.DSN))
	cfg.Database.Reset = getEnvBool(EnvResetDB, cfg.Database.Reset)

	cfg.Redis.Addr = getEnv(EnvRedisAddr, cfg.Redis.Addr)
	cfg.Redis.Password = getEnv(EnvRedisPassword, cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt(EnvRedisDB, cfg.Redis.DB)

	cfg.Auth.JWTSecret = getEnv(EnvJWTSecret, cfg.Auth.JWTSecret)
	cfg.Auth.BcryptCost = getEnvInt(EnvBcryptCost, cfg.Auth.BcryptCost)
	cfg.Auth.CookieName = getEnv(EnvCookieName, cfg.Auth.CookieName)
	cfg.Auth.CookieSecure = getEnvBool(EnvCookieSecure, cfg.Auth.CookieSecure)
	if v := os.Getenv(EnvTokenTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTokenTTL, err)
		}
		cfg.Auth.TokenTTL = ttl
	}

	cfg.SwaggerHost = getEnv(EnvSwaggerHost, cfg.SwaggerHost)
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
