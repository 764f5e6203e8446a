// Package config loads the fxrates-proxy configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/currency-api-client/pkg/endpoint"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// PathEnv names the variable holding an optional YAML config file.
const PathEnv = "FX_CONFIG_PATH"

// Config is the proxy configuration. Environment variables override values
// read from the YAML file.
type Config struct {
	Port            string        `yaml:"port" env:"PORT" env-default:"8080"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"FX_REQUEST_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"FX_SHUTDOWN_TIMEOUT" env-default:"10s"`

	Log    Log    `yaml:"log"`
	Client Client `yaml:"client"`
	Cache  Cache  `yaml:"cache"`
}

// Log configures pkg/logging.
type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Client configures the upstream client.
type Client struct {
	PreferredEndpoint string        `yaml:"preferred_endpoint" env:"FX_PREFERRED_ENDPOINT" env-default:"jsdelivr"`
	UserAgent         string        `yaml:"user_agent" env:"FX_USER_AGENT"`
	Timeout           time.Duration `yaml:"timeout" env:"FX_TIMEOUT" env-default:"10s"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout" env:"FX_CONNECT_TIMEOUT" env-default:"5s"`
}

// Cache selects the backend: Redis when RedisURL is set, files otherwise.
type Cache struct {
	TTL         time.Duration `yaml:"ttl" env:"FX_CACHE_TTL" env-default:"24h"`
	Dir         string        `yaml:"dir" env:"FX_CACHE_DIR"`
	Namespace   string        `yaml:"namespace" env:"FX_CACHE_NAMESPACE" env-default:"exchange-sdk"`
	RedisURL    string        `yaml:"redis_url" env:"REDIS_URL"`
	RedisPrefix string        `yaml:"redis_prefix" env:"REDIS_PREFIX" env-default:"exchange-sdk:"`
}

// Load reads .env (if present), then the YAML file named by FX_CONFIG_PATH
// (if set), then the environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv(PathEnv), ".env")
}

// LoadFrom is Load with explicit file locations. An empty configPath reads
// the environment only; missing env files are skipped.
func LoadFrom(configPath string, envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("port is required")
	}
	if _, err := endpoint.Parse(c.Client.PreferredEndpoint); err != nil {
		return fmt.Errorf("preferred endpoint: %w", err)
	}
	if c.Client.Timeout < 0 || c.Client.ConnectTimeout < 0 {
		return fmt.Errorf("client timeouts must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Endpoint returns the parsed preferred endpoint. Call after Validate.
func (c *Config) Endpoint() endpoint.Endpoint {
	e, _ := endpoint.Parse(c.Client.PreferredEndpoint)
	return e
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
