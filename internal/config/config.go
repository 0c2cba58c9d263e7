// Package config provides YAML-based configuration loading for Pressline,
// with PRESSLINE_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PRESSLINE_"

// Config is the top-level Pressline configuration.
type Config struct {
	Log   LogConfig   `yaml:"log"`
	Store StoreConfig `yaml:"store"`
	Redis RedisConfig `yaml:"redis"`
	HTTP  HTTPConfig  `yaml:"http"`
	Flows FlowsConfig `yaml:"flows"`
	Input InputConfig `yaml:"input"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig holds the dialog store connection.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RedisConfig enables cross-replica session locks when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

// HTTPConfig holds the listen address of the HTTP adapter.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// FlowsConfig names the store-backed flows and the files that define flows.
type FlowsConfig struct {
	Persisted []string `yaml:"persisted"`
	Seed      string   `yaml:"seed"`
	Scripts   []string `yaml:"scripts"`
}

// InputConfig bounds user input.
type InputConfig struct {
	MaxSize int `yaml:"max_size"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path (optional), applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse unmarshals YAML bytes into a validated Config without consulting
// the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from PRESSLINE_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("STORE_DRIVER", &c.Store.Driver)
	str("STORE_DSN", &c.Store.DSN)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("HTTP_ADDR", &c.HTTP.Addr)
	str("SEED", &c.Flows.Seed)
	if err := num("REDIS_DB", &c.Redis.DB); err != nil {
		return err
	}
	if err := num("MAX_INPUT_SIZE", &c.Input.MaxSize); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "PERSISTED_FLOWS"); ok {
		c.Flows.Persisted = splitList(v)
	}
	return nil
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.DSN == "" && c.Store.Driver == "sqlite" {
		c.Store.DSN = "pressline.db"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "pressline:"
	}
	if c.Redis.LockTTL == 0 {
		c.Redis.LockTTL = 30 * time.Second
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Flows.Persisted == nil {
		c.Flows.Persisted = []string{"about"}
	}
	if c.Input.MaxSize == 0 {
		c.Input.MaxSize = 4096
	}
}

// validate checks that all fields are consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}
	if c.Store.DSN == "" {
		errs = append(errs, "store.dsn is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not supported", c.Log.Format))
	}
	if c.Input.MaxSize < 0 {
		errs = append(errs, "input.max_size must be positive")
	}
	if c.Redis.LockTTL < 0 {
		errs = append(errs, "redis.lock_ttl must be positive")
	}
	for i, id := range c.Flows.Persisted {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Sprintf("flows.persisted[%d] is empty", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
