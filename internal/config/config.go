package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/garnizeh/jobtrail/pkg/jobsapi"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. JOBTRAIL_API_BASE_URL.
const EnvPrefix = "JOBTRAIL_"

type Config struct {
	API          jobsapi.Config `yaml:"api" envPrefix:"API_"`
	SnapshotPath string         `yaml:"snapshot_path" env:"SNAPSHOT_PATH"`
	Log          LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or text
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		API:          jobsapi.DefaultConfig(),
		SnapshotPath: filepath.Join(getEnv("JOBTRAIL_HOME", defaultHome()), "snapshot.db"),
		Log:          LogConfig{Level: "warn", Format: "text"},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// at path, a .env file in the working directory and JOBTRAIL_* environment
// variables, in that order of precedence (later wins).
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills unset circuit settings and rejects values the client cannot
// work with.
func (c *Config) Validate() error {
	def := jobsapi.DefaultConfig()

	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.Retries < 0 {
		return fmt.Errorf("api.retries must not be negative, got %d", c.API.Retries)
	}
	if c.API.Backoff < 0 {
		return fmt.Errorf("api.backoff must not be negative, got %s", c.API.Backoff)
	}
	if c.API.CircuitFailureThreshold == 0 {
		c.API.CircuitFailureThreshold = def.CircuitFailureThreshold
	}
	if c.API.CircuitReset <= 0 {
		c.API.CircuitReset = def.CircuitReset
	}

	if c.SnapshotPath == "" {
		return errors.New("snapshot_path is required")
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

func defaultHome() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "jobtrail")
	}
	return ".jobtrail"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
