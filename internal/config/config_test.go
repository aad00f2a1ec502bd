package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/garnizeh/jobtrail/internal/config"
	"github.com/garnizeh/jobtrail/pkg/jobsapi"
)

func validConfig() *config.Config {
	return &config.Config{
		API:          jobsapi.DefaultConfig(),
		SnapshotPath: "snapshot.db",
		Log:          config.LogConfig{Level: "info", Format: "json"},
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return p
}

func TestValidate_EmptyBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.API.BaseURL = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail when api.base_url is empty")
	}
}

func TestValidate_BadBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.API.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for relative api.base_url")
	}
}

func TestValidate_NonPositiveTimeout(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		cfg := validConfig()
		cfg.API.Timeout = d
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected Validate to fail for timeout %v", d)
		}
	}
}

func TestValidate_NegativeRetries(t *testing.T) {
	cfg := validConfig()
	cfg.API.Retries = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for negative retries")
	}
}

func TestValidate_CircuitDefaultsPopulated(t *testing.T) {
	cfg := validConfig()
	cfg.API.CircuitFailureThreshold = 0
	cfg.API.CircuitReset = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed unexpectedly: %v", err)
	}

	def := jobsapi.DefaultConfig()
	if cfg.API.CircuitFailureThreshold != def.CircuitFailureThreshold {
		t.Fatalf("expected threshold default %d, got %d", def.CircuitFailureThreshold, cfg.API.CircuitFailureThreshold)
	}
	if cfg.API.CircuitReset != def.CircuitReset {
		t.Fatalf("expected reset default %v, got %v", def.CircuitReset, cfg.API.CircuitReset)
	}
}

func TestValidate_Log(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for log format xml")
	}

	cfg = validConfig()
	cfg.Log.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for log level verbose")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JOBTRAIL_HOME", "/tmp/jobtrail-home")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}

	def := jobsapi.DefaultConfig()
	if cfg.API.BaseURL != def.BaseURL {
		t.Fatalf("unexpected BaseURL: got %q want %q", cfg.API.BaseURL, def.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("unexpected Timeout: got %v want %v", cfg.API.Timeout, 15*time.Second)
	}
	if cfg.API.Retries != def.Retries {
		t.Fatalf("unexpected Retries: got %d want %d", cfg.API.Retries, def.Retries)
	}
	if want := filepath.Join("/tmp/jobtrail-home", "snapshot.db"); cfg.SnapshotPath != want {
		t.Fatalf("unexpected SnapshotPath: got %q want %q", cfg.SnapshotPath, want)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Fatalf("unexpected Log: %#v", cfg.Log)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	p := writeFile(t, "api:\n"+
		"  base_url: \"https://tracker.example.com/api\"\n"+
		"  token: \"filetoken\"\n"+
		"  timeout: \"30s\"\n"+
		"  retries: 4\n"+
		"  backoff: \"1s\"\n"+
		"snapshot_path: \"test.db\"\n"+
		"log:\n  level: debug\n  format: json\n")

	cfg, err := config.LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig returned error for file: %v", err)
	}

	if cfg.API.BaseURL != "https://tracker.example.com/api" {
		t.Fatalf("unexpected BaseURL: got %q", cfg.API.BaseURL)
	}
	if cfg.API.Token != "filetoken" {
		t.Fatalf("unexpected Token: got %q", cfg.API.Token)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Fatalf("unexpected Timeout: got %v want %v", cfg.API.Timeout, 30*time.Second)
	}
	if cfg.API.Retries != 4 || cfg.API.Backoff != time.Second {
		t.Fatalf("unexpected retry settings: %d %v", cfg.API.Retries, cfg.API.Backoff)
	}
	// keys absent from the file keep their defaults
	if cfg.API.CircuitReset != jobsapi.DefaultConfig().CircuitReset {
		t.Fatalf("unexpected CircuitReset: got %v", cfg.API.CircuitReset)
	}
	if cfg.SnapshotPath != "test.db" {
		t.Fatalf("unexpected SnapshotPath: got %q", cfg.SnapshotPath)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected Log: %#v", cfg.Log)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	p := writeFile(t, "api:\n  base_url: \"https://file.example.com\"\n  retries: 4\n")
	t.Setenv("JOBTRAIL_API_BASE_URL", "https://env.example.com")
	t.Setenv("JOBTRAIL_API_TOKEN", "envtoken")
	t.Setenv("JOBTRAIL_API_TIMEOUT", "5s")
	t.Setenv("JOBTRAIL_SNAPSHOT_PATH", "env.db")
	t.Setenv("JOBTRAIL_LOG_LEVEL", "error")

	cfg, err := config.LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.API.BaseURL != "https://env.example.com" {
		t.Fatalf("expected env BaseURL, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Token != "envtoken" {
		t.Fatalf("expected env Token, got %q", cfg.API.Token)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Fatalf("expected env Timeout, got %v", cfg.API.Timeout)
	}
	if cfg.API.Retries != 4 {
		t.Fatalf("expected file Retries to survive, got %d", cfg.API.Retries)
	}
	if cfg.SnapshotPath != "env.db" || cfg.Log.Level != "error" {
		t.Fatalf("unexpected env overrides: %q %q", cfg.SnapshotPath, cfg.Log.Level)
	}
}

func TestLoadConfig_BadEnv(t *testing.T) {
	t.Setenv("JOBTRAIL_API_RETRIES", "many")
	if _, err := config.LoadConfig(""); err == nil {
		t.Fatalf("expected error for non-numeric retries")
	}
}

func TestLoadConfig_InvalidAfterMerge(t *testing.T) {
	p := writeFile(t, "api:\n  timeout: \"-1s\"\n")
	if _, err := config.LoadConfig(p); err == nil {
		t.Fatalf("expected validation error for negative timeout")
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	p := writeFile(t, "::: not yaml :::")
	if _, err := config.LoadConfig(p); err == nil {
		t.Fatalf("expected error for bad yaml, got nil")
	}
}
