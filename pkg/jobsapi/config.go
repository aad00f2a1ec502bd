package jobsapi

import "time"

// Config holds settings for the job store REST client.
type Config struct {
	// BaseURL is the API root, e.g. https://tracker.example.com/api
	BaseURL string `yaml:"base_url" json:"base_url" env:"BASE_URL"`
	// Token is sent as a bearer token when set
	Token string `yaml:"token" json:"-" env:"TOKEN"`
	// Timeout is the per-request timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout" env:"TIMEOUT"`
	// Retries is the number of extra attempts for idempotent requests
	Retries int `yaml:"retries" json:"retries" env:"RETRIES"`
	// Backoff is the base backoff between retries, grown linearly per attempt
	Backoff time.Duration `yaml:"backoff" json:"backoff" env:"BACKOFF"`
	// CircuitFailureThreshold opens the circuit after this many consecutive failures
	CircuitFailureThreshold int `yaml:"circuit_failure_threshold" json:"circuit_failure_threshold" env:"CIRCUIT_FAILURE_THRESHOLD"`
	// CircuitReset is how long the circuit stays open before a half-open attempt
	CircuitReset time.Duration `yaml:"circuit_reset" json:"circuit_reset" env:"CIRCUIT_RESET"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:                 "http://localhost:3000",
		Timeout:                 15 * time.Second,
		Retries:                 2,
		Backoff:                 300 * time.Millisecond,
		CircuitFailureThreshold: 5,
		CircuitReset:            30 * time.Second,
	}
}
