package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	errInvalidPort           = errors.New("config: invalid PORT number")
	errConcurrencyOutOfRange = errors.New("config: LINK_CHECK_CONCURRENCY must be 1-100")
	errInvalidTimeout        = errors.New("config: timeouts must be positive")
	errInvalidRateLimit      = errors.New("config: rate limits must not be negative")
	errInvalidLogFormat      = errors.New("config: LOG_FORMAT must be json or text")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port                 string
	LogLevel             string
	LogFormat            string
	LinkCheckConcurrency int
	UserAgent            string
	FetchTimeout         time.Duration
	AnalyzeTimeout       time.Duration
	RobotsCacheTTL       time.Duration
	RateLimitRPS         float64
	RateLimitBurst       int
	ProbeHostRPS         float64 // requests per second to one audited host; 0 disables
	ProbeHostBurst       int
	PolicyFile           string

	// Policy holds the audit threshold overrides read from PolicyFile.
	Policy PolicyOverrides
}

// Load reads configuration from environment variables with sensible defaults.
// When AUDIT_POLICY_FILE is set the YAML file it names is read as well.
func Load() (Config, error) {
	cfg := Config{
		Port:                 getEnv("PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "ERROR"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		LinkCheckConcurrency: getEnvAsInt("LINK_CHECK_CONCURRENCY", 10),
		UserAgent:            getEnv("USER_AGENT", "SEOAuditBot/1.0 (+https://github.com/Bahjat/seo-audit)"),
		FetchTimeout:         getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
		AnalyzeTimeout:       getEnvAsDuration("ANALYZE_TIMEOUT", 60*time.Second),
		RobotsCacheTTL:       getEnvAsDuration("ROBOTS_CACHE_TTL", 10*time.Minute),
		RateLimitRPS:         getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:       getEnvAsInt("RATE_LIMIT_BURST", 5),
		ProbeHostRPS:         getEnvAsFloat("PROBE_HOST_RPS", 10),
		ProbeHostBurst:       getEnvAsInt("PROBE_HOST_BURST", 5),
		PolicyFile:           getEnv("AUDIT_POLICY_FILE", ""),
	}

	if cfg.PolicyFile != "" {
		policy, err := LoadPolicyFile(cfg.PolicyFile)
		if err != nil {
			return cfg, err
		}
		cfg.Policy = policy
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.LinkCheckConcurrency < 1 || c.LinkCheckConcurrency > 100 {
		return fmt.Errorf("%w: got %d", errConcurrencyOutOfRange, c.LinkCheckConcurrency)
	}

	if c.FetchTimeout <= 0 || c.AnalyzeTimeout <= 0 || c.RobotsCacheTTL <= 0 {
		return errInvalidTimeout
	}

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 || c.ProbeHostRPS < 0 || c.ProbeHostBurst < 0 {
		return errInvalidRateLimit
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("%w: %q", errInvalidLogFormat, c.LogFormat)
	}

	return c.Policy.validate()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsFloat(key string, fallback float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return v
}
