package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "ANALYTICS"

// Settings is read from ANALYTICS_* environment variables.
type Settings struct {
	Port     string `envconfig:"PORT" default:"8080"`
	DBPath   string `envconfig:"DB_PATH" default:"analytics.db"`
	JSONPath string `envconfig:"JSON_PATH"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheBackend  string        `envconfig:"CACHE_BACKEND" default:"bigcache"`
	ChartCacheTTL time.Duration `envconfig:"CHART_CACHE_TTL" default:"1m"`

	UnsafePassword string `envconfig:"UNSAFE_PASSWORD"`
	TrackingKey    string `envconfig:"TRACKING_KEY"`

	BatchMode      string        `envconfig:"BATCH_MODE" default:"time"`
	BatchThreshold int           `envconfig:"BATCH_THRESHOLD" default:"50"`
	BatchInterval  time.Duration `envconfig:"BATCH_INTERVAL" default:"2s"`
	PersistEvery   time.Duration `envconfig:"PERSIST_INTERVAL" default:"30s"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	RateLimit       int64         `envconfig:"RATE_LIMIT" default:"600"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitMode   string        `envconfig:"RATE_LIMIT_MODE" default:"fixed"`

	LogDir    string `envconfig:"LOG_DIR"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func LoadSettings() (*Settings, error) {
	var s Settings
	if err := envconfig.Process(envPrefix, &s); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	switch s.CacheBackend {
	case "bigcache", "redis", "none":
	default:
		return fmt.Errorf("unknown cache backend %q", s.CacheBackend)
	}
	switch s.BatchMode {
	case "time", "count":
	default:
		return fmt.Errorf("unknown batch mode %q", s.BatchMode)
	}
	switch s.RateLimitMode {
	case "fixed", "sliding", "token", "leaky", "off":
	default:
		return fmt.Errorf("unknown rate limit mode %q", s.RateLimitMode)
	}
	return nil
}

// Password returns the dashboard password, nil when the dashboard is public.
func (s *Settings) Password() *string {
	if s.UnsafePassword == "" {
		return nil
	}
	p := s.UnsafePassword
	return &p
}
