package common

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "1500ms" or "2m", or from plain integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config carries the tunables for a Giftify API client. All fields have
// sensible defaults, so an empty Config (or a partial YAML file) works.
type Config struct {
	// BaseURL is the Giftify backend root, e.g. "https://api.giftify.app".
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`

	Cache struct {
		// DefaultTTL controls how long GET responses stay cached.
		DefaultTTL Duration `yaml:"default_ttl"`
		// RedisAddr, when set, selects the Redis cache backend.
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
	} `yaml:"cache"`

	Checkout struct {
		// ProcessingDelay simulates payment settlement before the order
		// detail is fetched.
		ProcessingDelay Duration `yaml:"processing_delay"`
		// FetchAttempts is the retry budget per fetching phase.
		FetchAttempts int      `yaml:"fetch_attempts"`
		BackoffBase   Duration `yaml:"backoff_base"`
		BackoffCap    Duration `yaml:"backoff_cap"`
	} `yaml:"checkout"`
}

// Defaults mirrored from the production web client.
const (
	DefaultUserAgent       = "giftapi/1.0"
	DefaultCacheTTL        = 5 * time.Minute
	DefaultProcessingDelay = 1500 * time.Millisecond
	DefaultFetchAttempts   = 3
	DefaultBackoffBase     = 1 * time.Second
	DefaultBackoffCap      = 5 * time.Second
)

// LoadConfig reads a YAML config file and fills in defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Cache.DefaultTTL == 0 {
		c.Cache.DefaultTTL = Duration(DefaultCacheTTL)
	}
	if c.Checkout.ProcessingDelay == 0 {
		c.Checkout.ProcessingDelay = Duration(DefaultProcessingDelay)
	}
	if c.Checkout.FetchAttempts == 0 {
		c.Checkout.FetchAttempts = DefaultFetchAttempts
	}
	if c.Checkout.BackoffBase == 0 {
		c.Checkout.BackoffBase = Duration(DefaultBackoffBase)
	}
	if c.Checkout.BackoffCap == 0 {
		c.Checkout.BackoffCap = Duration(DefaultBackoffCap)
	}
}
