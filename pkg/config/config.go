package config

import (
	"net/url"
	"os"
	"strconv"
	"time"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for verifier configuration
const (
	EnvAPIURL        = "OSVERIFY_API_URL"
	EnvCacheBackend  = "OSVERIFY_CACHE"
	EnvCachePath     = "OSVERIFY_CACHE_PATH"
	EnvRedisAddress  = "OSVERIFY_REDIS_ADDRESS"
	EnvRedisPassword = "OSVERIFY_REDIS_PASSWORD"
	EnvLeavesOnly    = "OSVERIFY_LEAVES_ONLY"
	EnvDebug         = "OSVERIFY_DEBUG"
)

// CacheBackend selects where fetched commitments are cached.
type CacheBackend string

func (c CacheBackend) String() string {
	return string(c)
}

const (
	CacheNone   CacheBackend = "none"
	CacheMemory CacheBackend = "memory"
	CacheBadger CacheBackend = "badger"
	CacheRedis  CacheBackend = "redis"
)

var supportedCacheBackends = []CacheBackend{CacheNone, CacheMemory, CacheBadger, CacheRedis}

// Config represents the complete configuration for a verification run.
type Config struct {
	// APIURL is the esplora-compatible blockchain API root.
	APIURL string `json:"api_url"`

	// RequestTimeout bounds each ledger lookup.
	RequestTimeout time.Duration `json:"request_timeout"`

	// Cache settings
	CacheBackend  CacheBackend `json:"cache_backend"`
	CachePath     string       `json:"cache_path,omitempty"`     // badger data directory
	RedisAddress  string       `json:"redis_address,omitempty"`  // host:port
	RedisPassword string       `json:"redis_password,omitempty"` // optional

	// LeavesOnly restricts the membership check to leaf nodes.
	LeavesOnly bool `json:"leaves_only"`

	// Debug enables verbose logging.
	Debug bool `json:"debug"`
}

// Default returns the default configuration: public Blockstream API,
// no caching.
func Default() *Config {
	return &Config{
		APIURL:         "https://blockstream.info/api",
		RequestTimeout: 30 * time.Second,
		CacheBackend:   CacheNone,
	}
}

// FromEnvironment builds a configuration from defaults overridden by
// OSVERIFY_* environment variables.
func FromEnvironment() *Config {
	cfg := Default()

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv(EnvCacheBackend); v != "" {
		cfg.CacheBackend = CacheBackend(v)
	}
	if v := os.Getenv(EnvCachePath); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv(EnvRedisAddress); v != "" {
		cfg.RedisAddress = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv(EnvLeavesOnly); v != "" {
		cfg.LeavesOnly, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv(EnvDebug); v != "" {
		cfg.Debug, _ = strconv.ParseBool(v)
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var allErrors field.ErrorList

	if c.APIURL == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("apiUrl"), "blockchain API URL is required"))
	} else if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		allErrors = append(allErrors, field.Invalid(field.NewPath("apiUrl"), c.APIURL, "must be a valid http(s) URL"))
	}

	if c.RequestTimeout <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("requestTimeout"), c.RequestTimeout.String(), "must be positive"))
	}

	switch c.CacheBackend {
	case CacheNone, CacheMemory:
	case CacheBadger:
		if c.CachePath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("cachePath"), "badger cache requires a data directory"))
		}
	case CacheRedis:
		if c.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redisAddress"), "redis cache requires a server address"))
		}
	default:
		supported := make([]string, 0, len(supportedCacheBackends))
		for _, b := range supportedCacheBackends {
			supported = append(supported, b.String())
		}
		allErrors = append(allErrors, field.NotSupported(field.NewPath("cacheBackend"), c.CacheBackend.String(), supported))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
