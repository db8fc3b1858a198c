package config

import (
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/voyagen/tvlistings/internal/models"
)

// Defaults applied when neither the file nor the environment set a value.
const (
	DefaultPath       = "config.yaml"
	DefaultUserAgent  = "TVListings/1.0"
	DefaultTimeout    = 5 * time.Second
	DefaultCookieFile = "cookies.json"
	DefaultTimezone   = "Europe/Paris"
	DefaultLogLevel   = "info"
)

var (
	ErrMissingDatabaseURL = errors.New("database_url (or database.host) is required")
	ErrNoProviders        = errors.New("at least one provider is required")
	ErrUnknownProvider    = errors.New("unknown provider column")
)

// Config holds the refresh job configuration.
type Config struct {
	DatabaseURL     string
	RedisURL        string
	PushgatewayURL  string
	UserAgent       string
	Timeout         time.Duration
	RequestInterval time.Duration
	CookieFile      string
	Location        *time.Location
	LogLevel        string
	// Providers keeps the order of the config file.
	Providers []models.ProviderSource
}

// Load reads the YAML file named by TVLISTINGS_CONFIG (default config.yaml) and
// applies environment overrides. If DATABASE_URL is not set, Load first tries
// .env.local and .env from the current directory.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	path := os.Getenv("TVLISTINGS_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return LoadFromFile(path)
}

// applyEnv overrides file values with the environment. Malformed durations are ignored.
func (c *Config) applyEnv() {
	if s := os.Getenv("DATABASE_URL"); s != "" {
		c.DatabaseURL = s
	}
	if s := os.Getenv("REDIS_URL"); s != "" {
		c.RedisURL = s
	}
	if s := os.Getenv("PUSHGATEWAY_URL"); s != "" {
		c.PushgatewayURL = s
	}
	if s := os.Getenv("FETCHER_USER_AGENT"); s != "" {
		c.UserAgent = s
	}
	if s := os.Getenv("FETCHER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		c.LogLevel = s
	}
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if len(c.Providers) == 0 {
		return ErrNoProviders
	}
	return nil
}
