package config

import (
	"net/url"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // timezone names must resolve on minimal images

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/voyagen/tvlistings/internal/models"
)

type databaseBlock struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type fileConfig struct {
	DatabaseURL     string        `yaml:"database_url"`
	Database        databaseBlock `yaml:"database"`
	RedisURL        string        `yaml:"redis_url"`
	PushgatewayURL  string        `yaml:"pushgateway_url"`
	UserAgent       string        `yaml:"user_agent"`
	Timeout         string        `yaml:"timeout"`
	RequestInterval string        `yaml:"request_interval"`
	CookieFile      string        `yaml:"cookie_file"`
	Timezone        string        `yaml:"timezone"`
	LogLevel        string        `yaml:"log_level"`
	// Providers is decoded by hand to keep the file order.
	Providers yaml.Node `yaml:"providers"`
}

// LoadFromFile loads config from a YAML file, applies environment overrides
// and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	providers, err := parseProviders(&f.Providers)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	c := &Config{
		DatabaseURL:    f.DatabaseURL,
		RedisURL:       f.RedisURL,
		PushgatewayURL: f.PushgatewayURL,
		UserAgent:      f.UserAgent,
		Timeout:        DefaultTimeout,
		CookieFile:     f.CookieFile,
		LogLevel:       f.LogLevel,
		Providers:      providers,
	}
	if c.DatabaseURL == "" && f.Database.Host != "" {
		c.DatabaseURL = f.Database.url()
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.CookieFile == "" {
		c.CookieFile = DefaultCookieFile
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			c.Timeout = d
		}
	}
	if f.RequestInterval != "" {
		if d, err := time.ParseDuration(f.RequestInterval); err == nil {
			c.RequestInterval = d
		}
	}
	tz := f.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	if c.Location, err = time.LoadLocation(tz); err != nil {
		return nil, errors.Wrapf(err, "timezone %q", tz)
	}

	c.applyEnv()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// parseProviders reads the providers mapping (column: url) in document order.
func parseProviders(n *yaml.Node) ([]models.ProviderSource, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, errors.Errorf("providers: line %d: expected a mapping", n.Line)
	}
	out := make([]models.ProviderSource, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		p, ok := models.ParseProvider(key.Value)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownProvider, "providers: line %d: %q", key.Line, key.Value)
		}
		if val.Value == "" {
			return nil, errors.Errorf("providers: line %d: %s has no url", val.Line, key.Value)
		}
		out = append(out, models.ProviderSource{Provider: p, URL: val.Value})
	}
	return out, nil
}

func (d databaseBlock) url() string {
	u := url.URL{Scheme: "postgres", Host: d.Host, Path: "/" + d.Name}
	if d.Port != 0 {
		u.Host = d.Host + ":" + strconv.Itoa(d.Port)
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}
