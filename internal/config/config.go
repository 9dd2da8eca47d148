package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/jazz-events/internal/event"
)

// Config holds all job settings. Values come from defaults, then an optional
// YAML file, then environment variables, then command-line flags
type Config struct {
	Days     int    `yaml:"days"`
	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`

	// Calendar service
	CalendarURL string        `yaml:"calendar_url"`
	Origin      string        `yaml:"origin"`
	UserAgent   string        `yaml:"user_agent"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Artist search service. The token is a public, long-lived value issued
	// for unauthenticated search, not a user credential
	SearchURL   string `yaml:"search_url"`
	TidalToken  string `yaml:"tidal_token"`
	CountryCode string `yaml:"country_code"`

	// Outputs
	TemplatePath string `yaml:"template_path"`
	OutputPath   string `yaml:"output_path"`
	ICSPath      string `yaml:"ics_path"`
	JSONPath     string `yaml:"json_path"`
	MetricsPath  string `yaml:"metrics_path"`
	DumpDir      string `yaml:"dump_dir"`
	Sort         string `yaml:"sort"`
}

// Default returns the configuration used when nothing else is provided
func Default() *Config {
	return &Config{
		Days:         25,
		Workers:      runtime.NumCPU(),
		LogLevel:     "info",
		CalendarURL:  "https://www.hothousejazz.com/calendar-filter",
		Origin:       "https://www.hothousejazz.com",
		UserAgent:    "Mozilla/5.0 (compatible; jazz-events/1.0)",
		HTTPTimeout:  30 * time.Second,
		SearchURL:    "https://api.tidalhifi.com/v1/search",
		TidalToken:   "CzET4vdadNUFQ5JU",
		CountryCode:  "US",
		TemplatePath: "templates/index.html",
		OutputPath:   "public/index.html",
		Sort:         string(event.SortNone),
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and environment variables. It does not validate: callers
// apply flag overrides first and then call Validate on the final values
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("JAZZ_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid JAZZ_DAYS: %w", err)
		}
		c.Days = n
	}
	if v := os.Getenv("JAZZ_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid JAZZ_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("JAZZ_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JAZZ_HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}

	c.LogLevel = envOrDefault("LOG_LEVEL", c.LogLevel)
	c.CalendarURL = envOrDefault("JAZZ_CALENDAR_URL", c.CalendarURL)
	c.Origin = envOrDefault("JAZZ_ORIGIN", c.Origin)
	c.SearchURL = envOrDefault("TIDAL_SEARCH_URL", c.SearchURL)
	c.TidalToken = envOrDefault("TIDAL_TOKEN", c.TidalToken)
	c.CountryCode = envOrDefault("TIDAL_COUNTRY_CODE", c.CountryCode)
	c.TemplatePath = envOrDefault("JAZZ_TEMPLATE", c.TemplatePath)
	c.OutputPath = envOrDefault("JAZZ_OUTPUT", c.OutputPath)
	c.ICSPath = envOrDefault("JAZZ_ICS_OUTPUT", c.ICSPath)
	c.JSONPath = envOrDefault("JAZZ_JSON_OUTPUT", c.JSONPath)
	c.MetricsPath = envOrDefault("JAZZ_METRICS_FILE", c.MetricsPath)
	c.DumpDir = envOrDefault("JAZZ_DUMP_DIR", c.DumpDir)
	c.Sort = envOrDefault("JAZZ_SORT", c.Sort)
	return nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Days < 1 {
		return errors.New("days must be at least 1")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("http_timeout must be positive")
	}
	if c.CalendarURL == "" {
		return errors.New("calendar_url is required")
	}
	if c.Origin == "" {
		return errors.New("origin is required")
	}
	if c.SearchURL == "" {
		return errors.New("search_url is required")
	}
	if c.TidalToken == "" {
		return errors.New("tidal_token is required")
	}
	if c.CountryCode == "" {
		return errors.New("country_code is required")
	}
	if c.TemplatePath == "" {
		return errors.New("template_path is required")
	}
	if c.OutputPath == "" {
		return errors.New("output_path is required")
	}
	if _, err := event.ParseSortOrder(c.Sort); err != nil {
		return fmt.Errorf("invalid sort: %w", err)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
