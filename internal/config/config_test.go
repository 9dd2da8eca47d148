package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Days)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://www.hothousejazz.com/calendar-filter", cfg.CalendarURL)
	assert.Equal(t, "https://www.hothousejazz.com", cfg.Origin)
	assert.Equal(t, "https://api.tidalhifi.com/v1/search", cfg.SearchURL)
	assert.Equal(t, "US", cfg.CountryCode)
	assert.NotEmpty(t, cfg.TidalToken)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "templates/index.html", cfg.TemplatePath)
	assert.Equal(t, "public/index.html", cfg.OutputPath)
	assert.Equal(t, "none", cfg.Sort)
	assert.Empty(t, cfg.ICSPath)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
days: 10
workers: 3
log_level: debug
http_timeout: 5s
tidal_token: file-token
country_code: GB
output_path: out/index.html
ics_path: out/events.ics
sort: popularity
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Days)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "file-token", cfg.TidalToken)
	assert.Equal(t, "GB", cfg.CountryCode)
	assert.Equal(t, "out/index.html", cfg.OutputPath)
	assert.Equal(t, "out/events.ics", cfg.ICSPath)
	assert.Equal(t, "popularity", cfg.Sort)
	// Unset keys keep their defaults
	assert.Equal(t, "templates/index.html", cfg.TemplatePath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("days: 10\ntidal_token: file-token\n"), 0644))

	t.Setenv("JAZZ_DAYS", "7")
	t.Setenv("TIDAL_TOKEN", "env-token")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("JAZZ_HTTP_TIMEOUT", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Days)
	assert.Equal(t, "env-token", cfg.TidalToken)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non-numeric days", map[string]string{"JAZZ_DAYS": "many"}},
		{"non-numeric workers", map[string]string{"JAZZ_WORKERS": "x"}},
		{"bad timeout", map[string]string{"JAZZ_HTTP_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_DefersValidation(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		mutate func(*Config)
	}{
		{"zero days", map[string]string{"JAZZ_DAYS": "0"}, func(c *Config) { c.Days = 5 }},
		{"zero workers", map[string]string{"JAZZ_WORKERS": "0"}, func(c *Config) { c.Workers = 2 }},
		{"bad sort", map[string]string{"JAZZ_SORT": "random"}, func(c *Config) { c.Sort = "artist" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("")
			require.NoError(t, err, "out-of-range values are left for a later override")
			assert.Error(t, cfg.Validate())

			// A command-line override fixes the value
			tt.mutate(cfg)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("days: [1, 2"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty token", func(c *Config) { c.TidalToken = "" }},
		{"empty template", func(c *Config) { c.TemplatePath = "" }},
		{"empty output", func(c *Config) { c.OutputPath = "" }},
		{"empty country", func(c *Config) { c.CountryCode = "" }},
		{"negative timeout", func(c *Config) { c.HTTPTimeout = -time.Second }},
		{"empty calendar url", func(c *Config) { c.CalendarURL = "" }},
		{"zero days", func(c *Config) { c.Days = 0 }},
		{"unknown sort", func(c *Config) { c.Sort = "date" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
