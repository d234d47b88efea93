package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "house_price.sqlite", cfg.DBDSN)
	assert.Equal(t, 26, cfg.MaxPages)
	assert.True(t, cfg.StopOnEmptyPage)
	assert.Equal(t, "電梯大樓", cfg.TargetType)
	assert.Equal(t, "慈雲路", cfg.SearchKeyword)
	assert.InDelta(t, 24.7915659664812, cfg.SearchLat, 1e-12)
	assert.Equal(t, FetchModeHTTP, cfg.FetchMode)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_DSN", "host=db user=scraper dbname=house sslmode=disable")
	t.Setenv("MAX_PAGES", "3")
	t.Setenv("STOP_ON_EMPTY_PAGE", "false")
	t.Setenv("GOOGLE_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 3, cfg.MaxPages)
	assert.False(t, cfg.StopOnEmptyPage)
	assert.Equal(t, "secret", cfg.GoogleAPIKey)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.yaml")
	content := "max_pages: 5\ntarget_type: 華廈\nsource_base_url: http://localhost:8080/\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxPages)
	assert.Equal(t, "華廈", cfg.TargetType)
	assert.Equal(t, "http://localhost:8080", cfg.SourceBaseURL)
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{DBDriver: DriverSQLite, DBDSN: "x.sqlite", FetchMode: FetchModeHTTP, MaxPages: 1}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"fetch mode", func(c *Config) { c.FetchMode = "carrier-pigeon" }},
		{"max pages", func(c *Config) { c.MaxPages = 0 }},
		{"dsn", func(c *Config) { c.DBDSN = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
