package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "PostgreSQL", cfg.Database)
	assert.Equal(t, "INFO", cfg.Log.Level)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omnifilter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database: MySQL
schema: ./schema.yaml
date_formats:
  - "02.01.2006"
log:
  level: DEBUG
  format: json
`), 0o600))

	t.Setenv("OMNIFILTER_TENANT", "acme")
	t.Setenv("OMNIFILTER_LOG_FORMAT", "text")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "MySQL", cfg.Database)
	assert.Equal(t, "./schema.yaml", cfg.Schema)
	assert.Equal(t, []string{"02.01.2006"}, cfg.DateFormats)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "acme", cfg.Tenant)

	conv, err := cfg.Conversions()
	require.NoError(t, err)
	d, err := conv.ParseTime("01.05.2020")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC), d)
}

func TestLoadEnvDateFormats(t *testing.T) {
	t.Setenv("OMNIFILTER_DATE_FORMATS", "02.01.2006;20060102")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"02.01.2006", "20060102"}, cfg.DateFormats)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("OMNIFILTER_DATABASE", "Oracle")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv("OMNIFILTER_TIMEZONE", "Mars/Olympus")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
