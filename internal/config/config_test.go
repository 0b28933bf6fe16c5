package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultAPIVintage, cfg.API.Vintage)
	assert.Equal(t, DefaultHTTPTimeout, cfg.API.Timeout)
	assert.Equal(t, DefaultAPIRateLimit, cfg.API.RateLimit.RPS)
	assert.Equal(t, DefaultAPIBurst, cfg.API.RateLimit.Burst)
	assert.Equal(t, DefaultAnalysisYear, cfg.Analysis.Year)
	assert.Equal(t, DefaultConcentrationThreshold, cfg.Analysis.ConcentrationThreshold)
	assert.Equal(t, DefaultBinWidth, cfg.Analysis.BinWidth)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Export.Excel)
	assert.Empty(t, cfg.Debug.Listen, "debug listener should be disabled by default")

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errText string
	}{
		{
			name:    "valid defaults",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "year before earliest survey",
			modify: func(c *Config) {
				c.Analysis.Year = 1980
			},
			wantErr: true,
			errText: "Year",
		},
		{
			name: "year in far future",
			modify: func(c *Config) {
				c.Analysis.Year = 2099
			},
			wantErr: true,
			errText: "Year",
		},
		{
			name: "threshold at exactly 50 rejected",
			modify: func(c *Config) {
				c.Analysis.ConcentrationThreshold = 50
			},
			wantErr: true,
			errText: "ConcentrationThreshold",
		},
		{
			name: "threshold above 100 rejected",
			modify: func(c *Config) {
				c.Analysis.ConcentrationThreshold = 101
			},
			wantErr: true,
			errText: "ConcentrationThreshold",
		},
		{
			name: "threshold 75 accepted",
			modify: func(c *Config) {
				c.Analysis.ConcentrationThreshold = 75
			},
			wantErr: false,
		},
		{
			name: "zero bin width rejected",
			modify: func(c *Config) {
				c.Analysis.BinWidth = 0
			},
			wantErr: true,
			errText: "BinWidth",
		},
		{
			name: "missing base URL",
			modify: func(c *Config) {
				c.API.BaseURL = ""
			},
			wantErr: true,
			errText: "BaseURL",
		},
		{
			name: "malformed base URL",
			modify: func(c *Config) {
				c.API.BaseURL = "not a url"
			},
			wantErr: true,
			errText: "BaseURL",
		},
		{
			name: "zero request rate rejected",
			modify: func(c *Config) {
				c.API.RateLimit.RPS = 0
			},
			wantErr: true,
			errText: "RPS",
		},
		{
			name: "zero burst rejected",
			modify: func(c *Config) {
				c.API.RateLimit.Burst = 0
			},
			wantErr: true,
			errText: "Burst",
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Logging.Level = "verbose"
			},
			wantErr: true,
			errText: "Level",
		},
		{
			name: "invalid log output",
			modify: func(c *Config) {
				c.Logging.Output = "syslog"
			},
			wantErr: true,
			errText: "Output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)

	content := `
api:
  timeout: 30s
  rate_limit:
    rps: 2
    burst: 1
analysis:
  year: 2016
  concentration_threshold: 80
logging:
  level: debug
export:
  excel: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg := Default()
	require.NoError(t, cfg.loadFromFile(configPath))

	// File values override defaults
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2.0, cfg.API.RateLimit.RPS)
	assert.Equal(t, 1, cfg.API.RateLimit.Burst)
	assert.Equal(t, 2016, cfg.Analysis.Year)
	assert.Equal(t, 80.0, cfg.Analysis.ConcentrationThreshold)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Export.Excel)

	// Untouched fields keep defaults
	assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultBinWidth, cfg.Analysis.BinWidth)

	require.NoError(t, cfg.Validate())
}

func TestConfig_LoadFromFile_Missing(t *testing.T) {
	cfg := Default()
	err := cfg.loadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_LoadFromFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("analysis: [not a map"), 0644))

	cfg := Default()
	assert.Error(t, cfg.loadFromFile(configPath))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EDEQ_ANALYSIS_YEAR", "2015")
	t.Setenv("EDEQ_API_RATE_LIMIT_RPS", "1.5")
	t.Setenv("EDEQ_LOGGING_LEVEL", "warn")
	t.Setenv("EDEQ_DEBUG_LISTEN", "localhost:8899")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2015, cfg.Analysis.Year)
	assert.Equal(t, 1.5, cfg.API.RateLimit.RPS)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "localhost:8899", cfg.Debug.Listen)

	// Unset values still come from defaults
	assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultAPIBurst, cfg.API.RateLimit.Burst)
}

func TestLoad_EnvValidationFailure(t *testing.T) {
	t.Setenv("EDEQ_ANALYSIS_YEAR", "1492")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}
