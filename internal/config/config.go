package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	API      APIConfig      `yaml:"api" envconfig:"API"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Debug    DebugConfig    `yaml:"debug" envconfig:"DEBUG"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
}

// APIConfig configures the education statistics API client
type APIConfig struct {
	BaseURL   string          `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	Vintage   string          `yaml:"vintage" envconfig:"VINTAGE" validate:"required"`
	Timeout   time.Duration   `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig bounds the request rate against the provider
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst int     `yaml:"burst" envconfig:"BURST" validate:"gte=1"`
}

// AnalysisConfig fixes the school year and the derivation parameters.
// Year and vintage are explicit inputs to the acquisition component
// rather than hidden constants.
type AnalysisConfig struct {
	Year                   int     `yaml:"year" envconfig:"YEAR" validate:"gte=1986,lte=2030"`
	ConcentrationThreshold float64 `yaml:"concentration_threshold" envconfig:"CONCENTRATION_THRESHOLD" validate:"gt=50,lte=100"`
	BinWidth               float64 `yaml:"bin_width" envconfig:"BIN_WIDTH" validate:"gt=0,lte=100"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	CacheDir      string `yaml:"cache_dir" envconfig:"CACHE_DIR"`
	ReportsDir    string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// DebugConfig configures the optional operational debug listener.
// An empty Listen address disables it.
type DebugConfig struct {
	Listen string `yaml:"listen" envconfig:"LISTEN"`
}

// ExportConfig selects optional export targets beyond the CSV tables
type ExportConfig struct {
	Excel  bool         `yaml:"excel" envconfig:"EXCEL"`
	Sheets SheetsConfig `yaml:"sheets" envconfig:"SHEETS"`
}

// SheetsConfig configures the Google Sheets publisher; both fields must
// be set for publishing to be attempted.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// Enabled reports whether the publisher has everything it needs
func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != "" && c.CredentialsFile != ""
}

// Load loads configuration in precedence order: defaults, then the
// optional edequity.yaml file, then EDEQ_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := cfg.loadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file
func (c *Config) loadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return fmt.Errorf("invalid %s: failed %q constraint", first.Namespace(), first.Tag())
		}
		return err
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		ConfigFileName,
		"configs/" + ConfigFileName,
		"../configs/" + ConfigFileName,
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use defaults and env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
			Vintage: DefaultAPIVintage,
			Timeout: DefaultHTTPTimeout,
			RateLimit: RateLimitConfig{
				RPS:   DefaultAPIRateLimit,
				Burst: DefaultAPIBurst,
			},
		},
		Analysis: AnalysisConfig{
			Year:                   DefaultAnalysisYear,
			ConcentrationThreshold: DefaultConcentrationThreshold,
			BinWidth:               DefaultBinWidth,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "both",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			CacheDir:   DefaultCacheDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
		},
		Debug: DebugConfig{
			Listen: "",
		},
		Export: ExportConfig{
			Excel: true,
		},
	}
}
