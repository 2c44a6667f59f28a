package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Search     SearchConfig     `mapstructure:"search" yaml:"search"`
	Report     ReportConfig     `mapstructure:"report" yaml:"report"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels on the
// console encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the PostgreSQL connection details. An empty URL keeps
// the workbench on its in-memory repositories.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// ClassifierConfig defines the connection to the external inference service.
type ClassifierConfig struct {
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	// RateLimit is the maximum sustained request rate against the inference
	// endpoint, in requests per second.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// SearchConfig tunes the search pipeline.
type SearchConfig struct {
	// Retries is the number of additional classification attempts the CLI
	// makes after a ClassifierUnavailable failure. The core itself never
	// retries.
	Retries int `mapstructure:"retries" yaml:"retries"`
	// CreatedBy is recorded on investigations created from this workstation.
	CreatedBy string `mapstructure:"created_by" yaml:"created_by"`
}

// ReportConfig tunes report generation and export.
type ReportConfig struct {
	// OutputDir is where exported report files are written.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "kxs-osint")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Classifier --
	v.SetDefault("classifier.model", "gemini-2.5-flash")
	v.SetDefault("classifier.api_timeout", "60s")
	v.SetDefault("classifier.temperature", 0.2)
	v.SetDefault("classifier.max_tokens", 4096)
	v.SetDefault("classifier.rate_limit", 1.0)
	v.SetDefault("classifier.rate_burst", 2)

	// -- Search --
	v.SetDefault("search.retries", 0)
	v.SetDefault("search.created_by", "analyst")

	// -- Report --
	v.SetDefault("report.output_dir", ".")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with static defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object,
// binding sensitive values to environment variables.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	_ = v.BindEnv("classifier.api_key", "KXS_CLASSIFIER_API_KEY")
	_ = v.BindEnv("database.url", "KXS_DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Classifier.APITimeout <= 0 {
		return fmt.Errorf("classifier.api_timeout must be positive, got %s", c.Classifier.APITimeout)
	}
	if c.Classifier.RateLimit <= 0 {
		return fmt.Errorf("classifier.rate_limit must be positive, got %f", c.Classifier.RateLimit)
	}
	if c.Search.Retries < 0 {
		return fmt.Errorf("search.retries must not be negative, got %d", c.Search.Retries)
	}
	return nil
}
