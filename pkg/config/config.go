package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "coversync"

// Config holds all configuration options for a mirror sync run
type Config struct {
	// Catalog site contract
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`

	// Transport settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Independent concurrency caps
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Change report settings
	Report ReportConfig `yaml:"report" json:"report"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CatalogConfig describes the parts of the remote listing that are not hard-coded in markup selectors
type CatalogConfig struct {
	PlaceholderURL string `yaml:"placeholder_url" json:"placeholder_url"`
	PageParam      string `yaml:"page_param" json:"page_param"`
}

// HTTPConfig holds transport configuration
type HTTPConfig struct {
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// ConcurrencyConfig holds the three concurrency limits.
// Each applies at its own scope and none of them bounds the others.
type ConcurrencyConfig struct {
	Collections int `yaml:"collections" json:"collections"`
	SyncChecks  int `yaml:"sync_checks" json:"sync_checks"`
	Downloads   int `yaml:"downloads" json:"downloads"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	DryRun        bool   `yaml:"dry_run" json:"dry_run"`
}

// ReportConfig selects how the change report is rendered
type ReportConfig struct {
	Format string `yaml:"format" json:"format"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultPlaceholderURL replaces covers the catalog marks as missing
const DefaultPlaceholderURL = "https://files1.comics.org/static/img/nocover_large.png"

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			PlaceholderURL: DefaultPlaceholderURL,
			PageParam:      "page",
		},
		HTTP: HTTPConfig{
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Timeout:           60 * time.Second,
			RequestsPerMinute: 0, // 0 means no limit
		},
		Concurrency: ConcurrencyConfig{
			Collections: 10,
			SyncChecks:  20,
			Downloads:   5,
		},
		Output: OutputConfig{
			BaseDirectory: ".",
		},
		Report: ReportConfig{
			Format: "text",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from COVERSYNC_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("COVERSYNC_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("COVERSYNC_USER_AGENT"); v != "" {
		c.HTTP.UserAgent = v
	}
	if v := os.Getenv("COVERSYNC_PLACEHOLDER_URL"); v != "" {
		c.Catalog.PlaceholderURL = v
	}
	if v := os.Getenv("COVERSYNC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("COVERSYNC_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("COVERSYNC_REPORT_FORMAT"); v != "" {
		c.Report.Format = v
	}
	if v := os.Getenv("COVERSYNC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("COVERSYNC_TIMEOUT: %w", err))
		} else {
			c.HTTP.Timeout = d
		}
	}

	ints := []struct {
		env    string
		target *int
	}{
		{"COVERSYNC_REQUESTS_PER_MINUTE", &c.HTTP.RequestsPerMinute},
		{"COVERSYNC_CONCURRENT_COLLECTIONS", &c.Concurrency.Collections},
		{"COVERSYNC_CONCURRENT_SYNC_CHECKS", &c.Concurrency.SyncChecks},
		{"COVERSYNC_CONCURRENT_DOWNLOADS", &c.Concurrency.Downloads},
	}
	for _, e := range ints {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.env, err))
			continue
		}
		*e.target = n
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	locations := []string{
		"." + appName + ".yaml",
		"." + appName + ".yml",
		filepath.Join(xdg.ConfigHome, appName, "config.yaml"),
		filepath.Join(xdg.ConfigHome, appName, "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Concurrency.Collections <= 0 {
		errs = append(errs, errors.New("collection concurrency must be positive"))
	}
	if c.Concurrency.SyncChecks <= 0 {
		errs = append(errs, errors.New("sync check concurrency must be positive"))
	}
	if c.Concurrency.Downloads <= 0 {
		errs = append(errs, errors.New("download concurrency must be positive"))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	if c.HTTP.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Catalog.PlaceholderURL == "" {
		errs = append(errs, errors.New("placeholder url is required"))
	}
	if c.Catalog.PageParam == "" {
		errs = append(errs, errors.New("page parameter is required"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validFormats := map[string]bool{"text": true, "markdown": true}
	if !validFormats[strings.ToLower(c.Report.Format)] {
		errs = append(errs, fmt.Errorf("invalid report format %q", c.Report.Format))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// CheckPaths creates the output directory and the log file directory if needed,
// reporting every one that cannot be created
func (c *Config) CheckPaths() error {
	var errs []error

	if err := os.MkdirAll(c.Output.BaseDirectory, 0755); err != nil {
		errs = append(errs, fmt.Errorf("cannot create output directory: %w", err))
	}
	if c.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.Logging.File), 0755); err != nil {
			errs = append(errs, fmt.Errorf("cannot create log directory: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["dry-run"].(bool); ok {
		c.Output.DryRun = v
	}
	if v, ok := flags["collections"].(int); ok {
		c.Concurrency.Collections = v
	}
	if v, ok := flags["sync-checks"].(int); ok {
		c.Concurrency.SyncChecks = v
	}
	if v, ok := flags["downloads"].(int); ok {
		c.Concurrency.Downloads = v
	}
	if v, ok := flags["rate-limit"].(int); ok {
		c.HTTP.RequestsPerMinute = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok {
		c.HTTP.Timeout = v
	}
	if v, ok := flags["format"].(string); ok && v != "" {
		c.Report.Format = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(xdg.ConfigHome, appName, ".env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
