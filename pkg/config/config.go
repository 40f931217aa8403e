package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// IDPlaceholder is substituted with the item ID in Source.URLTemplate
const IDPlaceholder = "{id}"

// Config holds all configuration options for the downloader
type Config struct {
	// Remote source settings
	Source SourceConfig `yaml:"source" json:"source"`

	// ID range to walk
	Range RangeConfig `yaml:"range" json:"range"`

	// Per-item fetch behaviour
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Local artifact and checkpoint locations
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Terminal output
	UI UIConfig `yaml:"ui" json:"ui"`
}

// SourceConfig describes where artifacts come from
type SourceConfig struct {
	URLTemplate string `yaml:"url_template" json:"url_template"`
	UserAgent   string `yaml:"user_agent" json:"user_agent"`
	ContentType string `yaml:"content_type" json:"content_type"`
}

// RangeConfig bounds the processed IDs
type RangeConfig struct {
	MaxID int `yaml:"max_id" json:"max_id"`
}

// FetchConfig holds retry and pacing configuration
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay" json:"retry_delay"`
	PacingDelay time.Duration `yaml:"pacing_delay" json:"pacing_delay"`
	// Backoff is "constant", "linear" or "exponential"
	Backoff string `yaml:"backoff" json:"backoff"`
}

// StorageConfig holds local store locations
type StorageConfig struct {
	DownloadDir  string `yaml:"download_dir" json:"download_dir"`
	Extension    string `yaml:"extension" json:"extension"`
	ProgressFile string `yaml:"progress_file" json:"progress_file"`
	// LockFile defaults to ProgressFile + ".lock" when empty
	LockFile string `yaml:"lock_file" json:"lock_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	Format  string `yaml:"format" json:"format"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// UIConfig holds terminal display preferences
type UIConfig struct {
	Progress bool `yaml:"progress" json:"progress"`
	Color    bool `yaml:"color" json:"color"`
}

// DefaultConfig returns a Config instance with default values
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URLTemplate: "https://www.gutenberg.org/ebooks/{id}.epub3.images",
			UserAgent:   "Mozilla/5.0 (compatible; ProjectGutenbergDownloader/1.0)",
			ContentType: "application/epub+zip",
		},
		Range: RangeConfig{
			MaxID: 10000,
		},
		Fetch: FetchConfig{
			Timeout:     10 * time.Second,
			MaxAttempts: 3,
			RetryDelay:  time.Second,
			PacingDelay: time.Second,
			Backoff:     "constant",
		},
		Storage: StorageConfig{
			DownloadDir:  "downloads",
			Extension:    "epub",
			ProgressFile: "progress.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "gutenberg_downloader.log",
			Format: "text",
		},
		UI: UIConfig{
			Progress: true,
			Color:    true,
		},
	}
}

// LockPath returns the path of the single-instance lock file
func (c *Config) LockPath() string {
	if c.Storage.LockFile != "" {
		return c.Storage.LockFile
	}
	return c.Storage.ProgressFile + ".lock"
}

// LoadFromEnv loads configuration from GUTENFETCH_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	setString("GUTENFETCH_URL_TEMPLATE", &c.Source.URLTemplate)
	setString("GUTENFETCH_USER_AGENT", &c.Source.UserAgent)
	setString("GUTENFETCH_CONTENT_TYPE", &c.Source.ContentType)
	setInt("GUTENFETCH_MAX_ID", &c.Range.MaxID)
	setDuration("GUTENFETCH_TIMEOUT", &c.Fetch.Timeout)
	setInt("GUTENFETCH_MAX_ATTEMPTS", &c.Fetch.MaxAttempts)
	setDuration("GUTENFETCH_RETRY_DELAY", &c.Fetch.RetryDelay)
	setDuration("GUTENFETCH_PACING_DELAY", &c.Fetch.PacingDelay)
	setString("GUTENFETCH_BACKOFF", &c.Fetch.Backoff)
	setString("GUTENFETCH_DOWNLOAD_DIR", &c.Storage.DownloadDir)
	setString("GUTENFETCH_PROGRESS_FILE", &c.Storage.ProgressFile)
	setString("GUTENFETCH_LOCK_FILE", &c.Storage.LockFile)
	setString("GUTENFETCH_LOG_LEVEL", &c.Logging.Level)
	setString("GUTENFETCH_LOG_FILE", &c.Logging.File)
	setString("GUTENFETCH_LOG_FORMAT", &c.Logging.Format)
	setBool("GUTENFETCH_PROGRESS", &c.UI.Progress)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
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

// SearchPaths lists the config locations checked when no path is given
func SearchPaths() []string {
	home := os.Getenv("HOME")
	return []string{
		"gutenfetch.yaml",
		".gutenfetch.yaml",
		filepath.Join(home, ".config", "gutenfetch", "config.yaml"),
	}
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	for _, loc := range SearchPaths() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Source.URLTemplate == "" {
		errs = append(errs, errors.New("url template is required"))
	} else if !strings.Contains(c.Source.URLTemplate, IDPlaceholder) {
		errs = append(errs, fmt.Errorf("url template must contain %s", IDPlaceholder))
	}
	if c.Source.ContentType == "" {
		errs = append(errs, errors.New("expected content type is required"))
	}

	if c.Range.MaxID < 1 {
		errs = append(errs, errors.New("max id must be at least 1"))
	}

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.Fetch.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if c.Fetch.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}
	if c.Fetch.PacingDelay < 0 {
		errs = append(errs, errors.New("pacing delay cannot be negative"))
	}
	switch strings.ToLower(c.Fetch.Backoff) {
	case "", "constant", "linear", "exponential":
	default:
		errs = append(errs, fmt.Errorf("invalid backoff strategy %q", c.Fetch.Backoff))
	}

	if c.Storage.DownloadDir == "" {
		errs = append(errs, errors.New("download directory is required"))
	}
	if c.Storage.Extension == "" {
		errs = append(errs, errors.New("artifact extension is required"))
	}
	if c.Storage.ProgressFile == "" {
		errs = append(errs, errors.New("progress file is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save writes the configuration to a YAML file
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
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["max-id"].(int); ok && v > 0 {
		c.Range.MaxID = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Storage.DownloadDir = v
	}
	if v, ok := flags["progress-file"].(string); ok && v != "" {
		c.Storage.ProgressFile = v
	}
	if v, ok := flags["url-template"].(string); ok && v != "" {
		c.Source.URLTemplate = v
	}
	if v, ok := flags["user-agent"].(string); ok && v != "" {
		c.Source.UserAgent = v
	}
	if v, ok := flags["attempts"].(int); ok && v > 0 {
		c.Fetch.MaxAttempts = v
	}
	if v, ok := flags["retry-delay"].(time.Duration); ok {
		c.Fetch.RetryDelay = v
	}
	if v, ok := flags["pacing-delay"].(time.Duration); ok {
		c.Fetch.PacingDelay = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.Fetch.Timeout = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok {
		c.Logging.File = v
	}
	if v, ok := flags["no-progress"].(bool); ok && v {
		c.UI.Progress = false
	}
	if v, ok := flags["no-color"].(bool); ok && v {
		c.UI.Color = false
		c.Logging.NoColor = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are not an error
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".gutenfetch.env"))

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
