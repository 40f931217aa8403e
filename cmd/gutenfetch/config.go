package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gutenfetch/pkg/config"
	"gutenfetch/pkg/gutenberg"
	"gutenfetch/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage gutenfetch configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (GUTENFETCH_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'gutenfetch.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging flags, environment
variables, the configuration file and defaults.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - The download URL template
  - Path accessibility`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# gutenfetch configuration file
#
# Every option can also be set with an environment variable prefixed with
# GUTENFETCH_, for example GUTENFETCH_MAX_ID or GUTENFETCH_DOWNLOAD_DIR.
# Durations use Go syntax: 500ms, 1s, 2m.

source:
  # Download URL, {id} is replaced with the book ID
  url_template: "https://www.gutenberg.org/ebooks/{id}.epub3.images"

  # User-Agent header sent with every request
  user_agent: "Mozilla/5.0 (compatible; ProjectGutenbergDownloader/1.0)"

  # Responses whose Content-Type does not contain this are not saved
  content_type: "application/epub+zip"

range:
  # Last book ID to process
  max_id: 10000

fetch:
  # Connect and read timeout per attempt
  timeout: 10s

  # Attempts per ID for timeouts and connection errors
  max_attempts: 3

  # Delay between attempts
  retry_delay: 1s

  # Delay after every download request, not after skipped IDs
  pacing_delay: 1s

  # Retry delay growth: constant, linear or exponential
  backoff: constant

storage:
  # Directory for <id>.epub files
  download_dir: "downloads"
  extension: "epub"

  # Checkpoint file holding the last processed ID
  progress_file: "progress.json"

  # Single instance lock, defaults to <progress_file>.lock
  lock_file: ""

logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path, leave empty to log to the console only
  file: "gutenberg_downloader.log"

  # Console format: text, json
  format: "text"

ui:
  # Show a progress bar when stdout is a terminal
  progress: true

  # Colored terminal output
  color: true
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "gutenfetch.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintWarning("To overwrite, first remove the existing file", configPath)
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	ui.PrintHighlight("Next steps:")
	ui.PrintList([]string{
		"Edit the configuration file",
		"Run 'gutenfetch config validate' to check it",
		"Start downloading with 'gutenfetch run'",
	})
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))

	source := configFile
	if source == "" {
		source = "(none found)"
		for _, path := range config.SearchPaths() {
			if _, err := os.Stat(path); err == nil {
				source = path
				break
			}
		}
	}
	fmt.Fprintf(out, "\n# configuration file: %s\n", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		for _, candidate := range config.SearchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return fmt.Errorf("no configuration file found, specify one with --config")
		}
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	problems, warnings := checkConfig(cfg)
	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		ui.PrintList(problems)
		return fmt.Errorf("%d configuration errors", len(problems))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		ui.PrintList(warnings)
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("  Download URL", gutenberg.BookURL(cfg.Source.URLTemplate, 1))
	ui.PrintInfo("  Range", fmt.Sprintf("1-%d", cfg.Range.MaxID))
	ui.PrintInfo("  Download dir", cfg.Storage.DownloadDir)
	ui.PrintInfo("  Checkpoint", cfg.Storage.ProgressFile)
	ui.PrintInfo("  Attempts", fmt.Sprintf("%d (%s %s)", cfg.Fetch.MaxAttempts, cfg.Fetch.Backoff, cfg.Fetch.RetryDelay))
	return nil
}

// checkConfig runs the checks Validate leaves out: URL shape, writable
// paths and values that are legal but probably unintended
func checkConfig(cfg *config.Config) (problems, warnings []string) {
	if err := gutenberg.ValidateTemplate(cfg.Source.URLTemplate); err != nil {
		problems = append(problems, err.Error())
	}

	dirs := map[string]string{
		"download directory":   cfg.Storage.DownloadDir,
		"checkpoint directory": filepath.Dir(cfg.Storage.ProgressFile),
	}
	if cfg.Logging.File != "" {
		dirs["log directory"] = filepath.Dir(cfg.Logging.File)
	}
	for label, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create %s: %v", label, err))
		}
	}

	if cfg.Fetch.PacingDelay == 0 {
		warnings = append(warnings, "pacing_delay is 0, requests are sent back to back")
	}
	if cfg.Fetch.MaxAttempts > 10 {
		warnings = append(warnings, fmt.Sprintf("max_attempts is %d, failing IDs will take a long time", cfg.Fetch.MaxAttempts))
	}
	if !strings.Contains(cfg.Source.ContentType, "/") {
		warnings = append(warnings, fmt.Sprintf("content_type %q is not a media type", cfg.Source.ContentType))
	}
	return problems, warnings
}
