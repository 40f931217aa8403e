package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"gutenfetch/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	noColor    bool
	quiet      bool
)

// rootCmd runs a download when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "gutenfetch",
	Short: "Download Project Gutenberg EPUBs by sequential book ID",
	Long: `gutenfetch walks Project Gutenberg book IDs from 1 to a maximum and
downloads the EPUB for each one into a local directory.

  - Books already on disk are skipped without a request
  - Progress is checkpointed after every ID, so an interrupted run resumes
    where it stopped
  - Timeouts and connection errors are retried a bounded number of times
  - A fixed delay between requests keeps the load on the server low`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal: the hook refers to rootCmd,
	// which would otherwise be an initialization cycle.
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetColor(false)
		}
		if quiet {
			ui.SetQuietMode(true)
		}
		if cmd == rootCmd || cmd == runCmd {
			ui.PrintLogo()
		}
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./gutenfetch.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path (default gutenberg_downloader.log, empty string disables)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`gutenfetch {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags the user actually set
func globalFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	fs := cmd.Flags()

	if fs.Changed("log-level") {
		flags["log-level"] = logLevel
	}
	if fs.Changed("log-file") {
		flags["log-file"] = logFile
	}
	if noColor {
		flags["no-color"] = true
	}
	return flags
}
