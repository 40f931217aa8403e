package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gutenfetch/internal/downloader"
	"gutenfetch/internal/runlock"
	"gutenfetch/pkg/checkpoint"
	"gutenfetch/pkg/config"
	"gutenfetch/pkg/gutenberg"
	"gutenfetch/pkg/logger"
	"gutenfetch/pkg/ratelimit"
	"gutenfetch/pkg/retry"
	"gutenfetch/pkg/scraper"
	"gutenfetch/pkg/storage"
	"gutenfetch/pkg/ui"
)

var (
	// Run command flags
	maxID        int
	outputDir    string
	progressFile string
	urlTemplate  string
	userAgent    string
	attempts     int
	retryDelay   time.Duration
	pacingDelay  time.Duration
	fetchTimeout time.Duration
	forceRestart bool
	noProgress   bool
	notify       bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Download every book ID up to the configured maximum",
	Long: `Download the EPUB for every book ID from the checkpoint up to --max-id.

Each ID ends as one of:
  saved      the EPUB was written to the download directory
  not found  the server answered without an EPUB (missing ID, HTML page)
  failed     every attempt timed out or lost the connection

None of these stop the run. A failure to write a file or the checkpoint
does, and the next run resumes after the last checkpointed ID.`,
	Example: `  # Download IDs 1-10000 into ./downloads
  gutenfetch run

  # Smaller range into a specific directory
  gutenfetch run --max-id 500 --output ./epubs

  # Be gentler with the server
  gutenfetch run --pacing-delay 3s --retry-delay 5s

  # Start again from ID 1 (existing files are still skipped)
  gutenfetch run --force-restart`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Running without a subcommand starts a download
	rootCmd.RunE = runDownload
	rootCmd.Args = cobra.NoArgs

	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		fs := cmd.Flags()
		fs.IntVar(&maxID, "max-id", 10000, "last book ID to process")
		fs.StringVarP(&outputDir, "output", "o", "", "download directory (default: downloads)")
		fs.StringVar(&progressFile, "progress-file", "", "checkpoint file (default: progress.json)")
		fs.StringVar(&urlTemplate, "url-template", "", "download URL with {id} placeholder")
		fs.StringVar(&userAgent, "user-agent", "", "User-Agent header sent with every request")
		fs.IntVar(&attempts, "attempts", 3, "attempts per ID for timeouts and connection errors")
		fs.DurationVar(&retryDelay, "retry-delay", time.Second, "delay between attempts")
		fs.DurationVar(&pacingDelay, "pacing-delay", time.Second, "delay after every download request")
		fs.DurationVar(&fetchTimeout, "timeout", 10*time.Second, "connect and read timeout per attempt")
		fs.BoolVar(&forceRestart, "force-restart", false, "back up the checkpoint and start from ID 1")
		fs.BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
		fs.BoolVar(&notify, "notify", false, "send a desktop notification when the run ends")
	}
}

// runFlags collects the run flags the user actually set
func runFlags(cmd *cobra.Command) map[string]interface{} {
	flags := globalFlags(cmd)
	fs := cmd.Flags()

	if fs.Changed("max-id") {
		flags["max-id"] = maxID
	}
	if fs.Changed("output") {
		flags["output"] = outputDir
	}
	if fs.Changed("progress-file") {
		flags["progress-file"] = progressFile
	}
	if fs.Changed("url-template") {
		flags["url-template"] = urlTemplate
	}
	if fs.Changed("user-agent") {
		flags["user-agent"] = userAgent
	}
	if fs.Changed("attempts") {
		flags["attempts"] = attempts
	}
	if fs.Changed("retry-delay") {
		flags["retry-delay"] = retryDelay
	}
	if fs.Changed("pacing-delay") {
		flags["pacing-delay"] = pacingDelay
	}
	if fs.Changed("timeout") {
		flags["timeout"] = fetchTimeout
	}
	if noProgress {
		flags["no-progress"] = true
	}
	return flags
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, runFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := gutenberg.ValidateTemplate(cfg.Source.URLTemplate); err != nil {
		return err
	}

	ui.SetColor(cfg.UI.Color)
	showProgress := cfg.UI.Progress && !ui.IsQuiet() && ui.IsTerminal(os.Stdout)

	// The bar owns the terminal; logs go to the file alone while it is shown
	var console io.Writer = os.Stderr
	if (showProgress || ui.IsQuiet()) && cfg.Logging.File != "" {
		console = nil
	}
	baseLog, err := logger.NewWithOutput(&cfg.Logging, console)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close(baseLog)

	runID := uuid.NewString()
	log := baseLog.WithField("run_id", runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			log.WithError(err).Error("Another run is active")
		}
		return err
	}
	defer lock.Release()

	store, err := storage.NewManager(cfg.Storage.DownloadDir, cfg.Storage.Extension)
	if err != nil {
		return err
	}
	if removed, err := store.RemoveStale(); err != nil {
		return err
	} else if removed > 0 {
		log.InfoWithFields("Removed partial downloads", map[string]interface{}{"count": removed})
	}

	cp, err := checkpoint.NewManager(cfg.Storage.ProgressFile, log)
	if err != nil {
		return err
	}
	if forceRestart {
		if err := cp.Reset(); err != nil {
			return err
		}
	}

	backoff, err := retry.NewBackoff(cfg.Fetch.Backoff, cfg.Fetch.RetryDelay)
	if err != nil {
		return err
	}

	client, err := gutenberg.NewClient(cfg.Source, cfg.Fetch.Timeout, log)
	if err != nil {
		return err
	}
	defer client.CloseIdleConnections()

	fetcher := downloader.NewFetcher(client, store, &retry.Config{
		MaxAttempts: cfg.Fetch.MaxAttempts,
		Backoff:     backoff,
		Logger:      log,
	}, log)

	s, err := scraper.New(scraper.Options{MaxID: cfg.Range.MaxID}, store, cp, fetcher,
		ratelimit.NewFixedDelay(cfg.Fetch.PacingDelay), log)
	if err != nil {
		return err
	}

	observers := scraper.Observers{ui.NewProgressDisplay(ui.Stdout(), showProgress)}
	if notify {
		observers = append(observers, ui.NewNotifier())
	}
	s.SetObserver(observers)

	log.InfoWithFields("Configuration loaded", map[string]interface{}{
		"version":      version,
		"max_id":       cfg.Range.MaxID,
		"download_dir": cfg.Storage.DownloadDir,
		"progress":     cfg.Storage.ProgressFile,
		"attempts":     cfg.Fetch.MaxAttempts,
		"retry_delay":  cfg.Fetch.RetryDelay,
		"pacing_delay": cfg.Fetch.PacingDelay,
	})
	ui.PrintInfo("Output", cfg.Storage.DownloadDir)
	ui.PrintInfo("Run", runID)

	summary, err := s.Run(ctx)
	if summary.MaxID > 0 && summary.StartID > 0 {
		ui.PrintSummary(summary)
	}
	if err != nil {
		if summary.Interrupted {
			ui.PrintWarning("Interrupted, run the same command to resume")
		}
		return fmt.Errorf("run stopped at checkpoint %d: %w", summary.LastID, err)
	}

	ui.PrintSuccess(fmt.Sprintf("Processed all IDs up to %d", cfg.Range.MaxID))
	return nil
}
