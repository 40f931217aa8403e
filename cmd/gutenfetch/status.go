package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gutenfetch/internal/runlock"
	"gutenfetch/pkg/checkpoint"
	"gutenfetch/pkg/config"
	"gutenfetch/pkg/storage"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the checkpoint and download directory state",
	Long: `Show where the next run will resume, how many books are on disk and
whether another run currently holds the lock.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	fs := statusCmd.Flags()
	fs.IntVar(&maxID, "max-id", 10000, "last book ID to process")
	fs.StringVarP(&outputDir, "output", "o", "", "download directory (default: downloads)")
	fs.StringVar(&progressFile, "progress-file", "", "checkpoint file (default: progress.json)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, runFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	rows, err := statusRows(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Field", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
	return nil
}

func statusRows(cfg *config.Config) ([][]string, error) {
	cp, err := checkpoint.NewManager(cfg.Storage.ProgressFile, nil)
	if err != nil {
		return nil, err
	}
	info, err := cp.Info()
	if err != nil {
		return nil, err
	}

	lastID := "none"
	updated := "never"
	if info.Exists {
		lastID = strconv.Itoa(info.LastID)
		updated = humanize.Time(info.UpdatedAt)
	}

	next := "done"
	remaining := 0
	if info.LastID < cfg.Range.MaxID {
		next = strconv.Itoa(info.LastID + 1)
		remaining = cfg.Range.MaxID - info.LastID
	}

	var stats storage.Stats
	if _, err := os.Stat(cfg.Storage.DownloadDir); err == nil {
		store, err := storage.NewManager(cfg.Storage.DownloadDir, cfg.Storage.Extension)
		if err != nil {
			return nil, err
		}
		if stats, err = store.Stats(); err != nil {
			return nil, err
		}
	}

	lockState := "free"
	held, err := runlock.Held(cfg.LockPath())
	switch {
	case err != nil:
		lockState = "unknown: " + err.Error()
	case held:
		lockState = "held by a running download"
	}

	return [][]string{
		{"Checkpoint", info.Path},
		{"Last ID", lastID},
		{"Updated", updated},
		{"Next ID", next},
		{"Max ID", strconv.Itoa(cfg.Range.MaxID)},
		{"Remaining", humanize.Comma(int64(remaining))},
		{"Download dir", cfg.Storage.DownloadDir},
		{"Books on disk", humanize.Comma(int64(stats.Count))},
		{"Size on disk", humanize.Bytes(uint64(stats.TotalBytes))},
		{"Highest ID on disk", strconv.Itoa(stats.HighestID)},
		{"Run lock", lockState},
	}, nil
}
