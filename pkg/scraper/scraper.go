package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gutenfetch/internal/downloader"
	"gutenfetch/pkg/logger"
	"gutenfetch/pkg/ratelimit"
)

// Options bounds a run
type Options struct {
	// MaxID is the last ID processed, inclusive
	MaxID int
}

// Summary describes a finished or aborted run
type Summary struct {
	StartID int
	// LastID is the checkpoint value when the run returned
	LastID   int
	MaxID    int
	Saved    int
	NotFound int
	Failed   int
	Skipped  int
	Bytes    int64
	Elapsed  time.Duration
	// Interrupted is set when the context was cancelled mid-run
	Interrupted bool
}

// Processed returns the number of IDs that concluded during the run
func (s Summary) Processed() int {
	return s.Saved + s.NotFound + s.Failed + s.Skipped
}

// Complete reports whether the checkpoint reached MaxID
func (s Summary) Complete() bool {
	return s.LastID >= s.MaxID
}

// Scraper walks the ID range, fetching every ID without an artifact and
// advancing the checkpoint after each one
type Scraper struct {
	opts       Options
	store      ContentStore
	checkpoint CheckpointStore
	fetcher    Fetcher
	pacer      ratelimit.Limiter
	observer   Observer
	logger     logger.Logger
}

// New creates a Scraper. A nil pacer disables the inter-item delay.
func New(opts Options, store ContentStore, checkpoint CheckpointStore, fetcher Fetcher, pacer ratelimit.Limiter, log logger.Logger) (*Scraper, error) {
	if opts.MaxID < 1 {
		return nil, fmt.Errorf("max id must be at least 1, got %d", opts.MaxID)
	}
	if store == nil || checkpoint == nil || fetcher == nil {
		return nil, errors.New("content store, checkpoint store and fetcher are required")
	}
	if pacer == nil {
		pacer = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Scraper{
		opts:       opts,
		store:      store,
		checkpoint: checkpoint,
		fetcher:    fetcher,
		pacer:      pacer,
		observer:   nopObserver{},
		logger:     logger.ForComponent(log, "controller"),
	}, nil
}

// SetObserver registers a progress observer
func (s *Scraper) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
}

// Run processes IDs from the checkpoint + 1 through MaxID in order.
//
// Every ID concludes with the checkpoint saved as that ID before the next
// one starts. Artifacts already in the content store are skipped without
// a network call or pacing delay. Fetch outcomes never stop the run;
// store errors do, leaving the checkpoint at the last concluded ID.
// Cancelling ctx stops the run with the interrupted ID unconcluded.
func (s *Scraper) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{MaxID: s.opts.MaxID}

	lastID, err := s.checkpoint.Load()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load checkpoint")
		return summary, fmt.Errorf("load checkpoint: %w", err)
	}

	summary.StartID = lastID + 1
	summary.LastID = lastID

	s.logger.InfoWithFields("Starting run", map[string]interface{}{
		"start_id": summary.StartID,
		"max_id":   s.opts.MaxID,
	})
	s.observer.RunStarted(summary.StartID, s.opts.MaxID)

	finish := func(err error) (Summary, error) {
		summary.Elapsed = time.Since(start)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			summary.Interrupted = true
		}
		s.observer.RunFinished(summary)
		return summary, err
	}

	for id := summary.StartID; id <= s.opts.MaxID; id++ {
		if err := ctx.Err(); err != nil {
			s.logger.InfoWithFields("Run interrupted", map[string]interface{}{
				"last_id": summary.LastID,
			})
			return finish(err)
		}

		if err := s.processID(ctx, id, &summary); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				s.logger.InfoWithFields("Run interrupted", map[string]interface{}{
					"id":      id,
					"last_id": summary.LastID,
				})
			} else {
				s.logger.WithError(err).ErrorWithFields("Run aborted", map[string]interface{}{
					"id":      id,
					"last_id": summary.LastID,
				})
			}
			return finish(err)
		}
	}

	summary.Elapsed = time.Since(start)
	s.logger.InfoWithFields("Finished run", map[string]interface{}{
		"last_id":   summary.LastID,
		"saved":     summary.Saved,
		"not_found": summary.NotFound,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"elapsed":   summary.Elapsed,
	})
	return finish(nil)
}

// processID runs CheckExisting, then Skip or Fetch, then Advance for id
func (s *Scraper) processID(ctx context.Context, id int, summary *Summary) error {
	exists, err := s.store.Has(id)
	if err != nil {
		return fmt.Errorf("check artifact %d: %w", id, err)
	}

	paced := false
	if exists {
		s.logger.InfoWithFields("Already exists", map[string]interface{}{"id": id})
		summary.Skipped++
		s.observer.ItemSkipped(id)
	} else {
		result, err := s.fetcher.Fetch(ctx, id)
		if err != nil {
			return err
		}

		switch result.Outcome {
		case downloader.OutcomeSaved:
			summary.Saved++
			summary.Bytes += result.Bytes
		case downloader.OutcomeNotFound:
			summary.NotFound++
		default:
			summary.Failed++
		}
		s.observer.ItemFetched(result)
		paced = true
	}

	if err := s.checkpoint.Save(id); err != nil {
		return fmt.Errorf("save checkpoint %d: %w", id, err)
	}
	summary.LastID = id

	if paced {
		if err := s.pacer.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
