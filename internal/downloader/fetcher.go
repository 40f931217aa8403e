package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	errs "gutenfetch/pkg/errors"
	"gutenfetch/pkg/gutenberg"
	"gutenfetch/pkg/logger"
	"gutenfetch/pkg/retry"
)

// Outcome is the terminal classification of one ID in one run
type Outcome int

const (
	// OutcomeNone is returned alongside an error when the ID did not conclude
	OutcomeNone Outcome = iota
	// OutcomeSaved means the artifact was fetched and stored
	OutcomeSaved
	// OutcomeNotFound means the server answered definitively without a book
	OutcomeNotFound
	// OutcomeFailed means every attempt failed without a definitive answer
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSaved:
		return "saved"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

// BookSource performs single fetch attempts
type BookSource interface {
	URL(id int) string
	FetchBook(ctx context.Context, id int) (*gutenberg.Book, error)
}

// BookStorage persists fetched artifacts
type BookStorage interface {
	Save(id int, r io.Reader) (int64, error)
}

// Result describes how one ID was processed
type Result struct {
	ID         int
	URL        string
	Outcome    Outcome
	Attempts   int
	StatusCode int
	Bytes      int64
	Duration   time.Duration
	// Err is the last fetch error for NotFound and Failed outcomes
	Err error
}

// Fetcher downloads one ID with bounded retry and stores it
type Fetcher struct {
	client  BookSource
	storage BookStorage
	retrier *retry.Retrier
	logger  logger.Logger
}

// NewFetcher creates a fetcher. retryCfg supplies the attempt budget and
// backoff; its Context and OnRetry are replaced on every Fetch.
func NewFetcher(client BookSource, storage BookStorage, retryCfg *retry.Config, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}

	return &Fetcher{
		client:  client,
		storage: storage,
		retrier: retry.NewRetrier(retryCfg),
		logger:  logger.ForComponent(log, "fetcher"),
	}
}

// Fetch processes one ID. Network outcomes never produce an error: they
// are folded into Result.Outcome. An error is returned only when the
// artifact could not be written or ctx was cancelled; in both cases the
// ID has not concluded.
func (f *Fetcher) Fetch(ctx context.Context, id int) (Result, error) {
	start := time.Now()
	url := f.client.URL(id)
	result := Result{ID: id, URL: url}
	log := f.logger.WithFields(logger.ItemFields(id, url))

	maxAttempts := f.retrier.Config().MaxAttempts

	var book *gutenberg.Book
	err := f.retrier.
		WithContext(ctx).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.WarnWithFields("Retrying download", map[string]interface{}{
				"attempt":      attempt,
				"max_attempts": maxAttempts,
				"delay":        delay,
				"error":        err.Error(),
			})
		}).
		Do(func(attempt int) error {
			result.Attempts = attempt
			var fetchErr error
			book, fetchErr = f.client.FetchBook(ctx, id)
			return fetchErr
		})
	result.Duration = time.Since(start)

	if err != nil {
		return f.classify(ctx, log, result, err)
	}

	result.StatusCode = book.StatusCode
	written, err := f.storage.Save(id, bytes.NewReader(book.Data))
	result.Duration = time.Since(start)
	if err != nil {
		log.ErrorWithFields("Failed to save book", map[string]interface{}{
			"error": err.Error(),
		})
		return result, fmt.Errorf("save book %d: %w", id, err)
	}

	result.Outcome = OutcomeSaved
	result.Bytes = written
	log.InfoWithFields("Downloaded", map[string]interface{}{
		"attempts": result.Attempts,
		"size":     humanize.Bytes(uint64(written)),
		"duration": result.Duration,
	})

	return result, nil
}

// classify maps the final fetch error onto an outcome
func (f *Fetcher) classify(ctx context.Context, log logger.Logger, result Result, err error) (Result, error) {
	var typed *errs.Error
	if errors.As(err, &typed) {
		result.StatusCode = typed.Code
	}
	result.Err = err

	if ctx.Err() != nil || errs.Is(err, errs.ErrorTypeCanceled) {
		log.DebugWithFields("Download interrupted", map[string]interface{}{
			"attempt": result.Attempts,
		})
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		return result, fmt.Errorf("fetch book %d interrupted: %w", result.ID, cause)
	}

	switch errs.TypeOf(err) {
	case errs.ErrorTypeNotFound, errs.ErrorTypeContentType:
		result.Outcome = OutcomeNotFound
		log.WarnWithFields("Skipped (not found or wrong content type)", map[string]interface{}{
			"status": result.StatusCode,
			"reason": string(errs.TypeOf(err)),
		})
	default:
		result.Outcome = OutcomeFailed
		log.ErrorWithFields("Download failed", map[string]interface{}{
			"attempts":  result.Attempts,
			"exhausted": retry.Exhausted(err),
			"error":     err.Error(),
		})
	}

	return result, nil
}
