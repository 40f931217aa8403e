// Package logger provides a structured logging interface for gutenfetch.
//
// It wraps the zerolog library behind the Logger interface so that every
// component receives its logger at construction time instead of reaching
// for process-wide state:
//   - Multiple log levels (Debug, Info, Warn, Error)
//   - Structured logging with fields
//   - Pretty console output with colors, or raw JSON lines
//   - Optional append-only log file written alongside the console
//   - No-op and capturing implementations for tests
//
// Basic Usage:
//
//	log, err := logger.New(&cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close(log)
//
//	log = log.WithField("run_id", runID)
//	log.InfoWithFields("Downloaded", logger.ItemFields(id, url))
//
// Tests use logger.NewNopLogger() or logger.NewTestLogger(), the latter
// recording every message together with its merged fields.
package logger
