// Package scraper drives a sequential walk over Project Gutenberg book IDs.
//
// The Scraper loads the last concluded ID from a checkpoint store and
// processes every following ID up to a configured maximum, one at a time:
//
//   - If the content store already holds the artifact, the ID is skipped
//     without a network call.
//   - Otherwise the Fetcher downloads it, retrying transient failures, and
//     reports Saved, NotFound or Failed.
//   - The checkpoint is saved as that ID before the next one starts.
//   - A pacing delay follows every fetch, never a skip.
//
// Usage:
//
//	s, err := scraper.New(scraper.Options{MaxID: 1000}, store, cp, fetcher, pacer, log)
//	if err != nil {
//	    return err
//	}
//	summary, err := s.Run(ctx)
//
// Fetch outcomes never stop a run. Errors from either store do, and leave
// the checkpoint at the last concluded ID so the next run resumes there.
// Cancelling ctx stops the run without concluding the in-flight ID.
package scraper
