// Package gutenberg provides the HTTP client for Project Gutenberg book
// archives.
//
// This package includes:
//   - URL construction from a template containing "{id}"
//   - A client performing a single GET per call with a fixed User-Agent
//   - Classification of every failure into the pkg/errors taxonomy
//
// A response only counts as a book when the status is 200 and the
// Content-Type contains the expected media type. Retrying is left to the
// caller.
//
// Example usage:
//
//	client, err := gutenberg.NewClient(cfg.Source, cfg.Fetch.Timeout, log)
//	if err != nil {
//	    return err
//	}
//
//	book, err := client.FetchBook(ctx, 84)
//	switch errors.TypeOf(err) {
//	case errors.ErrorTypeNotFound, errors.ErrorTypeContentType:
//	    // authoritative miss
//	case errors.ErrorTypeTimeout, errors.ErrorTypeConnection:
//	    // transient, worth another attempt
//	}
package gutenberg
