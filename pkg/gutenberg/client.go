package gutenberg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"gutenfetch/pkg/config"
	errs "gutenfetch/pkg/errors"
	"gutenfetch/pkg/logger"
)

// errStalled is the cancellation cause used when no bytes arrive within the timeout
var errStalled = errors.New("no data received within timeout")

// Book is a successfully fetched archive
type Book struct {
	ID          int
	URL         string
	StatusCode  int
	ContentType string
	Data        []byte
}

// Client performs single GET attempts against the book source
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	urlTemplate string
	contentType string
	timeout     time.Duration
	logger      logger.Logger
}

// NewClient creates a client for the configured source. timeout bounds
// connecting, waiting for response headers and every gap between body
// reads; a slow but steady download is not cut off.
func NewClient(src config.SourceConfig, timeout time.Duration, log logger.Logger) (*Client, error) {
	if err := ValidateTemplate(src.URLTemplate); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout

	headers := map[string]string{
		"Accept": src.ContentType + ", */*;q=0.8",
	}
	if src.UserAgent != "" {
		headers["User-Agent"] = src.UserAgent
	}

	return &Client{
		httpClient:  &http.Client{Transport: transport},
		headers:     headers,
		urlTemplate: src.URLTemplate,
		contentType: src.ContentType,
		timeout:     timeout,
		logger:      log,
	}, nil
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// URL returns the source URL for id
func (c *Client) URL(id int) string {
	return BookURL(c.urlTemplate, id)
}

// CloseIdleConnections releases pooled keep-alive connections
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// FetchBook performs exactly one GET for id. Redirects are followed.
//
// The returned error is a *errs.Error typed as:
//   - not_found when the server answered with a status other than 200
//   - content_type when the status is 200 but the media type differs
//   - timeout or connection for transport failures, including a body
//     that stops arriving mid-stream
//   - canceled when ctx was cancelled
func (c *Client) FetchBook(ctx context.Context, id int) (*Book, error) {
	bookURL := c.URL(id)

	watchdog := newStallWatchdog(ctx, c.timeout)
	defer watchdog.stop()

	req, err := http.NewRequestWithContext(watchdog.ctx, http.MethodGet, bookURL, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, err, "failed to create request for %s", bookURL)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", logger.ItemFields(id, bookURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, watchdog, err, "request failed")
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	c.logger.DebugWithFields("HTTP response received", map[string]interface{}{
		"id":           id,
		"url":          bookURL,
		"status":       resp.StatusCode,
		"content_type": contentType,
		"duration":     time.Since(start),
	})

	if resp.StatusCode != http.StatusOK {
		// drain a little so the connection can be reused
		io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, errs.NewStatus(errs.ErrorTypeNotFound, resp.StatusCode, "unexpected status %d for %s", resp.StatusCode, bookURL)
	}
	if !MatchesContentType(contentType, c.contentType) {
		return nil, errs.NewStatus(errs.ErrorTypeContentType, resp.StatusCode, "unexpected content type %q for %s", contentType, bookURL)
	}

	data, err := io.ReadAll(watchdog.reader(resp.Body))
	if err != nil {
		return nil, c.transportError(ctx, watchdog, err, "failed to read response body")
	}

	c.logger.DebugWithFields("HTTP body received", map[string]interface{}{
		"id":       id,
		"bytes":    len(data),
		"duration": time.Since(start),
	})

	return &Book{
		ID:          id,
		URL:         bookURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// transportError types a failure of the request or the body read
func (c *Client) transportError(ctx context.Context, watchdog *stallWatchdog, err error, msg string) error {
	if ctx.Err() == nil && watchdog.stalled() {
		return errs.New(errs.ErrorTypeTimeout, err, "%s: %v", msg, errStalled)
	}

	errType := errs.Classify(ctx, err)
	if errType == errs.ErrorTypeUnknown {
		// anything the transport surfaces mid-exchange is a network failure
		errType = errs.ErrorTypeConnection
	}
	return errs.New(errType, err, "%s: %v", msg, err)
}

// stallWatchdog cancels the request when no progress is made for timeout
type stallWatchdog struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	timer   *time.Timer
	timeout time.Duration
	once    sync.Once
}

func newStallWatchdog(parent context.Context, timeout time.Duration) *stallWatchdog {
	ctx, cancel := context.WithCancelCause(parent)
	w := &stallWatchdog{ctx: ctx, cancel: cancel, timeout: timeout}
	w.timer = time.AfterFunc(timeout, func() { cancel(errStalled) })
	return w
}

// touch pushes the deadline out by another timeout
func (w *stallWatchdog) touch() {
	w.timer.Reset(w.timeout)
}

func (w *stallWatchdog) stalled() bool {
	return errors.Is(context.Cause(w.ctx), errStalled)
}

func (w *stallWatchdog) stop() {
	w.once.Do(func() {
		w.timer.Stop()
		w.cancel(context.Canceled)
	})
}

func (w *stallWatchdog) reader(r io.Reader) io.Reader {
	w.touch()
	return &watchedReader{r: r, w: w}
}

type watchedReader struct {
	r io.Reader
	w *stallWatchdog
}

func (wr *watchedReader) Read(p []byte) (int, error) {
	n, err := wr.r.Read(p)
	if n > 0 {
		wr.w.touch()
	}
	return n, err
}
