package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gutenfetch/pkg/config"
	errs "gutenfetch/pkg/errors"
	"gutenfetch/pkg/gutenberg"
	"gutenfetch/pkg/logger"
	"gutenfetch/pkg/retry"
	"gutenfetch/pkg/storage"
)

// MockClient replays a scripted sequence of responses per ID
type MockClient struct {
	mu        sync.Mutex
	responses map[int][]interface{}
	calls     map[int]int
	onFetch   func(id, attempt int)
}

func NewMockClient() *MockClient {
	return &MockClient{
		responses: make(map[int][]interface{}),
		calls:     make(map[int]int),
	}
}

// Script queues responses for id; each is either an error or a []byte body.
// The last response repeats once the script runs out.
func (m *MockClient) Script(id int, responses ...interface{}) *MockClient {
	m.responses[id] = responses
	return m
}

func (m *MockClient) URL(id int) string {
	return fmt.Sprintf("https://example.org/ebooks/%d.epub3.images", id)
}

func (m *MockClient) FetchBook(ctx context.Context, id int) (*gutenberg.Book, error) {
	m.mu.Lock()
	attempt := m.calls[id]
	m.calls[id]++
	script := m.responses[id]
	onFetch := m.onFetch
	m.mu.Unlock()

	if onFetch != nil {
		onFetch(id, attempt+1)
	}
	if len(script) == 0 {
		return nil, errs.NewStatus(errs.ErrorTypeNotFound, 404, "unexpected status 404")
	}
	if attempt >= len(script) {
		attempt = len(script) - 1
	}

	switch v := script[attempt].(type) {
	case error:
		return nil, v
	case []byte:
		return &gutenberg.Book{ID: id, URL: m.URL(id), StatusCode: 200, ContentType: gutenberg.EpubContentType, Data: v}, nil
	default:
		panic(fmt.Sprintf("unsupported scripted response %T", v))
	}
}

func (m *MockClient) Calls(id int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[id]
}

// MockStorage records saved artifacts
type MockStorage struct {
	mu      sync.Mutex
	saved   map[int][]byte
	saveErr error
}

func NewMockStorage() *MockStorage {
	return &MockStorage{saved: make(map[int][]byte)}
}

func (m *MockStorage) Save(id int, r io.Reader) (int64, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[id] = data
	return int64(len(data)), nil
}

func (m *MockStorage) Saved(id int) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.saved[id]
	return data, ok
}

var (
	timeoutErr    = errs.New(errs.ErrorTypeTimeout, context.DeadlineExceeded, "request failed: timeout")
	connectionErr = errs.New(errs.ErrorTypeConnection, nil, "request failed: connection refused")
	notFoundErr   = errs.NewStatus(errs.ErrorTypeNotFound, 404, "unexpected status 404")
	wrongTypeErr  = errs.NewStatus(errs.ErrorTypeContentType, 200, `unexpected content type "text/html"`)
)

func fastRetry() *retry.Config {
	return &retry.Config{
		MaxAttempts: 3,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
	}
}

func TestFetchSaved(t *testing.T) {
	client := NewMockClient().Script(1, []byte("epub one"))
	store := NewMockStorage()
	log := logger.NewTestLogger()

	result, err := NewFetcher(client, store, fastRetry(), log).Fetch(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSaved, result.Outcome)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, int64(8), result.Bytes)
	assert.Equal(t, 200, result.StatusCode)
	assert.Nil(t, result.Err)

	data, ok := store.Saved(1)
	require.True(t, ok)
	assert.Equal(t, "epub one", string(data))

	msgs := log.Find("Downloaded")
	require.Len(t, msgs, 1)
	assert.Equal(t, 1, msgs[0].Field("id"))
	assert.Equal(t, client.URL(1), msgs[0].Field("url"))
}

func TestFetchRetryBoundOnTimeout(t *testing.T) {
	client := NewMockClient().Script(3, timeoutErr)
	store := NewMockStorage()
	log := logger.NewTestLogger()

	result, err := NewFetcher(client, store, fastRetry(), log).Fetch(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, 3, client.Calls(3), "exactly three attempts")
	assert.Equal(t, 3, result.Attempts)
	assert.True(t, retry.Exhausted(result.Err))

	_, saved := store.Saved(3)
	assert.False(t, saved)

	retries := log.Find("Retrying download")
	require.Len(t, retries, 2)
	assert.Equal(t, 1, retries[0].Field("attempt"))
	assert.Equal(t, 2, retries[1].Field("attempt"))
	assert.Len(t, log.Find("Download failed"), 1)
}

func TestFetchConnectionErrorsShareBudget(t *testing.T) {
	client := NewMockClient().Script(4, connectionErr, timeoutErr, connectionErr, []byte("too late"))

	result, err := NewFetcher(client, NewMockStorage(), fastRetry(), nil).Fetch(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, 3, client.Calls(4))
}

func TestFetchRecoversWithinBudget(t *testing.T) {
	client := NewMockClient().Script(5, timeoutErr, connectionErr, []byte("third time"))
	store := NewMockStorage()

	result, err := NewFetcher(client, store, fastRetry(), nil).Fetch(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSaved, result.Outcome)
	assert.Equal(t, 3, result.Attempts)
	data, _ := store.Saved(5)
	assert.Equal(t, "third time", string(data))
}

func TestFetchNoRetryOnDefinitiveMiss(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"404", notFoundErr, 404},
		{"wrong content type", wrongTypeErr, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewMockClient().Script(2, tt.err)
			log := logger.NewTestLogger()

			result, err := NewFetcher(client, NewMockStorage(), fastRetry(), log).Fetch(context.Background(), 2)
			require.NoError(t, err)

			assert.Equal(t, OutcomeNotFound, result.Outcome)
			assert.Equal(t, 1, client.Calls(2), "exactly one attempt")
			assert.Equal(t, tt.status, result.StatusCode)
			assert.Empty(t, log.Find("Retrying download"))

			msgs := log.GetMessagesByLevel("WARN")
			require.Len(t, msgs, 1)
			assert.Equal(t, tt.status, msgs[0].Field("status"))
		})
	}
}

func TestFetchUnknownErrorNotRetried(t *testing.T) {
	client := NewMockClient().Script(6, errs.New(errs.ErrorTypeUnknown, nil, "bad request"))

	result, err := NewFetcher(client, NewMockStorage(), fastRetry(), nil).Fetch(context.Background(), 6)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, 1, client.Calls(6))
	assert.False(t, retry.Exhausted(result.Err))
}

func TestFetchStorageErrorIsFatal(t *testing.T) {
	client := NewMockClient().Script(7, []byte("book"))
	store := NewMockStorage()
	store.saveErr = errs.New(errs.ErrorTypeStorage, errors.New("no space left on device"), "failed to write artifact 7")

	result, err := NewFetcher(client, store, fastRetry(), nil).Fetch(context.Background(), 7)
	require.Error(t, err)

	assert.True(t, errs.Is(err, errs.ErrorTypeStorage))
	assert.Equal(t, OutcomeNone, result.Outcome)
	assert.Equal(t, 1, client.Calls(7), "storage errors are not retried")
}

func TestFetchCancelledDuringRetryWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := NewMockClient().Script(8, timeoutErr)
	client.onFetch = func(id, attempt int) { cancel() }

	cfg := &retry.Config{MaxAttempts: 3, Backoff: &retry.ConstantBackoff{Delay: time.Hour}}
	result, err := NewFetcher(client, NewMockStorage(), cfg, nil).Fetch(ctx, 8)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeNone, result.Outcome)
	assert.Equal(t, 1, client.Calls(8))
}

func TestFetchCancelledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewMockClient().Script(9, errs.New(errs.ErrorTypeCanceled, context.Canceled, "request failed"))

	_, err := NewFetcher(client, NewMockStorage(), fastRetry(), nil).Fetch(ctx, 9)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "saved", OutcomeSaved.String())
	assert.Equal(t, "not_found", OutcomeNotFound.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "none", OutcomeNone.String())
}

// TestFetchAgainstServer drives the real client and store through httptest
func TestFetchAgainstServer(t *testing.T) {
	var hits [4]int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int
		if _, err := fmt.Sscanf(r.URL.Path, "/ebooks/%d.epub3.images", &id); err != nil || id < 1 || id > 3 {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits[id], 1)

		switch id {
		case 1:
			w.Header().Set("Content-Type", gutenberg.EpubContentType)
			w.Write([]byte("PK epub"))
		case 2:
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>no epub</html>"))
		case 3:
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := gutenberg.NewClient(config.SourceConfig{
		URLTemplate: server.URL + "/ebooks/{id}.epub3.images",
		UserAgent:   "test-agent",
		ContentType: gutenberg.EpubContentType,
	}, 50*time.Millisecond, nil)
	require.NoError(t, err)

	store, err := storage.NewManager(t.TempDir(), "epub")
	require.NoError(t, err)

	fetcher := NewFetcher(client, store, fastRetry(), nil)

	expected := map[int]Outcome{1: OutcomeSaved, 2: OutcomeNotFound, 3: OutcomeFailed}
	for id := 1; id <= 3; id++ {
		result, err := fetcher.Fetch(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, expected[id], result.Outcome, "id %d", id)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits[1]))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits[2]))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits[3]))

	for id, want := range map[int]bool{1: true, 2: false, 3: false} {
		has, err := store.Has(id)
		require.NoError(t, err)
		assert.Equal(t, want, has, "artifact %d", id)
	}
}
