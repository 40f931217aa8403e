package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gutenfetch/internal/downloader"
	"gutenfetch/pkg/scraper"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	SetColor(false)
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
		SetQuietMode(false)
	})
	return &out, &errOut
}

func TestPrintHelpers(t *testing.T) {
	out, errOut := captureOutput(t)

	PrintInfo("Checkpoint", "42")
	PrintSuccess("done")
	PrintWarning("lock held", "pid 7")
	PrintError("Failed to load configuration", errors.New("bad yaml"))
	PrintList([]string{"one", "two"})

	assert.Contains(t, out.String(), "Checkpoint: 42")
	assert.Contains(t, out.String(), "done")
	assert.Contains(t, out.String(), "lock held: pid 7")
	assert.Contains(t, out.String(), "  - two")
	assert.Equal(t, "Failed to load configuration: bad yaml\n", errOut.String())
}

func TestQuietModeKeepsErrors(t *testing.T) {
	out, errOut := captureOutput(t)
	SetQuietMode(true)
	assert.True(t, IsQuiet())

	PrintLogo()
	PrintInfo("Range", "1-10")
	PrintError("boom")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "boom")
}

func TestProgressDisplayCounts(t *testing.T) {
	display := NewProgressDisplay(&bytes.Buffer{}, false)

	display.RunStarted(1, 5)
	display.ItemSkipped(1)
	display.ItemFetched(downloader.Result{ID: 2, Outcome: downloader.OutcomeSaved, Bytes: 2048})
	display.ItemFetched(downloader.Result{ID: 3, Outcome: downloader.OutcomeNotFound})
	display.ItemFetched(downloader.Result{ID: 4, Outcome: downloader.OutcomeFailed})
	display.ItemFetched(downloader.Result{ID: 5, Outcome: downloader.OutcomeSaved, Bytes: 10})
	display.RunFinished(scraper.Summary{LastID: 5, MaxID: 5})

	saved, notFound, failed, skipped := display.Counts()
	assert.Equal(t, 2, saved)
	assert.Equal(t, 1, notFound)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, skipped)
}

func TestProgressDisplayDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	display := NewProgressDisplay(&buf, false)

	display.RunStarted(1, 3)
	display.ItemSkipped(1)
	display.RunFinished(scraper.Summary{LastID: 3, MaxID: 3})

	assert.Empty(t, buf.String())
}

func TestProgressDisplayRendersBar(t *testing.T) {
	SetColor(false)
	var buf bytes.Buffer
	display := NewProgressDisplay(&buf, true)
	display.throttle = 0

	display.RunStarted(8, 10)
	display.ItemFetched(downloader.Result{ID: 8, Outcome: downloader.OutcomeSaved})
	display.ItemSkipped(9)
	display.ItemFetched(downloader.Result{ID: 10, Outcome: downloader.OutcomeNotFound})
	display.RunFinished(scraper.Summary{StartID: 8, LastID: 10, MaxID: 10})

	output := buf.String()
	assert.Contains(t, output, "Book 10 not_found")
	assert.Contains(t, output, "100%")
}

func TestProgressDisplayEmptyRange(t *testing.T) {
	var buf bytes.Buffer
	display := NewProgressDisplay(&buf, true)

	display.RunStarted(11, 10)
	display.RunFinished(scraper.Summary{StartID: 11, LastID: 10, MaxID: 10})

	assert.Empty(t, buf.String())
}

func TestPrintSummary(t *testing.T) {
	out, _ := captureOutput(t)

	PrintSummary(scraper.Summary{
		StartID:  1,
		LastID:   3,
		MaxID:    3,
		Saved:    1,
		NotFound: 1,
		Failed:   1,
		Bytes:    1500,
		Elapsed:  3 * time.Second,
	})

	assert.Contains(t, out.String(), "Run complete")
	assert.Contains(t, out.String(), "Saved: 1 (1.5 kB)")
	assert.Contains(t, out.String(), "Checkpoint: 3")
}

type recordingSender struct {
	title, message string
	calls          int
}

func (r *recordingSender) Send(title, message string) error {
	r.calls++
	r.title, r.message = title, message
	return errors.New("no notification daemon")
}

func TestNotifierSendsOnFinish(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifierWithSender(sender)

	n.RunStarted(1, 10)
	n.ItemSkipped(1)
	n.ItemFetched(downloader.Result{ID: 2})
	require.Zero(t, sender.calls)

	n.RunFinished(scraper.Summary{LastID: 4, MaxID: 10, Saved: 2, Skipped: 1, Interrupted: true})

	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "gutenfetch interrupted", sender.title)
	assert.Equal(t, "Checkpoint 4/10: 2 saved, 0 not found, 0 failed, 1 skipped", sender.message)
}

func TestNotificationTitle(t *testing.T) {
	assert.Equal(t, "gutenfetch finished", NotificationTitle(scraper.Summary{LastID: 5, MaxID: 5}))
	assert.Equal(t, "gutenfetch stopped", NotificationTitle(scraper.Summary{LastID: 2, MaxID: 5}))
}

func TestNotifierWithoutSender(t *testing.T) {
	n := NewNotifierWithSender(nil)
	assert.NotPanics(t, func() {
		n.RunFinished(scraper.Summary{})
	})
}
