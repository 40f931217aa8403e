package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"gutenfetch/internal/downloader"
	"gutenfetch/pkg/scraper"
)

// ProgressDisplay renders a single progress bar over the ID range.
// It implements scraper.Observer.
type ProgressDisplay struct {
	mu       sync.Mutex
	out      io.Writer
	enabled  bool
	throttle time.Duration
	bar      *progressbar.ProgressBar

	saved    int
	notFound int
	failed   int
	skipped  int
	bytes    int64
}

// NewProgressDisplay creates a display writing to out. A disabled display
// only keeps counters.
func NewProgressDisplay(out io.Writer, enabled bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:      out,
		enabled:  enabled,
		throttle: 100 * time.Millisecond,
	}
}

// RunStarted creates the bar over [startID, maxID]
func (p *ProgressDisplay) RunStarted(startID, maxID int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := maxID - startID + 1
	if !p.enabled || total <= 0 {
		return
	}

	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(fmt.Sprintf("Book %d", startID)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("ids"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(p.throttle),
		progressbar.OptionEnableColorCodes(!color.NoColor),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.out)
		}),
	)
}

// ItemSkipped advances the bar for an ID already on disk
func (p *ProgressDisplay) ItemSkipped(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.skipped++
	p.advance(id, "exists")
}

// ItemFetched advances the bar with the fetch outcome
func (p *ProgressDisplay) ItemFetched(result downloader.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch result.Outcome {
	case downloader.OutcomeSaved:
		p.saved++
		p.bytes += result.Bytes
	case downloader.OutcomeNotFound:
		p.notFound++
	default:
		p.failed++
	}
	p.advance(result.ID, result.Outcome.String())
}

func (p *ProgressDisplay) advance(id int, label string) {
	if p.bar == nil {
		return
	}
	p.bar.Describe(fmt.Sprintf("Book %d %s", id, label))
	_ = p.bar.Add(1)
}

// RunFinished closes the bar. An incomplete run leaves it where it stopped.
func (p *ProgressDisplay) RunFinished(summary scraper.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	if summary.Complete() {
		_ = p.bar.Finish()
	} else {
		_ = p.bar.Exit()
		fmt.Fprintln(p.out)
	}
	p.bar = nil
}

// Counts returns saved, not found, failed and skipped totals seen so far
func (p *ProgressDisplay) Counts() (saved, notFound, failed, skipped int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved, p.notFound, p.failed, p.skipped
}

// PrintSummary prints the end of run report
func PrintSummary(s scraper.Summary) {
	status := Green("complete")
	switch {
	case s.Interrupted:
		status = Yellow("interrupted")
	case !s.Complete():
		status = Red("stopped")
	}

	PrintHighlight(fmt.Sprintf("Run %s", status))
	PrintInfo("  Range", fmt.Sprintf("%d-%d", s.StartID, s.MaxID))
	PrintInfo("  Checkpoint", fmt.Sprintf("%d", s.LastID))
	PrintInfo("  Saved", fmt.Sprintf("%d (%s)", s.Saved, humanize.Bytes(uint64(s.Bytes))))
	PrintInfo("  Not found", fmt.Sprintf("%d", s.NotFound))
	PrintInfo("  Failed", fmt.Sprintf("%d", s.Failed))
	PrintInfo("  Skipped", fmt.Sprintf("%d", s.Skipped))
	PrintInfo("  Elapsed", s.Elapsed.Round(time.Second).String())
}
