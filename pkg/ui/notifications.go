package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"gutenfetch/internal/downloader"
	"gutenfetch/pkg/scraper"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// Notifier sends a desktop notification when a run ends.
// It implements scraper.Observer and ignores per-item events.
type Notifier struct {
	sender NotificationSender
}

// NewNotifier creates a Notifier for the current platform. Platforms
// without a sender get a Notifier that does nothing.
func NewNotifier() *Notifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	}

	return &Notifier{sender: sender}
}

// NewNotifierWithSender creates a Notifier using sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

func (n *Notifier) RunStarted(startID, maxID int)   {}
func (n *Notifier) ItemSkipped(id int)              {}
func (n *Notifier) ItemFetched(r downloader.Result) {}

// RunFinished sends the run summary. Delivery failures are ignored.
func (n *Notifier) RunFinished(s scraper.Summary) {
	if n.sender == nil {
		return
	}
	_ = n.sender.Send(NotificationTitle(s), NotificationMessage(s))
}

// NotificationTitle describes how the run ended
func NotificationTitle(s scraper.Summary) string {
	switch {
	case s.Interrupted:
		return "gutenfetch interrupted"
	case s.Complete():
		return "gutenfetch finished"
	default:
		return "gutenfetch stopped"
	}
}

// NotificationMessage summarises the run counters
func NotificationMessage(s scraper.Summary) string {
	return fmt.Sprintf("Checkpoint %d/%d: %d saved, %d not found, %d failed, %d skipped",
		s.LastID, s.MaxID, s.Saved, s.NotFound, s.Failed, s.Skipped)
}
