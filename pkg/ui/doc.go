// Package ui provides terminal output for the downloader: colored status
// messages, the run progress bar and end of run notifications.
package ui
