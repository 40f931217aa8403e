package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ASCII logo for the application
const ASCIILogo = `
   ___ _   _ _____ ___ _  _ ___ ___ _____ ___ _  _
  / __| | | |_   _| __| \| | __| __|_   _/ __| || |
 | (_ | |_| | | | | _|| .' | _|| _|  | || (__| __ |
  \___|\___/  |_| |___|_|\_|_| |___| |_| \___|_||_|
        project gutenberg epub downloader
`

// Color functions for terminal output
var (
	Cyan    = color.New(color.FgCyan).SprintFunc()
	Yellow  = color.New(color.FgYellow).SprintFunc()
	Red     = color.New(color.FgRed).SprintFunc()
	Green   = color.New(color.FgGreen).SprintFunc()
	Magenta = color.New(color.FgMagenta).SprintFunc()
	Dim     = color.New(color.Faint).SprintFunc()
	Bold    = color.New(color.Bold).SprintFunc()
)

var (
	mu     sync.Mutex
	stdout io.Writer = color.Output
	stderr io.Writer = color.Error
	quiet  bool
)

// SetOutput redirects terminal messages. Errors go to errOut.
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdout = out
	stderr = errOut
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = enabled
}

// IsQuiet reports whether quiet mode is on
func IsQuiet() bool {
	mu.Lock()
	defer mu.Unlock()
	return quiet
}

// SetColor toggles ANSI colors for every helper in this package
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Stdout returns the writer used for regular messages
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stdout
}

func printOut(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if quiet {
		return
	}
	fmt.Fprintf(stdout, format, args...)
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	printOut("%s\n", Cyan(ASCIILogo))
}

// PrintError prints an error message in red. It is shown in quiet mode.
func PrintError(msg string, args ...interface{}) {
	line := msg
	if len(args) > 0 {
		line = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(stderr, Red(line))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	printOut("%s\n", Green(msg))
}

// PrintInfo prints a label and value pair
func PrintInfo(label string, value string) {
	printOut("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	printOut("%s\n", Yellow(msg))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	printOut("%s\n", Magenta(msg))
}

// PrintList prints one indented bullet per item
func PrintList(items []string) {
	for _, item := range items {
		printOut("  - %s\n", item)
	}
}
