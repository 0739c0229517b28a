// Package debug carries the CLI's verbosity switches and the printing helpers
// that honour them.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	enabled     = os.Getenv("JIRA2ADO_DEBUG") != ""
	verboseMode = false
	quietMode   = false

	outMu  sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

// SetOutput redirects normal and diagnostic output. It returns a function
// restoring the previous writers.
func SetOutput(out, errOut io.Writer) (restore func()) {
	outMu.Lock()
	defer outMu.Unlock()
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	return func() {
		outMu.Lock()
		defer outMu.Unlock()
		stdout, stderr = prevOut, prevErr
	}
}

// Logf writes a diagnostic line to stderr when debug output is enabled.
func Logf(format string, args ...interface{}) {
	if Enabled() {
		write(stderr, fmt.Sprintf(format, args...))
	}
}

// PrintNormal prints output unless quiet mode is enabled
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		write(stdout, fmt.Sprintf(format, args...))
	}
}

// PrintlnNormal prints a line unless quiet mode is enabled
func PrintlnNormal(args ...interface{}) {
	if !quietMode {
		write(stdout, fmt.Sprintln(args...))
	}
}

// Warnf writes a warning to stderr. Warnings are shown even in quiet mode.
func Warnf(format string, args ...interface{}) {
	write(stderr, "Warning: "+fmt.Sprintf(format, args...))
}

func write(w io.Writer, s string) {
	outMu.Lock()
	defer outMu.Unlock()
	_, _ = io.WriteString(w, s)
}
