// Package logger provides leveled diagnostic output for the CLI.
//
// Debug messages are suppressed unless verbose mode is enabled; warnings
// are always emitted. All output goes to stderr so it never mixes with
// command results on stdout.
package logger

import (
	"log"
	"os"
	"sync/atomic"
)

var (
	verbose atomic.Bool

	out = log.New(os.Stderr, "", log.LstdFlags)
)

// SetVerbose enables or disables debug output.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// Debug logs a formatted message when verbose mode is enabled.
func Debug(format string, args ...any) {
	if verbose.Load() {
		out.Printf("DEBUG "+format, args...)
	}
}

// Warn logs a formatted warning message.
func Warn(format string, args ...any) {
	out.Printf("WARN "+format, args...)
}
