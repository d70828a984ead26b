// Package jp2log provides the shared structured logger used by the box and
// entropy packages for diagnostic tracing. It is silent by default; callers
// opt in with SetLevel.
package jp2log

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// logger is the package-wide structured logger, disabled by default so that
// library consumers never see output unless they ask for it.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Level:           log.FatalLevel,
})

// Logger returns the shared logger used by box parsing and code-block
// decoding for debug-level tracing.
func Logger() *log.Logger {
	return logger
}

// SetLevel adjusts the verbosity of the shared logger. Use log.DebugLevel to
// trace box recognition and bit-plane pass execution.
func SetLevel(level log.Level) {
	logger.SetLevel(level)
}

// SetOutput redirects the shared logger's output, mainly for tests that want
// to assert on emitted trace lines.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}
