// Package debuglog is the flag-gated trace logger for the scrape path.
// Lines are tagged with the build version and an ISO timestamp; the flag is
// process-wide, loaded from the settings store at startup and flipped at
// runtime by SET_DEBUG.
package debuglog

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Logger writes trace lines only while enabled.
type Logger struct {
	enabled atomic.Bool
}

// New returns a Logger with the given initial state.
func New(enabled bool) *Logger {
	l := &Logger{}
	l.enabled.Store(enabled)
	return l
}

// Enabled reports the current flag state.
func (l *Logger) Enabled() bool { return l.enabled.Load() }

// SetEnabled flips the flag.
func (l *Logger) SetEnabled(v bool) { l.enabled.Store(v) }

// Printf logs when the flag is set; otherwise it is a no-op.
func (l *Logger) Printf(format string, args ...any) {
	if !l.enabled.Load() {
		return
	}
	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	log.Printf("[linkscrape v%s %s] %s", Version, ts, fmt.Sprintf(format, args...))
}
