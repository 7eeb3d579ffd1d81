// Package logging wraps github.com/charmbracelet/log with the small set
// of named categories the teacher's never-implemented src/textcolor.go
// stub (dw_color_e: DW_COLOR_INFO, DW_COLOR_ERROR, DW_COLOR_REC,
// DW_COLOR_DEBUG) only ever sketched out. This is that wiring, done for
// real: one leveled, structured logger shared by every stage.
package logging

import (
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// New returns the process-wide logger, writing leveled, timestamped
// lines to stderr (stdout is reserved for the dumping stage's power
// readings).
func New() *charmlog.Logger {
	return charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}

// For returns a child logger prefixed with component, e.g. "sampling",
// "fft", "controller", "manager".
func For(base *charmlog.Logger, component string) *charmlog.Logger {
	return base.WithPrefix(component)
}
