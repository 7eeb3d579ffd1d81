// Package xassert provides the one fatal invariant check used by the
// pipeline stages. Protocol invariant violations (e.g. an out-of-order
// avg_index) indicate a pipeline-internal bug, not a recoverable runtime
// condition, so they panic rather than returning an error.
package xassert

import "fmt"

// That panics with a formatted message if cond is false.
func That(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
