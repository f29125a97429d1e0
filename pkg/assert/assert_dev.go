//go:build !release

package assert

import (
	"fmt"
	"runtime"
)

// Enabled reports whether assertions are compiled in.
const Enabled = true

// That panics with the formatted message, prefixed with the caller's file and line, when cond is
// false.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if _, file, line, ok := runtime.Caller(1); ok {
		msg = fmt.Sprintf("assertion failed at %s:%d: %s", file, line, msg)
	}
	panic(msg)
}
