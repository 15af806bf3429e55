package ui

import (
	"fmt"
	"os"
)

// Notices are printed to stderr so they never interleave with streamed
// answer content on stdout.

// Transient prints a short non-blocking notice (e.g. "Request cancelled.").
func Transient(styles *Styles, msg string) {
	fmt.Fprintln(os.Stderr, styles.Muted.Render(msg))
}

// Errorf prints a dismissible error notice.
func Errorf(styles *Styles, format string, args ...any) {
	fmt.Fprintln(os.Stderr, styles.Error.Render(fmt.Sprintf(format, args...)))
}
