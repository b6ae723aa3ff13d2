package process

import (
	"io"
	"strings"
	"time"
)

// Command describes one subprocess invocation.
type Command struct {
	Binary string
	Args   []string
	// Dir defaults to the current directory.
	Dir string
	// Env entries (key=value) are added to the parent environment.
	Env   []string
	Stdin io.Reader
	// OpenStdin gives a Stream a writable standard input, see
	// Stream.Stdin. It cannot be combined with Stdin.
	OpenStdin bool
	// GracePeriod separates SIGTERM from SIGKILL on cancellation.
	// Zero means DefaultGracePeriod.
	GracePeriod time.Duration
}

// Result reports how a subprocess ended. Stdout is empty for streams,
// whose output is consumed through Stream.Stdout.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 when the process never started or was killed.
	ExitCode int
	Duration time.Duration
}

// maxDetail bounds the stderr excerpt carried into errors.
const maxDetail = 512

// Detail returns the last part of the trimmed stderr output, suitable for
// appending to an error message. Helpers print their traceback last.
func (r *Result) Detail() string {
	if r == nil {
		return ""
	}
	s := strings.TrimSpace(string(r.Stderr))
	if len(s) > maxDetail {
		s = "..." + s[len(s)-maxDetail:]
	}
	return s
}
