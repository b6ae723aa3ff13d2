package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// Stream is a running subprocess whose standard output is read
// incrementally. Standard error is buffered and returned by Wait.
type Stream struct {
	cmd    *exec.Cmd
	ctx    context.Context
	cancel context.CancelFunc
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr bytes.Buffer
	start  time.Time

	waitOnce sync.Once
	result   *Result
	err      error

	mu      sync.Mutex
	stopped bool
}

// Start launches cmd and returns once the process is running. The caller
// reads Stdout until EOF and then calls Wait, or calls Stop to abandon it.
func Start(ctx context.Context, cmd Command) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	c, err := build(ctx, cmd)
	if err != nil {
		cancel()
		return nil, err
	}

	s := &Stream{cmd: c, ctx: ctx, cancel: cancel}
	c.Stderr = &s.stderr
	s.stdout, err = c.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("process: stdout pipe: %w", err)
	}

	if cmd.OpenStdin {
		if cmd.Stdin != nil {
			cancel()
			return nil, fmt.Errorf("process: Stdin and OpenStdin are exclusive")
		}
		s.stdin, err = c.StdinPipe()
		if err != nil {
			cancel()
			return nil, fmt.Errorf("process: stdin pipe: %w", err)
		}
	}

	s.start = time.Now()
	if err := c.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}
	return s, nil
}

// Stdout returns the process output. It reaches EOF when the process
// closes its output or is stopped.
func (s *Stream) Stdout() io.Reader { return s.stdout }

// Stdin returns the process input when the command was started with
// OpenStdin, nil otherwise. Closing it signals EOF to the process.
func (s *Stream) Stdin() io.WriteCloser { return s.stdin }

// Pid returns the process id.
func (s *Stream) Pid() int { return s.cmd.Process.Pid }

// Wait waits for the process to exit and returns its result. Stderr is
// only complete after Wait returns. Safe to call more than once.
func (s *Stream) Wait() (*Result, error) {
	s.waitOnce.Do(func() {
		err := s.cmd.Wait()
		s.result = &Result{
			Stderr:   s.stderr.Bytes(),
			ExitCode: exitCode(s.cmd),
			Duration: time.Since(s.start),
		}
		s.mu.Lock()
		stopped := s.stopped
		s.mu.Unlock()
		if err != nil && stopped {
			err = nil
		}
		s.err = wrapExit(s.ctx, s.result, err)
		s.cancel()
	})
	return s.result, s.err
}

// Stop terminates the process group and waits for it to exit. A process
// ended by Stop is not reported as an error.
func (s *Stream) Stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	s.cancel()
	_, err := s.Wait()
	return err
}
