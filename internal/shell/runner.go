// Package shell runs the external macOS tools the collectors depend on.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/breeze-rmm/app-inventory/internal/logging"
)

var log = logging.L("shell")

// MaxStderrSize caps how much stderr is kept for error reporting.
const MaxStderrSize = 64 * 1024

const waitDelay = 2 * time.Second

// Runner executes a command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandExecutionError reports a failed external command. Err is the
// underlying cause (exit status, missing binary, cancellation).
type CommandExecutionError struct {
	Command string
	Args    []string
	Stderr  string
	Err     error
}

func (e *CommandExecutionError) Error() string {
	msg := fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *CommandExecutionError) Unwrap() error { return e.Err }

// IsCommandExecutionError reports whether err wraps a CommandExecutionError.
func IsCommandExecutionError(err error) bool {
	var cmdErr *CommandExecutionError
	return errors.As(err, &cmdErr)
}

// ExecRunner runs commands with os/exec. A zero Timeout means no deadline
// beyond the caller's context.
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner returns an ExecRunner with the given per-command timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes name with args and returns stdout. Any failure is reported as
// a *CommandExecutionError.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: MaxStderrSize}
	// Children that inherit the pipes must not keep Run blocked after a kill.
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	log.Debug("command finished",
		logging.KeyCommand, name,
		"args", len(args),
		logging.KeyDurationMs, time.Since(start).Milliseconds(),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, &CommandExecutionError{
			Command: name,
			Args:    args,
			Stderr:  stderr.String(),
			Err:     err,
		}
	}

	return stdout.Bytes(), nil
}

// limitedWriter wraps a buffer with a size limit
type limitedWriter struct {
	buf     *bytes.Buffer
	limit   int
	written int
}

func (w *limitedWriter) Write(p []byte) (n int, err error) {
	total := len(p)
	if w.written >= w.limit {
		return total, nil
	}

	remaining := w.limit - w.written
	if len(p) > remaining {
		p = p[:remaining]
	}

	n, err = w.buf.Write(p)
	w.written += n
	if err != nil {
		return n, err
	}
	return total, nil
}
