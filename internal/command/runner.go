// Package command runs the external window-listing, capture and image
// transform utilities the bridge delegates to.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executes an external program and returns its standard output.
// A missing executable, a non-zero exit and a deadline all return an error.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

// Error describes a failed invocation.
type Error struct {
	Name   string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Name, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err came from an executable missing on PATH.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}

// Exec runs programs with os/exec, bounding each call by Timeout and
// injecting the X11 session environment.
type Exec struct {
	Session X11Session
	Timeout time.Duration
}

var _ Runner = (*Exec)(nil)

// NewExec creates a runner for the given X11 hints and per-call timeout.
func NewExec(session X11Session, timeout time.Duration) *Exec {
	return &Exec{Session: session, Timeout: timeout}
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = e.Session.Environ(cmd.Environ())
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return nil, &Error{Name: name, Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
