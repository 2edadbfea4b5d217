// Package adb is a device-state provider backed by the Android Debug
// Bridge. It reads the UI tree with uiautomator, captures frames with
// screencap and injects taps with input swipe.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes one adb invocation and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs the adb binary, targeting Serial when it is set.
type ExecRunner struct {
	Path   string
	Serial string
}

func (r ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	path := r.Path
	if path == "" {
		path = "adb"
	}
	full := args
	if r.Serial != "" {
		full = append([]string{"-s", r.Serial}, args...)
	}
	cmd := exec.CommandContext(ctx, path, full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return out, &CommandError{Args: args, Message: msg, Err: err}
	}
	return out, nil
}

// CommandError is a failed adb invocation.
type CommandError struct {
	Args    []string
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("adb %s: %s", strings.Join(e.Args, " "), e.Message)
}

func (e *CommandError) Unwrap() error { return e.Err }

// exitCode returns the process exit status of err, or -1.
func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
