package bridge

import (
	"errors"
	"fmt"

	"github.com/mj1618/device-bridge/internal/capture"
	"github.com/mj1618/device-bridge/internal/gesture"
)

// Kind is the machine-readable failure category reported to controllers.
type Kind string

const (
	KindNoService       Kind = "NO_SERVICE"
	KindBadArgs         Kind = "BAD_ARGS"
	KindCaptureFailed   Kind = "CAPTURE_FAILED"
	KindCaptureTimeout  Kind = "CAPTURE_TIMEOUT"
	KindGestureRejected Kind = "GESTURE_REJECTED"
	KindNotImplemented  Kind = "NOT_IMPLEMENTED"
	KindInternal        Kind = "INTERNAL"
)

// Error is a command failure with a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, "" for nil and INTERNAL for errors that
// did not come from a command.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

var errNoService = newError(KindNoService, "device service inactive", nil)

func badArgs(format string, args ...any) *Error {
	return newError(KindBadArgs, fmt.Sprintf(format, args...), nil)
}

func captureError(err error) error {
	var pe *capture.PlatformError
	switch {
	case errors.Is(err, capture.ErrTimeout):
		return newError(KindCaptureTimeout, "screenshot timed out", err)
	case errors.Is(err, capture.ErrNoDisplay):
		return newError(KindCaptureFailed, capture.ErrNoDisplay.Error(), nil)
	case errors.As(err, &pe):
		return newError(KindCaptureFailed, fmt.Sprintf("screenshot failed with code %d", pe.Code), err)
	case isContextErr(err):
		return err
	default:
		return newError(KindCaptureFailed, "screenshot failed", err)
	}
}

func gestureError(err error) error {
	if errors.Is(err, gesture.ErrRejected) {
		return newError(KindGestureRejected, "tap cancelled by the platform", err)
	}
	return err
}
