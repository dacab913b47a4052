package errs

import (
	"errors"
	"fmt"
)

// Capture runs closeFunc and joins its error, if any, into *errPtr. The error
// already stored in *errPtr is kept so a failed close never hides the cause of
// an earlier failure.
func Capture(errPtr *error, closeFunc func() error, msg string) {
	if err := closeFunc(); err != nil {
		*errPtr = errors.Join(*errPtr, fmt.Errorf("%s: %w", msg, err))
	}
}

// CaptureGeneric is Capture for cleanup functions taking a single argument,
// such as os.RemoveAll.
func CaptureGeneric[K any](errPtr *error, cleanup func(value K) error, value K, msg string) {
	Capture(errPtr, func() error { return cleanup(value) }, msg)
}
