package errs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture(t *testing.T) {
	tests := []struct {
		name     string
		initial  error
		errFunc  func() error
		msg      string
		expected string
	}{
		{
			name:     "No error from errFunc",
			initial:  nil,
			errFunc:  func() error { return nil },
			msg:      "closing archive",
			expected: "",
		},
		{
			name:     "Error from errFunc with no initial error",
			initial:  nil,
			errFunc:  func() error { return errors.New("close failed") },
			msg:      "closing archive",
			expected: "closing archive: close failed",
		},
		{
			name:     "Error from errFunc with initial error",
			initial:  errors.New("read failed"),
			errFunc:  func() error { return errors.New("close failed") },
			msg:      "closing archive",
			expected: "read failed\nclosing archive: close failed",
		},
		{
			name:     "Initial error kept when errFunc succeeds",
			initial:  fmt.Errorf("wrapped: %w", errors.New("read failed")),
			errFunc:  func() error { return nil },
			msg:      "closing archive",
			expected: "wrapped: read failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.initial
			Capture(&err, tt.errFunc, tt.msg)
			if tt.expected == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestCaptureKeepsCauseChain(t *testing.T) {
	sentinel := errors.New("sentinel")
	var err error
	Capture(&err, func() error { return sentinel }, "cleanup")
	assert.ErrorIs(t, err, sentinel)
}

func TestCaptureGeneric(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "scratch")
	require.NoError(t, os.MkdirAll(target, 0o755))

	var err error
	CaptureGeneric(&err, os.RemoveAll, target, "failed to remove scratch dir")
	assert.NoError(t, err)
	assert.NoDirExists(t, target)

	failing := func(name string) error { return fmt.Errorf("cannot remove %s", name) }
	CaptureGeneric(&err, failing, "x", "cleanup")
	require.Error(t, err)
	assert.Equal(t, "cleanup: cannot remove x", err.Error())
}
