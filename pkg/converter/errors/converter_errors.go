package errors

import (
	"fmt"
	"strings"
)

// ArchiveError means the source archive could not be used at all.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %q: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

func NewArchiveError(path string, err error) error {
	return &ArchiveError{Path: path, Err: err}
}

// Stage identifies where a page failed.
type Stage string

const (
	StageRead      Stage = "read"
	StageDecode    Stage = "decode"
	StageTransform Stage = "transform"
	StageEncode    Stage = "encode"
)

// PageError is a recoverable failure of a single page.
type PageError struct {
	Index int
	Name  string
	Stage Stage
	Err   error
}

func (e *PageError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("page %d (%s): %s: %v", e.Index, e.Name, e.Stage, e.Err)
	}
	return fmt.Sprintf("page %d: %s: %v", e.Index, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

func NewPageError(index int, name string, stage Stage, err error) *PageError {
	return &PageError{Index: index, Name: name, Stage: stage, Err: err}
}

// TooManyFailuresError aborts a job whose failed page ratio is above the threshold.
type TooManyFailuresError struct {
	Failed  int
	Total   int
	Samples []string
}

func (e *TooManyFailuresError) Error() string {
	msg := fmt.Sprintf("too many page failures: %d of %d pages failed", e.Failed, e.Total)
	if len(e.Samples) > 0 {
		msg += " (" + strings.Join(e.Samples, "; ") + ")"
	}
	return msg
}

// AssemblyError is raised when a container cannot be built.
type AssemblyError struct {
	Container string
	Err       error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("failed to assemble %s: %v", e.Container, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

func NewAssemblyError(container string, err error) error {
	return &AssemblyError{Container: container, Err: err}
}

// ExternalToolError is returned when a required binary is not available.
type ExternalToolError struct {
	Tool string
	Err  error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("external tool %s unavailable: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// ConversionError is returned when an external tool ran but failed.
type ConversionError struct {
	Tool     string
	ExitCode int
	Output   string
}

func (e *ConversionError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, out)
}
