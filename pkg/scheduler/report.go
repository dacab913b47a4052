package scheduler

import (
	"fmt"

	"github.com/belphemur/comically/internal/manga"
	converterrors "github.com/belphemur/comically/pkg/converter/errors"
)

// Status is the overall outcome of a run.
type Status int

const (
	Succeeded Status = iota
	SucceededWithFailures
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case SucceededWithFailures:
		return "succeeded with failures"
	default:
		return "failed"
	}
}

// Report describes what happened to every page of a run.
type Report struct {
	// Pages holds the processed pages in reading order.
	Pages []manga.ProcessedPage
	// Succeeded counts source pages that produced output.
	Succeeded int
	// Failures are sorted by page index.
	Failures []*converterrors.PageError
	// Cancelled is set when the context ended before every page was processed.
	Cancelled bool
	// Aborted is set when the failure ratio went over the allowed maximum.
	Aborted bool
}

// Total is the number of source pages seen.
func (r *Report) Total() int {
	return r.Succeeded + len(r.Failures)
}

func (r *Report) Status() Status {
	switch {
	case r.Cancelled, r.Aborted, r.Succeeded == 0:
		return Failed
	case len(r.Failures) > 0:
		return SucceededWithFailures
	default:
		return Succeeded
	}
}

// Summary is a one line description, e.g. "9 succeeded, 1 failed".
func (r *Report) Summary() string {
	summary := fmt.Sprintf("%d succeeded, %d failed", r.Succeeded, len(r.Failures))
	if r.Cancelled {
		summary += ", cancelled"
	}
	return summary
}
