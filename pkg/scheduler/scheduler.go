// Package scheduler runs the page transformer over a page source with a
// bounded number of workers and collects the results in reading order.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/belphemur/comically/internal/manga"
	converterrors "github.com/belphemur/comically/pkg/converter/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPrefetch        = 2
	DefaultMaxFailureRatio = 0.5
	maxFailureSamples      = 3
)

// PageSource yields raw pages until io.EOF. A *errors.PageError return is
// recorded as a failed page and reading goes on.
type PageSource interface {
	Next() (*manga.RawPage, error)
}

// Transformer turns one raw page into its output pages.
type Transformer func(raw manga.RawPage, cfg manga.ProcessingConfig) ([]manga.ProcessedPage, error)

type Options struct {
	// Name identifies the job in logs and errors.
	Name string
	// Workers is the number of pages transformed at once. Defaults to the
	// config's worker count, then to the number of CPUs.
	Workers int
	// Prefetch is how many raw pages are read ahead of the workers.
	Prefetch int
	// MaxFailureRatio is the failed/total ratio above which the run fails.
	MaxFailureRatio float64
	Progress        func(message string, current uint32, total uint32)
}

func (o Options) withDefaults(cfg manga.ProcessingConfig) Options {
	if o.Workers <= 0 {
		o.Workers = cfg.Workers
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Prefetch <= 0 {
		o.Prefetch = DefaultPrefetch
	}
	if o.MaxFailureRatio <= 0 {
		o.MaxFailureRatio = cfg.MaxFailureRatio
	}
	if o.MaxFailureRatio <= 0 || o.MaxFailureRatio > 1 {
		o.MaxFailureRatio = DefaultMaxFailureRatio
	}
	if o.Progress == nil {
		o.Progress = func(string, uint32, uint32) {}
	}
	return o
}

// Run transforms every page of src. At most Workers pages are transformed at
// once and at most Workers+Prefetch+1 raw pages are held in memory.
//
// Failed pages are skipped and listed in the report. Run fails when the
// source had no page, or when every page or more than MaxFailureRatio of
// them failed. On cancellation pages already started are finished, the
// others are skipped and the returned error wraps ctx.Err().
func Run(ctx context.Context, src PageSource, cfg manga.ProcessingConfig, fn Transformer, opts Options) (*Report, error) {
	opts = opts.withDefaults(cfg)

	var total uint32
	if sized, ok := src.(interface{ Len() int }); ok {
		total = uint32(sized.Len())
	}

	var (
		mu       sync.Mutex
		results  = make(map[int][]manga.ProcessedPage)
		failures []*converterrors.PageError
		done     uint32
	)
	recordFailure := func(pageErr *converterrors.PageError) {
		log.Warn().Str("job", opts.Name).Err(pageErr).Msg("Page skipped")
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, pageErr)
		done++
		opts.Progress(fmt.Sprintf("Skipped page %d", pageErr.Index), done, max(total, done))
	}

	// the page held by the dispatcher counts towards Prefetch
	raws := make(chan *manga.RawPage, opts.Prefetch-1)
	var (
		readErr   error
		exhausted bool
	)
	go func() {
		defer close(raws)
		for ctx.Err() == nil {
			raw, err := src.Next()
			if errors.Is(err, io.EOF) {
				exhausted = true
				return
			}
			if err != nil {
				var pageErr *converterrors.PageError
				if errors.As(err, &pageErr) {
					recordFailure(pageErr)
					continue
				}
				readErr = err
				return
			}
			select {
			case raws <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	g := new(errgroup.Group)
	g.SetLimit(opts.Workers)
	// dropped is owned by Run, skipped by the workers under mu
	dropped, skipped := 0, 0

dispatch:
	for {
		var raw *manga.RawPage
		select {
		case next, ok := <-raws:
			if !ok {
				break dispatch
			}
			raw = next
		case <-ctx.Done():
			break dispatch
		}
		if ctx.Err() != nil {
			dropped++
			break
		}
		// blocks while Workers pages are being transformed
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				defer mu.Unlock()
				skipped++
				return nil
			}
			pages, pageErr := transformPage(fn, raw, cfg)
			if pageErr != nil {
				recordFailure(pageErr)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			results[raw.Index] = pages
			done++
			opts.Progress(fmt.Sprintf("Converted %d/%d pages", done, max(total, done)), done, max(total, done))
			return nil
		})
	}
	_ = g.Wait()
	dropped += skipped
	// the reader may still be blocked on a send after a cancellation
	for range raws {
		dropped++
	}

	if readErr != nil {
		return nil, converterrors.NewArchiveError(opts.Name, readErr)
	}

	report := buildReport(results, failures)
	log.Debug().Str("job", opts.Name).Str("summary", report.Summary()).Msg("Pages processed")

	if err := ctx.Err(); err != nil && (!exhausted || dropped > 0) {
		report.Cancelled = true
		return report, fmt.Errorf("conversion of %s cancelled after %d pages: %w", opts.Name, report.Total(), err)
	}
	if report.Total() == 0 {
		return report, converterrors.NewArchiveError(opts.Name, errors.New("archive contains no pages"))
	}
	failed := len(report.Failures)
	if failed == report.Total() || float64(failed)/float64(report.Total()) > opts.MaxFailureRatio {
		report.Aborted = true
		samples := lo.Map(report.Failures[:min(failed, maxFailureSamples)], func(e *converterrors.PageError, _ int) string {
			return e.Error()
		})
		return report, &converterrors.TooManyFailuresError{Failed: failed, Total: report.Total(), Samples: samples}
	}
	return report, nil
}

// transformPage runs fn and turns any failure, panics included, into a
// PageError.
func transformPage(fn Transformer, raw *manga.RawPage, cfg manga.ProcessingConfig) (pages []manga.ProcessedPage, pageErr *converterrors.PageError) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			pageErr = converterrors.NewPageError(raw.Index, raw.Name, converterrors.StageTransform, fmt.Errorf("panic: %v", r))
		}
	}()

	pages, err := fn(*raw, cfg)
	if err == nil {
		return pages, nil
	}
	if errors.As(err, &pageErr) {
		return nil, pageErr
	}
	return nil, converterrors.NewPageError(raw.Index, raw.Name, converterrors.StageTransform, err)
}

func buildReport(results map[int][]manga.ProcessedPage, failures []*converterrors.PageError) *Report {
	indexes := lo.Keys(results)
	slices.Sort(indexes)

	report := &Report{Succeeded: len(indexes)}
	for _, index := range indexes {
		report.Pages = append(report.Pages, results[index]...)
	}
	manga.SortPages(report.Pages)

	slices.SortFunc(failures, func(a, b *converterrors.PageError) int {
		return a.Index - b.Index
	})
	report.Failures = failures
	return report
}
