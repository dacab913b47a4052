package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/belphemur/comically/internal/manga"
	"github.com/belphemur/comically/internal/testgen"
	"github.com/belphemur/comically/pkg/converter/constant"
	converterrors "github.com/belphemur/comically/pkg/converter/errors"
	"github.com/belphemur/comically/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSource struct {
	mu       sync.Mutex
	pages    []*manga.RawPage
	readErrs map[int]error
	next     int
	onNext   func()
}

func newSource(count int) *sliceSource {
	src := &sliceSource{readErrs: map[int]error{}}
	for i := 0; i < count; i++ {
		src.pages = append(src.pages, &manga.RawPage{Index: i, Name: fmt.Sprintf("page%d.png", i+1), Data: []byte{byte(i)}})
	}
	return src
}

func (s *sliceSource) Next() (*manga.RawPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.pages) {
		return nil, io.EOF
	}
	page := s.pages[s.next]
	s.next++
	if err, ok := s.readErrs[page.Index]; ok {
		return nil, err
	}
	if s.onNext != nil {
		s.onNext()
	}
	return page, nil
}

func (s *sliceSource) Len() int {
	return len(s.pages)
}

// echo produces one page per source page, two for every third one.
func echo(raw manga.RawPage, _ manga.ProcessingConfig) ([]manga.ProcessedPage, error) {
	count := 1
	if raw.Index%3 == 0 {
		count = 2
	}
	pages := make([]manga.ProcessedPage, 0, count)
	for sub := 0; sub < count; sub++ {
		pages = append(pages, manga.ProcessedPage{
			SourceIndex: raw.Index,
			SubIndex:    sub,
			FileName:    manga.PageFileName(raw.Index, sub, constant.PNG),
		})
	}
	return pages, nil
}

func failing(indexes ...int) Transformer {
	set := map[int]bool{}
	for _, i := range indexes {
		set[i] = true
	}
	return func(raw manga.RawPage, cfg manga.ProcessingConfig) ([]manga.ProcessedPage, error) {
		if set[raw.Index] {
			return nil, converterrors.NewPageError(raw.Index, raw.Name, converterrors.StageDecode, errors.New("corrupt"))
		}
		return echo(raw, cfg)
	}
}

func TestRunKeepsReadingOrder(t *testing.T) {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(1))
	delay := func() time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return time.Duration(rng.Intn(3000)) * time.Microsecond
	}
	slow := func(raw manga.RawPage, cfg manga.ProcessingConfig) ([]manga.ProcessedPage, error) {
		time.Sleep(delay())
		return echo(raw, cfg)
	}

	for _, workers := range []int{1, 4, 16} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			report, err := Run(context.Background(), newSource(30), manga.ProcessingConfig{}, slow, Options{Workers: workers})
			require.NoError(t, err)

			assert.Equal(t, 30, report.Succeeded)
			assert.Len(t, report.Pages, 40)
			for i := 1; i < len(report.Pages); i++ {
				assert.Negative(t, manga.ComparePages(report.Pages[i-1], report.Pages[i]), "pages %d and %d out of order", i-1, i)
			}
			assert.Equal(t, Succeeded, report.Status())
		})
	}
}

func TestRunSkipsFailedPages(t *testing.T) {
	report, err := Run(context.Background(), newSource(10), manga.ProcessingConfig{}, failing(4), Options{MaxFailureRatio: 0.5})
	require.NoError(t, err)

	assert.Equal(t, 9, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 4, report.Failures[0].Index)
	assert.Equal(t, converterrors.StageDecode, report.Failures[0].Stage)
	assert.Equal(t, SucceededWithFailures, report.Status())
	assert.Equal(t, "9 succeeded, 1 failed", report.Summary())
	for _, page := range report.Pages {
		assert.NotEqual(t, 4, page.SourceIndex)
	}
}

func TestRunRecordsSourceReadFailures(t *testing.T) {
	src := newSource(5)
	src.readErrs[2] = converterrors.NewPageError(2, "page3.png", converterrors.StageRead, errors.New("bad entry"))

	report, err := Run(context.Background(), src, manga.ProcessingConfig{}, echo, Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, converterrors.StageRead, report.Failures[0].Stage)
}

func TestRunFatalSourceError(t *testing.T) {
	src := newSource(5)
	src.readErrs[1] = errors.New("archive truncated")

	_, err := Run(context.Background(), src, manga.ProcessingConfig{}, echo, Options{Name: "broken.cbz"})
	var archiveErr *converterrors.ArchiveError
	require.ErrorAs(t, err, &archiveErr)
	assert.Equal(t, "broken.cbz", archiveErr.Path)
}

func TestRunTooManyFailures(t *testing.T) {
	tests := []struct {
		name    string
		pages   int
		failing []int
		ratio   float64
	}{
		{"Above ratio", 10, []int{0, 1, 2, 3, 4, 5}, 0.5},
		{"Every page failed", 3, []int{0, 1, 2}, 1},
		{"Single page failed", 1, []int{0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Run(context.Background(), newSource(tt.pages), manga.ProcessingConfig{}, failing(tt.failing...), Options{MaxFailureRatio: tt.ratio})

			var tooMany *converterrors.TooManyFailuresError
			require.ErrorAs(t, err, &tooMany)
			assert.Equal(t, len(tt.failing), tooMany.Failed)
			assert.Equal(t, tt.pages, tooMany.Total)
			assert.LessOrEqual(t, len(tooMany.Samples), 3)
			assert.NotEmpty(t, tooMany.Samples)
			require.NotNil(t, report)
			assert.Equal(t, Failed, report.Status())
		})
	}
}

func TestRunEmptySource(t *testing.T) {
	_, err := Run(context.Background(), newSource(0), manga.ProcessingConfig{}, echo, Options{Name: "empty.cbz"})
	var archiveErr *converterrors.ArchiveError
	require.ErrorAs(t, err, &archiveErr)
}

func TestRunRecoversPanics(t *testing.T) {
	fn := func(raw manga.RawPage, cfg manga.ProcessingConfig) ([]manga.ProcessedPage, error) {
		if raw.Index == 1 {
			panic("boom")
		}
		return echo(raw, cfg)
	}
	report, err := Run(context.Background(), newSource(4), manga.ProcessingConfig{}, fn, Options{})
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, converterrors.StageTransform, report.Failures[0].Stage)
	assert.Contains(t, report.Failures[0].Error(), "boom")
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var started atomic.Int32
	fn := func(raw manga.RawPage, cfg manga.ProcessingConfig) ([]manga.ProcessedPage, error) {
		if started.Add(1) == 3 {
			cancel()
		}
		time.Sleep(time.Millisecond)
		return echo(raw, cfg)
	}

	report, err := Run(ctx, newSource(200), manga.ProcessingConfig{}, fn, Options{Workers: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.True(t, report.Cancelled)
	assert.Equal(t, Failed, report.Status())
	assert.Less(t, report.Succeeded, 200)
	assert.Equal(t, int(started.Load()), report.Succeeded)

	// every page that made it is complete
	perSource := map[int]int{}
	for _, page := range report.Pages {
		perSource[page.SourceIndex]++
	}
	for index, count := range perSource {
		expected, _ := echo(manga.RawPage{Index: index}, manga.ProcessingConfig{})
		assert.Len(t, expected, count)
	}
}

func TestRunSkipsPagesWaitingForAWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var started atomic.Int32
	fn := func(raw manga.RawPage, cfg manga.ProcessingConfig) ([]manga.ProcessedPage, error) {
		started.Add(1)
		cancel()
		// the next page is already waiting for this worker slot
		time.Sleep(5 * time.Millisecond)
		return echo(raw, cfg)
	}

	report, err := Run(ctx, newSource(10), manga.ProcessingConfig{}, fn, Options{Workers: 1})
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, report.Cancelled)
	assert.Equal(t, int32(1), started.Load())
	assert.Equal(t, 1, report.Succeeded)
}

func TestRunBoundsPagesInFlight(t *testing.T) {
	const workers, prefetch = 3, 2
	var inFlight, peak atomic.Int32

	src := newSource(60)
	src.onNext = func() {
		current := inFlight.Add(1)
		for {
			old := peak.Load()
			if current <= old || peak.CompareAndSwap(old, current) {
				break
			}
		}
	}
	fn := func(raw manga.RawPage, cfg manga.ProcessingConfig) ([]manga.ProcessedPage, error) {
		defer inFlight.Add(-1)
		time.Sleep(500 * time.Microsecond)
		return echo(raw, cfg)
	}

	report, err := Run(context.Background(), src, manga.ProcessingConfig{}, fn, Options{Workers: workers, Prefetch: prefetch})
	require.NoError(t, err)
	assert.Equal(t, 60, report.Succeeded)
	assert.LessOrEqual(t, int(peak.Load()), workers+prefetch+1)
}

func TestRunReportsProgress(t *testing.T) {
	var mu sync.Mutex
	var calls []uint32
	var lastTotal uint32
	progress := func(_ string, current, total uint32) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, current)
		lastTotal = total
	}

	_, err := Run(context.Background(), newSource(8), manga.ProcessingConfig{}, failing(2), Options{Progress: progress})
	require.NoError(t, err)
	assert.Len(t, calls, 8)
	assert.Equal(t, uint32(8), calls[len(calls)-1])
	assert.Equal(t, uint32(8), lastTotal)
}

func TestRunWithPageTransformer(t *testing.T) {
	cfg, err := manga.ProcessingConfig{
		Device:      manga.Device{Width: 300, Height: 400},
		ImageFormat: constant.PNG,
		Workers:     4,
	}.Resolve()
	require.NoError(t, err)

	src := newSource(0)
	for i, entry := range testgen.Pages(t, 10, 150, 200) {
		data := entry.Data
		if i == 6 {
			data = data[:len(data)/3]
		}
		src.pages = append(src.pages, &manga.RawPage{Index: i, Name: entry.Name, Data: data})
	}

	report, err := Run(context.Background(), src, cfg, transform.Transform, Options{})
	require.NoError(t, err)
	assert.Equal(t, 9, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 6, report.Failures[0].Index)
	assert.Equal(t, "page7.png", report.Failures[0].Name)
	assert.Len(t, report.Pages, 9)
	for _, page := range report.Pages {
		assert.Equal(t, constant.PNG, page.Format)
		assert.LessOrEqual(t, page.Width, 300)
		assert.LessOrEqual(t, page.Height, 400)
	}
}
