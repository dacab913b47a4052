package cbz

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/belphemur/comically/internal/manga"
	converterrors "github.com/belphemur/comically/pkg/converter/errors"
	"github.com/mholt/archives"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

var ignoredFiles = []string{"thumbs.db", ".ds_store"}

// Info is what the archive says about itself besides its pages.
type Info struct {
	Metadata manga.Metadata
	// ComicInfoXml is the raw ComicInfo.xml document, if any.
	ComicInfoXml string
	// IsConverted is set when the archive was written by this tool before.
	IsConverted   bool
	ConvertedTime time.Time
}

type stream interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// Source reads the pages of a comic archive one at a time, in natural
// filename order.
type Source struct {
	name    string
	fsys    fs.FS
	closer  io.Closer
	entries []string
	info    Info

	mu     sync.Mutex
	next   int
	closed bool
}

// Open opens the archive at filePath. CBZ, ZIP, CBR and RAR are supported,
// along with any other archive format the archives package recognises.
func Open(ctx context.Context, filePath string) (*Source, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, converterrors.NewArchiveError(filePath, err)
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, converterrors.NewArchiveError(filePath, err)
	}
	src, err := open(ctx, filePath, file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	src.closer = file
	return src, nil
}

// OpenBytes reads an archive held in memory. name is used for format
// detection and messages.
func OpenBytes(ctx context.Context, name string, data []byte) (*Source, error) {
	return open(ctx, name, bytes.NewReader(data), int64(len(data)))
}

func open(ctx context.Context, name string, r stream, size int64) (*Source, error) {
	log.Debug().Str("file_path", name).Int64("size", size).Msg("Opening archive")

	format, _, err := archives.Identify(ctx, name, r)
	if err != nil {
		if errors.Is(err, archives.NoMatch) {
			return nil, converterrors.NewArchiveError(name, errors.New("unsupported archive format"))
		}
		return nil, converterrors.NewArchiveError(name, err)
	}
	if _, ok := format.(archives.Extractor); !ok {
		return nil, converterrors.NewArchiveError(name, fmt.Errorf("%s is not an archive format", format.Extension()))
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, converterrors.NewArchiveError(name, err)
	}

	fsys, err := archives.FileSystem(ctx, name, r)
	if err != nil {
		log.Error().Str("file_path", name).Err(err).Msg("Failed to open archive file system")
		return nil, converterrors.NewArchiveError(name, fmt.Errorf("failed to open archive file: %w", err))
	}

	src := &Source{name: name, fsys: fsys}
	src.readComment(r, size)

	if err := src.scan(); err != nil {
		log.Error().Str("file_path", name).Err(err).Msg("Failed during filesystem walk")
		return nil, converterrors.NewArchiveError(name, err)
	}
	if len(src.entries) == 0 {
		return nil, converterrors.NewArchiveError(name, errors.New("archive contains no images"))
	}

	log.Debug().
		Str("file_path", name).
		Int("pages", len(src.entries)).
		Bool("is_converted", src.info.IsConverted).
		Bool("has_comic_info", src.info.ComicInfoXml != "").
		Msg("Archive opened")
	return src, nil
}

// readComment looks for the conversion timestamp left in the zip comment.
// Archives that are not zip files have no comment and are skipped silently.
func (s *Source) readComment(r io.ReaderAt, size int64) {
	zr, err := zip.NewReader(r, size)
	if err != nil || zr.Comment == "" {
		return
	}
	log.Debug().Str("file_path", s.name).Str("comment", zr.Comment).Msg("Found CBZ comment")
	s.markConverted(zr.Comment)
}

func (s *Source) markConverted(text string) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	if !scanner.Scan() {
		return
	}
	convertedTime, err := dateparse.ParseAny(strings.TrimSpace(scanner.Text()))
	if err != nil {
		log.Debug().Str("file_path", s.name).Err(err).Msg("Failed to parse conversion timestamp")
		return
	}
	s.info.IsConverted = true
	s.info.ConvertedTime = convertedTime
	log.Debug().Str("file_path", s.name).Time("converted_time", convertedTime).Msg("Archive marked as previously converted")
}

func (s *Source) scan() error {
	err := fs.WalkDir(s.fsys, ".", func(entryPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := d.Name()
		if d.IsDir() {
			if entryPath != "." && (base == "__MACOSX" || strings.HasPrefix(base, ".")) {
				return fs.SkipDir
			}
			return nil
		}
		lower := strings.ToLower(base)
		switch {
		case strings.HasPrefix(base, "."), slices.Contains(ignoredFiles, lower):
			return nil
		case lower == comicInfoName:
			return s.readComicInfo(entryPath)
		case lower == "converted.txt" && !s.info.IsConverted:
			data, err := fs.ReadFile(s.fsys, entryPath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", entryPath, err)
			}
			s.markConverted(string(data))
		case slices.Contains(imageExtensions, strings.ToLower(path.Ext(base))):
			s.entries = append(s.entries, entryPath)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slices.SortFunc(s.entries, compareNatural)
	return nil
}

func (s *Source) readComicInfo(entryPath string) error {
	data, err := fs.ReadFile(s.fsys, entryPath)
	if err != nil {
		return fmt.Errorf("failed to read ComicInfo.xml content: %w", err)
	}
	s.info.ComicInfoXml = string(data)
	info, err := parseComicInfo(data)
	if err != nil {
		// kept verbatim for the CBZ output even when it cannot be parsed
		log.Warn().Str("file_path", s.name).Err(err).Msg("Failed to parse ComicInfo.xml")
		return nil
	}
	s.info.Metadata = info.metadata()
	log.Debug().Str("file_path", s.name).Int("xml_size", len(data)).Msg("ComicInfo.xml loaded")
	return nil
}

// Name is the path or name the archive was opened with.
func (s *Source) Name() string {
	return s.name
}

// Len is the number of pages in the archive.
func (s *Source) Len() int {
	return len(s.entries)
}

// Info returns the metadata and conversion marker of the archive.
func (s *Source) Info() Info {
	return s.info
}

// Next returns the next page and io.EOF once every page was returned. A page
// that cannot be read yields a *errors.PageError and the following call moves
// on to the next page.
func (s *Source) Next() (*manga.RawPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fs.ErrClosed
	}
	if s.next >= len(s.entries) {
		return nil, io.EOF
	}
	index := s.next
	entryPath := s.entries[index]
	s.next++

	data, err := fs.ReadFile(s.fsys, entryPath)
	if err != nil {
		return nil, converterrors.NewPageError(index, entryPath, converterrors.StageRead, err)
	}
	log.Trace().Str("file_path", s.name).Str("archive_file", entryPath).Int("page_index", index).Int("bytes_read", len(data)).Msg("Page loaded")
	return &manga.RawPage{Index: index, Name: entryPath, Data: data}, nil
}

// Close releases the archive. Pending pages are no longer readable.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
