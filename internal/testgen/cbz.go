package testgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Entry is a file stored in a generated archive.
type Entry struct {
	Name string
	Data []byte
}

// CBZOptions tunes a generated archive.
type CBZOptions struct {
	// Comment is set as the zip comment.
	Comment string
	// ComicInfo is stored as ComicInfo.xml when not empty.
	ComicInfo string
}

// Pages returns count PNG gradient pages named page1.png, page2.png...
func Pages(t testing.TB, count, width, height int) []Entry {
	t.Helper()
	entries := make([]Entry, 0, count)
	for i := 0; i < count; i++ {
		entries = append(entries, Entry{
			Name: fmt.Sprintf("page%d.png", i+1),
			Data: PNG(t, Gradient(width+i, height)),
		})
	}
	return entries
}

// CBZBytes builds a zip archive in memory.
func CBZBytes(t testing.TB, entries []Entry, opts CBZOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if opts.ComicInfo != "" {
		entries = append([]Entry{{Name: "ComicInfo.xml", Data: []byte(opts.ComicInfo)}}, entries...)
	}
	for _, entry := range entries {
		w, err := zw.Create(entry.Name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			t.Fatalf("failed to write %s: %v", entry.Name, err)
		}
	}
	if opts.Comment != "" {
		if err := zw.SetComment(opts.Comment); err != nil {
			t.Fatalf("failed to set comment: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return buf.Bytes()
}

// WriteCBZ writes a generated archive to dir and returns its path.
func WriteCBZ(t testing.TB, dir, filename string, entries []Entry, opts CBZOptions) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, CBZBytes(t, entries, opts), 0o644); err != nil {
		t.Fatalf("failed to write CBZ file: %v", err)
	}
	return path
}

// ComicInfo returns a minimal ComicInfo.xml document.
func ComicInfo(title, series string, manga bool) string {
	mangaValue := "No"
	if manga {
		mangaValue = "YesAndRightToLeft"
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ComicInfo>
  <Title>%s</Title>
  <Series>%s</Series>
  <Writer>Jane Doe</Writer>
  <LanguageISO>ja</LanguageISO>
  <Manga>%s</Manga>
</ComicInfo>
`, title, series, mangaValue)
}
