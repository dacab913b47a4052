package commands

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/belphemur/comically/internal/cbz"
	"github.com/belphemur/comically/internal/testgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runConvert(t *testing.T, args ...string) error {
	t.Helper()
	command := newConvertCommand()
	command.SetArgs(args)
	command.SetOut(io.Discard)
	command.SetErr(io.Discard)
	return command.ExecuteContext(context.Background())
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

func TestConvertCommand(t *testing.T) {
	input := t.TempDir()
	output := filepath.Join(t.TempDir(), "converted")
	require.NoError(t, os.Mkdir(filepath.Join(input, "nested"), 0o755))

	testgen.WriteCBZ(t, input, "Chapter 1.cbz", testgen.Pages(t, 2, 200, 300), testgen.CBZOptions{})
	testgen.WriteCBZ(t, input, "Chapter 2.cbr", testgen.Pages(t, 3, 200, 300), testgen.CBZOptions{})
	testgen.WriteCBZ(t, filepath.Join(input, "nested"), "Chapter 3.cbz", testgen.Pages(t, 1, 200, 300), testgen.CBZOptions{})
	require.NoError(t, os.WriteFile(filepath.Join(input, "notes.txt"), []byte("not a comic"), 0o644))

	err := runConvert(t, input,
		"--output", output,
		"--width", "300", "--height", "400",
		"--image-format", "png",
		"--parallelism", "2",
		"--threads", "2",
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"Chapter 1.cbz", "Chapter 2.cbz", "Chapter 3.cbz"}, listFiles(t, output))
	expectedPages := map[string]int{"Chapter 1.cbz": 2, "Chapter 2.cbz": 3, "Chapter 3.cbz": 1}
	for name, pages := range expectedPages {
		src, err := cbz.Open(context.Background(), filepath.Join(output, name))
		require.NoError(t, err)
		assert.Equal(t, pages, src.Len(), name)
		assert.True(t, src.Info().IsConverted, name)
		require.NoError(t, src.Close())
	}
	// sources are left alone
	assert.Equal(t, []string{"Chapter 1.cbz", "Chapter 2.cbr", "nested", "notes.txt"}, listFiles(t, input))

	// a second run skips what is already converted
	require.NoError(t, runConvert(t, output, "--width", "300", "--height", "400", "--image-format", "png"))
	assert.Equal(t, []string{"Chapter 1.cbz", "Chapter 2.cbz", "Chapter 3.cbz"}, listFiles(t, output))
}

func TestConvertCommandEPUB(t *testing.T) {
	input := t.TempDir()
	path := testgen.WriteCBZ(t, input, "book.cbz", testgen.Pages(t, 2, 200, 300), testgen.CBZOptions{})

	require.NoError(t, runConvert(t, path, "--output-format", "epub", "--rtl", "--cover", "--device", "kindle-basic"))

	r, err := zip.OpenReader(filepath.Join(input, "book.epub"))
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "mimetype", r.File[0].Name)

	opf, err := r.Open("OEBPS/content.opf")
	require.NoError(t, err)
	data, err := io.ReadAll(opf)
	require.NoError(t, err)
	assert.Contains(t, string(data), `page-progression-direction="rtl"`)
	assert.Contains(t, string(data), "600x800")
}

func TestConvertCommandErrors(t *testing.T) {
	input := t.TempDir()
	path := testgen.WriteCBZ(t, input, "book.cbz", testgen.Pages(t, 1, 50, 50), testgen.CBZOptions{})
	broken := filepath.Join(input, "broken.cbz")
	require.NoError(t, os.WriteFile(broken, []byte("garbage"), 0o644))

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"Missing height", []string{path, "--width", "300"}, "--width and --height"},
		{"Unknown device", []string{path, "--device", "etch-a-sketch"}, "unknown device"},
		{"Invalid parallelism", []string{path, "--parallelism", "0"}, "invalid parallelism"},
		{"Missing path", []string{filepath.Join(input, "missing.cbz")}, "invalid path"},
		{"Empty folder", []string{t.TempDir()}, "no comic archive found"},
		{"Broken archive", []string{broken}, "error processing file"},
		{"Invalid enum value", []string{path, "--image-format", "bmp"}, "image-format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runConvert(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestCollectArchives(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.cbz", "b.CBR", "c.zip", "cover.jpg", ".partial.cbz"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	explicit := filepath.Join(dir, "cover.jpg")

	files, err := collectArchives([]string{dir, explicit, filepath.Join(dir, "a.cbz")})
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, strings.TrimPrefix(file, dir+string(filepath.Separator)))
	}
	assert.Equal(t, []string{"a.cbz", "b.CBR", "c.zip", "cover.jpg"}, names)
}
