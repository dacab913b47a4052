package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

var comicExtensions = []string{".cbz", ".cbr", ".zip", ".rar", ".cb7", ".7z"}

// IsValidFolder checks if the provided path is a valid directory
func IsValidFolder(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsComicArchive reports whether path has the extension of a comic archive.
// Hidden files, partially written outputs included, are ignored.
func IsComicArchive(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(name, ".") {
		return false
	}
	return lo.Contains(comicExtensions, filepath.Ext(name))
}
