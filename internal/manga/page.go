package manga

import (
	"fmt"

	"github.com/belphemur/comically/pkg/converter/constant"
	"golang.org/x/exp/slices"
)

// RawPage is a page as read from the source archive, still in its original encoding.
type RawPage struct {
	// Index of the page in archive order.
	Index int `json:"index"`
	// Name of the archive entry the page was read from.
	Name string `json:"name"`
	// Data is the encoded image.
	Data []byte `json:"-"`
}

// ProcessedPage is one output page produced by the transformer.
type ProcessedPage struct {
	// SourceIndex is the index of the RawPage this page was produced from.
	SourceIndex int `json:"source_index"`
	// SubIndex orders the pages produced from the same source page.
	SubIndex int `json:"sub_index"`
	// FileName is unique within a comic.
	FileName string `json:"file_name"`
	// Data is the encoded image.
	Data   []byte               `json:"-"`
	Width  int                  `json:"width"`
	Height int                  `json:"height"`
	Format constant.ImageFormat `json:"format"`
}

// PageFileName is the name given to a processed page.
func PageFileName(sourceIndex, subIndex int, format constant.ImageFormat) string {
	return fmt.Sprintf("%04d_%02d%s", sourceIndex, subIndex, format.Extension())
}

// ComparePages orders pages by (SourceIndex, SubIndex).
func ComparePages(a, b ProcessedPage) int {
	if a.SourceIndex == b.SourceIndex {
		return a.SubIndex - b.SubIndex
	}
	return a.SourceIndex - b.SourceIndex
}

// SortPages sorts pages in reading order.
func SortPages(pages []ProcessedPage) {
	slices.SortFunc(pages, ComparePages)
}
