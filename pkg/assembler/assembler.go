// Package assembler maps output formats to the container builders.
package assembler

import (
	"fmt"
	"strings"

	"github.com/belphemur/comically/internal/cbz"
	"github.com/belphemur/comically/internal/epub"
	"github.com/belphemur/comically/internal/manga"
	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Assembler packs processed pages into a container held in memory.
type Assembler func(comic *manga.Comic) ([]byte, error)

// MOBI is built from the EPUB, the conversion itself happens afterwards.
var assemblers = map[constant.OutputFormat]Assembler{
	constant.CBZ:  cbz.WriteComic,
	constant.EPUB: epub.Build,
	constant.MOBI: epub.Build,
}

// Available lists the output formats that can be assembled.
func Available() []constant.OutputFormat {
	keys := lo.Keys(assemblers)
	slices.Sort(keys)
	return keys
}

// Get returns the assembler of the given output format.
var Get = getAssembler

func getAssembler(format constant.OutputFormat) (Assembler, error) {
	if assembler, ok := assemblers[format]; ok {
		return assembler, nil
	}
	names := lo.Map(Available(), func(f constant.OutputFormat, _ int) string {
		return f.String()
	})
	return nil, fmt.Errorf("unknown output format \"%s\", available options are %s", format, strings.Join(names, ", "))
}

// Assemble builds the comic in its output format.
func Assemble(comic *manga.Comic) ([]byte, error) {
	assemble, err := Get(comic.OutputFormat)
	if err != nil {
		return nil, err
	}
	return assemble(comic)
}
