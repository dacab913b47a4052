package converter

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/belphemur/comically/pkg/converter/jpeg"
	"github.com/belphemur/comically/pkg/converter/png"
	"github.com/belphemur/comically/pkg/converter/webp"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

type Converter interface {
	// Format of the converter
	Format() (format constant.ImageFormat)
	// PrepareConverter makes sure the encoder can run, it is called once before a job starts.
	PrepareConverter() error
	// Encode writes img in the converter format.
	//
	// Safe for concurrent use once PrepareConverter succeeded.
	Encode(w io.Writer, img image.Image, options constant.EncodeOptions) error
}

var converters = map[constant.ImageFormat]Converter{
	constant.JPEG: jpeg.New(),
	constant.PNG:  png.New(),
	constant.WebP: webp.New(),
}

// Available returns a list of available converters.
func Available() []constant.ImageFormat {
	formats := lo.Keys(converters)
	slices.Sort(formats)
	return formats
}

// Get returns a converter by format.
// If the converter is not available, an error is returned.
var Get = getConverter

func getConverter(format constant.ImageFormat) (Converter, error) {
	if converter, ok := converters[format]; ok {
		return converter, nil
	}

	return nil, fmt.Errorf("unknown converter \"%s\", available options are %s", format, strings.Join(lo.Map(Available(), func(item constant.ImageFormat, index int) string {
		return item.String()
	}), ", "))
}
