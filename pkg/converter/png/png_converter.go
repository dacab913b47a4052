package png

import (
	"image"
	stdpng "image/png"
	"io"

	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/disintegration/imaging"
)

var compressionLevels = map[constant.PngCompression]stdpng.CompressionLevel{
	constant.PngDefault: stdpng.DefaultCompression,
	constant.PngFast:    stdpng.BestSpeed,
	constant.PngBest:    stdpng.BestCompression,
	constant.PngNone:    stdpng.NoCompression,
}

type Converter struct{}

func New() *Converter {
	return &Converter{}
}

func (converter *Converter) Format() (format constant.ImageFormat) {
	return constant.PNG
}

func (converter *Converter) PrepareConverter() error {
	return nil
}

// Encode is lossless, the quality setting is ignored.
func (converter *Converter) Encode(w io.Writer, img image.Image, options constant.EncodeOptions) error {
	level, ok := compressionLevels[options.Compression]
	if !ok {
		level = stdpng.DefaultCompression
	}
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(level))
}
