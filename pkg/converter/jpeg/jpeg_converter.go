package jpeg

import (
	"image"
	"io"

	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/disintegration/imaging"
)

const defaultQuality = 85

type Converter struct{}

func New() *Converter {
	return &Converter{}
}

func (converter *Converter) Format() (format constant.ImageFormat) {
	return constant.JPEG
}

func (converter *Converter) PrepareConverter() error {
	return nil
}

func (converter *Converter) Encode(w io.Writer, img image.Image, options constant.EncodeOptions) error {
	quality := options.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}
