package webp

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/rs/zerolog/log"
)

// webpMaxDimension is the largest width or height libwebp accepts.
const webpMaxDimension = 16383

type Converter struct {
	mu         sync.Mutex
	isPrepared bool
}

func (converter *Converter) Format() (format constant.ImageFormat) {
	return constant.WebP
}

func New() *Converter {
	return &Converter{}
}

func (converter *Converter) PrepareConverter() error {
	converter.mu.Lock()
	defer converter.mu.Unlock()
	if converter.isPrepared {
		return nil
	}
	log.Debug().Str("libwebp_version", libwebpVersion).Msg("Preparing cwebp encoder")
	if err := PrepareEncoder(); err != nil {
		return fmt.Errorf("failed to prepare webp encoder: %w", err)
	}
	converter.isPrepared = true
	return nil
}

func (converter *Converter) Encode(w io.Writer, img image.Image, options constant.EncodeOptions) error {
	bounds := img.Bounds()
	if bounds.Dx() > webpMaxDimension || bounds.Dy() > webpMaxDimension {
		return fmt.Errorf("image of %dx%d is too large [max: %dpx] to be converted to webp format", bounds.Dx(), bounds.Dy(), webpMaxDimension)
	}
	quality := options.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return Encode(w, img, uint(quality))
}
