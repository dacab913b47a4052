package webp

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/webp"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Create a gradient pattern to ensure we have actual image data
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 100,
				A: 255,
			})
		}
	}
	return img
}

func prepared(t *testing.T) *Converter {
	t.Helper()
	converter := New()
	if err := converter.PrepareConverter(); err != nil {
		t.Skipf("cwebp encoder not available: %v", err)
	}
	return converter
}

func TestConverter_Format(t *testing.T) {
	assert.Equal(t, constant.WebP, New().Format())
}

func TestConverter_Encode(t *testing.T) {
	converter := prepared(t)

	tests := []struct {
		name    string
		width   int
		height  int
		quality int
	}{
		{name: "Portrait page", width: 300, height: 400, quality: 80},
		{name: "Landscape page", width: 400, height: 300, quality: 50},
		{name: "Out of range quality falls back", width: 100, height: 100, quality: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := converter.Encode(&buf, createTestImage(tt.width, tt.height), constant.EncodeOptions{Quality: tt.quality})
			require.NoError(t, err)

			decoded, format, err := image.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, "webp", format)
			assert.Equal(t, tt.width, decoded.Bounds().Dx())
			assert.Equal(t, tt.height, decoded.Bounds().Dy())
		})
	}
}

func TestConverter_EncodeTooLarge(t *testing.T) {
	converter := New()
	img := image.NewGray(image.Rect(0, 0, 10, webpMaxDimension+1))
	err := converter.Encode(&bytes.Buffer{}, img, constant.EncodeOptions{Quality: 80})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}
