package constant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindImageFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected ImageFormat
	}{
		{"jpeg", JPEG},
		{"JPG", JPEG},
		{" png ", PNG},
		{"webp", WebP},
		{"bmp", DefaultImageFormat},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindImageFormat(tt.input))
		})
	}
}

func TestImageFormatMetadata(t *testing.T) {
	assert.Equal(t, ".jpg", JPEG.Extension())
	assert.Equal(t, "image/jpeg", JPEG.MediaType())
	assert.Equal(t, ".png", PNG.Extension())
	assert.Equal(t, "image/png", PNG.MediaType())
	assert.Equal(t, ".webp", WebP.Extension())
	assert.Equal(t, "image/webp", WebP.MediaType())
	assert.Equal(t, "webp", WebP.String())
}

func TestOutputFormat(t *testing.T) {
	assert.Equal(t, MOBI, FindOutputFormat("azw3"))
	assert.Equal(t, EPUB, FindOutputFormat("EPUB"))
	assert.Equal(t, CBZ, FindOutputFormat("pdf"))
	assert.Equal(t, ".epub", EPUB.Extension())
	assert.Equal(t, []string{"cbz", "epub", "mobi"}, ListAll(OutputFormatValues))
}

func TestSplitStrategy(t *testing.T) {
	tests := []struct {
		strategy SplitStrategy
		splits   bool
		rotates  bool
	}{
		{SplitNone, false, false},
		{Split, true, false},
		{Rotate, false, true},
		{RotateSplit, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			assert.Equal(t, tt.splits, tt.strategy.Splits())
			assert.Equal(t, tt.rotates, tt.strategy.Rotates())
			assert.Equal(t, tt.strategy, FindSplitStrategy(tt.strategy.String()))
		})
	}
}

func TestDirectionAndMargin(t *testing.T) {
	assert.Equal(t, RightToLeft, FindReadingDirection("manga"))
	assert.Equal(t, LeftToRight, FindReadingDirection("ltr"))
	assert.Equal(t, MarginWhite, FindMarginColor("White"))
	assert.Equal(t, MarginNone, FindMarginColor("purple"))
	assert.Equal(t, PngBest, FindPngCompression("best"))
	assert.Equal(t, "unknown", ImageFormat(42).String())
}
