package transform

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/histogram"
	"github.com/belphemur/comically/internal/manga"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// gammaEpsilon is the distance from 1.0 under which gamma is a no-op.
const gammaEpsilon = 0.01

func needsColorCorrection(cfg manga.ProcessingConfig) bool {
	return cfg.AutoContrast || cfg.Brightness != 0 || math.Abs(cfg.Gamma-1) > gammaEpsilon
}

// correctColors applies auto-contrast, brightness then gamma to the content
// region of img. Pixels outside content, the margin fill, are left untouched.
func correctColors(img image.Image, content image.Rectangle, cfg manga.ProcessingConfig) image.Image {
	if !needsColorCorrection(cfg) || content.Empty() {
		return img
	}

	region := imaging.Crop(img, content)
	var adjusted image.Image = region
	if cfg.AutoContrast {
		adjusted = stretchContrast(adjusted)
	}
	if cfg.Brightness != 0 {
		adjusted = imaging.AdjustBrightness(adjusted, float64(cfg.Brightness))
	}
	if math.Abs(cfg.Gamma-1) > gammaEpsilon {
		// imaging raises to 1/gamma, invert to get out = in^gamma
		adjusted = imaging.AdjustGamma(adjusted, 1/cfg.Gamma)
	}

	canvas := flatten(img, cfg.Color)
	draw.Draw(canvas, content, adjusted, adjusted.Bounds().Min, draw.Src)
	return canvas
}

// stretchContrast maps the darkest and lightest levels present onto 0 and 255.
func stretchContrast(img image.Image) image.Image {
	hist := histogram.NewRGBAHistogram(img)
	low, high := 255, 0
	for _, channel := range [][]int{hist.R.Bins, hist.G.Bins, hist.B.Bins} {
		for level, count := range channel {
			if count == 0 {
				continue
			}
			low = min(low, level)
			high = max(high, level)
		}
	}
	if high <= low {
		return img
	}

	scale := 255 / float64(high-low)
	stretch := func(v uint8) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(255, (float64(v)-float64(low))*scale))))
	}
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{R: stretch(c.R), G: stretch(c.G), B: stretch(c.B), A: c.A}
	})
}
