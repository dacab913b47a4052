package transform

import (
	"image"

	"github.com/belphemur/comically/internal/manga"
	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/disintegration/imaging"
)

// isSpread reports whether a page is a double-page spread on the device.
func isSpread(bounds image.Rectangle, device manga.Device, spreadRatio float64) bool {
	if bounds.Dy() == 0 {
		return false
	}
	aspect := float64(bounds.Dx()) / float64(bounds.Dy())
	return aspect > device.AspectRatio()*spreadRatio
}

// splitHalves cuts a spread vertically. The right half gets the extra column
// of odd widths so both halves together cover the original.
func splitHalves(img image.Image, keepColor bool) (left, right image.Image, err error) {
	b := img.Bounds()
	half := b.Dx() / 2
	left, err = cropTo(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+half, b.Max.Y), keepColor)
	if err != nil {
		return nil, nil, err
	}
	right, err = cropTo(img, image.Rect(b.Min.X+half, b.Min.Y, b.Max.X, b.Max.Y), keepColor)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// rotateSpread turns a spread on its side, clockwise for right-to-left books
// so the first page to read ends up on top.
func rotateSpread(img image.Image, direction constant.ReadingDirection, keepColor bool) image.Image {
	if direction == constant.RightToLeft {
		return flatten(imaging.Rotate270(img), keepColor)
	}
	return flatten(imaging.Rotate90(img), keepColor)
}

// handleSpread applies the split strategy and returns the images in reading order.
func handleSpread(img image.Image, cfg manga.ProcessingConfig) ([]image.Image, error) {
	if cfg.Split == constant.SplitNone || !isSpread(img.Bounds(), cfg.Device, cfg.SpreadRatio) {
		return []image.Image{img}, nil
	}

	var parts []image.Image
	if cfg.Split.Rotates() {
		parts = append(parts, rotateSpread(img, cfg.Direction, cfg.Color))
	}
	if cfg.Split.Splits() {
		left, right, err := splitHalves(img, cfg.Color)
		if err != nil {
			return nil, err
		}
		if cfg.Direction == constant.RightToLeft {
			parts = append(parts, right, left)
		} else {
			parts = append(parts, left, right)
		}
	}
	return parts, nil
}
