package transform

import (
	"fmt"
	"image"
	"math"

	"github.com/oliamb/cutter"
)

// minMarginWidth is the smallest blank band worth cropping.
const minMarginWidth = 10

// contentBounds finds the region of img left after removing blank bands from
// each edge. A row or column is blank when its luminance variance is at most
// threshold. Rows are scanned over the full width first, then columns over the
// remaining rows. At least minContent of each dimension is always kept.
func contentBounds(img image.Image, threshold, minContent float64) image.Rectangle {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	minW := int(math.Ceil(float64(w) * minContent))
	minH := int(math.Ceil(float64(h) * minContent))

	top, bottom := 0, h
	for bottom-top > minH && rowVariance(img, b.Min.Y+top, b.Min.X, b.Max.X) <= threshold {
		top++
	}
	if bottom-top == minH && !hasContentRow(img, b, top, bottom, threshold) {
		// blank page, nothing to anchor a crop on
		return b
	}
	for bottom-top > minH && rowVariance(img, b.Min.Y+bottom-1, b.Min.X, b.Max.X) <= threshold {
		bottom--
	}

	left, right := 0, w
	y0, y1 := b.Min.Y+top, b.Min.Y+bottom
	for right-left > minW && columnVariance(img, b.Min.X+left, y0, y1) <= threshold {
		left++
	}
	if right-left == minW && !hasContentColumn(img, b, left, right, y0, y1, threshold) {
		// every column is flat, e.g. a horizontal gradient or vertical bands
		left = 0
	} else {
		for right-left > minW && columnVariance(img, b.Min.X+right-1, y0, y1) <= threshold {
			right--
		}
	}

	if top < minMarginWidth {
		top = 0
	}
	if h-bottom < minMarginWidth {
		bottom = h
	}
	if left < minMarginWidth {
		left = 0
	}
	if w-right < minMarginWidth {
		right = w
	}
	return image.Rect(b.Min.X+left, b.Min.Y+top, b.Min.X+right, b.Min.Y+bottom)
}

func hasContentRow(img image.Image, b image.Rectangle, from, to int, threshold float64) bool {
	for y := from; y < to; y++ {
		if rowVariance(img, b.Min.Y+y, b.Min.X, b.Max.X) > threshold {
			return true
		}
	}
	return false
}

func hasContentColumn(img image.Image, b image.Rectangle, from, to, y0, y1 int, threshold float64) bool {
	for x := from; x < to; x++ {
		if columnVariance(img, b.Min.X+x, y0, y1) > threshold {
			return true
		}
	}
	return false
}

// cropTo copies the rect region of img into a new buffer.
func cropTo(img image.Image, rect image.Rectangle, keepColor bool) (image.Image, error) {
	if rect == img.Bounds() {
		return img, nil
	}
	cropped, err := cutter.Crop(img, cutter.Config{
		Width:   rect.Dx(),
		Height:  rect.Dy(),
		Anchor:  rect.Min.Sub(img.Bounds().Min),
		Mode:    cutter.TopLeft,
		Options: cutter.Copy,
	})
	if err != nil {
		return nil, fmt.Errorf("error cropping to %v: %w", rect, err)
	}
	return flatten(cropped, keepColor), nil
}

// autoCrop removes blank margins around the page.
func autoCrop(img image.Image, threshold, minContent float64, keepColor bool) (image.Image, error) {
	return cropTo(img, contentBounds(img, threshold, minContent), keepColor)
}
