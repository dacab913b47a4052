package transform

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// flatten copies img into a buffer anchored at the origin, *image.Gray for
// grayscale work or *image.RGBA when colour is kept. Buffers that already
// have the right shape are returned as is.
func flatten(img image.Image, keepColor bool) draw.Image {
	b := img.Bounds()
	if keepColor {
		if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
			return rgba
		}
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	if gray, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return gray
	}
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// luminance returns the 8-bit luma of the pixel at x, y.
func luminance(img image.Image, x, y int) uint8 {
	switch m := img.(type) {
	case *image.Gray:
		return m.Pix[m.PixOffset(x, y)]
	case *image.RGBA:
		i := m.PixOffset(x, y)
		return luma(m.Pix[i], m.Pix[i+1], m.Pix[i+2])
	default:
		return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
	}
}

// luma uses the same weights as color.GrayModel.
func luma(r, g, b uint8) uint8 {
	y := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
	return uint8(y)
}

// lineVariance computes the luminance variance of n pixels starting at
// (x, y) and stepping by (dx, dy).
func lineVariance(img image.Image, x, y, dx, dy, n int) float64 {
	if n <= 0 {
		return 0
	}
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := float64(luminance(img, x+i*dx, y+i*dy))
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		return 0
	}
	return variance
}

func rowVariance(img image.Image, y, x0, x1 int) float64 {
	return lineVariance(img, x0, y, 1, 0, x1-x0)
}

func columnVariance(img image.Image, x, y0, y1 int) float64 {
	return lineVariance(img, x, y0, 0, 1, y1-y0)
}
