package transform

import (
	"image"
	"math"

	"github.com/belphemur/comically/internal/manga"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// fitSize returns the aspect-preserving size of a w x h image scaled to fit
// inside the device.
func fitSize(w, h int, device manga.Device, upscale bool) (int, int) {
	ratio := math.Min(float64(device.Width)/float64(w), float64(device.Height)/float64(h))
	if ratio >= 1 && !upscale {
		return w, h
	}
	nw := int(math.Max(1, math.Floor(float64(w)*ratio+1e-9)))
	nh := int(math.Max(1, math.Floor(float64(h)*ratio+1e-9)))
	return min(nw, device.Width), min(nh, device.Height)
}

// resize scales img into the device canvas, Lanczos when shrinking and
// Catmull-Rom when enlarging.
func resize(img image.Image, device manga.Device, upscale, keepColor bool) image.Image {
	b := img.Bounds()
	nw, nh := fitSize(b.Dx(), b.Dy(), device, upscale)
	if nw == b.Dx() && nh == b.Dy() {
		return img
	}
	filter := imaging.Lanczos
	if nw > b.Dx() {
		filter = imaging.CatmullRom
	}
	return flatten(imaging.Resize(img, nw, nh, filter), keepColor)
}

// pad centres img on a device sized canvas filled with the margin colour.
// It returns the canvas and the rectangle holding the page.
func pad(img image.Image, cfg manga.ProcessingConfig) (image.Image, image.Rectangle) {
	b := img.Bounds()
	fill, ok := cfg.MarginFill()
	if !ok || (b.Dx() == cfg.Device.Width && b.Dy() == cfg.Device.Height) {
		return img, b
	}

	rect := image.Rect(0, 0, cfg.Device.Width, cfg.Device.Height)
	var canvas draw.Image = image.NewGray(rect)
	if cfg.Color {
		canvas = image.NewRGBA(rect)
	}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)

	offset := image.Pt((cfg.Device.Width-b.Dx())/2, (cfg.Device.Height-b.Dy())/2)
	content := image.Rectangle{Min: offset, Max: offset.Add(b.Size())}
	draw.Draw(canvas, content, img, b.Min, draw.Src)
	return canvas, content
}
