package manga

import (
	"context"
	"fmt"
	"image/color"
	"runtime"

	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/lucasb-eyer/go-colorful"
)

// ProcessingConfig describes one conversion job. Build it, call Resolve once
// and treat the result as read-only.
type ProcessingConfig struct {
	Device       Device                `json:"device"`
	OutputFormat constant.OutputFormat `json:"output_format"`
	ImageFormat  constant.ImageFormat  `json:"image_format"`
	// Quality of lossy encoders.
	Quality     int                     `json:"quality" default:"85" validate:"min=1,max=100"`
	Compression constant.PngCompression `json:"compression"`
	// Brightness is an additive offset in percent of the full scale.
	Brightness int `json:"brightness" validate:"min=-100,max=100"`
	// Gamma is applied as out = in^Gamma on normalised luminance.
	Gamma     float64                   `json:"gamma" default:"1.0" validate:"min=0.1,max=3"`
	Margin    constant.MarginColor      `json:"margin"`
	MarginHex string                    `json:"margin_hex" mod:"trim,lcase" validate:"omitempty,hexcolor"`
	Split     constant.SplitStrategy    `json:"split"`
	Direction constant.ReadingDirection `json:"direction"`
	AutoCrop  bool                      `json:"auto_crop"`
	// CropThreshold is the luminance variance under which an edge line counts as blank.
	CropThreshold float64 `json:"crop_threshold" default:"40" validate:"gt=0"`
	// CropMinContent is the fraction of each dimension auto-crop always keeps.
	CropMinContent float64 `json:"crop_min_content" default:"0.5" validate:"gt=0,lte=1"`
	// SpreadRatio is how much wider than the device aspect ratio a page must be to count as a spread.
	SpreadRatio  float64 `json:"spread_ratio" default:"1.35" validate:"gte=1"`
	AutoContrast bool    `json:"auto_contrast"`
	// Color keeps colour pages, otherwise everything is converted to grayscale.
	Color bool `json:"color"`
	// Upscale allows enlarging pages smaller than the device.
	Upscale bool `json:"upscale"`
	// Cover adds a cover document to EPUB output.
	Cover bool `json:"cover"`
	// Workers is the number of pages processed concurrently, 0 means one per CPU.
	Workers int `json:"workers" validate:"gte=0"`
	// MaxFailureRatio is the share of pages allowed to fail before the job fails.
	MaxFailureRatio float64 `json:"max_failure_ratio" default:"0.5" validate:"gt=0,lte=1"`
}

var (
	conform  = modifiers.New()
	validate = validator.New()
)

// Resolve returns a copy of the config with defaults applied and checks that
// every value is in range.
func (c ProcessingConfig) Resolve() (ProcessingConfig, error) {
	if err := conform.Struct(context.Background(), &c); err != nil {
		return c, fmt.Errorf("failed to normalise processing config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return c, fmt.Errorf("failed to apply processing config defaults: %w", err)
	}
	if c.Device.Width == 0 && c.Device.Height == 0 {
		device, ok := DefaultDevice(), true
		if c.Device.Name != "" {
			device, ok = LookupDevice(c.Device.Name)
		}
		if !ok {
			return c, fmt.Errorf("unknown device %q, available devices are %v", c.Device.Name, DeviceKeys())
		}
		c.Device = device
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if err := validate.Struct(c); err != nil {
		return c, fmt.Errorf("invalid processing config: %w", err)
	}
	if c.Margin == constant.MarginCustom && c.MarginHex == "" {
		return c, fmt.Errorf("invalid processing config: margin %q requires a margin colour", c.Margin)
	}
	return c, nil
}

// MarginFill returns the colour used to pad pages, false when pages are not padded.
func (c ProcessingConfig) MarginFill() (color.Color, bool) {
	switch c.Margin {
	case constant.MarginBlack:
		return color.Black, true
	case constant.MarginWhite:
		return color.White, true
	case constant.MarginCustom:
		parsed, err := colorful.Hex(c.MarginHex)
		if err != nil {
			return color.White, true
		}
		r, g, b := parsed.RGB255()
		return color.RGBA{R: r, G: g, B: b, A: 0xff}, true
	default:
		return nil, false
	}
}

// EncodeOptions returns the encoder settings of the config.
func (c ProcessingConfig) EncodeOptions() constant.EncodeOptions {
	return constant.EncodeOptions{Quality: c.Quality, Compression: c.Compression}
}
