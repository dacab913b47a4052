package manga

import (
	"image/color"
	"runtime"
	"testing"

	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAppliesDefaults(t *testing.T) {
	cfg, err := ProcessingConfig{}.Resolve()
	require.NoError(t, err)

	assert.Equal(t, DefaultDevice(), cfg.Device)
	assert.Equal(t, 85, cfg.Quality)
	assert.InDelta(t, 1.0, cfg.Gamma, 1e-9)
	assert.InDelta(t, 40.0, cfg.CropThreshold, 1e-9)
	assert.InDelta(t, 0.5, cfg.CropMinContent, 1e-9)
	assert.InDelta(t, 1.35, cfg.SpreadRatio, 1e-9)
	assert.InDelta(t, 0.5, cfg.MaxFailureRatio, 1e-9)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.False(t, cfg.AutoCrop)
	assert.Equal(t, 0, cfg.Brightness)
}

func TestResolveKeepsExplicitValues(t *testing.T) {
	cfg, err := ProcessingConfig{
		Device:     Device{Name: "custom", Width: 1000, Height: 1400},
		Quality:    60,
		Gamma:      1.8,
		Brightness: -10,
		Workers:    3,
		AutoCrop:   true,
	}.Resolve()
	require.NoError(t, err)

	assert.Equal(t, Device{Name: "custom", Width: 1000, Height: 1400}, cfg.Device)
	assert.Equal(t, 60, cfg.Quality)
	assert.InDelta(t, 1.8, cfg.Gamma, 1e-9)
	assert.Equal(t, -10, cfg.Brightness)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.AutoCrop)
}

func TestResolveDoesNotMutateReceiver(t *testing.T) {
	original := ProcessingConfig{Quality: 0}
	_, err := original.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 0, original.Quality)
}

func TestResolveDeviceByName(t *testing.T) {
	cfg, err := ProcessingConfig{Device: Device{Name: "Kobo Sage"}}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 1440, cfg.Device.Width)
	assert.Equal(t, 1920, cfg.Device.Height)

	_, err = ProcessingConfig{Device: Device{Name: "Etch A Sketch"}}.Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown device")
}

func TestResolveRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProcessingConfig
	}{
		{"brightness too high", ProcessingConfig{Brightness: 101}},
		{"brightness too low", ProcessingConfig{Brightness: -101}},
		{"gamma too high", ProcessingConfig{Gamma: 3.5}},
		{"gamma too low", ProcessingConfig{Gamma: 0.05}},
		{"quality too high", ProcessingConfig{Quality: 101}},
		{"negative workers", ProcessingConfig{Workers: -1}},
		{"half a device", ProcessingConfig{Device: Device{Width: 100}}},
		{"bad margin colour", ProcessingConfig{Margin: constant.MarginCustom, MarginHex: "not-a-colour"}},
		{"custom margin without colour", ProcessingConfig{Margin: constant.MarginCustom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Resolve()
			assert.Error(t, err)
		})
	}
}

func TestMarginFill(t *testing.T) {
	_, ok := ProcessingConfig{Margin: constant.MarginNone}.MarginFill()
	assert.False(t, ok)

	fill, ok := ProcessingConfig{Margin: constant.MarginBlack}.MarginFill()
	require.True(t, ok)
	assert.Equal(t, color.Black, fill)

	cfg, err := ProcessingConfig{Margin: constant.MarginCustom, MarginHex: " #FF8000 "}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "#ff8000", cfg.MarginHex)
	fill, ok = cfg.MarginFill()
	require.True(t, ok)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, fill)
}
