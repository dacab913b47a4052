package manga

import (
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
)

// Device is the target canvas of a conversion.
type Device struct {
	Name   string `json:"name" mod:"trim"`
	Width  int    `json:"width" validate:"gt=0,lte=10000"`
	Height int    `json:"height" validate:"gt=0,lte=10000"`
}

// AspectRatio is width over height.
func (d Device) AspectRatio() float64 {
	return float64(d.Width) / float64(d.Height)
}

const DefaultDeviceKey = "kindle-pw-11"

var devicePresets = map[string]Device{
	"kindle-pw-11":   {Name: "Kindle Paperwhite 11", Width: 1236, Height: 1648},
	"kindle-pw-12":   {Name: "Kindle Paperwhite 12", Width: 1264, Height: 1680},
	"kindle-oasis":   {Name: "Kindle Oasis", Width: 1264, Height: 1680},
	"kindle-scribe":  {Name: "Kindle Scribe", Width: 1860, Height: 2480},
	"kindle-basic":   {Name: "Kindle Basic", Width: 600, Height: 800},
	"kindle-11":      {Name: "Kindle 11", Width: 1072, Height: 1448},
	"kobo-clara-hd":  {Name: "Kobo Clara HD", Width: 1072, Height: 1448},
	"kobo-clara-2e":  {Name: "Kobo Clara 2E", Width: 1072, Height: 1448},
	"kobo-libra-2":   {Name: "Kobo Libra 2", Width: 1264, Height: 1680},
	"kobo-sage":      {Name: "Kobo Sage", Width: 1440, Height: 1920},
	"kobo-elipsa":    {Name: "Kobo Elipsa", Width: 1404, Height: 1872},
	"remarkable-2":   {Name: "reMarkable 2", Width: 1404, Height: 1872},
	"ipad-mini":      {Name: "iPad Mini", Width: 1488, Height: 2266},
	"ipad-10-9":      {Name: "iPad 10.9", Width: 1640, Height: 2360},
	"ipad-pro-11":    {Name: "iPad Pro 11", Width: 1668, Height: 2388},
	"onyx-boox-nova": {Name: "Onyx Boox Nova", Width: 1200, Height: 1600},
	"onyx-boox-note": {Name: "Onyx Boox Note", Width: 1404, Height: 1872},
	"pocketbook-era": {Name: "PocketBook Era", Width: 1200, Height: 1600},
}

// DefaultDevice is the device used when none is configured.
func DefaultDevice() Device {
	return devicePresets[DefaultDeviceKey]
}

// LookupDevice finds a preset either by key ("kobo-sage") or by display
// name ("Kobo Sage"), ignoring case and separators.
func LookupDevice(name string) (Device, bool) {
	if device, ok := devicePresets[strings.ToLower(strings.TrimSpace(name))]; ok {
		return device, true
	}
	wanted := normalizeDeviceName(name)
	for key, device := range devicePresets {
		if normalizeDeviceName(key) == wanted || normalizeDeviceName(device.Name) == wanted {
			return device, true
		}
	}
	return Device{}, false
}

// DeviceKeys lists every preset key, sorted.
func DeviceKeys() []string {
	keys := make([]string, 0, len(devicePresets))
	for key := range devicePresets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func normalizeDeviceName(name string) string {
	return strings.ReplaceAll(strcase.ToKebab(strings.TrimSpace(name)), "-", "")
}
