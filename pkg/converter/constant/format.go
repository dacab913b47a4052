package constant

import (
	"sort"
	"strings"

	"github.com/thediveo/enumflag/v2"
)

// ImageFormat is the encoding used for every processed page.
type ImageFormat enumflag.Flag

const (
	JPEG ImageFormat = iota
	PNG
	WebP
)

var ImageFormatValues = map[ImageFormat][]string{
	JPEG: {"jpeg", "jpg"},
	PNG:  {"png"},
	WebP: {"webp"},
}

var ImageFormatHelp = enumflag.Help[ImageFormat]{
	JPEG: "JPEG, lossy, smallest files on e-ink",
	PNG:  "PNG, lossless",
	WebP: "WebP Image Format",
}

var DefaultImageFormat = JPEG

func (f ImageFormat) String() string {
	return name(ImageFormatValues, f)
}

// Extension returns the file extension for the format, including the dot.
func (f ImageFormat) Extension() string {
	switch f {
	case PNG:
		return ".png"
	case WebP:
		return ".webp"
	default:
		return ".jpg"
	}
}

// MediaType returns the IANA media type used in EPUB manifests.
func (f ImageFormat) MediaType() string {
	switch f {
	case PNG:
		return "image/png"
	case WebP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func FindImageFormat(format string) ImageFormat {
	return find(ImageFormatValues, format, DefaultImageFormat)
}

// OutputFormat is the container produced for a comic.
type OutputFormat enumflag.Flag

const (
	CBZ OutputFormat = iota
	EPUB
	MOBI
)

var OutputFormatValues = map[OutputFormat][]string{
	CBZ:  {"cbz"},
	EPUB: {"epub"},
	MOBI: {"mobi", "azw3"},
}

var OutputFormatHelp = enumflag.Help[OutputFormat]{
	CBZ:  "Comic book ZIP archive",
	EPUB: "Fixed-layout EPUB 3",
	MOBI: "Kindle MOBI, built from the EPUB with kindlegen",
}

var DefaultOutputFormat = CBZ

func (f OutputFormat) String() string {
	return name(OutputFormatValues, f)
}

// Extension returns the file extension of the container, including the dot.
func (f OutputFormat) Extension() string {
	return "." + f.String()
}

func FindOutputFormat(format string) OutputFormat {
	return find(OutputFormatValues, format, DefaultOutputFormat)
}

// ListAll returns the primary names of every value of an enum.
func ListAll[F ~uint](values map[F][]string) []string {
	names := make([]string, 0, len(values))
	for _, aliases := range values {
		names = append(names, aliases[0])
	}
	sort.Strings(names)
	return names
}

func name[F comparable](values map[F][]string, value F) string {
	if aliases, ok := values[value]; ok && len(aliases) > 0 {
		return aliases[0]
	}
	return "unknown"
}

func find[F comparable](values map[F][]string, raw string, fallback F) F {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for value, aliases := range values {
		for _, alias := range aliases {
			if alias == raw {
				return value
			}
		}
	}
	return fallback
}
