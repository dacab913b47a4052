package manga

import (
	"time"

	"github.com/belphemur/comically/pkg/converter/constant"
)

// Metadata is the subset of ComicInfo.xml used by the assemblers.
type Metadata struct {
	Title       string
	Series      string
	Number      string
	Writer      string
	Publisher   string
	Summary     string
	LanguageISO string
	// Manga is the raw ComicInfo value, "YesAndRightToLeft" marks RTL books.
	Manga string
}

// Comic is everything an assembler needs to build a container.
type Comic struct {
	Title        string
	Metadata     Metadata
	Device       Device
	Direction    constant.ReadingDirection
	OutputFormat constant.OutputFormat
	ImageFormat  constant.ImageFormat
	// Pages in reading order.
	Pages []ProcessedPage
	// Cover adds a cover document built from the first page.
	Cover bool
	// ComicInfoXml is copied verbatim into CBZ output when present.
	ComicInfoXml string
	// ConvertedTime is stamped into the archive comment.
	ConvertedTime time.Time
}

// Language returns the ISO language of the comic, defaulting to English.
func (c *Comic) Language() string {
	if c.Metadata.LanguageISO != "" {
		return c.Metadata.LanguageISO
	}
	return "en"
}
