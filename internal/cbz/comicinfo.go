package cbz

import (
	"encoding/xml"
	"strings"

	"github.com/belphemur/comically/internal/manga"
)

const comicInfoName = "comicinfo.xml"

// ComicInfo holds the ComicInfo.xml fields carried into the output.
type ComicInfo struct {
	XMLName     xml.Name `xml:"ComicInfo"`
	Title       string   `xml:"Title"`
	Series      string   `xml:"Series"`
	Number      string   `xml:"Number"`
	Summary     string   `xml:"Summary"`
	Writer      string   `xml:"Writer"`
	Publisher   string   `xml:"Publisher"`
	LanguageISO string   `xml:"LanguageISO"`
	Manga       string   `xml:"Manga"`
}

func parseComicInfo(data []byte) (*ComicInfo, error) {
	info := &ComicInfo{}
	if err := xml.Unmarshal(data, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *ComicInfo) metadata() manga.Metadata {
	if c == nil {
		return manga.Metadata{}
	}
	return manga.Metadata{
		Title:       strings.TrimSpace(c.Title),
		Series:      strings.TrimSpace(c.Series),
		Number:      strings.TrimSpace(c.Number),
		Writer:      strings.TrimSpace(c.Writer),
		Publisher:   strings.TrimSpace(c.Publisher),
		Summary:     strings.TrimSpace(c.Summary),
		LanguageISO: strings.TrimSpace(c.LanguageISO),
		Manga:       strings.TrimSpace(c.Manga),
	}
}
