// Package epub builds fixed layout EPUB 3 books out of processed comic pages.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"github.com/belphemur/comically/internal/manga"
	converterrors "github.com/belphemur/comically/pkg/converter/errors"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	mimetype      = "application/epub+zip"
	containerPath = "META-INF/container.xml"
	opfPath       = "OEBPS/content.opf"
	ncxPath       = "OEBPS/toc.ncx"
	navPath       = "OEBPS/nav.xhtml"
	cssPath       = "OEBPS/Styles/style.css"
	coverPath     = "OEBPS/Text/cover.xhtml"
)

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

// page is one spine entry: a page document showing one image.
type page struct {
	id        string
	imageID   string
	xhtml     string
	image     string
	mediaType string
	width     int
	height    int
	data      []byte
}

type entry struct {
	name string
	data []byte
}

// book holds everything the documents are generated from.
type book struct {
	uid      string
	title    string
	modified time.Time
	comic    *manga.Comic
	width    int
	height   int
	pages    []page
}

// Build assembles the comic into an EPUB held in memory. Entries are written
// in the order readers expect: mimetype (stored), container, package
// documents, then images.
func Build(comic *manga.Comic) ([]byte, error) {
	b, err := newBook(comic)
	if err != nil {
		return nil, converterrors.NewAssemblyError("epub", err)
	}
	data, err := b.write()
	if err != nil {
		return nil, converterrors.NewAssemblyError("epub", err)
	}
	log.Debug().Str("title", b.title).Int("pages", len(b.pages)).Int("size", len(data)).Msg("EPUB built")
	return data, nil
}

func newBook(comic *manga.Comic) (*book, error) {
	if len(comic.Pages) == 0 {
		return nil, errors.New("comic has no pages")
	}

	b := &book{
		uid:      uuid.NewString(),
		title:    comic.Title,
		modified: comic.ConvertedTime,
		comic:    comic,
		width:    comic.Device.Width,
		height:   comic.Device.Height,
	}
	if b.title == "" {
		b.title = "Comic Book"
	}
	if b.modified.IsZero() {
		b.modified = time.Now()
	}
	if b.width <= 0 || b.height <= 0 {
		b.width, b.height = comic.Pages[0].Width, comic.Pages[0].Height
	}

	seen := make(map[string]int, len(comic.Pages))
	for i, p := range comic.Pages {
		if p.FileName == "" {
			return nil, errors.Errorf("page %d has no file name", i)
		}
		if previous, ok := seen[p.FileName]; ok {
			return nil, errors.Errorf("duplicate page name %q for pages %d and %d", p.FileName, previous, i)
		}
		seen[p.FileName] = i

		width, height := p.Width, p.Height
		if width <= 0 || height <= 0 {
			width, height = b.width, b.height
		}
		b.pages = append(b.pages, page{
			id:        fmt.Sprintf("page%04d", i+1),
			imageID:   fmt.Sprintf("img%04d", i+1),
			xhtml:     fmt.Sprintf("Text/page%04d.xhtml", i+1),
			image:     "Images/" + p.FileName,
			mediaType: p.Format.MediaType(),
			width:     width,
			height:    height,
			data:      p.Data,
		})
	}
	return b, nil
}

func (b *book) write() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if err := writeEntry(zw, "mimetype", []byte(mimetype), zip.Store); err != nil {
		return nil, errors.Wrap(err, "failed to write mimetype")
	}

	documents := []entry{
		{containerPath, []byte(containerXML)},
		{opfPath, b.opf()},
		{ncxPath, b.ncx()},
		{navPath, b.nav()},
		{cssPath, []byte(stylesheet)},
	}
	if b.comic.Cover {
		documents = append(documents, entry{coverPath, b.coverPage()})
	}
	for i, p := range b.pages {
		documents = append(documents, entry{"OEBPS/" + p.xhtml, b.imagePage(p, i+1)})
	}
	for _, doc := range documents {
		if err := writeEntry(zw, doc.name, doc.data, zip.Deflate); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", doc.name)
		}
	}

	// images are already compressed
	for _, p := range b.pages {
		if err := writeEntry(zw, "OEBPS/"+p.image, p.data, zip.Store); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", p.image)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize epub")
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, data []byte, method uint16) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
