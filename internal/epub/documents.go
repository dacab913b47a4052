package epub

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/belphemur/comically/pkg/converter/constant"
)

const stylesheet = `@page { margin: 0; }
body { display: block; margin: 0; padding: 0; }
div.image { text-align: center; top: 0; }
img { display: block; margin: 0 auto; }
`

func (b *book) rtl() bool {
	return b.comic.Direction == constant.RightToLeft
}

func (b *book) opf() []byte {
	var buf bytes.Buffer
	meta := b.comic.Metadata

	progression, writingMode := "ltr", "horizontal-lr"
	if b.rtl() {
		progression, writingMode = "rtl", "horizontal-rl"
	}

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid" prefix="rendition: http://www.idpf.org/vocab/rendition/#">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
`)
	fmt.Fprintf(&buf, "    <dc:identifier id=\"uid\">urn:uuid:%s</dc:identifier>\n", b.uid)
	fmt.Fprintf(&buf, "    <dc:title>%s</dc:title>\n", escape(b.title))
	fmt.Fprintf(&buf, "    <dc:language>%s</dc:language>\n", escape(b.comic.Language()))

	creator := meta.Writer
	if creator == "" {
		creator = "comically"
	}
	fmt.Fprintf(&buf, "    <dc:creator id=\"creator\">%s</dc:creator>\n", escape(creator))
	if meta.Publisher != "" {
		fmt.Fprintf(&buf, "    <dc:publisher>%s</dc:publisher>\n", escape(meta.Publisher))
	}
	if meta.Summary != "" {
		fmt.Fprintf(&buf, "    <dc:description>%s</dc:description>\n", escape(meta.Summary))
	}
	if meta.Series != "" {
		fmt.Fprintf(&buf, "    <meta property=\"belongs-to-collection\" id=\"series-1\">%s</meta>\n", escape(meta.Series))
		buf.WriteString("    <meta refines=\"#series-1\" property=\"collection-type\">series</meta>\n")
		if meta.Number != "" {
			fmt.Fprintf(&buf, "    <meta refines=\"#series-1\" property=\"group-position\">%s</meta>\n", escape(meta.Number))
		}
	}

	fmt.Fprintf(&buf, "    <meta property=\"dcterms:modified\">%s</meta>\n", b.modified.UTC().Format("2006-01-02T15:04:05Z"))
	buf.WriteString(`    <meta property="rendition:layout">pre-paginated</meta>
    <meta property="rendition:spread">landscape</meta>
    <meta property="rendition:orientation">auto</meta>
    <meta name="fixed-layout" content="true"/>
    <meta name="book-type" content="comic"/>
    <meta name="zero-gutter" content="true"/>
    <meta name="zero-margin" content="true"/>
    <meta name="orientation-lock" content="none"/>
    <meta name="region-mag" content="true"/>
`)
	fmt.Fprintf(&buf, "    <meta name=\"original-resolution\" content=\"%dx%d\"/>\n", b.width, b.height)
	fmt.Fprintf(&buf, "    <meta name=\"primary-writing-mode\" content=\"%s\"/>\n", writingMode)
	fmt.Fprintf(&buf, "    <meta name=\"cover\" content=\"%s\"/>\n", b.pages[0].imageID)
	buf.WriteString(`  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="nav" href="nav.xhtml" properties="nav" media-type="application/xhtml+xml"/>
    <item id="css" href="Styles/style.css" media-type="text/css"/>
`)
	if b.comic.Cover {
		buf.WriteString("    <item id=\"cover\" href=\"Text/cover.xhtml\" media-type=\"application/xhtml+xml\"/>\n")
	}
	for i, p := range b.pages {
		fmt.Fprintf(&buf, "    <item id=\"%s\" href=\"%s\" media-type=\"application/xhtml+xml\"/>\n", p.id, p.xhtml)
		properties := ""
		if i == 0 {
			properties = ` properties="cover-image"`
		}
		fmt.Fprintf(&buf, "    <item id=\"%s\" href=\"%s\" media-type=\"%s\"%s/>\n", p.imageID, escape(p.image), p.mediaType, properties)
	}

	fmt.Fprintf(&buf, "  </manifest>\n  <spine page-progression-direction=\"%s\" toc=\"ncx\">\n", progression)
	if b.comic.Cover {
		buf.WriteString("    <itemref idref=\"cover\" properties=\"page-spread-center\"/>\n")
	}
	// the first page sits on the side reading starts from, then sides alternate
	for i, p := range b.pages {
		fmt.Fprintf(&buf, "    <itemref idref=\"%s\" properties=\"page-spread-%s\"/>\n", p.id, b.spreadSide(i))
	}
	buf.WriteString("  </spine>\n</package>\n")
	return buf.Bytes()
}

func (b *book) spreadSide(index int) string {
	first, second := "left", "right"
	if b.rtl() {
		first, second = "right", "left"
	}
	if index%2 == 0 {
		return first
	}
	return second
}

func (b *book) ncx() []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
`)
	fmt.Fprintf(&buf, "    <meta name=\"dtb:uid\" content=\"urn:uuid:%s\"/>\n", b.uid)
	buf.WriteString("    <meta name=\"dtb:depth\" content=\"1\"/>\n")
	fmt.Fprintf(&buf, "    <meta name=\"dtb:totalPageCount\" content=\"%d\"/>\n", len(b.pages))
	fmt.Fprintf(&buf, "    <meta name=\"dtb:maxPageNumber\" content=\"%d\"/>\n", len(b.pages))
	fmt.Fprintf(&buf, "  </head>\n  <docTitle>\n    <text>%s</text>\n  </docTitle>\n  <navMap>\n", escape(b.title))

	playOrder := 1
	navPoint := func(id, label, src string) {
		fmt.Fprintf(&buf, `    <navPoint id="%s" playOrder="%d">
      <navLabel>
        <text>%s</text>
      </navLabel>
      <content src="%s"/>
    </navPoint>
`, id, playOrder, label, src)
		playOrder++
	}
	if b.comic.Cover {
		navPoint("navpoint-cover", "Cover", "Text/cover.xhtml")
	}
	for i, p := range b.pages {
		navPoint(fmt.Sprintf("navpoint-%d", i+1), fmt.Sprintf("Page %d", i+1), p.xhtml)
	}
	buf.WriteString("  </navMap>\n</ncx>\n")
	return buf.Bytes()
}

func (b *book) nav() []byte {
	var buf bytes.Buffer
	title := escape(b.title)
	start := b.pages[0].xhtml
	if b.comic.Cover {
		start = "Text/cover.xhtml"
	}

	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
`)
	fmt.Fprintf(&buf, "<title>%s</title>\n<meta charset=\"utf-8\"/>\n</head>\n<body>\n", title)
	fmt.Fprintf(&buf, "<nav epub:type=\"toc\" id=\"toc\">\n<ol>\n<li><a href=\"%s\">%s</a></li>\n</ol>\n</nav>\n", start, title)
	buf.WriteString("<nav epub:type=\"page-list\" hidden=\"\">\n<ol>\n")
	for i, p := range b.pages {
		fmt.Fprintf(&buf, "<li><a href=\"%s\">%d</a></li>\n", p.xhtml, i+1)
	}
	buf.WriteString("</ol>\n</nav>\n</body>\n</html>\n")
	return buf.Bytes()
}

func (b *book) imagePage(p page, number int) []byte {
	return fixedPage(fmt.Sprintf("Page %d", number), b.width, b.height, p.width, p.height, "../"+p.image)
}

func (b *book) coverPage() []byte {
	first := b.pages[0]
	return fixedPage("Cover", b.width, b.height, first.width, first.height, "../"+first.image)
}

// fixedPage is a pre-paginated document sized to the device canvas showing
// one image.
func fixedPage(title string, viewportWidth, viewportHeight, width, height int, src string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
`)
	fmt.Fprintf(&buf, "<title>%s</title>\n", escape(title))
	buf.WriteString("<link href=\"../Styles/style.css\" type=\"text/css\" rel=\"stylesheet\"/>\n")
	fmt.Fprintf(&buf, "<meta name=\"viewport\" content=\"width=%d, height=%d\"/>\n", viewportWidth, viewportHeight)
	buf.WriteString("</head>\n<body>\n<div class=\"image\">\n")
	fmt.Fprintf(&buf, "<img width=\"%d\" height=\"%d\" src=\"%s\" alt=\"%s\"/>\n", width, height, escape(src), escape(title))
	buf.WriteString("</div>\n</body>\n</html>\n")
	return buf.Bytes()
}

// escape makes s safe as XML text or attribute value. Invalid UTF-8 and
// characters XML 1.0 forbids, such as control codes found in ComicInfo
// summaries, are dropped.
func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if r == utf8.RuneError && size == 1 || !isXMLChar(r) {
			continue
		}
		b.WriteRune(r)
	}
	return html.EscapeString(b.String())
}

func isXMLChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	default:
		return r >= 0x10000 && r <= utf8.MaxRune
	}
}
