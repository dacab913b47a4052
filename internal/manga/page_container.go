package manga

import "image"

// PageContainer is the working state of one output page while it moves
// through the transform stages.
type PageContainer struct {
	// Source is the raw page the image was decoded from.
	Source *RawPage
	// SubIndex of the page among the outputs of Source.
	SubIndex int
	// Image is the current pixel buffer.
	Image image.Image
	// Content is the region of Image holding page pixels, as opposed to margin fill.
	Content image.Rectangle
}

func NewContainer(source *RawPage, subIndex int, img image.Image) *PageContainer {
	return &PageContainer{Source: source, SubIndex: subIndex, Image: img, Content: img.Bounds()}
}

