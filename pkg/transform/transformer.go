package transform

import (
	"bytes"
	"fmt"
	"image"

	"github.com/belphemur/comically/internal/manga"
	"github.com/belphemur/comically/pkg/converter"
	converterrors "github.com/belphemur/comically/pkg/converter/errors"
	"github.com/rs/zerolog/log"
)

// Transform turns one raw page into its processed output pages. It only
// depends on its arguments, so any number of pages can be transformed in
// parallel. cfg must be resolved.
//
// Stages run in a fixed order: decode, auto-crop, spread handling, resize,
// margin fill, colour correction and encode.
func Transform(raw manga.RawPage, cfg manga.ProcessingConfig) ([]manga.ProcessedPage, error) {
	pageErr := func(stage converterrors.Stage, err error) error {
		return converterrors.NewPageError(raw.Index, raw.Name, stage, err)
	}

	img, sourceFormat, err := decode(raw.Data, cfg.Color)
	if err != nil {
		return nil, pageErr(converterrors.StageDecode, err)
	}
	log.Trace().
		Int("page_index", raw.Index).
		Str("source_format", sourceFormat).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Page decoded")
	// raw bytes are not needed past this point
	raw.Data = nil

	var working image.Image = img
	if cfg.AutoCrop {
		working, err = autoCrop(working, cfg.CropThreshold, cfg.CropMinContent, cfg.Color)
		if err != nil {
			return nil, pageErr(converterrors.StageTransform, err)
		}
	}

	parts, err := handleSpread(working, cfg)
	if err != nil {
		return nil, pageErr(converterrors.StageTransform, err)
	}

	conv, err := converter.Get(cfg.ImageFormat)
	if err != nil {
		return nil, pageErr(converterrors.StageEncode, err)
	}

	pages := make([]manga.ProcessedPage, 0, len(parts))
	for subIndex, part := range parts {
		container := manga.NewContainer(&raw, subIndex, resize(part, cfg.Device, cfg.Upscale, cfg.Color))

		canvas, content := pad(container.Image, cfg)
		container.Image, container.Content = canvas, content
		container.Image = correctColors(container.Image, container.Content, cfg)

		page, err := encode(container, conv, cfg)
		if err != nil {
			return nil, pageErr(converterrors.StageEncode, err)
		}
		pages = append(pages, page)
	}

	log.Trace().Int("page_index", raw.Index).Int("outputs", len(pages)).Msg("Page transformed")
	return pages, nil
}

func encode(container *manga.PageContainer, conv converter.Converter, cfg manga.ProcessingConfig) (manga.ProcessedPage, error) {
	var buf bytes.Buffer
	if err := conv.Encode(&buf, container.Image, cfg.EncodeOptions()); err != nil {
		return manga.ProcessedPage{}, fmt.Errorf("failed to encode %s: %w", conv.Format(), err)
	}
	bounds := container.Image.Bounds()
	return manga.ProcessedPage{
		SourceIndex: container.Source.Index,
		SubIndex:    container.SubIndex,
		FileName:    manga.PageFileName(container.Source.Index, container.SubIndex, conv.Format()),
		Data:        buf.Bytes(),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Format:      conv.Format(),
	}, nil
}
