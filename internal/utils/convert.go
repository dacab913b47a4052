package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/belphemur/comically/internal/cbz"
	"github.com/belphemur/comically/internal/manga"
	"github.com/belphemur/comically/internal/mobi"
	"github.com/belphemur/comically/internal/utils/errs"
	"github.com/belphemur/comically/pkg/assembler"
	"github.com/belphemur/comically/pkg/converter"
	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/belphemur/comically/pkg/scheduler"
	"github.com/belphemur/comically/pkg/transform"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

const mangaRightToLeft = "YesAndRightToLeft"

type ConvertOptions struct {
	// Path of the source archive.
	Path string
	// OutputDir receives the converted file, the source directory when empty.
	OutputDir string
	Config    manga.ProcessingConfig
	// Mobi converts EPUB books for MOBI output, kindlegen when nil.
	Mobi mobi.Converter
	// Timeout bounds the conversion of the archive, 0 disables it.
	Timeout time.Duration
	// Force converts archives already marked as converted.
	Force bool
	// Override replaces the source archive with the converted file.
	Override bool
	Progress func(message string, current uint32, total uint32)
}

type ConvertResult struct {
	Status scheduler.Status
	Report *scheduler.Report
	// OutputPath is the file written, the EPUB fallback when MOBI conversion failed.
	OutputPath string
	// Epub holds the assembled book when the MOBI conversion failed.
	Epub []byte
	// Skipped is set when the archive was already converted.
	Skipped bool
}

// Convert converts a single comic archive to the configured output format.
func Convert(ctx context.Context, options *ConvertOptions) (result *ConvertResult, err error) {
	result = &ConvertResult{Status: scheduler.Failed}
	log.Debug().Str("file_path", options.Path).Msg("Starting conversion")

	cfg, err := options.Config.Resolve()
	if err != nil {
		return result, err
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
		log.Debug().Str("file_path", options.Path).Dur("timeout", options.Timeout).Msg("Applying timeout")
	}

	src, err := cbz.Open(ctx, options.Path)
	if err != nil {
		return result, err
	}
	defer errs.Capture(&err, src.Close, "failed to close archive")

	info := src.Info()
	if info.IsConverted && !options.Force {
		log.Info().Str("file_path", options.Path).Time("converted_time", info.ConvertedTime).Msg("Archive already converted, skipping")
		result.Status = scheduler.Succeeded
		result.Skipped = true
		return result, nil
	}
	if info.Metadata.Manga == mangaRightToLeft {
		cfg.Direction = constant.RightToLeft
	}

	encoder, err := converter.Get(cfg.ImageFormat)
	if err != nil {
		return result, err
	}
	if err = encoder.PrepareConverter(); err != nil {
		return result, fmt.Errorf("failed to prepare %s encoder: %w", cfg.ImageFormat, err)
	}

	report, err := scheduler.Run(ctx, src, cfg, transform.Transform, scheduler.Options{
		Name:     options.Path,
		Progress: options.Progress,
	})
	result.Report = report
	if err != nil {
		return result, err
	}

	comic := &manga.Comic{
		Title:         comicTitle(info.Metadata, options.Path),
		Metadata:      info.Metadata,
		Device:        cfg.Device,
		Direction:     cfg.Direction,
		OutputFormat:  cfg.OutputFormat,
		ImageFormat:   cfg.ImageFormat,
		Pages:         report.Pages,
		Cover:         cfg.Cover,
		ConvertedTime: time.Now(),
	}
	if cfg.OutputFormat == constant.CBZ {
		comic.ComicInfoXml = info.ComicInfoXml
	}

	data, err := assembler.Assemble(comic)
	if err != nil {
		return result, err
	}

	outputPath := OutputPath(options.Path, options.OutputDir, cfg.OutputFormat, options.Override)
	if cfg.OutputFormat == constant.MOBI {
		err = convertMobi(ctx, options, data, outputPath, result)
	} else {
		err = writeOutput(outputPath, data)
		result.OutputPath = outputPath
	}
	if err != nil {
		return result, err
	}
	result.Status = report.Status()

	// only a CBZ replaces its source, books are written alongside it
	if options.Override && cfg.OutputFormat == constant.CBZ && !samePath(outputPath, options.Path) {
		if removeErr := os.Remove(options.Path); removeErr != nil {
			log.Warn().Str("file_path", options.Path).Err(removeErr).Msg("Failed to delete original archive")
		} else {
			log.Debug().Str("file_path", options.Path).Msg("Deleted original archive")
		}
	}

	log.Info().
		Str("file_path", options.Path).
		Str("output_path", result.OutputPath).
		Str("status", result.Status.String()).
		Str("pages", report.Summary()).
		Msg("Conversion completed")
	return result, nil
}

// convertMobi runs the MOBI conversion of the assembled EPUB. When it fails
// the EPUB is written next to the MOBI target instead and kept in result.
func convertMobi(ctx context.Context, options *ConvertOptions, epub []byte, outputPath string, result *ConvertResult) error {
	mobiConverter := options.Mobi
	if mobiConverter == nil {
		mobiConverter = mobi.New()
	}
	path, err := mobiConverter.Convert(ctx, epub, outputPath)
	if err == nil {
		result.OutputPath = path
		if stat, statErr := os.Stat(path); statErr == nil {
			log.Debug().Str("output_path", path).Str("size", humanize.Bytes(uint64(stat.Size()))).Msg("MOBI written")
		}
		return nil
	}

	result.Epub = epub
	epubPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + constant.EPUB.Extension()
	if writeErr := writeOutput(epubPath, epub); writeErr != nil {
		return errors.Join(fmt.Errorf("mobi conversion failed: %w", err), writeErr)
	}
	result.OutputPath = epubPath
	log.Warn().Str("file_path", options.Path).Str("output_path", epubPath).Err(err).Msg("MOBI conversion failed, EPUB kept")
	return fmt.Errorf("mobi conversion failed, epub written to %s: %w", epubPath, err)
}

// writeOutput writes data next to outputPath and renames it in place, so an
// archive being overridden is never left half written.
func writeOutput(outputPath string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), "."+filepath.Base(outputPath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions of %s: %w", outputPath, err)
	}
	if err = os.Rename(tmp.Name(), outputPath); err != nil {
		return fmt.Errorf("failed to move %s in place: %w", outputPath, err)
	}
	log.Debug().Str("output_path", outputPath).Str("size", humanize.Bytes(uint64(len(data)))).Msg("Output written")
	return nil
}

// OutputPath returns where the conversion of inputPath is written. The
// source archive is only ever targeted when override is set, otherwise a
// _converted suffix is added to avoid it.
func OutputPath(inputPath, outputDir string, format constant.OutputFormat, override bool) string {
	if outputDir == "" {
		outputDir = filepath.Dir(inputPath)
	}
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, stem+format.Extension())
	if !override && samePath(outputPath, inputPath) {
		outputPath = filepath.Join(outputDir, stem+"_converted"+format.Extension())
	}
	return outputPath
}

// samePath reports whether a and b name the same file. Paths that do not
// exist yet are compared as written, case included.
func samePath(a, b string) bool {
	statA, errA := os.Stat(a)
	statB, errB := os.Stat(b)
	if errA == nil && errB == nil {
		return os.SameFile(statA, statB)
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func comicTitle(metadata manga.Metadata, path string) string {
	switch {
	case metadata.Title != "":
		return metadata.Title
	case metadata.Series != "" && metadata.Number != "":
		return metadata.Series + " " + metadata.Number
	case metadata.Series != "":
		return metadata.Series
	default:
		return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
}
