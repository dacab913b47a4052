package cbz

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/belphemur/comically/internal/manga"
	"github.com/belphemur/comically/internal/utils/errs"
	converterrors "github.com/belphemur/comically/pkg/converter/errors"
	"github.com/rs/zerolog/log"
)

const convertedMessage = "This comic has been converted by comically."

// ConvertedComment is the zip comment stamped on every archive written here.
// Its first line is read back by Open to detect converted archives.
func ConvertedComment(convertedTime time.Time) string {
	return fmt.Sprintf("%s\n%s", convertedTime.Format(time.RFC3339), convertedMessage)
}

// WriteComic builds a CBZ archive of the comic in memory.
func WriteComic(comic *manga.Comic) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeComic(&buf, comic); err != nil {
		return nil, converterrors.NewAssemblyError("cbz", err)
	}
	return buf.Bytes(), nil
}

// WriteComicToFile writes the comic as a CBZ archive at outputFilePath.
func WriteComicToFile(comic *manga.Comic, outputFilePath string) (err error) {
	data, err := WriteComic(comic)
	if err != nil {
		return err
	}
	log.Debug().Str("output_path", outputFilePath).Int("size", len(data)).Msg("Creating output CBZ file")
	zipFile, err := os.Create(outputFilePath)
	if err != nil {
		return fmt.Errorf("failed to create .cbz file: %w", err)
	}
	defer errs.Capture(&err, zipFile.Close, "failed to close .cbz file")

	if _, err = zipFile.Write(data); err != nil {
		return fmt.Errorf("failed to write .cbz file: %w", err)
	}
	return nil
}

// entryName names the index-th page so that names sort in reading order.
func entryName(index, total int, ext string) string {
	width := max(4, len(strconv.Itoa(total-1)))
	return fmt.Sprintf("%0*d%s", width, index, ext)
}

func writeComic(w io.Writer, comic *manga.Comic) (err error) {
	if len(comic.Pages) == 0 {
		return errors.New("comic has no pages")
	}
	convertedTime := comic.ConvertedTime
	if convertedTime.IsZero() {
		convertedTime = time.Now()
	}

	log.Debug().
		Str("title", comic.Title).
		Int("page_count", len(comic.Pages)).
		Bool("has_comic_info", comic.ComicInfoXml != "").
		Msg("Starting CBZ creation")

	zipWriter := zip.NewWriter(w)
	defer errs.Capture(&err, zipWriter.Close, "failed to close .cbz writer")

	for i, page := range comic.Pages {
		ext := path.Ext(page.FileName)
		if ext == "" {
			ext = page.Format.Extension()
		}
		fileName := entryName(i, len(comic.Pages), ext)

		fileWriter, err := zipWriter.CreateHeader(&zip.FileHeader{
			Name:     fileName,
			Method:   zip.Store,
			Modified: convertedTime,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s in .cbz: %w", fileName, err)
		}
		if _, err := fileWriter.Write(page.Data); err != nil {
			return fmt.Errorf("failed to write page %s: %w", fileName, err)
		}
		log.Trace().
			Int("source_index", page.SourceIndex).
			Int("sub_index", page.SubIndex).
			Str("filename", fileName).
			Int("size", len(page.Data)).
			Msg("Page written to CBZ archive")
	}

	if comic.ComicInfoXml != "" {
		comicInfoWriter, err := zipWriter.CreateHeader(&zip.FileHeader{
			Name:     "ComicInfo.xml",
			Method:   zip.Deflate,
			Modified: convertedTime,
		})
		if err != nil {
			return fmt.Errorf("failed to create ComicInfo.xml in .cbz: %w", err)
		}
		if _, err := comicInfoWriter.Write([]byte(comic.ComicInfoXml)); err != nil {
			return fmt.Errorf("failed to write ComicInfo.xml contents: %w", err)
		}
	}

	if err = zipWriter.SetComment(ConvertedComment(convertedTime)); err != nil {
		return fmt.Errorf("failed to write comment: %w", err)
	}
	log.Debug().Str("title", comic.Title).Msg("CBZ creation completed")
	return nil
}
