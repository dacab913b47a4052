// Package mobi converts EPUB books to MOBI with Amazon's KindleGen.
package mobi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/belphemur/comically/internal/utils/errs"
	converterrors "github.com/belphemur/comically/pkg/converter/errors"
	"github.com/rs/zerolog/log"
)

const DefaultBinary = "kindlegen"

// Converter turns an EPUB into a MOBI file.
type Converter interface {
	// Convert writes the MOBI version of epub to outputPath and returns
	// the path written.
	Convert(ctx context.Context, epub []byte, outputPath string) (string, error)
	// Available reports whether the conversion can run at all.
	Available() bool
}

// KindleGen runs the kindlegen binary.
type KindleGen struct {
	// Binary is a name looked up in PATH or a path. Defaults to kindlegen.
	Binary string
	// Locale is passed to kindlegen, en by default.
	Locale string
}

func New() *KindleGen {
	return &KindleGen{Binary: DefaultBinary, Locale: "en"}
}

func (k *KindleGen) binary() string {
	if k.Binary == "" {
		return DefaultBinary
	}
	return k.Binary
}

func (k *KindleGen) lookPath() (string, error) {
	path, err := exec.LookPath(k.binary())
	if err != nil {
		return "", &converterrors.ExternalToolError{Tool: k.binary(), Err: err}
	}
	return path, nil
}

func (k *KindleGen) Available() bool {
	_, err := k.lookPath()
	return err == nil
}

// Convert writes epub to a private temporary directory, runs kindlegen on it
// and moves the produced file to outputPath. kindlegen exits non zero when it
// only emitted warnings, such runs are treated as successful.
func (k *KindleGen) Convert(ctx context.Context, epub []byte, outputPath string) (path string, err error) {
	binary, err := k.lookPath()
	if err != nil {
		return "", err
	}

	workDir, err := os.MkdirTemp("", "comically-mobi-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer errs.CaptureGeneric(&err, os.RemoveAll, workDir, "failed to remove temporary directory")

	epubPath := filepath.Join(workDir, "book.epub")
	if err = os.WriteFile(epubPath, epub, 0o600); err != nil {
		return "", fmt.Errorf("failed to write epub for conversion: %w", err)
	}

	locale := k.Locale
	if locale == "" {
		locale = "en"
	}
	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "-dont_append_source", "-locale", locale, epubPath)
	cmd.Dir = workDir
	cmd.Stdout = &output
	cmd.Stderr = &output

	log.Debug().Str("binary", binary).Str("output_path", outputPath).Int("epub_size", len(epub)).Msg("Running kindlegen")
	runErr := cmd.Run()
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("kindlegen interrupted: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return "", &converterrors.ExternalToolError{Tool: k.binary(), Err: runErr}
		}
		if !strings.Contains(output.String(), "Warnings") {
			return "", &converterrors.ConversionError{Tool: k.binary(), ExitCode: exitErr.ExitCode(), Output: output.String()}
		}
		log.Warn().Str("output_path", outputPath).Int("exit_code", exitErr.ExitCode()).Msg("kindlegen finished with warnings")
	}

	produced := strings.TrimSuffix(epubPath, filepath.Ext(epubPath)) + ".mobi"
	if _, statErr := os.Stat(produced); statErr != nil {
		return "", &converterrors.ConversionError{Tool: k.binary(), Output: "no mobi file produced\n" + output.String()}
	}
	if err = moveFile(produced, outputPath); err != nil {
		return "", fmt.Errorf("failed to move mobi file to %s: %w", outputPath, err)
	}
	log.Debug().Str("output_path", outputPath).Msg("MOBI conversion completed")
	return outputPath, nil
}

// moveFile renames src to dst, copying when they are on different devices.
func moveFile(src, dst string) (err error) {
	if err = os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer errs.Capture(&err, in.Close, "failed to close mobi file")

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer errs.Capture(&err, out.Close, "failed to close output file")

	_, err = io.Copy(out, in)
	return err
}
