package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/belphemur/comically/internal/manga"
	"github.com/belphemur/comically/internal/mobi"
	"github.com/belphemur/comically/internal/utils"
	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/belphemur/comically/pkg/scheduler"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

func init() {
	AddCommand(newConvertCommand())
}

func newConvertCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "convert [paths...]",
		Short: "Convert comic archives, or every archive found in folders",
		Long:  "Convert CBZ/CBR files for an e-reader.\nFolders are searched recursively. Each page is cropped, resized and re-encoded for the target device, then the pages are packed as CBZ, EPUB or MOBI.\nThe source archives are kept intact unless --override is set.",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd.Flags())
		},
		RunE: ConvertCommand,
		Args: cobra.MinimumNArgs(1),
	}
	addProcessingFlags(command)
	command.Flags().IntP("parallelism", "n", 2, "Number of archives to convert in parallel")
	command.Flags().BoolP("override", "o", false, "Replace the source archives with the converted CBZ files")
	return command
}

// jobSettings is what every archive of a run shares.
type jobSettings struct {
	config   manga.ProcessingConfig
	output   string
	timeout  time.Duration
	force    bool
	override bool
	mobi     mobi.Converter
}

func loadJobSettings() (*jobSettings, error) {
	cfg, err := processingConfig()
	if err != nil {
		return nil, err
	}
	settings := &jobSettings{
		config:   cfg,
		output:   viper.GetString("output"),
		timeout:  viper.GetDuration("timeout"),
		force:    viper.GetBool("force"),
		override: viper.GetBool("override"),
	}
	if settings.output != "" {
		if err := os.MkdirAll(settings.output, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output folder: %w", err)
		}
	}
	if cfg.OutputFormat == constant.MOBI {
		kindle := mobi.New()
		if !kindle.Available() {
			log.Warn().Str("binary", kindle.Binary).Msg("kindlegen not found, EPUB files will be written instead")
		}
		settings.mobi = kindle
	}
	return settings, nil
}

func (s *jobSettings) options(path string) *utils.ConvertOptions {
	return &utils.ConvertOptions{
		Path:      path,
		OutputDir: s.output,
		Config:    s.config,
		Mobi:      s.mobi,
		Timeout:   s.timeout,
		Force:     s.force,
		Override:  s.override,
		Progress:  progressLogger(path),
	}
}

// progressLogger logs page progress of an archive at most every few seconds.
func progressLogger(path string) func(message string, current uint32, total uint32) {
	sometimes := &rate.Sometimes{First: 1, Interval: 2 * time.Second}
	return func(message string, current uint32, total uint32) {
		if current == total {
			log.Info().Str("file_path", path).Uint32("current", current).Uint32("total", total).Msg(message)
			return
		}
		sometimes.Do(func() {
			log.Info().Str("file_path", path).Uint32("current", current).Uint32("total", total).Msg(message)
		})
	}
}

// runSummary counts archive outcomes of a run.
type runSummary struct {
	mu        sync.Mutex
	converted int
	partial   int
	skipped   int
	failed    int
}

func (s *runSummary) add(result *utils.ConvertResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err != nil:
		s.failed++
	case result.Skipped:
		s.skipped++
	case result.Status == scheduler.SucceededWithFailures:
		s.partial++
	default:
		s.converted++
	}
}

func ConvertCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := loadJobSettings()
	if err != nil {
		return err
	}

	parallelism := viper.GetInt("parallelism")
	if parallelism < 1 {
		return fmt.Errorf("invalid parallelism value")
	}

	files, err := collectArchives(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no comic archive found in %v", args)
	}
	log.Info().
		Int("files", len(files)).
		Int("parallelism", parallelism).
		Str("device", settings.config.Device.Name).
		Str("output_format", settings.config.OutputFormat.String()).
		Str("image_format", settings.config.ImageFormat.String()).
		Msg("Starting conversion")

	// Channel to manage the files to process
	fileChan := make(chan string)
	// Channel to collect errors
	errorChan := make(chan error, len(files))
	summary := &runSummary{}

	var wg sync.WaitGroup
	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range fileChan {
				result, err := utils.Convert(ctx, settings.options(path))
				summary.add(result, err)
				if err != nil {
					log.Error().Str("file_path", path).Err(err).Msg("Conversion failed")
					errorChan <- fmt.Errorf("error processing file %s: %w", path, err)
				}
			}
		}()
	}

	for _, file := range files {
		fileChan <- file
	}
	close(fileChan)
	wg.Wait()
	close(errorChan)

	log.Info().
		Int("converted", summary.converted).
		Int("with_page_failures", summary.partial).
		Int("skipped", summary.skipped).
		Int("failed", summary.failed).
		Msg("Conversion finished")

	var errs []error
	for err := range errorChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("encountered %d errors: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// collectArchives expands folders to the comic archives they contain.
// Files given explicitly are kept whatever their extension.
func collectArchives(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		if path == "" {
			return nil, fmt.Errorf("path is required")
		}
		if !utils.IsValidFolder(path) {
			if _, err := os.Stat(path); err != nil {
				return nil, fmt.Errorf("invalid path %s: %w", path, err)
			}
			files = append(files, path)
			continue
		}
		err := filepath.WalkDir(path, func(filePath string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() && utils.IsComicArchive(filePath) {
				files = append(files, filePath)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking the path: %w", err)
		}
	}
	return lo.Uniq(files), nil
}
