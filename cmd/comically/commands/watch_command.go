package commands

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/belphemur/comically/internal/utils"
	"github.com/pablodz/inotifywaitgo/inotifywaitgo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	if runtime.GOOS != "linux" {
		return
	}
	command := &cobra.Command{
		Use:   "watch [folder]",
		Short: "Watch a folder for new CBZ/CBR files",
		Long:  "Watch a folder for new CBZ/CBR files.\nIt will watch a folder for new CBZ/CBR files and convert them as soon as they are written.",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd.Flags())
		},
		RunE: WatchCommand,
		Args: cobra.ExactArgs(1),
	}
	addProcessingFlags(command)
	command.Flags().BoolP("override", "o", true, "Replace the source archives with the converted CBZ files, EPUB and MOBI books are written alongside")

	AddCommand(command)
}

func WatchCommand(cmd *cobra.Command, args []string) error {
	path := args[0]
	if path == "" {
		return fmt.Errorf("path is required")
	}

	if !utils.IsValidFolder(path) {
		return fmt.Errorf("the path needs to be a folder")
	}

	settings, err := loadJobSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	log.Info().
		Str("path", path).
		Bool("override", settings.override).
		Str("device", settings.config.Device.Name).
		Str("output_format", settings.config.OutputFormat.String()).
		Str("image_format", settings.config.ImageFormat.String()).
		Msg("Watching directory")

	events := make(chan inotifywaitgo.FileEvent)
	errors := make(chan error)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		inotifywaitgo.WatchPath(&inotifywaitgo.Settings{
			Dir:        path,
			FileEvents: events,
			ErrorChan:  errors,
			Options: &inotifywaitgo.Options{
				Recursive: true,
				Events: []inotifywaitgo.EVENT{
					inotifywaitgo.MOVE,
					inotifywaitgo.CLOSE_WRITE,
				},
				Monitor: true,
			},
			Verbose: true,
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for event := range events {
			log.Debug().Str("file", event.Filename).Interface("events", event.Events).Msg("File event")

			if !utils.IsComicArchive(event.Filename) {
				continue
			}

			for _, e := range event.Events {
				switch e {
				case inotifywaitgo.CLOSE_WRITE, inotifywaitgo.MOVE:
					// converted outputs trigger events too, they are skipped as already converted
					_, err := utils.Convert(ctx, settings.options(event.Filename))
					if err != nil {
						errors <- fmt.Errorf("error processing file %s: %w", event.Filename, err)
					}
				default:
					// ignored
				}
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range errors {
			log.Error().Err(err).Msg("Watch error")
		}
	}()

	wg.Wait()
	return nil
}
