package commands

import (
	"fmt"
	"strings"

	"github.com/belphemur/comically/internal/manga"
	"github.com/belphemur/comically/pkg/converter/constant"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/thediveo/enumflag/v2"
)

// addProcessingFlags registers the flags shared by every converting command.
// Values are read back through viper, the enum variables only back the flags.
func addProcessingFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	var (
		imageFormat    = constant.DefaultImageFormat
		outputFormat   = constant.DefaultOutputFormat
		splitStrategy  = constant.DefaultSplitStrategy
		marginColor    = constant.MarginNone
		pngCompression = constant.PngDefault
	)

	flags.StringP("device", "d", manga.DefaultDeviceKey, fmt.Sprintf("Target device: %s", strings.Join(manga.DeviceKeys(), ", ")))
	flags.Int("width", 0, "Custom device width in pixels, overrides --device together with --height")
	flags.Int("height", 0, "Custom device height in pixels, overrides --device together with --width")

	addEnumFlag(cmd, enumflag.New(&outputFormat, "output-format", constant.OutputFormatValues, enumflag.EnumCaseInsensitive),
		"output-format", "F", constant.OutputFormatHelp,
		fmt.Sprintf("Container to produce: %s", constant.ListAll(constant.OutputFormatValues)))
	addEnumFlag(cmd, enumflag.New(&imageFormat, "image-format", constant.ImageFormatValues, enumflag.EnumCaseInsensitive),
		"image-format", "f", constant.ImageFormatHelp,
		fmt.Sprintf("Format to encode the pages to: %s", constant.ListAll(constant.ImageFormatValues)))
	addEnumFlag(cmd, enumflag.New(&splitStrategy, "split", constant.SplitStrategyValues, enumflag.EnumCaseInsensitive),
		"split", "s", constant.SplitStrategyHelp,
		fmt.Sprintf("What to do with double page spreads: %s", constant.ListAll(constant.SplitStrategyValues)))
	addEnumFlag(cmd, enumflag.New(&marginColor, "margin", constant.MarginColorValues, enumflag.EnumCaseInsensitive),
		"margin", "", constant.MarginColorHelp,
		fmt.Sprintf("Fill pages up to the device size: %s", constant.ListAll(constant.MarginColorValues)))
	addEnumFlag(cmd, enumflag.New(&pngCompression, "compression", constant.PngCompressionValues, enumflag.EnumCaseInsensitive),
		"compression", "", constant.PngCompressionHelp,
		fmt.Sprintf("PNG compression level: %s", constant.ListAll(constant.PngCompressionValues)))

	flags.IntP("quality", "q", 85, "Quality for lossy formats (1-100)")
	flags.Int("brightness", 0, "Brightness offset in percent (-100 to 100)")
	flags.Float64("gamma", 1.0, "Gamma correction applied to every page")
	flags.String("margin-hex", "", "Margin colour as #rrggbb, used with --margin custom")
	flags.Bool("rtl", false, "Read right to left (manga)")
	flags.Bool("auto-crop", false, "Remove blank borders")
	flags.Bool("auto-contrast", false, "Stretch the contrast of every page")
	flags.Bool("color", false, "Keep colour pages instead of converting to grayscale")
	flags.Bool("upscale", false, "Enlarge pages smaller than the device")
	flags.Bool("cover", false, "Add a cover page to EPUB and MOBI output")
	flags.IntP("threads", "j", 0, "Pages converted concurrently per archive, 0 means one per CPU")
	flags.Float64("failure-ratio", 0.5, "Share of pages allowed to fail before an archive fails")

	flags.StringP("output", "O", "", "Folder receiving the converted files, next to the source when empty")
	flags.Bool("force", false, "Convert archives already marked as converted")
	flags.DurationP("timeout", "t", 0, "Maximum time allowed for converting a single archive (e.g., 30s, 5m, 1h). 0 means no timeout")
}

func addEnumFlag[E ~uint](cmd *cobra.Command, value *enumflag.EnumFlagValue[E], name, shorthand string, help enumflag.Help[E], usage string) {
	cmd.Flags().VarP(value, name, shorthand, usage)
	_ = value.RegisterCompletion(cmd, name, help)
}

// bindFlags binds the flags of the running command, so that values from the
// config file and the environment are looked up under the same names.
func bindFlags(flags *pflag.FlagSet) error {
	return viper.BindPFlags(flags)
}

// processingConfig builds the conversion settings from flags, environment
// and config file.
func processingConfig() (manga.ProcessingConfig, error) {
	device := manga.Device{Name: viper.GetString("device")}
	width, height := viper.GetInt("width"), viper.GetInt("height")
	switch {
	case width > 0 && height > 0:
		device = manga.Device{Name: "Custom", Width: width, Height: height}
	case width != 0 || height != 0:
		return manga.ProcessingConfig{}, fmt.Errorf("--width and --height must be set together")
	}

	direction := constant.LeftToRight
	if viper.GetBool("rtl") {
		direction = constant.RightToLeft
	}

	cfg := manga.ProcessingConfig{
		Device:          device,
		OutputFormat:    constant.FindOutputFormat(viper.GetString("output-format")),
		ImageFormat:     constant.FindImageFormat(viper.GetString("image-format")),
		Quality:         viper.GetInt("quality"),
		Compression:     constant.FindPngCompression(viper.GetString("compression")),
		Brightness:      viper.GetInt("brightness"),
		Gamma:           viper.GetFloat64("gamma"),
		Margin:          constant.FindMarginColor(viper.GetString("margin")),
		MarginHex:       viper.GetString("margin-hex"),
		Split:           constant.FindSplitStrategy(viper.GetString("split")),
		Direction:       direction,
		AutoCrop:        viper.GetBool("auto-crop"),
		AutoContrast:    viper.GetBool("auto-contrast"),
		Color:           viper.GetBool("color"),
		Upscale:         viper.GetBool("upscale"),
		Cover:           viper.GetBool("cover"),
		Workers:         viper.GetInt("threads"),
		MaxFailureRatio: viper.GetFloat64("failure-ratio"),
	}
	return cfg.Resolve()
}
