package constant

import "github.com/thediveo/enumflag/v2"

// SplitStrategy decides what happens to double-page spreads.
type SplitStrategy enumflag.Flag

const (
	SplitNone SplitStrategy = iota
	Split
	Rotate
	RotateSplit
)

var SplitStrategyValues = map[SplitStrategy][]string{
	SplitNone:   {"none"},
	Split:       {"split"},
	Rotate:      {"rotate"},
	RotateSplit: {"rotate-split", "rotate_split", "rotateandsplit"},
}

var SplitStrategyHelp = enumflag.Help[SplitStrategy]{
	SplitNone:   "Keep spreads as a single scaled-down page",
	Split:       "Cut spreads into two pages",
	Rotate:      "Rotate spreads so the long edge is vertical",
	RotateSplit: "Emit the rotated spread followed by both halves",
}

var DefaultSplitStrategy = RotateSplit

func (s SplitStrategy) String() string {
	return name(SplitStrategyValues, s)
}

// Splits reports whether the strategy emits the two halves of a spread.
func (s SplitStrategy) Splits() bool {
	return s == Split || s == RotateSplit
}

// Rotates reports whether the strategy emits a rotated spread.
func (s SplitStrategy) Rotates() bool {
	return s == Rotate || s == RotateSplit
}

func FindSplitStrategy(strategy string) SplitStrategy {
	return find(SplitStrategyValues, strategy, DefaultSplitStrategy)
}

// ReadingDirection of the comic.
type ReadingDirection enumflag.Flag

const (
	LeftToRight ReadingDirection = iota
	RightToLeft
)

var ReadingDirectionValues = map[ReadingDirection][]string{
	LeftToRight: {"ltr"},
	RightToLeft: {"rtl", "manga"},
}

var ReadingDirectionHelp = enumflag.Help[ReadingDirection]{
	LeftToRight: "Western comics",
	RightToLeft: "Manga",
}

func (d ReadingDirection) String() string {
	return name(ReadingDirectionValues, d)
}

func FindReadingDirection(direction string) ReadingDirection {
	return find(ReadingDirectionValues, direction, RightToLeft)
}

// MarginColor is the fill used when a page does not cover the device canvas.
type MarginColor enumflag.Flag

const (
	MarginNone MarginColor = iota
	MarginBlack
	MarginWhite
	MarginCustom
)

var MarginColorValues = map[MarginColor][]string{
	MarginNone:   {"none"},
	MarginBlack:  {"black"},
	MarginWhite:  {"white"},
	MarginCustom: {"custom"},
}

var MarginColorHelp = enumflag.Help[MarginColor]{
	MarginNone:   "No padding, the page keeps its scaled size",
	MarginBlack:  "Pad to the device canvas with black",
	MarginWhite:  "Pad to the device canvas with white",
	MarginCustom: "Pad with the colour given by --margin-hex",
}

func (m MarginColor) String() string {
	return name(MarginColorValues, m)
}

func FindMarginColor(margin string) MarginColor {
	return find(MarginColorValues, margin, MarginNone)
}

// PngCompression maps to the image/png compression levels.
type PngCompression enumflag.Flag

const (
	PngDefault PngCompression = iota
	PngFast
	PngBest
	PngNone
)

var PngCompressionValues = map[PngCompression][]string{
	PngDefault: {"default"},
	PngFast:    {"fast"},
	PngBest:    {"best"},
	PngNone:    {"none"},
}

var PngCompressionHelp = enumflag.Help[PngCompression]{
	PngDefault: "Balanced speed and size",
	PngFast:    "Fastest encoding",
	PngBest:    "Smallest files",
	PngNone:    "No compression",
}

func (c PngCompression) String() string {
	return name(PngCompressionValues, c)
}

func FindPngCompression(level string) PngCompression {
	return find(PngCompressionValues, level, PngDefault)
}

// EncodeOptions carries the format specific encoder settings of a page.
type EncodeOptions struct {
	// Quality used by lossy encoders, 1-100.
	Quality int
	// Compression used by the PNG encoder.
	Compression PngCompression
}
