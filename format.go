package imgmeta

import (
	"io"

	"github.com/simonhull/imgmeta/internal/types"
)

// Format is an alias to types.Format.
type Format = types.Format

// Re-export all format constants.
const (
	FormatUnknown = types.FormatUnknown
	FormatPNG     = types.FormatPNG
	FormatJPEG    = types.FormatJPEG
	FormatGIF     = types.FormatGIF
	FormatWebP    = types.FormatWebP
	FormatPNM     = types.FormatPNM
	FormatTIFF    = types.FormatTIFF
	FormatTGA     = types.FormatTGA
	FormatBMP     = types.FormatBMP
	FormatICO     = types.FormatICO
	FormatHDR     = types.FormatHDR
)

// ColorType is an alias to types.ColorType.
type ColorType = types.ColorType

// Re-export all color type constants.
const (
	ColorUnknown = types.ColorUnknown
	ColorGray8   = types.ColorGray8
	ColorGray16  = types.ColorGray16
	ColorRGB8    = types.ColorRGB8
	ColorRGBA8   = types.ColorRGBA8
	ColorRGBA16  = types.ColorRGBA16
)

// DecodingResult is an alias to types.DecodingResult.
type DecodingResult = types.DecodingResult

// Frame is an alias to types.Frame.
type Frame = types.Frame

// FormatFromExtension guesses a format from a file name. Open never calls
// it: the caller always chooses the tag.
func FormatFromExtension(path string) Format {
	return types.FormatFromExtension(path)
}

// DetectFormat identifies a container by its magic bytes.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	return types.DetectFormat(r, size, path)
}
