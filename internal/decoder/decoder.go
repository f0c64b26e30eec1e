// Package decoder implements the per-format pixel decoders and the closed
// variant that dispatches over them.
//
// Every decoder satisfies ImageDecoder. The pixel codecs themselves come
// from the standard library and third-party packages; this package adapts
// their image.Image output to scanlines, flat sample buffers, frame
// sequences and sub-rectangles.
package decoder

import (
	"errors"

	"github.com/simonhull/imgmeta/internal/types"
)

// ErrUnsupportedFormat is returned by New for a format tag outside the
// eight decodable formats.
var ErrUnsupportedFormat = errors.New("Unsupported file format") //nolint:staticcheck // diagnostic text is part of the API

// ImageDecoder is the capability every format decoder provides.
type ImageDecoder interface {
	// Dimensions returns the image width and height in pixels.
	Dimensions() (width, height uint32, err error)

	// ColorType returns the layout of decoded samples.
	ColorType() (types.ColorType, error)

	// RowLen returns the byte length of one scanline.
	RowLen() (int, error)

	// ReadScanline copies the next row into buf and returns the number of
	// bytes written. It returns io.EOF after the last row.
	ReadScanline(buf []byte) (int, error)

	// ReadImage decodes the whole image.
	ReadImage() (*types.DecodingResult, error)

	// IsAnimated reports whether the source holds more than one frame.
	IsAnimated() (bool, error)

	// IntoFrames converts the decoder into a frame sequence. The decoder
	// must not be used afterwards.
	IntoFrames() (*Frames, error)

	// LoadRect returns the pixels of the given sub-rectangle, row by row,
	// in the decoder's color type.
	LoadRect(x, y, width, height uint32) ([]byte, error)
}
