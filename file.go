package imgmeta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/simonhull/imgmeta/internal/decoder"
	"github.com/simonhull/imgmeta/internal/meta"
)

// Metadata is the tag store held by a DecoderWithMetadata.
//
// It is loaded once at construction and holds no file handle. See
// DecoderWithMetadata.Metadata.
type Metadata = meta.Store

// Frames is a lazy sequence of animation frames returned by IntoFrames.
type Frames = decoder.Frames

// ErrFramesClosed is returned by Frames.Next after Frames.Close.
var ErrFramesClosed = decoder.ErrFramesClosed

// DecoderWithMetadata pairs a pixel decoder with the metadata of the file
// it reads.
//
// The two halves are independent: reading pixels never touches the
// metadata, and SaveMetadata never touches the decoder. Every decode
// operation is forwarded to the decoder selected by the format tag given
// to Open, and its failures are returned as *DecodeError.
//
// Always call Close() when done to release the file handle:
//
//	d, err := imgmeta.Open("photo.jpg", imgmeta.FormatJPEG)
//	if err != nil {
//		return err
//	}
//	defer d.Close()
type DecoderWithMetadata struct {
	path     string
	metadata *Metadata
	decoder  *decoder.Variant
	file     *os.File
	logger   *zap.Logger

	// handedOff is set once IntoFrames moves the file handle to a Frames.
	handedOff bool
	closed    bool
}

// Open loads the metadata of the image at path and builds the pixel
// decoder for format.
//
// The format tag is trusted: the file's content is never sniffed to
// choose a decoder. A tag that does not match the content is passed to
// the decoder, which fails on its first read (or at construction for
// PNM, ICO and TIFF).
//
// Errors:
//   - *MetadataError if the metadata cannot be loaded
//   - *InternalError if the file cannot be opened, or if format has no
//     decoder ("Unsupported file format")
//   - *DecodeError if the decoder rejects the file's header
//
// No file handle is left open when Open fails.
func Open(path string, format Format, opts ...Option) (*DecoderWithMetadata, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	log := options.logger.With(zap.String("path", path), zap.Stringer("format", format))

	store, err := meta.Load(path)
	if err != nil {
		return nil, &MetadataError{Err: err}
	}
	log.Debug("metadata loaded",
		zap.Stringer("container", store.Format()),
		zap.Int("tags", len(store.Keys())),
		zap.Int("warnings", len(store.Warnings)),
	)

	f, err := os.Open(path)
	if err != nil {
		return nil, &InternalError{Reason: err.Error()}
	}

	variant, err := decoder.New(format, f, options.legacyDispatch)
	if err != nil {
		f.Close()
		if errors.Is(err, decoder.ErrUnsupportedFormat) {
			return nil, &InternalError{Reason: decoder.ErrUnsupportedFormat.Error()}
		}
		return nil, &DecodeError{Err: err}
	}
	log.Debug("decoder ready", zap.Bool("legacy_dispatch", variant.Legacy()))

	return &DecoderWithMetadata{
		path:     path,
		metadata: store,
		decoder:  variant,
		file:     f,
		logger:   log,
	}, nil
}

// OpenContext opens an image with context support for cancellation.
//
// The context is checked before starting. Construction itself does not
// block on anything the context could interrupt. A done context fails
// with *InternalError whose Reason is the context's error message.
func OpenContext(ctx context.Context, path string, format Format, opts ...Option) (*DecoderWithMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, &InternalError{Reason: err.Error()}
	}
	return Open(path, format, opts...)
}

// OpenMany opens multiple images of the same format concurrently.
//
// Files are opened in parallel using up to runtime.NumCPU() goroutines.
// Results are returned in the same order as the input paths.
//
// If any file fails to open, all successfully opened images are closed
// and the first failure is returned, prefixed with its path. Cancellation
// is reported as *InternalError, like OpenContext. opts apply to every
// file.
func OpenMany(ctx context.Context, format Format, paths []string, opts ...Option) ([]*DecoderWithMetadata, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*DecoderWithMetadata, len(paths))

	for i, path := range paths {
		g.Go(func() error {
			d, err := OpenContext(ctx, path, format, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, d := range results {
			if d != nil {
				d.Close()
			}
		}
		return nil, err
	}

	return results, nil
}

// Close releases the file handle. It is safe to call more than once.
// After IntoFrames the handle belongs to the returned Frames, and Close
// leaves it alone.
func (d *DecoderWithMetadata) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.handedOff {
		return nil
	}
	return d.file.Close()
}

// Path returns the file the decoder reads.
func (d *DecoderWithMetadata) Path() string { return d.path }

// Format returns the tag the decoder was built with.
func (d *DecoderWithMetadata) Format() Format { return d.decoder.Format() }

// Metadata returns the tag store loaded from the source file. Changes
// made through its setters are what SaveMetadata writes.
func (d *DecoderWithMetadata) Metadata() *Metadata { return d.metadata }

// decodeErr wraps a decoder failure. A nil error stays nil.
func decodeErr(err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{Err: err}
}

// Dimensions returns the image width and height in pixels.
func (d *DecoderWithMetadata) Dimensions() (width, height uint32, err error) {
	width, height, err = d.decoder.Dimensions()
	return width, height, decodeErr(err)
}

// ColorType returns the layout of the samples ReadScanline and ReadImage
// deliver.
func (d *DecoderWithMetadata) ColorType() (ColorType, error) {
	ct, err := d.decoder.ColorType()
	return ct, decodeErr(err)
}

// RowLen returns the number of bytes in one scanline.
func (d *DecoderWithMetadata) RowLen() (int, error) {
	n, err := d.decoder.RowLen()
	return n, decodeErr(err)
}

// ReadScanline copies the next row into buf and returns the number of
// bytes written. It returns io.EOF, unwrapped, after the last row.
func (d *DecoderWithMetadata) ReadScanline(buf []byte) (int, error) {
	n, err := d.decoder.ReadScanline(buf)
	if errors.Is(err, io.EOF) {
		return n, err
	}
	return n, decodeErr(err)
}

// ReadImage decodes the whole image.
func (d *DecoderWithMetadata) ReadImage() (*DecodingResult, error) {
	res, err := d.decoder.ReadImage()
	return res, decodeErr(err)
}

// IsAnimated reports whether the image has more than one frame.
func (d *DecoderWithMetadata) IsAnimated() (bool, error) {
	animated, err := d.decoder.IsAnimated()
	return animated, decodeErr(err)
}

// IntoFrames consumes the decoder and returns its frames. The returned
// Frames owns the file handle and must be closed. Every later decode
// operation fails with ErrDecoderConsumed. Metadata and SaveMetadata keep
// working.
func (d *DecoderWithMetadata) IntoFrames() (*Frames, error) {
	frames, err := d.decoder.IntoFrames()
	if err != nil {
		return nil, decodeErr(err)
	}
	d.handedOff = true
	d.logger.Debug("decoder consumed by frame iteration")
	return frames, nil
}

// LoadRect decodes the width×height region whose top-left corner is
// (x, y). The rectangle must lie inside the image.
func (d *DecoderWithMetadata) LoadRect(x, y, width, height uint32) ([]byte, error) {
	pix, err := d.decoder.LoadRect(x, y, width, height)
	return pix, decodeErr(err)
}
