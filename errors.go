package imgmeta

import (
	"github.com/simonhull/imgmeta/internal/types"
)

// Kind classifies an Error by the subsystem it came from.
type Kind int

const (
	// KindMetadata marks failures of the metadata store: loading tags from
	// the source or writing them into a target.
	KindMetadata Kind = iota + 1
	// KindDecode marks failures of the pixel decoder.
	KindDecode
	// KindInternal marks failures of the composition itself, such as an
	// unsupported format tag or a source file that cannot be opened.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindMetadata:
		return "metadata"
	case KindDecode:
		return "decode"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is implemented by every error a DecoderWithMetadata returns.
//
// The set is closed: only *MetadataError, *DecodeError and *InternalError
// implement it. Use errors.As to get at the concrete kind, or Kind() to
// switch on it:
//
//	var e imgmeta.Error
//	if errors.As(err, &e) && e.Kind() == imgmeta.KindDecode {
//		// pixel data is unreadable, metadata may still be fine
//	}
type Error interface {
	error
	Kind() Kind
	imgmetaError()
}

// MetadataError wraps a failure of the metadata store.
type MetadataError struct {
	Err error
}

func (e *MetadataError) Error() string { return e.Err.Error() }
func (e *MetadataError) Unwrap() error { return e.Err }
func (e *MetadataError) Kind() Kind    { return KindMetadata }
func (*MetadataError) imgmetaError()   {}

// DecodeError wraps a failure of the pixel decoder.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }
func (e *DecodeError) Kind() Kind    { return KindDecode }
func (*DecodeError) imgmetaError()   {}

// InternalError is a failure of the composition layer. It carries only a
// message.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string { return e.Reason }
func (e *InternalError) Unwrap() error { return nil }
func (e *InternalError) Kind() Kind    { return KindInternal }
func (*InternalError) imgmetaError()   {}

// OutOfBoundsError is an alias to types.OutOfBoundsError.
type OutOfBoundsError = types.OutOfBoundsError

// UnsupportedFormatError is an alias to types.UnsupportedFormatError.
type UnsupportedFormatError = types.UnsupportedFormatError

// CorruptedFileError is an alias to types.CorruptedFileError.
type CorruptedFileError = types.CorruptedFileError

// UnsupportedWriteError is an alias to types.UnsupportedWriteError.
type UnsupportedWriteError = types.UnsupportedWriteError

// FormatError is an alias to types.FormatError.
type FormatError = types.FormatError

// DimensionError is an alias to types.DimensionError.
type DimensionError = types.DimensionError

// Warning is an alias to types.Warning.
type Warning = types.Warning

// ErrDecoderConsumed is returned, wrapped in a *DecodeError, by every
// decode operation after IntoFrames.
var ErrDecoderConsumed = types.ErrDecoderConsumed

var (
	_ Error = (*MetadataError)(nil)
	_ Error = (*DecodeError)(nil)
	_ Error = (*InternalError)(nil)
)
