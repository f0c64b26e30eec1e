package types

import (
	"errors"
	"fmt"
)

// ErrDecoderConsumed is returned by every decoder operation after
// IntoFrames has taken ownership of the decoder.
var ErrDecoderConsumed = errors.New("decoder consumed by IntoFrames")

// OutOfBoundsError is returned when attempting to read beyond file bounds.
type OutOfBoundsError struct {
	Path   string
	What   string
	Offset int64
	Length int
	Size   int64
}

func (e *OutOfBoundsError) Error() string {
	if e.Offset >= e.Size {
		return fmt.Sprintf("%s: offset %d out of bounds (file size: %d) while reading %s",
			e.Path, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s",
		e.Path, e.Length, e.Offset, e.Size, e.What)
}

// UnsupportedFormatError is returned when a file's container cannot be identified.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format: %s", e.Path, e.Reason)
}

// CorruptedFileError is returned when file structure is invalid.
type CorruptedFileError struct {
	Path   string
	Reason string
	Offset int64
}

func (e *CorruptedFileError) Error() string {
	return fmt.Sprintf("%s: corrupted file at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// UnsupportedWriteError indicates metadata cannot be written into this container.
type UnsupportedWriteError struct {
	Reason string
	Format Format
}

func (e *UnsupportedWriteError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("write not supported for %s: %s", e.Format, e.Reason)
	}
	return fmt.Sprintf("write not supported for %s", e.Format)
}

// FormatError is a pixel decoder failure: a malformed header, truncated
// data, or a format the dispatch layer refuses to read.
type FormatError struct {
	Format Format
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return e.Reason
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// DimensionError is returned when a requested region or buffer does not
// fit the image.
type DimensionError struct {
	Reason string
}

func (e *DimensionError) Error() string {
	return "dimension error: " + e.Reason
}

// Warning represents a non-fatal issue encountered while reading metadata.
//
// Warnings indicate problems that don't prevent metadata extraction but
// may indicate corrupted or unusual data, such as an unreadable EXIF
// sub-IFD or a truncated ICC profile sequence.
type Warning struct {
	// Stage where the warning occurred
	Stage string // "exif", "xmp", "iptc", "icc", "container"

	// Warning message
	Message string

	// File offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
