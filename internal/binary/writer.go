package binary

import (
	"fmt"
	"io"
)

// SafeWriter wraps io.Writer with position tracking.
//
// The first write error is sticky: later writes are skipped and Err
// returns it, so a segment can be emitted with a run of calls and a
// single check at the end.
type SafeWriter struct {
	w      io.Writer
	offset int64
	err    error
}

// NewSafeWriter creates a new SafeWriter.
func NewSafeWriter(w io.Writer) *SafeWriter {
	return &SafeWriter{w: w}
}

// Offset returns the current position (number of bytes written).
func (sw *SafeWriter) Offset() int64 {
	return sw.offset
}

// Err returns the first error encountered, if any.
func (sw *SafeWriter) Err() error {
	return sw.err
}

// WriteBytes writes raw bytes to the underlying writer.
func (sw *SafeWriter) WriteBytes(b []byte) error {
	if sw.err != nil {
		return sw.err
	}
	n, err := sw.w.Write(b)
	sw.offset += int64(n)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	sw.err = err
	return err
}

// WriteString writes a string as bytes to the underlying writer.
func (sw *SafeWriter) WriteString(s string) error {
	return sw.WriteBytes([]byte(s))
}

// Write writes a value of type T in big-endian byte order.
// T must be uint8, uint16, uint32, or uint64.
func Write[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) error {
	return sw.WriteBytes(encode(val, BigEndian.ByteOrder()))
}

// CopyRange copies length bytes starting at off from src.
func (sw *SafeWriter) CopyRange(src *SafeReader, off, length int64, what string) error {
	if sw.err != nil {
		return sw.err
	}
	if length <= 0 {
		return nil
	}
	if off < 0 || off+length > src.size {
		sw.err = &rangeError{path: src.path, what: what, off: off, length: length, size: src.size}
		return sw.err
	}
	n, err := io.Copy(sw.w, io.NewSectionReader(src.r, off, length))
	sw.offset += n
	if err == nil && n < length {
		err = io.ErrUnexpectedEOF
	}
	sw.err = err
	return err
}

type rangeError struct {
	path   string
	what   string
	off    int64
	length int64
	size   int64
}

func (e *rangeError) Error() string {
	return fmt.Sprintf("%s: copy of %d bytes at offset %d would exceed file size %d while copying %s",
		e.path, e.length, e.off, e.size, e.what)
}
