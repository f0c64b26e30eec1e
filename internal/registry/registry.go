// Package registry manages per-container metadata readers and writers.
package registry

import (
	"io"

	"github.com/simonhull/imgmeta/internal/types"
)

// MetadataReader extracts the embedded metadata payload from a container.
type MetadataReader interface {
	// Read returns the payload found in r. A container that carries no
	// metadata yields an empty payload, not an error.
	Read(r io.ReaderAt, size int64, path string) (*types.Payload, error)
}

// MetadataWriter rewrites a container with a replacement payload.
type MetadataWriter interface {
	// Write copies original to w, replacing every metadata block it knows
	// about with the contents of p. Pixel data is copied unchanged.
	Write(w io.Writer, p *types.Payload, original io.ReaderAt, originalSize int64) error
}

// readers maps formats to their metadata readers.
var readers = make(map[types.Format]MetadataReader)

// writers maps formats to their metadata writers.
var writers = make(map[types.Format]MetadataWriter)

// Register registers a reader for a container format.
// This is called by container packages during initialization (init functions).
func Register(format types.Format, reader MetadataReader) {
	readers[format] = reader
}

// Get returns the reader for a given format.
// Returns nil if no reader is registered for the format.
func Get(format types.Format) MetadataReader {
	return readers[format]
}

// RegisterWriter registers a writer for a container format.
// This is called by container packages during initialization (init functions).
func RegisterWriter(format types.Format, writer MetadataWriter) {
	writers[format] = writer
}

// GetWriter returns the writer for a given format.
// Returns nil if no writer is registered for the format.
func GetWriter(format types.Format) MetadataWriter {
	return writers[format]
}
