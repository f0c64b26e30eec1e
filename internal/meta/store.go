// Package meta holds the metadata store paired with every decoder.
//
// A Store is loaded once from an image file and keeps the raw metadata
// blocks (EXIF, XMP, ICC, IPTC, comment) plus a flattened tag view. It
// holds no file handle after loading and can be written into any image
// whose container has a registered writer.
package meta

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/simonhull/imgmeta/internal/registry"
	"github.com/simonhull/imgmeta/internal/types"

	// Container readers and writers register themselves.
	_ "github.com/simonhull/imgmeta/internal/container/gif"
	_ "github.com/simonhull/imgmeta/internal/container/jpeg"
	_ "github.com/simonhull/imgmeta/internal/container/png"
	_ "github.com/simonhull/imgmeta/internal/container/tiff"
)

// Store is an in-memory tag store.
type Store struct {
	path    string
	format  types.Format
	payload *types.Payload

	exif map[string]string
	iptc map[string]string
	xmp  map[string]string

	// Warnings collects non-fatal problems met while parsing tags.
	Warnings []types.Warning
}

// Load reads the metadata of the image at path.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	return LoadReader(f, stat.Size(), path)
}

// LoadReader reads metadata from r. Containers with no registered reader
// yield an empty store.
func LoadReader(r io.ReaderAt, size int64, path string) (*Store, error) {
	format, err := types.DetectFormat(r, size, path)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path, format: format, payload: &types.Payload{}}
	if reader := registry.Get(format); reader != nil {
		payload, err := reader.Read(r, size, path)
		if err != nil {
			return nil, fmt.Errorf("read %s metadata: %w", format, err)
		}
		s.payload = payload.Clone()
	}

	if err := s.parseExif(); err != nil {
		return nil, err
	}
	s.parseIPTC()
	s.parseXMP()
	return s, nil
}

// Path returns the file the store was loaded from.
func (s *Store) Path() string { return s.path }

// Format returns the source container format.
func (s *Store) Format() types.Format { return s.format }

// Payload returns a copy of the raw metadata blocks.
func (s *Store) Payload() *types.Payload { return s.payload.Clone() }

// Exif returns the raw EXIF block (a TIFF structure), or nil.
func (s *Store) Exif() []byte { return s.payload.Exif }

// XMP returns the raw XMP packet, or nil.
func (s *Store) XMP() []byte { return s.payload.XMP }

// ICCProfile returns the embedded color profile, or nil.
func (s *Store) ICCProfile() []byte { return s.payload.ICC }

// IPTC returns the Photoshop image resource blocks holding IPTC, or nil.
func (s *Store) IPTC() []byte { return s.payload.IPTC }

// Comment returns the free-text comment.
func (s *Store) Comment() string { return s.payload.Comment }

func (s *Store) HasExif() bool { return len(s.payload.Exif) > 0 }
func (s *Store) HasXMP() bool  { return len(s.payload.XMP) > 0 }
func (s *Store) HasIPTC() bool { return len(s.payload.IPTC) > 0 }
func (s *Store) HasICC() bool  { return len(s.payload.ICC) > 0 }

// Empty reports whether the store holds no metadata at all.
func (s *Store) Empty() bool { return s.payload.Empty() }

// Tags returns every tag as a flat key/value map. Keys look like
// "Exif.Make", "Iptc.Application2.Keywords", "Xmp.dc.title" and
// "Comment". The map is a copy.
func (s *Store) Tags() map[string]string {
	out := make(map[string]string, len(s.exif)+len(s.iptc)+len(s.xmp)+1)
	maps.Copy(out, s.exif)
	maps.Copy(out, s.iptc)
	maps.Copy(out, s.xmp)
	if s.payload.Comment != "" {
		out[commentKey] = s.payload.Comment
	}
	return out
}

// Keys returns the tag keys in sorted order.
func (s *Store) Keys() []string {
	return slices.Sorted(maps.Keys(s.Tags()))
}

// Get returns a single tag value.
func (s *Store) Get(key string) (string, bool) {
	for _, m := range []map[string]string{s.exif, s.iptc, s.xmp} {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	if key == commentKey && s.payload.Comment != "" {
		return s.payload.Comment, true
	}
	return "", false
}

// SetXMP replaces the XMP packet. A nil packet removes it.
func (s *Store) SetXMP(packet []byte) {
	s.payload.XMP = slices.Clone(packet)
	s.parseXMP()
}

// SetComment replaces the comment. An empty string removes it.
func (s *Store) SetComment(comment string) {
	s.payload.Comment = comment
}

// SetICCProfile replaces the color profile. A nil profile removes it.
func (s *Store) SetICCProfile(profile []byte) {
	s.payload.ICC = slices.Clone(profile)
}

// ClearExif drops the EXIF block.
func (s *Store) ClearExif() {
	s.payload.Exif = nil
	s.exif = nil
}

// Clear drops every metadata block.
func (s *Store) Clear() {
	s.payload = &types.Payload{}
	s.exif, s.iptc, s.xmp = nil, nil, nil
}

func (s *Store) warn(stage, format string, args ...any) {
	s.Warnings = append(s.Warnings, types.Warning{Stage: stage, Message: fmt.Sprintf(format, args...)})
}
