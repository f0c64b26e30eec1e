// Package jpeg reads and writes the metadata segments of JPEG files.
package jpeg

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/simonhull/imgmeta/internal/binary"
	"github.com/simonhull/imgmeta/internal/registry"
	"github.com/simonhull/imgmeta/internal/types"
)

// Markers
const (
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP0  = 0xE0
	markerAPP1  = 0xE1
	markerAPP2  = 0xE2
	markerAPP13 = 0xED
	markerCOM   = 0xFE
)

// Segment identifiers
var (
	exifHeader      = []byte("Exif\x00\x00")
	xmpHeader       = []byte("http://ns.adobe.com/xap/1.0/\x00")
	iccHeader       = []byte("ICC_PROFILE\x00")
	photoshopHeader = []byte("Photoshop 3.0\x00")
)

func init() {
	registry.Register(types.FormatJPEG, &reader{})
	registry.RegisterWriter(types.FormatJPEG, &writer{})
}

// segment is one marker segment located in the source file.
type segment struct {
	marker byte
	offset int64 // offset of the 0xFF marker byte
	length int64 // total bytes including marker and length field
	data   []byte
}

// metadata reports whether the segment carries a block this package owns.
func (s *segment) metadata() bool {
	switch s.marker {
	case markerAPP1:
		return bytes.HasPrefix(s.data, exifHeader) || bytes.HasPrefix(s.data, xmpHeader)
	case markerAPP2:
		return bytes.HasPrefix(s.data, iccHeader)
	case markerAPP13:
		return bytes.HasPrefix(s.data, photoshopHeader)
	case markerCOM:
		return true
	}
	return false
}

// walk visits each segment up to and including SOS. It returns the offset
// where the entropy-coded data (or trailing bytes) begins.
func walk(sr *binary.SafeReader, visit func(*segment) error) (int64, error) {
	soi := make([]byte, 2)
	if err := sr.ReadAt(soi, 0, "JPEG SOI marker"); err != nil {
		return 0, err
	}
	if soi[0] != 0xFF || soi[1] != markerSOI {
		return 0, &types.CorruptedFileError{Path: sr.Path(), Reason: "missing JPEG SOI marker"}
	}

	offset := int64(2)
	for offset < sr.Size() {
		b, err := binary.Read[uint8](sr, offset, "JPEG marker prefix")
		if err != nil {
			return 0, err
		}
		if b != 0xFF {
			return 0, &types.CorruptedFileError{
				Path:   sr.Path(),
				Offset: offset,
				Reason: fmt.Sprintf("expected marker, found 0x%02X", b),
			}
		}

		// Fill bytes
		start := offset
		marker := byte(0xFF)
		for marker == 0xFF {
			offset++
			marker, err = binary.Read[uint8](sr, offset, "JPEG marker")
			if err != nil {
				return 0, err
			}
		}
		offset++

		switch {
		case marker == markerEOI:
			return offset, nil
		case marker >= 0xD0 && marker <= 0xD7, marker == 0x01:
			// RSTn and TEM carry no length
			continue
		}

		length, err := binary.ReadBE[uint16](sr, offset, "JPEG segment length")
		if err != nil {
			return 0, err
		}
		if length < 2 {
			return 0, &types.CorruptedFileError{
				Path:   sr.Path(),
				Offset: offset,
				Reason: fmt.Sprintf("segment length %d too small", length),
			}
		}

		seg := &segment{
			marker: marker,
			offset: start,
			length: offset - start + int64(length),
		}
		// Only metadata-capable segments need their payload in memory.
		switch marker {
		case markerAPP1, markerAPP2, markerAPP13, markerCOM:
			seg.data, err = sr.Bytes(offset+2, int(length)-2, "JPEG segment data")
			if err != nil {
				return 0, err
			}
		}

		if err := visit(seg); err != nil {
			return 0, err
		}

		offset += int64(length)
		if marker == markerSOS {
			return offset, nil
		}
	}
	return offset, nil
}

// reader implements registry.MetadataReader for JPEG files.
type reader struct{}

// Read extracts EXIF, XMP, ICC, IPTC and comment segments.
func (p *reader) Read(r io.ReaderAt, size int64, path string) (*types.Payload, error) {
	sr := binary.NewSafeReader(r, size, path)
	payload := &types.Payload{}

	type iccChunk struct {
		seq  int
		data []byte
	}
	var icc []iccChunk

	_, err := walk(sr, func(s *segment) error {
		switch s.marker {
		case markerAPP1:
			switch {
			case bytes.HasPrefix(s.data, exifHeader) && payload.Exif == nil:
				payload.Exif = s.data[len(exifHeader):]
			case bytes.HasPrefix(s.data, xmpHeader) && payload.XMP == nil:
				payload.XMP = s.data[len(xmpHeader):]
			}
		case markerAPP2:
			if bytes.HasPrefix(s.data, iccHeader) && len(s.data) >= len(iccHeader)+2 {
				seq := int(s.data[len(iccHeader)])
				icc = append(icc, iccChunk{seq: seq, data: s.data[len(iccHeader)+2:]})
			}
		case markerAPP13:
			if bytes.HasPrefix(s.data, photoshopHeader) && payload.IPTC == nil {
				payload.IPTC = s.data[len(photoshopHeader):]
			}
		case markerCOM:
			if payload.Comment == "" {
				payload.Comment = string(s.data)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk JPEG segments: %w", err)
	}

	if len(icc) > 0 {
		sort.SliceStable(icc, func(i, j int) bool { return icc[i].seq < icc[j].seq })
		buf := &bytes.Buffer{}
		for _, c := range icc {
			buf.Write(c.data)
		}
		payload.ICC = buf.Bytes()
	}

	return payload, nil
}
