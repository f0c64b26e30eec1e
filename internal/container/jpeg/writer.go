package jpeg

import (
	"bytes"
	"fmt"
	"io"

	"github.com/simonhull/imgmeta/internal/binary"
	"github.com/simonhull/imgmeta/internal/types"
)

const (
	// maxSegmentData is the largest payload a marker segment can carry.
	maxSegmentData = 0xFFFF - 2

	// maxICCChunk is the profile bytes per APP2 segment after the
	// "ICC_PROFILE\0" identifier and the sequence/count bytes.
	maxICCChunk = maxSegmentData - 12 - 2
)

// writer implements registry.MetadataWriter for JPEG files.
type writer struct{}

// Write copies original to w, replacing its metadata segments with p.
//
// Leading APP0 (JFIF/JFXX) segments stay first. The new segments follow
// them, then every non-metadata segment and the entropy-coded data are
// copied verbatim.
func (wr *writer) Write(w io.Writer, p *types.Payload, original io.ReaderAt, originalSize int64) error {
	segments, err := buildSegments(p)
	if err != nil {
		return err
	}

	sr := binary.NewSafeReader(original, originalSize, "")
	sw := binary.NewSafeWriter(w)
	sw.WriteBytes([]byte{0xFF, markerSOI})

	injected := false
	inject := func() {
		for _, s := range segments {
			sw.WriteBytes(s)
		}
		injected = true
	}

	end, err := walk(sr, func(s *segment) error {
		if !injected && s.marker != markerAPP0 {
			inject()
		}
		if s.metadata() {
			return nil
		}
		return sw.CopyRange(sr, s.offset, s.length, "JPEG segment")
	})
	if err != nil {
		return fmt.Errorf("walk JPEG segments: %w", err)
	}
	if !injected {
		inject()
	}

	sw.CopyRange(sr, end, originalSize-end, "JPEG scan data")
	if err := sw.Err(); err != nil {
		return fmt.Errorf("write JPEG: %w", err)
	}
	return nil
}

// buildSegments encodes p as complete marker segments in file order.
func buildSegments(p *types.Payload) ([][]byte, error) {
	var out [][]byte

	add := func(marker byte, what string, parts ...[]byte) error {
		n := 0
		for _, part := range parts {
			n += len(part)
		}
		if n > maxSegmentData {
			return &types.UnsupportedWriteError{
				Format: types.FormatJPEG,
				Reason: fmt.Sprintf("%s is %d bytes, segment limit is %d", what, n, maxSegmentData),
			}
		}
		seg := bytes.NewBuffer(make([]byte, 0, n+4))
		sw := binary.NewSafeWriter(seg)
		binary.Write(sw, uint8(0xFF))
		binary.Write(sw, marker)
		binary.Write(sw, uint16(n+2))
		for _, part := range parts {
			sw.WriteBytes(part)
		}
		out = append(out, seg.Bytes())
		return sw.Err()
	}

	if len(p.Exif) > 0 {
		if err := add(markerAPP1, "EXIF block", exifHeader, p.Exif); err != nil {
			return nil, err
		}
	}
	if len(p.XMP) > 0 {
		if err := add(markerAPP1, "XMP packet", xmpHeader, p.XMP); err != nil {
			return nil, err
		}
	}
	if len(p.ICC) > 0 {
		count := (len(p.ICC) + maxICCChunk - 1) / maxICCChunk
		if count > 255 {
			return nil, &types.UnsupportedWriteError{
				Format: types.FormatJPEG,
				Reason: fmt.Sprintf("ICC profile of %d bytes needs more than 255 segments", len(p.ICC)),
			}
		}
		for i := 0; i < count; i++ {
			chunk := p.ICC[i*maxICCChunk : min((i+1)*maxICCChunk, len(p.ICC))]
			if err := add(markerAPP2, "ICC chunk", iccHeader, []byte{byte(i + 1), byte(count)}, chunk); err != nil {
				return nil, err
			}
		}
	}
	if len(p.IPTC) > 0 {
		if err := add(markerAPP13, "IPTC block", photoshopHeader, p.IPTC); err != nil {
			return nil, err
		}
	}
	if p.Comment != "" {
		if err := add(markerCOM, "comment", []byte(p.Comment)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
