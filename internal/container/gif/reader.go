// Package gif reads XMP and comment extensions from GIF files.
package gif

import (
	"bytes"
	"fmt"
	"io"

	"github.com/simonhull/imgmeta/internal/binary"
	"github.com/simonhull/imgmeta/internal/registry"
	"github.com/simonhull/imgmeta/internal/types"
)

// Block introducers and extension labels
const (
	blockExtension = 0x21
	blockImage     = 0x2C
	blockTrailer   = 0x3B

	labelComment     = 0xFE
	labelApplication = 0xFF
)

// magicTrailer is the 0x01 0xFF 0xFE ... 0x00 run plus the block
// terminator that follows an XMP packet.
const magicTrailer = 258

var (
	xmpAppID   = []byte("XMP DataXMP")
	xpacketEnd = []byte("<?xpacket end=")
)

func init() {
	registry.Register(types.FormatGIF, &reader{})
}

// reader implements registry.MetadataReader for GIF files.
type reader struct{}

// Read extracts the XMP application extension and the first comment.
func (p *reader) Read(r io.ReaderAt, size int64, path string) (*types.Payload, error) {
	sr := binary.NewSafeReader(r, size, path)
	payload := &types.Payload{}

	header, err := sr.Bytes(0, 13, "GIF header")
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(header, []byte("GIF87a")) && !bytes.HasPrefix(header, []byte("GIF89a")) {
		return nil, &types.CorruptedFileError{Path: path, Reason: "invalid GIF signature"}
	}

	offset := int64(13)
	if packed := header[10]; packed&0x80 != 0 {
		offset += colorTableSize(packed)
	}

	for {
		introducer, err := binary.Read[uint8](sr, offset, "GIF block introducer")
		if err != nil {
			return nil, err
		}

		switch introducer {
		case blockTrailer:
			return payload, nil

		case blockImage:
			desc, err := sr.Bytes(offset+1, 9, "GIF image descriptor")
			if err != nil {
				return nil, err
			}
			offset += 10
			if packed := desc[8]; packed&0x80 != 0 {
				offset += colorTableSize(packed)
			}
			offset++ // LZW minimum code size
			offset, err = skipSubBlocks(sr, offset)
			if err != nil {
				return nil, err
			}

		case blockExtension:
			label, err := binary.Read[uint8](sr, offset+1, "GIF extension label")
			if err != nil {
				return nil, err
			}
			start := offset + 2

			switch label {
			case labelApplication:
				id, err := sr.Bytes(start, 12, "GIF application identifier")
				if err != nil {
					return nil, err
				}
				dataStart := start + 12
				end, err := skipSubBlocks(sr, dataStart)
				if err != nil {
					return nil, err
				}
				if id[0] == 11 && bytes.Equal(id[1:], xmpAppID) && payload.XMP == nil {
					raw, err := sr.Bytes(dataStart, int(end-dataStart), "GIF XMP data")
					if err != nil {
						return nil, err
					}
					payload.XMP = trimXMP(raw)
				}
				offset = end

			case labelComment:
				text, end, err := readSubBlocks(sr, start)
				if err != nil {
					return nil, err
				}
				if payload.Comment == "" {
					payload.Comment = string(text)
				}
				offset = end

			default:
				offset, err = skipSubBlocks(sr, start)
				if err != nil {
					return nil, err
				}
			}

		default:
			return nil, &types.CorruptedFileError{
				Path:   path,
				Offset: offset,
				Reason: fmt.Sprintf("unknown block introducer 0x%02X", introducer),
			}
		}
	}
}

func colorTableSize(packed byte) int64 {
	return 3 * (1 << (int(packed&0x07) + 1))
}

// skipSubBlocks returns the offset just past the block terminator.
func skipSubBlocks(sr *binary.SafeReader, offset int64) (int64, error) {
	for {
		n, err := binary.Read[uint8](sr, offset, "GIF sub-block size")
		if err != nil {
			return 0, err
		}
		offset += 1 + int64(n)
		if n == 0 {
			return offset, nil
		}
	}
}

// readSubBlocks concatenates sub-block payloads.
func readSubBlocks(sr *binary.SafeReader, offset int64) ([]byte, int64, error) {
	var out []byte
	for {
		n, err := binary.Read[uint8](sr, offset, "GIF sub-block size")
		if err != nil {
			return nil, 0, err
		}
		if n == 0 {
			return out, offset + 1, nil
		}
		data, err := sr.Bytes(offset+1, int(n), "GIF sub-block")
		if err != nil {
			return nil, 0, err
		}
		out = append(out, data...)
		offset += 1 + int64(n)
	}
}

// trimXMP cuts the magic trailer from raw XMP extension bytes. The XMP
// packet is stored unframed, so its sub-block length bytes are packet text.
func trimXMP(raw []byte) []byte {
	if i := bytes.Index(raw, xpacketEnd); i >= 0 {
		if j := bytes.Index(raw[i:], []byte("?>")); j >= 0 {
			return raw[:i+j+2]
		}
	}
	if len(raw) > magicTrailer {
		return raw[:len(raw)-magicTrailer]
	}
	return raw
}
