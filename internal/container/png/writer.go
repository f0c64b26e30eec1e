package png

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/simonhull/imgmeta/internal/binary"
	"github.com/simonhull/imgmeta/internal/types"
)

// iccProfileName is the profile name written into new iCCP chunks.
const iccProfileName = "ICC Profile"

// writer implements registry.MetadataWriter for PNG files.
//
// IPTC has no standard PNG chunk and is not written.
type writer struct{}

// Write copies original to w, replacing its metadata chunks with p.
//
// New chunks are placed right after IHDR so that iCCP precedes PLTE and
// IDAT. An sRGB chunk is dropped when an ICC profile is written.
func (wr *writer) Write(w io.Writer, p *types.Payload, original io.ReaderAt, originalSize int64) error {
	chunks, err := buildChunks(p)
	if err != nil {
		return err
	}

	sr := binary.NewSafeReader(original, originalSize, "")
	sw := binary.NewSafeWriter(w)
	sw.WriteBytes(signature)

	err = walk(sr, func(c *chunk) error {
		skip, err := owned(c, len(p.ICC) > 0)
		if err != nil {
			return err
		}
		if !skip {
			sw.CopyRange(sr, c.offset, c.size(), c.typ+" chunk")
		}
		if c.typ == "IHDR" {
			for _, b := range chunks {
				sw.WriteBytes(b)
			}
		}
		return sw.Err()
	})
	if err != nil {
		return fmt.Errorf("write PNG: %w", err)
	}
	return nil
}

// owned reports whether c is a metadata chunk replaced by the payload.
func owned(c *chunk, hasICC bool) (bool, error) {
	switch c.typ {
	case "eXIf", "iCCP":
		return true, nil
	case "sRGB":
		return hasICC, nil
	case "tEXt", "zTXt", "iTXt":
		keyword, err := textKeyword(c)
		if err != nil {
			return false, err
		}
		return keyword == keywordXMP || keyword == keywordComment, nil
	}
	return false, nil
}

// buildChunks encodes p as complete PNG chunks in file order.
func buildChunks(p *types.Payload) ([][]byte, error) {
	var out [][]byte

	if len(p.ICC) > 0 {
		z := &bytes.Buffer{}
		zw := zlib.NewWriter(z)
		if _, err := zw.Write(p.ICC); err != nil {
			return nil, fmt.Errorf("compress ICC profile: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("compress ICC profile: %w", err)
		}
		data := append([]byte(iccProfileName), 0, 0) // separator, deflate
		out = append(out, encodeChunk("iCCP", append(data, z.Bytes()...)))
	}
	if len(p.Exif) > 0 {
		out = append(out, encodeChunk("eXIf", p.Exif))
	}
	if len(p.XMP) > 0 {
		out = append(out, encodeChunk("iTXt", itxt(keywordXMP, p.XMP)))
	}
	if p.Comment != "" {
		if latin1, ok := toLatin1(p.Comment); ok {
			out = append(out, encodeChunk("tEXt", append([]byte(keywordComment+"\x00"), latin1...)))
		} else {
			out = append(out, encodeChunk("iTXt", itxt(keywordComment, []byte(p.Comment))))
		}
	}

	for _, c := range out {
		if len(c)-12 > 0x7FFFFFFF {
			return nil, &types.UnsupportedWriteError{Format: types.FormatPNG, Reason: "chunk exceeds 2^31-1 bytes"}
		}
	}
	return out, nil
}

// itxt builds an uncompressed iTXt payload with empty language tags.
func itxt(keyword string, text []byte) []byte {
	data := make([]byte, 0, len(keyword)+5+len(text))
	data = append(data, keyword...)
	data = append(data, 0, 0, 0, 0, 0) // separator, flag, method, language, translated keyword
	return append(data, text...)
}

func toLatin1(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, false
		}
		out = append(out, byte(r))
	}
	return out, true
}

func encodeChunk(typ string, data []byte) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(data)+12))
	sw := binary.NewSafeWriter(buf)
	binary.Write(sw, uint32(len(data)))
	sw.WriteString(typ)
	sw.WriteBytes(data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	binary.Write(sw, crc.Sum32())
	return buf.Bytes()
}
