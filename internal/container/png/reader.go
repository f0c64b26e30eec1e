// Package png reads and writes the metadata chunks of PNG files.
package png

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"

	"github.com/simonhull/imgmeta/internal/binary"
	"github.com/simonhull/imgmeta/internal/registry"
	"github.com/simonhull/imgmeta/internal/types"
)

var signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// Text chunk keywords this package owns.
const (
	keywordXMP     = "XML:com.adobe.xmp"
	keywordComment = "Comment"
)

// maxInflated bounds decompressed chunk payloads.
const maxInflated = 64 << 20

func init() {
	registry.Register(types.FormatPNG, &reader{})
	registry.RegisterWriter(types.FormatPNG, &writer{})
}

// chunk is one PNG chunk located in the source file.
type chunk struct {
	typ    string
	offset int64 // offset of the length field
	length uint32
	sr     *binary.SafeReader
}

// size is the chunk's total size on disk.
func (c *chunk) size() int64 {
	return 12 + int64(c.length)
}

// data reads the chunk payload.
func (c *chunk) data() ([]byte, error) {
	return c.sr.Bytes(c.offset+8, int(c.length), c.typ+" chunk data")
}

// walk visits every chunk after the signature, stopping after IEND.
func walk(sr *binary.SafeReader, visit func(*chunk) error) error {
	sig, err := sr.Bytes(0, len(signature), "PNG signature")
	if err != nil {
		return err
	}
	if !bytes.Equal(sig, signature) {
		return &types.CorruptedFileError{Path: sr.Path(), Reason: "invalid PNG signature"}
	}

	offset := int64(len(signature))
	for offset < sr.Size() {
		length, err := binary.ReadBE[uint32](sr, offset, "PNG chunk length")
		if err != nil {
			return err
		}
		typ, err := sr.Bytes(offset+4, 4, "PNG chunk type")
		if err != nil {
			return err
		}
		c := &chunk{typ: string(typ), offset: offset, length: length, sr: sr}
		if offset+c.size() > sr.Size() {
			return &types.CorruptedFileError{
				Path:   sr.Path(),
				Offset: offset,
				Reason: fmt.Sprintf("%s chunk of %d bytes runs past end of file", c.typ, length),
			}
		}
		if err := visit(c); err != nil {
			return err
		}
		offset += c.size()
		if c.typ == "IEND" {
			break
		}
	}
	return nil
}

// reader implements registry.MetadataReader for PNG files.
type reader struct{}

// Read extracts eXIf, iCCP, XMP and comment chunks.
func (p *reader) Read(r io.ReaderAt, size int64, path string) (*types.Payload, error) {
	sr := binary.NewSafeReader(r, size, path)
	payload := &types.Payload{}

	err := walk(sr, func(c *chunk) error {
		switch c.typ {
		case "eXIf", "iCCP", "tEXt", "zTXt", "iTXt":
		default:
			return nil
		}
		data, err := c.data()
		if err != nil {
			return err
		}

		switch c.typ {
		case "eXIf":
			if payload.Exif == nil {
				payload.Exif = data
			}
		case "iCCP":
			if payload.ICC != nil {
				return nil
			}
			_, rest, ok := cutKeyword(data)
			if !ok || len(rest) < 1 {
				return &types.CorruptedFileError{Path: path, Offset: c.offset, Reason: "malformed iCCP chunk"}
			}
			profile, err := inflate(rest[1:])
			if err != nil {
				return &types.CorruptedFileError{Path: path, Offset: c.offset, Reason: "iCCP: " + err.Error()}
			}
			payload.ICC = profile
		default:
			keyword, text, err := parseText(c.typ, data)
			if err != nil {
				return &types.CorruptedFileError{Path: path, Offset: c.offset, Reason: c.typ + ": " + err.Error()}
			}
			switch {
			case keyword == keywordXMP && payload.XMP == nil:
				payload.XMP = text
			case keyword == keywordComment && payload.Comment == "":
				payload.Comment = string(text)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk PNG chunks: %w", err)
	}
	return payload, nil
}

// textKeyword returns the keyword of a tEXt, zTXt or iTXt chunk.
func textKeyword(c *chunk) (string, error) {
	// Keywords are 1-79 bytes plus the separator.
	n := min(int(c.length), 80)
	head, err := c.sr.Bytes(c.offset+8, n, c.typ+" keyword")
	if err != nil {
		return "", err
	}
	keyword, _, _ := cutKeyword(head)
	return keyword, nil
}

// parseText decodes a text chunk into its keyword and UTF-8 text.
func parseText(typ string, data []byte) (string, []byte, error) {
	keyword, rest, ok := cutKeyword(data)
	if !ok {
		return "", nil, fmt.Errorf("missing keyword separator")
	}

	switch typ {
	case "tEXt":
		return keyword, latin1ToUTF8(rest), nil
	case "zTXt":
		if len(rest) < 1 {
			return "", nil, fmt.Errorf("missing compression method")
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return "", nil, err
		}
		return keyword, latin1ToUTF8(text), nil
	}

	// iTXt: compression flag, method, language tag, translated keyword
	if len(rest) < 2 {
		return "", nil, fmt.Errorf("truncated header")
	}
	compressed := rest[0] == 1
	rest = rest[2:]
	for range 2 {
		i := bytes.IndexByte(rest, 0)
		if i < 0 {
			return "", nil, fmt.Errorf("truncated header")
		}
		rest = rest[i+1:]
	}
	if compressed {
		text, err := inflate(rest)
		if err != nil {
			return "", nil, err
		}
		return keyword, text, nil
	}
	return keyword, rest, nil
}

func cutKeyword(data []byte) (string, []byte, bool) {
	i := bytes.IndexByte(data, 0)
	if i < 0 {
		return "", data, false
	}
	return string(data[:i]), data[i+1:], true
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxInflated+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxInflated {
		return nil, fmt.Errorf("inflated data exceeds %d bytes", maxInflated)
	}
	return out, nil
}

func latin1ToUTF8(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		out = utf8.AppendRune(out, rune(c))
	}
	return out
}
