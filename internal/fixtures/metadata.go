package fixtures

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sort"

	"github.com/klauspost/compress/zlib"

	"github.com/simonhull/imgmeta/internal/types"
)

// EXIF tag IDs used by fixtures.
const (
	TagImageDescription = 0x010E
	TagMake             = 0x010F
	TagModel            = 0x0110
	TagOrientation      = 0x0112
	TagSoftware         = 0x0131
	TagArtist           = 0x013B
	TagCopyright        = 0x8298
)

// Exif builds a little-endian TIFF structure holding a single IFD with
// the given ASCII tags plus an Orientation of 1.
func Exif(ascii map[uint16]string) []byte {
	type entry struct {
		tag   uint16
		typ   uint16
		count uint32
		data  []byte
	}

	entries := []entry{{tag: TagOrientation, typ: 3, count: 1, data: []byte{1, 0, 0, 0}}}
	for tag, s := range ascii {
		v := append([]byte(s), 0)
		entries = append(entries, entry{tag: tag, typ: 2, count: uint32(len(v)), data: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	ifdSize := 2 + 12*len(entries) + 4
	dataOffset := 8 + ifdSize

	head := &bytes.Buffer{}
	values := &bytes.Buffer{}
	head.WriteString("II")
	binary.Write(head, binary.LittleEndian, uint16(42))
	binary.Write(head, binary.LittleEndian, uint32(8))
	binary.Write(head, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(head, binary.LittleEndian, e.tag)
		binary.Write(head, binary.LittleEndian, e.typ)
		binary.Write(head, binary.LittleEndian, e.count)
		if len(e.data) <= 4 {
			inline := make([]byte, 4)
			copy(inline, e.data)
			head.Write(inline)
			continue
		}
		binary.Write(head, binary.LittleEndian, uint32(dataOffset+values.Len()))
		values.Write(e.data)
		if values.Len()%2 == 1 {
			values.WriteByte(0)
		}
	}
	binary.Write(head, binary.LittleEndian, uint32(0)) // no next IFD
	head.Write(values.Bytes())
	return head.Bytes()
}

// XMP builds a minimal XMP packet with a dc:title and an xmp:Rating.
func XMP(title string, rating int) []byte {
	return []byte(fmt.Sprintf(`<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/" xmlns:dc="http://purl.org/dc/elements/1.1/" xmp:Rating="%d">
   <dc:title><rdf:Alt><rdf:li xml:lang="x-default">%s</rdf:li></rdf:Alt></dc:title>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`, rating, title))
}

// IPTC builds Photoshop image resource blocks carrying one IPTC-IIM
// record with the given application datasets.
func IPTC(datasets map[uint8]string) []byte {
	ids := make([]int, 0, len(datasets))
	for id := range datasets {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	iim := &bytes.Buffer{}
	for _, id := range ids {
		v := datasets[uint8(id)]
		iim.Write([]byte{0x1C, 2, uint8(id)})
		binary.Write(iim, binary.BigEndian, uint16(len(v)))
		iim.WriteString(v)
	}

	irb := &bytes.Buffer{}
	irb.WriteString("8BIM")
	binary.Write(irb, binary.BigEndian, uint16(0x0404))
	irb.Write([]byte{0, 0}) // empty pascal name, padded
	binary.Write(irb, binary.BigEndian, uint32(iim.Len()))
	irb.Write(iim.Bytes())
	if iim.Len()%2 == 1 {
		irb.WriteByte(0)
	}
	return irb.Bytes()
}

// ICCProfile returns an opaque byte string standing in for a profile.
func ICCProfile(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i * 7)
	}
	copy(p[36:], "acsp")
	return p
}

// SamplePayload returns a payload exercising every metadata block.
func SamplePayload() *types.Payload {
	return &types.Payload{
		Exif: Exif(map[uint16]string{
			TagMake:     "imgmeta",
			TagModel:    "fixture camera",
			TagArtist:   "A. Tester",
			TagSoftware: "fixtures",
		}),
		XMP:     XMP("Harbor at dusk", 4),
		ICC:     ICCProfile(128),
		IPTC:    IPTC(map[uint8]string{5: "harbor", 25: "boats", 80: "A. Tester"}),
		Comment: "fixture comment",
	}
}

// WithJPEGMetadata inserts APP segments carrying p right after SOI.
func WithJPEGMetadata(jpg []byte, p *types.Payload) []byte {
	out := &bytes.Buffer{}
	out.Write(jpg[:2])
	segment := func(marker byte, data []byte) {
		out.Write([]byte{0xFF, marker})
		binary.Write(out, binary.BigEndian, uint16(len(data)+2))
		out.Write(data)
	}
	if len(p.Exif) > 0 {
		segment(0xE1, append([]byte("Exif\x00\x00"), p.Exif...))
	}
	if len(p.XMP) > 0 {
		segment(0xE1, append([]byte("http://ns.adobe.com/xap/1.0/\x00"), p.XMP...))
	}
	if len(p.ICC) > 0 {
		segment(0xE2, append([]byte("ICC_PROFILE\x00\x01\x01"), p.ICC...))
	}
	if len(p.IPTC) > 0 {
		segment(0xED, append([]byte("Photoshop 3.0\x00"), p.IPTC...))
	}
	if p.Comment != "" {
		segment(0xFE, []byte(p.Comment))
	}
	out.Write(jpg[2:])
	return out.Bytes()
}

// WithPNGMetadata inserts chunks carrying p right after IHDR.
func WithPNGMetadata(pngData []byte, p *types.Payload) []byte {
	const ihdrEnd = 8 + 8 + 13 + 4
	out := &bytes.Buffer{}
	out.Write(pngData[:ihdrEnd])
	if len(p.ICC) > 0 {
		z := &bytes.Buffer{}
		zw := zlib.NewWriter(z)
		zw.Write(p.ICC)
		zw.Close()
		Chunk(out, "iCCP", append([]byte("fixture\x00\x00"), z.Bytes()...))
	}
	if len(p.Exif) > 0 {
		Chunk(out, "eXIf", p.Exif)
	}
	if len(p.XMP) > 0 {
		Chunk(out, "iTXt", append([]byte("XML:com.adobe.xmp\x00\x00\x00\x00\x00"), p.XMP...))
	}
	if p.Comment != "" {
		Chunk(out, "tEXt", append([]byte("Comment\x00"), p.Comment...))
	}
	out.Write(pngData[ihdrEnd:])
	return out.Bytes()
}

// Chunk appends one PNG chunk with a valid CRC.
func Chunk(buf *bytes.Buffer, typ string, data []byte) {
	binary.Write(buf, binary.BigEndian, uint32(len(data)))
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	buf.WriteString(typ)
	buf.Write(data)
	binary.Write(buf, binary.BigEndian, crc.Sum32())
}
