// Package tiff reads metadata tags from TIFF files.
//
// TIFF keeps EXIF fields in the same IFD as the image structure, so the
// EXIF block exposed here is rebuilt: the descriptive IFD0 tags plus the
// Exif and GPS sub-IFDs, serialized as a standalone TIFF structure.
package tiff

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/rwcarlsen/goexif/tiff"

	"github.com/simonhull/imgmeta/internal/registry"
	"github.com/simonhull/imgmeta/internal/types"
)

// Tag IDs with special handling
const (
	tagXMP        = 700
	tagIPTC       = 33723
	tagExifIFD    = 34665
	tagGPSIFD     = 34853
	tagICCProfile = 34675
	tagInterop    = 40965
)

// structural tags describe the image data and are not carried into the
// rebuilt EXIF block.
var structural = map[uint16]bool{
	256: true, 257: true, 258: true, 259: true, 262: true, 273: true,
	277: true, 278: true, 279: true, 284: true, 317: true, 320: true,
	322: true, 323: true, 324: true, 325: true, 338: true, 339: true,
	tagXMP: true, tagICCProfile: true, tagIPTC: true,
}

func init() {
	registry.Register(types.FormatTIFF, &reader{})
}

// reader implements registry.MetadataReader for TIFF files.
type reader struct{}

// Read extracts XMP, ICC, IPTC and EXIF from IFD0.
func (p *reader) Read(r io.ReaderAt, size int64, path string) (*types.Payload, error) {
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, err
	}

	tf, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &types.CorruptedFileError{Path: path, Reason: err.Error()}
	}
	if len(tf.Dirs) == 0 {
		return &types.Payload{}, nil
	}
	order, ok := tf.Order.(binary.AppendByteOrder)
	if !ok {
		return nil, &types.CorruptedFileError{Path: path, Reason: "unknown byte order"}
	}

	payload := &types.Payload{}
	root := &ifd{}
	for _, tag := range tf.Dirs[0].Tags {
		switch tag.Id {
		case tagXMP:
			payload.XMP = tag.Val
		case tagICCProfile:
			payload.ICC = tag.Val
		case tagIPTC:
			payload.IPTC = wrapIIM(tag.Val)
		case tagExifIFD, tagGPSIFD:
			sub, err := decodeSubIFD(data, tf.Order, tag)
			if err != nil {
				corrupt := &types.CorruptedFileError{Path: path, Reason: err.Error()}
				if len(tag.Val) >= 4 {
					corrupt.Offset = int64(tf.Order.Uint32(tag.Val))
				}
				return nil, corrupt
			}
			root.add(entry{id: tag.Id, typ: uint16(tiff.DTLong), count: 1, sub: sub})
		default:
			if !structural[tag.Id] {
				root.add(entryFrom(tag))
			}
		}
	}

	if len(root.entries) > 0 {
		payload.Exif = encode(order, root)
	}
	return payload, nil
}

func decodeSubIFD(data []byte, order binary.ByteOrder, ptr *tiff.Tag) (*ifd, error) {
	if len(ptr.Val) < 4 {
		return nil, io.ErrUnexpectedEOF
	}
	br := bytes.NewReader(data)
	if _, err := br.Seek(int64(order.Uint32(ptr.Val)), io.SeekStart); err != nil {
		return nil, err
	}
	dir, _, err := tiff.DecodeDir(br, order)
	if err != nil {
		return nil, err
	}

	sub := &ifd{}
	for _, tag := range dir.Tags {
		if tag.Id == tagInterop {
			continue
		}
		sub.add(entryFrom(tag))
	}
	return sub, nil
}

func entryFrom(tag *tiff.Tag) entry {
	return entry{id: tag.Id, typ: uint16(tag.Type), count: tag.Count, val: tag.Val}
}

// wrapIIM wraps raw IPTC-IIM records in a Photoshop 0x0404 resource block
// so TIFF IPTC has the same shape as JPEG's APP13 payload.
func wrapIIM(iim []byte) []byte {
	if bytes.HasPrefix(iim, []byte("8BIM")) {
		return iim
	}
	out := make([]byte, 0, len(iim)+13)
	out = append(out, "8BIM"...)
	out = append(out, 0x04, 0x04, 0, 0)
	out = binary.BigEndian.AppendUint32(out, uint32(len(iim)))
	out = append(out, iim...)
	if len(iim)%2 == 1 {
		out = append(out, 0)
	}
	return out
}
