package types

import "bytes"

// Payload is the raw metadata carried by an image container.
//
// Each field holds the bytes exactly as they are embedded, minus container
// framing: EXIF without the "Exif\0\0" prefix, ICC uncompressed, IPTC as
// Photoshop image resource blocks.
type Payload struct {
	Exif    []byte
	XMP     []byte
	ICC     []byte
	IPTC    []byte
	Comment string
}

// Empty reports whether the payload carries no metadata at all.
func (p *Payload) Empty() bool {
	return len(p.Exif) == 0 && len(p.XMP) == 0 && len(p.ICC) == 0 &&
		len(p.IPTC) == 0 && p.Comment == ""
}

// Clone returns a deep copy.
func (p *Payload) Clone() *Payload {
	return &Payload{
		Exif:    bytes.Clone(p.Exif),
		XMP:     bytes.Clone(p.XMP),
		ICC:     bytes.Clone(p.ICC),
		IPTC:    bytes.Clone(p.IPTC),
		Comment: p.Comment,
	}
}
