package types

import "time"

// DecodingResult holds a fully decoded image. Exactly one of U8 or U16 is
// populated, chosen by Color.BytesPerSample.
type DecodingResult struct {
	Color  ColorType
	Width  uint32
	Height uint32
	U8     []uint8
	U16    []uint16
}

// Len returns the number of samples (width × height × channels).
func (r *DecodingResult) Len() int {
	if r.U16 != nil {
		return len(r.U16)
	}
	return len(r.U8)
}

// Frame is one composed frame of an image sequence, always RGBA8.
type Frame struct {
	Pix    []uint8
	Width  uint32
	Height uint32
	Left   uint32
	Top    uint32
	Delay  time.Duration
}
