package decoder

import (
	"io"

	"github.com/simonhull/imgmeta/internal/types"
)

// Variant holds exactly one live decoder, selected by the format tag it
// was built with. Every operation is forwarded to that decoder.
//
// In legacy mode only PNG and JPEG are readable: every operation on any
// other format fails with "Unsupported file format", even though
// construction succeeded.
type Variant struct {
	format types.Format

	png  *PNGDecoder
	jpeg *JPEGDecoder
	pnm  *PNMDecoder
	ico  *ICODecoder
	tiff *TIFFDecoder
	tga  *TGADecoder
	bmp  *BMPDecoder
	gif  *GIFDecoder

	legacy   bool
	consumed bool
}

// New builds the decoder for format over src. Formats outside the eight
// decodable ones return ErrUnsupportedFormat. Constructor failures of the
// eager formats (PNM, ICO, TIFF) are returned as is.
func New(format types.Format, src io.ReadSeeker, legacy bool) (*Variant, error) {
	v := &Variant{format: format, legacy: legacy}
	var err error
	switch format {
	case types.FormatPNG:
		v.png = NewPNGDecoder(src)
	case types.FormatJPEG:
		v.jpeg = NewJPEGDecoder(src)
	case types.FormatPNM:
		v.pnm, err = NewPNMDecoder(src)
	case types.FormatICO:
		v.ico, err = NewICODecoder(src)
	case types.FormatTIFF:
		v.tiff, err = NewTIFFDecoder(src)
	case types.FormatTGA:
		v.tga = NewTGADecoder(src)
	case types.FormatBMP:
		v.bmp = NewBMPDecoder(src)
	case types.FormatGIF:
		v.gif = NewGIFDecoder(src)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Format returns the tag the variant was built with.
func (v *Variant) Format() types.Format { return v.format }

// Legacy reports whether legacy dispatch is in effect.
func (v *Variant) Legacy() bool { return v.legacy }

// Consumed reports whether IntoFrames has taken the decoder.
func (v *Variant) Consumed() bool { return v.consumed }

// active returns the live decoder for the variant's tag.
func (v *Variant) active() (ImageDecoder, error) {
	if v.consumed {
		return nil, types.ErrDecoderConsumed
	}
	if v.legacy && v.format != types.FormatPNG && v.format != types.FormatJPEG {
		return nil, &types.FormatError{Format: v.format, Reason: ErrUnsupportedFormat.Error()}
	}
	switch v.format {
	case types.FormatPNG:
		return v.png, nil
	case types.FormatJPEG:
		return v.jpeg, nil
	case types.FormatPNM:
		return v.pnm, nil
	case types.FormatICO:
		return v.ico, nil
	case types.FormatTIFF:
		return v.tiff, nil
	case types.FormatTGA:
		return v.tga, nil
	case types.FormatBMP:
		return v.bmp, nil
	case types.FormatGIF:
		return v.gif, nil
	}
	return nil, ErrUnsupportedFormat
}

func (v *Variant) Dimensions() (uint32, uint32, error) {
	d, err := v.active()
	if err != nil {
		return 0, 0, err
	}
	return d.Dimensions()
}

func (v *Variant) ColorType() (types.ColorType, error) {
	d, err := v.active()
	if err != nil {
		return types.ColorUnknown, err
	}
	return d.ColorType()
}

func (v *Variant) RowLen() (int, error) {
	d, err := v.active()
	if err != nil {
		return 0, err
	}
	return d.RowLen()
}

func (v *Variant) ReadScanline(buf []byte) (int, error) {
	d, err := v.active()
	if err != nil {
		return 0, err
	}
	return d.ReadScanline(buf)
}

func (v *Variant) ReadImage() (*types.DecodingResult, error) {
	d, err := v.active()
	if err != nil {
		return nil, err
	}
	return d.ReadImage()
}

func (v *Variant) IsAnimated() (bool, error) {
	d, err := v.active()
	if err != nil {
		return false, err
	}
	return d.IsAnimated()
}

// IntoFrames consumes the variant. Later calls, including a second
// IntoFrames, return types.ErrDecoderConsumed.
func (v *Variant) IntoFrames() (*Frames, error) {
	d, err := v.active()
	if err != nil {
		return nil, err
	}
	frames, err := d.IntoFrames()
	if err != nil {
		return nil, err
	}
	v.consumed = true
	v.png, v.jpeg, v.pnm, v.ico, v.tiff, v.tga, v.bmp, v.gif = nil, nil, nil, nil, nil, nil, nil, nil
	return frames, nil
}

func (v *Variant) LoadRect(x, y, width, height uint32) ([]byte, error) {
	d, err := v.active()
	if err != nil {
		return nil, err
	}
	return d.LoadRect(x, y, width, height)
}

var _ ImageDecoder = (*Variant)(nil)
