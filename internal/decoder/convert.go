package decoder

import (
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/simonhull/imgmeta/internal/types"
)

// convert flattens img into ct's sample layout. 16-bit samples are
// big-endian.
func convert(img image.Image, ct types.ColorType) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	bpp := ct.BytesPerPixel()
	out := make([]byte, w*h*bpp)

	// Fast paths for layouts the codecs already produce.
	switch m := img.(type) {
	case *image.NRGBA:
		if ct == types.ColorRGBA8 {
			copyRows(out, m.Pix, m.Stride, w*4, h)
			return out
		}
	case *image.Gray:
		if ct == types.ColorGray8 {
			copyRows(out, m.Pix, m.Stride, w, h)
			return out
		}
	case *image.Gray16:
		if ct == types.ColorGray16 {
			copyRows(out, m.Pix, m.Stride, w*2, h)
			return out
		}
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			switch ct {
			case types.ColorGray8:
				out[i] = color.GrayModel.Convert(c).(color.Gray).Y
			case types.ColorGray16:
				g := color.Gray16Model.Convert(c).(color.Gray16).Y
				out[i], out[i+1] = byte(g>>8), byte(g)
			case types.ColorRGB8:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				out[i], out[i+1], out[i+2] = n.R, n.G, n.B
			case types.ColorRGBA16:
				n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
				put16(out[i:], n.R, n.G, n.B, n.A)
			default:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				out[i], out[i+1], out[i+2], out[i+3] = n.R, n.G, n.B, n.A
			}
			i += bpp
		}
	}
	return out
}

func copyRows(dst, src []byte, stride, rowLen, rows int) {
	for y := 0; y < rows; y++ {
		copy(dst[y*rowLen:(y+1)*rowLen], src[y*stride:y*stride+rowLen])
	}
}

func put16(b []byte, vals ...uint16) {
	for i, v := range vals {
		b[2*i], b[2*i+1] = byte(v>>8), byte(v)
	}
}

// samples16 reinterprets big-endian byte pairs as samples.
func samples16(pix []byte) []uint16 {
	out := make([]uint16, len(pix)/2)
	for i := range out {
		out[i] = uint16(pix[2*i])<<8 | uint16(pix[2*i+1])
	}
	return out
}

// toNRGBA returns img as a tightly packed NRGBA image at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// frameOf builds a full-canvas frame from a still image.
func frameOf(img image.Image, delay time.Duration) *types.Frame {
	m := toNRGBA(img)
	return &types.Frame{
		Pix:    m.Pix,
		Width:  uint32(m.Rect.Dx()),
		Height: uint32(m.Rect.Dy()),
		Delay:  delay,
	}
}
