package types

import "image/color"

// ColorType describes the sample layout of decoded pixel data.
type ColorType int

const (
	// ColorUnknown is reported before a header has been read.
	ColorUnknown ColorType = iota
	// ColorGray8 is one 8-bit luminance sample per pixel.
	ColorGray8
	// ColorGray16 is one 16-bit big-endian luminance sample per pixel.
	ColorGray16
	// ColorRGB8 is three 8-bit samples per pixel.
	ColorRGB8
	// ColorRGBA8 is four 8-bit non-premultiplied samples per pixel.
	ColorRGBA8
	// ColorRGBA16 is four 16-bit big-endian non-premultiplied samples per pixel.
	ColorRGBA16
)

func (c ColorType) String() string {
	switch c {
	case ColorGray8:
		return "Gray8"
	case ColorGray16:
		return "Gray16"
	case ColorRGB8:
		return "RGB8"
	case ColorRGBA8:
		return "RGBA8"
	case ColorRGBA16:
		return "RGBA16"
	default:
		return "Unknown"
	}
}

// Channels returns the number of samples per pixel.
func (c ColorType) Channels() int {
	switch c {
	case ColorGray8, ColorGray16:
		return 1
	case ColorRGB8:
		return 3
	case ColorRGBA8, ColorRGBA16:
		return 4
	default:
		return 0
	}
}

// BytesPerSample returns 1 for 8-bit types and 2 for 16-bit types.
func (c ColorType) BytesPerSample() int {
	switch c {
	case ColorGray16, ColorRGBA16:
		return 2
	case ColorUnknown:
		return 0
	default:
		return 1
	}
}

// BytesPerPixel returns the width of one pixel in a scanline.
func (c ColorType) BytesPerPixel() int {
	return c.Channels() * c.BytesPerSample()
}

// RGBModel is the color model of opaque truecolor sources. It converts
// like color.RGBAModel with alpha forced to opaque.
var RGBModel = color.ModelFunc(func(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xFF}
})

// ColorTypeOf maps a decoder's color model to the layout its pixels are
// delivered in.
func ColorTypeOf(m color.Model) ColorType {
	switch m {
	case color.GrayModel:
		return ColorGray8
	case color.Gray16Model:
		return ColorGray16
	case color.YCbCrModel, color.CMYKModel, RGBModel:
		return ColorRGB8
	case color.RGBA64Model, color.NRGBA64Model:
		return ColorRGBA16
	}
	return ColorRGBA8
}
