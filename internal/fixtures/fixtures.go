// Package fixtures builds small, deterministic image files for tests.
//
// Every fixture is generated in memory so the repository carries no binary
// test data. Pixel fixtures use a gradient so that row and column
// positions can be checked after decoding.
package fixtures

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsummers/gobmp"
	"golang.org/x/image/tiff"

	"github.com/simonhull/imgmeta/internal/types"
)

// Pixels returns an opaque w×h gradient. Pixel (x, y) is
// {x*16, y*16, 0x80, 0xFF} truncated to 8 bits.
func Pixels(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 0x80, A: 0xFF})
		}
	}
	return img
}

// PNG encodes Pixels(w, h). The image is opaque, so the encoder writes
// 8-bit truecolor without alpha.
func PNG(w, h int) []byte {
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, Pixels(w, h)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// GrayPNG encodes a w×h 8-bit grayscale PNG where pixel (x, y) is x+y.
func GrayPNG(w, h int) []byte {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x + y)})
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEG encodes Pixels(w, h) as a baseline JPEG.
func JPEG(w, h int) []byte {
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, Pixels(w, h), &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// GIF encodes a w×h GIF with the given number of frames. Frame i fills
// the canvas with palette entry i+1 and has a delay of 10ms × (i+1).
func GIF(w, h, frames int) []byte {
	anim := &gif.GIF{}
	for i := 0; i < frames; i++ {
		img := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9[:16])
		for p := range img.Pix {
			img.Pix[p] = uint8(i + 1)
		}
		anim.Image = append(anim.Image, img)
		anim.Delay = append(anim.Delay, i+1)
		anim.Disposal = append(anim.Disposal, gif.DisposalNone)
	}
	buf := &bytes.Buffer{}
	if err := gif.EncodeAll(buf, anim); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// BMP encodes Pixels(w, h) as an uncompressed bitmap.
func BMP(w, h int) []byte {
	buf := &bytes.Buffer{}
	if err := gobmp.Encode(buf, Pixels(w, h)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// TIFF encodes Pixels(w, h) as an uncompressed TIFF.
func TIFF(w, h int) []byte {
	buf := &bytes.Buffer{}
	if err := tiff.Encode(buf, Pixels(w, h), nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// TGA builds an uncompressed 24-bit true-color TGA with top-left origin.
func TGA(w, h int) []byte {
	buf := &bytes.Buffer{}
	buf.Write([]byte{
		0,             // id length
		0,             // no color map
		2,             // uncompressed true-color
		0, 0, 0, 0, 0, // color map spec
		0, 0, 0, 0, // x/y origin
	})
	binary.Write(buf, binary.LittleEndian, uint16(w))
	binary.Write(buf, binary.LittleEndian, uint16(h))
	buf.WriteByte(24)   // bits per pixel
	buf.WriteByte(0x20) // top-left origin

	img := Pixels(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(x, y)
			buf.Write([]byte{c.B, c.G, c.R})
		}
	}
	return buf.Bytes()
}

// ICO wraps a PNG-encoded Pixels(w, h) in a single-entry icon directory.
func ICO(w, h int) []byte {
	payload := PNG(w, h)

	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint16(0)) // reserved
	binary.Write(buf, binary.LittleEndian, uint16(1)) // type: icon
	binary.Write(buf, binary.LittleEndian, uint16(1)) // count
	buf.WriteByte(byte(w))
	buf.WriteByte(byte(h))
	buf.WriteByte(0) // palette size
	buf.WriteByte(0) // reserved
	binary.Write(buf, binary.LittleEndian, uint16(1))  // planes
	binary.Write(buf, binary.LittleEndian, uint16(32)) // bits per pixel
	binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
	binary.Write(buf, binary.LittleEndian, uint32(6+16))
	buf.Write(payload)
	return buf.Bytes()
}

// PNM builds a binary PPM (P6) of Pixels(w, h).
func PNM(w, h int) []byte {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "P6\n%d %d\n255\n", w, h)
	img := Pixels(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(x, y)
			buf.Write([]byte{c.R, c.G, c.B})
		}
	}
	return buf.Bytes()
}

// Image returns a minimal w×h fixture for any decodable format.
func Image(format types.Format, w, h int) []byte {
	switch format {
	case types.FormatPNG:
		return PNG(w, h)
	case types.FormatJPEG:
		return JPEG(w, h)
	case types.FormatGIF:
		return GIF(w, h, 1)
	case types.FormatBMP:
		return BMP(w, h)
	case types.FormatTIFF:
		return TIFF(w, h)
	case types.FormatTGA:
		return TGA(w, h)
	case types.FormatICO:
		return ICO(w, h)
	case types.FormatPNM:
		return PNM(w, h)
	}
	panic("fixtures: no fixture for " + format.String())
}

// WriteFile writes data into dir/name and returns the path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
