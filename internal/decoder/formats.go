package decoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	ico "github.com/biessek/golang-ico"
	"github.com/ftrvxmtrx/tga"
	"github.com/jsummers/gobmp"
	"github.com/kovidgoyal/imaging/netpbm"
	"golang.org/x/image/tiff"

	"github.com/simonhull/imgmeta/internal/types"
)

// PNGDecoder decodes PNG images.
type PNGDecoder struct{ raster }

// NewPNGDecoder returns a PNG decoder reading src. The header is parsed on
// first use.
func NewPNGDecoder(src io.ReadSeeker) *PNGDecoder {
	return &PNGDecoder{newRaster(types.FormatPNG, src, pngConfig, png.Decode)}
}

// pngTruecolor is the IHDR color type of 8- and 16-bit RGB without alpha.
const pngTruecolor = 2

// pngConfig reads the header like png.DecodeConfig but reports 8-bit
// truecolor images as RGB rather than RGBA.
func pngConfig(rd io.Reader) (image.Config, error) {
	head := &bytes.Buffer{}
	cfg, err := png.DecodeConfig(io.TeeReader(rd, head))
	if err != nil {
		return cfg, err
	}
	// Signature (8), chunk length and type (8), width, height, bit depth.
	if b := head.Bytes(); len(b) > 25 && b[25] == pngTruecolor && cfg.ColorModel == color.RGBAModel {
		cfg.ColorModel = types.RGBModel
	}
	return cfg, nil
}

// JPEGDecoder decodes baseline and progressive JPEG images. CMYK and
// YCbCr sources are delivered as RGB8.
type JPEGDecoder struct{ raster }

func NewJPEGDecoder(src io.ReadSeeker) *JPEGDecoder {
	return &JPEGDecoder{newRaster(types.FormatJPEG, src, jpeg.DecodeConfig, jpeg.Decode)}
}

// TGADecoder decodes Truevision TGA images.
type TGADecoder struct{ raster }

func NewTGADecoder(src io.ReadSeeker) *TGADecoder {
	return &TGADecoder{newRaster(types.FormatTGA, src, tga.DecodeConfig, tga.Decode)}
}

// BMPDecoder decodes Windows bitmaps, including RLE-compressed ones.
type BMPDecoder struct{ raster }

func NewBMPDecoder(src io.ReadSeeker) *BMPDecoder {
	return &BMPDecoder{newRaster(types.FormatBMP, src, gobmp.DecodeConfig, gobmp.Decode)}
}

// PNMDecoder decodes the netpbm family (PBM, PGM, PPM, PAM).
type PNMDecoder struct{ raster }

// NewPNMDecoder parses the header immediately and fails if it is invalid.
func NewPNMDecoder(src io.ReadSeeker) (*PNMDecoder, error) {
	d := &PNMDecoder{newRaster(types.FormatPNM, src, netpbm.DecodeConfig, netpbm.Decode)}
	if _, err := d.header(); err != nil {
		return nil, err
	}
	return d, nil
}

// ICODecoder decodes Windows icons, picking the entry the codec selects.
type ICODecoder struct{ raster }

// NewICODecoder parses the icon directory immediately.
func NewICODecoder(src io.ReadSeeker) (*ICODecoder, error) {
	d := &ICODecoder{newRaster(types.FormatICO, src, ico.DecodeConfig, ico.Decode)}
	if _, err := d.header(); err != nil {
		return nil, err
	}
	return d, nil
}

// TIFFDecoder decodes the first image of a TIFF file.
type TIFFDecoder struct{ raster }

// NewTIFFDecoder parses the first IFD immediately.
func NewTIFFDecoder(src io.ReadSeeker) (*TIFFDecoder, error) {
	d := &TIFFDecoder{newRaster(types.FormatTIFF, src, tiff.DecodeConfig, tiff.Decode)}
	if _, err := d.header(); err != nil {
		return nil, err
	}
	return d, nil
}
