package decoder

import (
	"fmt"
	"image"
	"io"

	"github.com/simonhull/imgmeta/internal/types"
)

// raster adapts an image.Image codec to ImageDecoder. The header is read
// on first use unless the constructor asks for it, and the full image is
// decoded once and cached.
type raster struct {
	format types.Format
	src    io.ReadSeeker
	config func(io.Reader) (image.Config, error)
	decode func(io.Reader) (image.Image, error)

	cfg *image.Config
	img image.Image
	pix []byte // img converted to the reported color type
	row int    // next scanline for ReadScanline
}

func newRaster(format types.Format, src io.ReadSeeker,
	config func(io.Reader) (image.Config, error),
	decode func(io.Reader) (image.Image, error)) raster {
	return raster{format: format, src: src, config: config, decode: decode}
}

// guarded runs a codec call and reports a panic inside it as an error.
func guarded[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("codec panic: %v", p)
		}
	}()
	return fn()
}

// rewind positions the source at its first byte.
func (r *raster) rewind() (io.Reader, error) {
	if _, err := r.src.Seek(0, io.SeekStart); err != nil {
		return nil, &types.FormatError{Format: r.format, Reason: "seek to start", Err: err}
	}
	return r.src, nil
}

func (r *raster) header() (*image.Config, error) {
	if r.cfg != nil {
		return r.cfg, nil
	}
	rd, err := r.rewind()
	if err != nil {
		return nil, err
	}
	cfg, err := guarded(func() (image.Config, error) { return r.config(rd) })
	if err != nil {
		return nil, &types.FormatError{Format: r.format, Reason: "read header", Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &types.FormatError{
			Format: r.format,
			Reason: fmt.Sprintf("invalid dimensions %dx%d", cfg.Width, cfg.Height),
		}
	}
	r.cfg = &cfg
	return r.cfg, nil
}

func (r *raster) image() (image.Image, error) {
	if r.img != nil {
		return r.img, nil
	}
	if _, err := r.header(); err != nil {
		return nil, err
	}
	rd, err := r.rewind()
	if err != nil {
		return nil, err
	}
	img, err := guarded(func() (image.Image, error) { return r.decode(rd) })
	if err != nil {
		return nil, &types.FormatError{Format: r.format, Reason: "decode image", Err: err}
	}
	r.img = img
	return img, nil
}

// pixels returns the whole image in the reported color type.
func (r *raster) pixels() ([]byte, error) {
	if r.pix != nil {
		return r.pix, nil
	}
	ct, err := r.ColorType()
	if err != nil {
		return nil, err
	}
	img, err := r.image()
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() != r.cfg.Width || b.Dy() != r.cfg.Height {
		return nil, &types.FormatError{
			Format: r.format,
			Reason: fmt.Sprintf("decoded %dx%d image, header says %dx%d", b.Dx(), b.Dy(), r.cfg.Width, r.cfg.Height),
		}
	}
	r.pix = convert(img, ct)
	return r.pix, nil
}

func (r *raster) Dimensions() (uint32, uint32, error) {
	cfg, err := r.header()
	if err != nil {
		return 0, 0, err
	}
	return uint32(cfg.Width), uint32(cfg.Height), nil
}

func (r *raster) ColorType() (types.ColorType, error) {
	cfg, err := r.header()
	if err != nil {
		return types.ColorUnknown, err
	}
	return types.ColorTypeOf(cfg.ColorModel), nil
}

func (r *raster) RowLen() (int, error) {
	cfg, err := r.header()
	if err != nil {
		return 0, err
	}
	return cfg.Width * types.ColorTypeOf(cfg.ColorModel).BytesPerPixel(), nil
}

func (r *raster) ReadScanline(buf []byte) (int, error) {
	rowLen, err := r.RowLen()
	if err != nil {
		return 0, err
	}
	if len(buf) < rowLen {
		return 0, &types.DimensionError{
			Reason: fmt.Sprintf("scanline buffer of %d bytes, need %d", len(buf), rowLen),
		}
	}
	if r.row >= r.cfg.Height {
		return 0, io.EOF
	}
	pix, err := r.pixels()
	if err != nil {
		return 0, err
	}
	n := copy(buf, pix[r.row*rowLen:(r.row+1)*rowLen])
	r.row++
	return n, nil
}

func (r *raster) ReadImage() (*types.DecodingResult, error) {
	ct, err := r.ColorType()
	if err != nil {
		return nil, err
	}
	pix, err := r.pixels()
	if err != nil {
		return nil, err
	}
	res := &types.DecodingResult{
		Color:  ct,
		Width:  uint32(r.cfg.Width),
		Height: uint32(r.cfg.Height),
	}
	if ct.BytesPerSample() == 2 {
		res.U16 = samples16(pix)
	} else {
		res.U8 = append([]byte(nil), pix...)
	}
	return res, nil
}

func (r *raster) IsAnimated() (bool, error) {
	if _, err := r.header(); err != nil {
		return false, err
	}
	return false, nil
}

func (r *raster) IntoFrames() (*Frames, error) {
	img, err := r.image()
	if err != nil {
		return nil, err
	}
	frame := frameOf(img, 0)
	done := false
	return newFrames(r.src, func() (*types.Frame, error) {
		if done {
			return nil, io.EOF
		}
		done = true
		return frame, nil
	}), nil
}

func (r *raster) LoadRect(x, y, width, height uint32) ([]byte, error) {
	w, h, err := r.Dimensions()
	if err != nil {
		return nil, err
	}
	if uint64(x)+uint64(width) > uint64(w) || uint64(y)+uint64(height) > uint64(h) {
		return nil, &types.DimensionError{
			Reason: fmt.Sprintf("rect %dx%d at (%d,%d) exceeds image %dx%d", width, height, x, y, w, h),
		}
	}
	pix, err := r.pixels()
	if err != nil {
		return nil, err
	}

	ct, _ := r.ColorType()
	bpp := ct.BytesPerPixel()
	rowLen := int(w) * bpp
	out := make([]byte, 0, int(width)*int(height)*bpp)
	for row := int(y); row < int(y+height); row++ {
		start := row*rowLen + int(x)*bpp
		out = append(out, pix[start:start+int(width)*bpp]...)
	}
	return out, nil
}
