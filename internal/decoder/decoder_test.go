package decoder

import (
	"bytes"
	"errors"
	"image/color"
	"image/color/palette"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/imgmeta/internal/fixtures"
	"github.com/simonhull/imgmeta/internal/types"
)

var decodable = []types.Format{
	types.FormatPNG,
	types.FormatJPEG,
	types.FormatPNM,
	types.FormatICO,
	types.FormatTIFF,
	types.FormatTGA,
	types.FormatBMP,
	types.FormatGIF,
}

// lossless formats reproduce fixtures.Pixels exactly.
var lossless = map[types.Format]bool{
	types.FormatPNG:  true,
	types.FormatPNM:  true,
	types.FormatICO:  true,
	types.FormatTIFF: true,
	types.FormatTGA:  true,
	types.FormatBMP:  true,
}

func open(t *testing.T, format types.Format, data []byte, legacy bool) *Variant {
	t.Helper()
	v, err := New(format, bytes.NewReader(data), legacy)
	require.NoError(t, err)
	return v
}

// checkGradient asserts that pix holds fixtures.Pixels(w, h) starting at
// (x0, y0) in an 8-bit RGB or RGBA layout.
func checkGradient(t *testing.T, pix []byte, ct types.ColorType, x0, y0, w, h int) {
	t.Helper()
	bpp := ct.BytesPerPixel()
	require.Len(t, pix, w*h*bpp)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := pix[(y*w+x)*bpp:]
			require.Equal(t, uint8((x0+x)*16), p[0], "R at (%d,%d)", x, y)
			require.Equal(t, uint8((y0+y)*16), p[1], "G at (%d,%d)", x, y)
			require.Equal(t, uint8(0x80), p[2], "B at (%d,%d)", x, y)
		}
	}
}

func TestVariant_AllFormats(t *testing.T) {
	const w, h = 5, 3
	for _, format := range decodable {
		t.Run(format.String(), func(t *testing.T) {
			v := open(t, format, fixtures.Image(format, w, h), false)
			assert.Equal(t, format, v.Format())

			gotW, gotH, err := v.Dimensions()
			require.NoError(t, err)
			assert.Equal(t, uint32(w), gotW)
			assert.Equal(t, uint32(h), gotH)

			ct, err := v.ColorType()
			require.NoError(t, err)
			require.NotEqual(t, types.ColorUnknown, ct)

			rowLen, err := v.RowLen()
			require.NoError(t, err)
			assert.Equal(t, w*ct.BytesPerPixel(), rowLen)

			img, err := v.ReadImage()
			require.NoError(t, err)
			assert.Equal(t, ct, img.Color)
			assert.Equal(t, w*h*ct.Channels(), img.Len())

			animated, err := v.IsAnimated()
			require.NoError(t, err)
			assert.False(t, animated)

			if lossless[format] && ct.BytesPerSample() == 1 && ct.Channels() >= 3 {
				checkGradient(t, img.U8, ct, 0, 0, w, h)
			}
		})
	}
}

func TestVariant_Scanlines(t *testing.T) {
	const w, h = 4, 3
	for _, format := range decodable {
		t.Run(format.String(), func(t *testing.T) {
			v := open(t, format, fixtures.Image(format, w, h), false)
			rowLen, err := v.RowLen()
			require.NoError(t, err)

			img, err := v.ReadImage()
			require.NoError(t, err)

			var rows []byte
			buf := make([]byte, rowLen)
			for {
				n, err := v.ReadScanline(buf)
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				require.Equal(t, rowLen, n)
				rows = append(rows, buf[:n]...)
			}
			if img.U8 != nil {
				assert.Equal(t, img.U8, rows)
			}
			assert.Len(t, rows, rowLen*h)
		})
	}
}

func TestVariant_ScanlineBufferTooSmall(t *testing.T) {
	v := open(t, types.FormatPNG, fixtures.PNG(4, 4), false)
	_, err := v.ReadScanline(make([]byte, 3))

	var dimErr *types.DimensionError
	require.ErrorAs(t, err, &dimErr)
}

func TestVariant_LoadRect(t *testing.T) {
	for format := range lossless {
		t.Run(format.String(), func(t *testing.T) {
			v := open(t, format, fixtures.Image(format, 6, 5), false)
			ct, err := v.ColorType()
			require.NoError(t, err)

			pix, err := v.LoadRect(2, 1, 3, 2)
			require.NoError(t, err)
			if ct.BytesPerSample() == 1 && ct.Channels() >= 3 {
				checkGradient(t, pix, ct, 2, 1, 3, 2)
			} else {
				assert.Len(t, pix, 3*2*ct.BytesPerPixel())
			}
		})
	}
}

func TestVariant_LoadRectOutOfBounds(t *testing.T) {
	v := open(t, types.FormatPNG, fixtures.PNG(4, 4), false)

	tests := []struct {
		name       string
		x, y, w, h uint32
	}{
		{"too wide", 2, 0, 3, 1},
		{"too tall", 0, 3, 1, 2},
		{"origin outside", 4, 4, 1, 1},
		{"overflow", 0xFFFFFFFF, 0, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.LoadRect(tt.x, tt.y, tt.w, tt.h)
			var dimErr *types.DimensionError
			require.ErrorAs(t, err, &dimErr)
		})
	}

	pix, err := v.LoadRect(0, 0, 4, 4)
	require.NoError(t, err)
	assert.Len(t, pix, 4*4*3)
}

func TestVariant_Gray(t *testing.T) {
	v := open(t, types.FormatPNG, fixtures.GrayPNG(3, 2), false)
	img, err := v.ReadImage()
	require.NoError(t, err)
	assert.Equal(t, types.ColorGray8, img.Color)
	assert.Equal(t, []byte{0, 1, 2, 1, 2, 3}, img.U8)
}

func TestVariant_PNGColorType(t *testing.T) {
	v := open(t, types.FormatPNG, fixtures.PNG(3, 2), false)
	ct, err := v.ColorType()
	require.NoError(t, err)
	assert.Equal(t, types.ColorRGB8, ct)

	img, err := v.ReadImage()
	require.NoError(t, err)
	checkGradient(t, img.U8, types.ColorRGB8, 0, 0, 3, 2)

	translucent := fixtures.Pixels(3, 2)
	translucent.Pix[3] = 0x40
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, translucent))

	v = open(t, types.FormatPNG, buf.Bytes(), false)
	ct, err = v.ColorType()
	require.NoError(t, err)
	assert.Equal(t, types.ColorRGBA8, ct)
}

func TestVariant_IntoFramesStill(t *testing.T) {
	v := open(t, types.FormatPNG, fixtures.PNG(3, 2), false)
	frames, err := v.IntoFrames()
	require.NoError(t, err)
	defer frames.Close()

	all, err := frames.Collect()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uint32(3), all[0].Width)
	assert.Equal(t, uint32(2), all[0].Height)
	assert.Zero(t, all[0].Delay)
	checkGradient(t, all[0].Pix, types.ColorRGBA8, 0, 0, 3, 2)
}

func TestVariant_GIFAnimation(t *testing.T) {
	v := open(t, types.FormatGIF, fixtures.GIF(4, 3, 3), false)

	animated, err := v.IsAnimated()
	require.NoError(t, err)
	assert.True(t, animated)

	frames, err := v.IntoFrames()
	require.NoError(t, err)
	defer frames.Close()

	var got []*types.Frame
	for frame, err := range frames.All() {
		require.NoError(t, err)
		got = append(got, frame)
	}
	require.Len(t, got, 3)
	for i, frame := range got {
		assert.Equal(t, time.Duration(i+1)*10*time.Millisecond, frame.Delay, "frame %d", i)
		assert.Equal(t, uint32(4), frame.Width)
		assert.Equal(t, uint32(3), frame.Height)

		want := color.NRGBAModel.Convert(palette.Plan9[i+1]).(color.NRGBA)
		assert.Equal(t, []byte{want.R, want.G, want.B, want.A}, frame.Pix[:4], "frame %d", i)
	}

	_, err = frames.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestVariant_GIFFirstFrameAsStill(t *testing.T) {
	v := open(t, types.FormatGIF, fixtures.GIF(2, 2, 2), false)
	img, err := v.ReadImage()
	require.NoError(t, err)
	assert.Equal(t, types.ColorRGBA8, img.Color)

	want := color.NRGBAModel.Convert(palette.Plan9[1]).(color.NRGBA)
	assert.Equal(t, []byte{want.R, want.G, want.B, want.A}, img.U8[:4])
}

func TestVariant_Consumed(t *testing.T) {
	v := open(t, types.FormatGIF, fixtures.GIF(2, 2, 2), false)
	frames, err := v.IntoFrames()
	require.NoError(t, err)
	defer frames.Close()
	assert.True(t, v.Consumed())

	_, _, err = v.Dimensions()
	assert.ErrorIs(t, err, types.ErrDecoderConsumed)
	_, err = v.ReadImage()
	assert.ErrorIs(t, err, types.ErrDecoderConsumed)
	_, err = v.IntoFrames()
	assert.ErrorIs(t, err, types.ErrDecoderConsumed)
}

func TestVariant_FramesClose(t *testing.T) {
	v := open(t, types.FormatPNG, fixtures.PNG(2, 2), false)
	frames, err := v.IntoFrames()
	require.NoError(t, err)

	require.NoError(t, frames.Close())
	require.NoError(t, frames.Close())
	_, err = frames.Next()
	assert.ErrorIs(t, err, ErrFramesClosed)
}

func TestVariant_Legacy(t *testing.T) {
	ops := []struct {
		name string
		call func(v *Variant) error
	}{
		{"Dimensions", func(v *Variant) error { _, _, err := v.Dimensions(); return err }},
		{"ColorType", func(v *Variant) error { _, err := v.ColorType(); return err }},
		{"RowLen", func(v *Variant) error { _, err := v.RowLen(); return err }},
		{"ReadScanline", func(v *Variant) error { _, err := v.ReadScanline(make([]byte, 64)); return err }},
		{"ReadImage", func(v *Variant) error { _, err := v.ReadImage(); return err }},
		{"IsAnimated", func(v *Variant) error { _, err := v.IsAnimated(); return err }},
		{"LoadRect", func(v *Variant) error { _, err := v.LoadRect(0, 0, 1, 1); return err }},
		{"IntoFrames", func(v *Variant) error { _, err := v.IntoFrames(); return err }},
	}

	for _, format := range decodable {
		t.Run(format.String(), func(t *testing.T) {
			v := open(t, format, fixtures.Image(format, 2, 2), true)
			assert.True(t, v.Legacy())

			if format == types.FormatPNG || format == types.FormatJPEG {
				_, _, err := v.Dimensions()
				require.NoError(t, err)
				return
			}
			for _, op := range ops {
				err := op.call(v)
				var fmtErr *types.FormatError
				require.ErrorAs(t, err, &fmtErr, op.name)
				assert.Equal(t, format, fmtErr.Format, op.name)
				assert.Equal(t, "Unsupported file format", err.Error(), op.name)
			}
			assert.False(t, v.Consumed())
		})
	}
}

func TestNew_UnsupportedFormat(t *testing.T) {
	for _, format := range []types.Format{types.FormatUnknown, types.FormatWebP} {
		_, err := New(format, bytes.NewReader(fixtures.PNG(2, 2)), false)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	}
}

func TestNew_EagerHeaderFailure(t *testing.T) {
	garbage := []byte("definitely not an image")
	for _, format := range []types.Format{types.FormatPNM, types.FormatICO, types.FormatTIFF} {
		t.Run(format.String(), func(t *testing.T) {
			_, err := New(format, bytes.NewReader(garbage), false)
			var fmtErr *types.FormatError
			require.ErrorAs(t, err, &fmtErr)
			assert.Equal(t, format, fmtErr.Format)
		})
	}
}

func TestNew_CodecPanicIsFormatError(t *testing.T) {
	// An icon directory with zero entries.
	empty := []byte{0, 0, 1, 0, 0, 0}

	var fmtErr *types.FormatError
	require.NotPanics(t, func() {
		_, err := New(types.FormatICO, bytes.NewReader(empty), false)
		require.ErrorAs(t, err, &fmtErr)
	})
	assert.Equal(t, types.FormatICO, fmtErr.Format)
	assert.Contains(t, fmtErr.Error(), "codec panic")
}

func TestGuarded(t *testing.T) {
	v, err := guarded(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = guarded(func() (int, error) {
		var s []int
		return s[1], nil
	})
	assert.ErrorContains(t, err, "codec panic")
}

func TestVariant_LazyHeaderFailure(t *testing.T) {
	garbage := []byte("definitely not an image")
	for _, format := range []types.Format{types.FormatPNG, types.FormatJPEG, types.FormatGIF, types.FormatBMP} {
		t.Run(format.String(), func(t *testing.T) {
			v := open(t, format, garbage, false)
			_, _, err := v.Dimensions()
			var fmtErr *types.FormatError
			require.ErrorAs(t, err, &fmtErr)
		})
	}
}

func TestVariant_MismatchedTag(t *testing.T) {
	// A PNG opened as JPEG is handed to the JPEG codec, which rejects it.
	v := open(t, types.FormatJPEG, fixtures.PNG(2, 2), false)
	_, _, err := v.Dimensions()
	var fmtErr *types.FormatError
	require.ErrorAs(t, err, &fmtErr)
	assert.Equal(t, types.FormatJPEG, fmtErr.Format)
}

func TestVariant_TruncatedPixels(t *testing.T) {
	data := fixtures.PNG(16, 16)
	v := open(t, types.FormatPNG, data[:len(data)-20], false)

	_, _, err := v.Dimensions()
	require.NoError(t, err)
	_, err = v.ReadImage()
	var fmtErr *types.FormatError
	require.ErrorAs(t, err, &fmtErr)
}
