package decoder

import (
	"bytes"
	"image"
	"image/draw"
	"image/gif"
	"io"
	"time"

	"github.com/simonhull/imgmeta/internal/types"
)

// GIFDecoder decodes GIF images. Still-image operations see the first
// frame composed onto the logical screen.
type GIFDecoder struct {
	raster
	anim *gif.GIF
}

func NewGIFDecoder(src io.ReadSeeker) *GIFDecoder {
	d := &GIFDecoder{}
	d.raster = newRaster(types.FormatGIF, src, gif.DecodeConfig, d.decodeFirst)
	return d
}

func (d *GIFDecoder) decodeFirst(io.Reader) (image.Image, error) {
	anim, err := d.all()
	if err != nil {
		return nil, err
	}
	c := newCompositor(anim)
	if _, err := c.next(); err != nil {
		return nil, err
	}
	return c.canvas, nil
}

// all decodes every frame once.
func (d *GIFDecoder) all() (*gif.GIF, error) {
	if d.anim != nil {
		return d.anim, nil
	}
	rd, err := d.rewind()
	if err != nil {
		return nil, err
	}
	anim, err := guarded(func() (*gif.GIF, error) { return gif.DecodeAll(rd) })
	if err != nil {
		return nil, &types.FormatError{Format: types.FormatGIF, Reason: "decode frames", Err: err}
	}
	d.anim = anim
	return anim, nil
}

// IsAnimated reports whether the GIF holds more than one frame.
func (d *GIFDecoder) IsAnimated() (bool, error) {
	anim, err := d.all()
	if err != nil {
		return false, err
	}
	return len(anim.Image) > 1, nil
}

// IntoFrames returns the frames composed onto the logical screen with
// each frame's disposal method applied. Frames are decoded on the first
// call to Next.
func (d *GIFDecoder) IntoFrames() (*Frames, error) {
	if _, err := d.header(); err != nil {
		return nil, err
	}
	var c *compositor
	return newFrames(d.src, func() (*types.Frame, error) {
		if c == nil {
			anim, err := d.all()
			if err != nil {
				return nil, err
			}
			c = newCompositor(anim)
		}
		return c.next()
	}), nil
}

// compositor replays GIF frames onto a canvas.
type compositor struct {
	anim    *gif.GIF
	canvas  *image.NRGBA
	i       int
	dispose func()
}

func newCompositor(anim *gif.GIF) *compositor {
	w, h := anim.Config.Width, anim.Config.Height
	if w == 0 || h == 0 {
		var r image.Rectangle
		for _, m := range anim.Image {
			r = r.Union(m.Bounds())
		}
		w, h = r.Max.X, r.Max.Y
	}
	return &compositor{anim: anim, canvas: image.NewNRGBA(image.Rect(0, 0, w, h))}
}

func (c *compositor) next() (*types.Frame, error) {
	if c.i >= len(c.anim.Image) {
		return nil, io.EOF
	}
	if c.dispose != nil {
		c.dispose()
		c.dispose = nil
	}

	m := c.anim.Image[c.i]
	bounds := m.Bounds()
	var disposal byte
	if c.i < len(c.anim.Disposal) {
		disposal = c.anim.Disposal[c.i]
	}
	switch disposal {
	case gif.DisposalBackground:
		c.dispose = func() {
			draw.Draw(c.canvas, bounds, image.Transparent, image.Point{}, draw.Src)
		}
	case gif.DisposalPrevious:
		saved := bytes.Clone(c.canvas.Pix)
		c.dispose = func() { copy(c.canvas.Pix, saved) }
	}

	draw.Draw(c.canvas, bounds, m, bounds.Min, draw.Over)

	var delay time.Duration
	if c.i < len(c.anim.Delay) {
		delay = time.Duration(c.anim.Delay[c.i]) * 10 * time.Millisecond
	}
	c.i++

	return &types.Frame{
		Pix:    bytes.Clone(c.canvas.Pix),
		Width:  uint32(c.canvas.Rect.Dx()),
		Height: uint32(c.canvas.Rect.Dy()),
		Delay:  delay,
	}, nil
}
