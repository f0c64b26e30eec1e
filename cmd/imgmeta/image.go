package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/simonhull/imgmeta"
)

// toImage wraps raw samples in the image type matching ct.
func toImage(pix []byte, ct imgmeta.ColorType, w, h int) (image.Image, error) {
	rect := image.Rect(0, 0, w, h)
	if len(pix) != w*h*ct.BytesPerPixel() {
		return nil, fmt.Errorf("%d bytes for a %dx%d %s image", len(pix), w, h, ct)
	}
	switch ct {
	case imgmeta.ColorGray8:
		return &image.Gray{Pix: pix, Stride: w, Rect: rect}, nil
	case imgmeta.ColorGray16:
		return &image.Gray16{Pix: pix, Stride: w * 2, Rect: rect}, nil
	case imgmeta.ColorRGBA8:
		return &image.NRGBA{Pix: pix, Stride: w * 4, Rect: rect}, nil
	case imgmeta.ColorRGBA16:
		return &image.NRGBA64{Pix: pix, Stride: w * 8, Rect: rect}, nil
	case imgmeta.ColorRGB8:
		img := image.NewNRGBA(rect)
		for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
			copy(img.Pix[j:j+3], pix[i:i+3])
			img.Pix[j+3] = 0xFF
		}
		return img, nil
	}
	return nil, fmt.Errorf("unsupported color type %s", ct)
}

// writePNG encodes img to path, replacing any existing file.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
