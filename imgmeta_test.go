package imgmeta_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/imgmeta"
	"github.com/simonhull/imgmeta/internal/fixtures"
)

var decodable = []imgmeta.Format{
	imgmeta.FormatPNG,
	imgmeta.FormatJPEG,
	imgmeta.FormatPNM,
	imgmeta.FormatICO,
	imgmeta.FormatTIFF,
	imgmeta.FormatTGA,
	imgmeta.FormatBMP,
	imgmeta.FormatGIF,
}

func taggedPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	data := fixtures.WithPNGMetadata(fixtures.PNG(w, h), fixtures.SamplePayload())
	return fixtures.WriteFile(t, dir, "tagged.png", data)
}

func taggedJPEG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	data := fixtures.WithJPEGMetadata(fixtures.JPEG(w, h), fixtures.SamplePayload())
	return fixtures.WriteFile(t, dir, "tagged.jpg", data)
}

// openFDs counts this process's open descriptors, or -1 where /proc is
// unavailable.
func openFDs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return -1
	}
	return len(entries)
}

func TestOpen_EndToEndPNG(t *testing.T) {
	dir := t.TempDir()
	src := taggedPNG(t, dir, 7, 5)

	d, err := imgmeta.Open(src, imgmeta.FormatPNG)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, src, d.Path())
	assert.Equal(t, imgmeta.FormatPNG, d.Format())

	w, h, err := d.Dimensions()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), w)
	assert.Equal(t, uint32(5), h)

	ct, err := d.ColorType()
	require.NoError(t, err)
	img, err := d.ReadImage()
	require.NoError(t, err)
	assert.Equal(t, int(w*h)*ct.Channels(), img.Len())

	target := fixtures.WriteFile(t, dir, "target.png", fixtures.PNG(3, 3))
	require.NoError(t, d.SaveMetadata(target, imgmeta.WithValidation()))

	saved, err := imgmeta.Open(target, imgmeta.FormatPNG)
	require.NoError(t, err)
	defer saved.Close()
	assert.Equal(t, d.Metadata().Tags(), saved.Metadata().Tags())
}

func TestOpen_AllFormats(t *testing.T) {
	dir := t.TempDir()
	for _, format := range decodable {
		t.Run(format.String(), func(t *testing.T) {
			path := fixtures.WriteFile(t, dir, "img"+format.Extensions()[0], fixtures.Image(format, 6, 4))
			d, err := imgmeta.Open(path, format)
			require.NoError(t, err)
			defer d.Close()

			w, h, err := d.Dimensions()
			require.NoError(t, err)
			assert.Equal(t, uint32(6), w)
			assert.Equal(t, uint32(4), h)
		})
	}
}

func TestOpen_LegacyDispatch(t *testing.T) {
	ops := []struct {
		name string
		call func(d *imgmeta.DecoderWithMetadata) error
	}{
		{"Dimensions", func(d *imgmeta.DecoderWithMetadata) error { _, _, err := d.Dimensions(); return err }},
		{"ColorType", func(d *imgmeta.DecoderWithMetadata) error { _, err := d.ColorType(); return err }},
		{"RowLen", func(d *imgmeta.DecoderWithMetadata) error { _, err := d.RowLen(); return err }},
		{"ReadScanline", func(d *imgmeta.DecoderWithMetadata) error { _, err := d.ReadScanline(make([]byte, 64)); return err }},
		{"ReadImage", func(d *imgmeta.DecoderWithMetadata) error { _, err := d.ReadImage(); return err }},
		{"IsAnimated", func(d *imgmeta.DecoderWithMetadata) error { _, err := d.IsAnimated(); return err }},
		{"LoadRect", func(d *imgmeta.DecoderWithMetadata) error { _, err := d.LoadRect(0, 0, 1, 1); return err }},
		{"IntoFrames", func(d *imgmeta.DecoderWithMetadata) error { _, err := d.IntoFrames(); return err }},
	}

	dir := t.TempDir()
	for _, format := range decodable {
		t.Run(format.String(), func(t *testing.T) {
			path := fixtures.WriteFile(t, dir, "img"+format.Extensions()[0], fixtures.Image(format, 2, 2))
			d, err := imgmeta.Open(path, format, imgmeta.WithLegacyDispatch())
			require.NoError(t, err)
			defer d.Close()

			if format == imgmeta.FormatPNG || format == imgmeta.FormatJPEG {
				_, _, err = d.Dimensions()
				assert.NoError(t, err)
				return
			}
			for _, op := range ops {
				err := op.call(d)
				var decErr *imgmeta.DecodeError
				require.ErrorAs(t, err, &decErr, op.name)
				assert.Equal(t, imgmeta.KindDecode, decErr.Kind(), op.name)
				assert.Equal(t, "Unsupported file format", err.Error(), op.name)
			}
		})
	}
}

func TestOpen_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := fixtures.WriteFile(t, dir, "img.png", fixtures.PNG(2, 2))

	for _, format := range []imgmeta.Format{imgmeta.FormatUnknown, imgmeta.FormatWebP, imgmeta.FormatHDR} {
		t.Run(format.String(), func(t *testing.T) {
			before := openFDs(t)
			d, err := imgmeta.Open(path, format)
			require.Error(t, err)
			assert.Nil(t, d)
			assert.Equal(t, "Unsupported file format", err.Error())

			var internal *imgmeta.InternalError
			require.ErrorAs(t, err, &internal)
			assert.Equal(t, imgmeta.KindInternal, internal.Kind())
			if before >= 0 {
				assert.Equal(t, before, openFDs(t), "file handle leaked")
			}
		})
	}
}

func TestOpen_EagerDecoderFailureClosesFile(t *testing.T) {
	dir := t.TempDir()
	path := fixtures.WriteFile(t, dir, "img.png", fixtures.PNG(2, 2))

	before := openFDs(t)
	_, err := imgmeta.Open(path, imgmeta.FormatTIFF)

	var decErr *imgmeta.DecodeError
	require.ErrorAs(t, err, &decErr)
	var fmtErr *imgmeta.FormatError
	assert.ErrorAs(t, err, &fmtErr)
	if before >= 0 {
		assert.Equal(t, before, openFDs(t), "file handle leaked")
	}
}

func TestOpen_CodecPanicIsDecodeError(t *testing.T) {
	// An icon directory with zero entries.
	path := fixtures.WriteFile(t, t.TempDir(), "empty.ico", []byte{0, 0, 1, 0, 0, 0})

	before := openFDs(t)
	var err error
	require.NotPanics(t, func() {
		_, err = imgmeta.Open(path, imgmeta.FormatICO)
	})

	var decErr *imgmeta.DecodeError
	require.ErrorAs(t, err, &decErr)
	var fmtErr *imgmeta.FormatError
	require.ErrorAs(t, err, &fmtErr)
	assert.Equal(t, imgmeta.FormatICO, fmtErr.Format)
	if before >= 0 {
		assert.Equal(t, before, openFDs(t), "file handle leaked")
	}
}

func TestOpen_ShortExifPointerIsMetadataError(t *testing.T) {
	// Little-endian TIFF, one IFD entry: ExifIFD typed SHORT.
	data := []byte{
		'I', 'I', 42, 0, 8, 0, 0, 0,
		1, 0,
		0x69, 0x87, 3, 0, 1, 0, 0, 0, 8, 0, 0, 0,
		0, 0, 0, 0,
	}
	path := fixtures.WriteFile(t, t.TempDir(), "short.tif", data)

	var err error
	require.NotPanics(t, func() {
		_, err = imgmeta.Open(path, imgmeta.FormatTIFF)
	})

	var metaErr *imgmeta.MetadataError
	require.ErrorAs(t, err, &metaErr)
	var corrupt *imgmeta.CorruptedFileError
	assert.ErrorAs(t, err, &corrupt)
}

func TestOpen_MismatchedLazyTag(t *testing.T) {
	dir := t.TempDir()
	path := fixtures.WriteFile(t, dir, "img.png", fixtures.PNG(2, 2))

	d, err := imgmeta.Open(path, imgmeta.FormatJPEG)
	require.NoError(t, err)
	defer d.Close()

	_, _, err = d.Dimensions()
	var decErr *imgmeta.DecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := imgmeta.Open(filepath.Join(t.TempDir(), "nope.png"), imgmeta.FormatPNG)

	var metaErr *imgmeta.MetadataError
	require.ErrorAs(t, err, &metaErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_CorruptMetadata(t *testing.T) {
	p := fixtures.SamplePayload()
	p.Exif = []byte("not a tiff structure at all")
	data := fixtures.WithJPEGMetadata(fixtures.JPEG(2, 2), p)
	path := fixtures.WriteFile(t, t.TempDir(), "bad.jpg", data)

	_, err := imgmeta.Open(path, imgmeta.FormatJPEG)
	var metaErr *imgmeta.MetadataError
	require.ErrorAs(t, err, &metaErr)
	var corrupt *imgmeta.CorruptedFileError
	assert.ErrorAs(t, err, &corrupt)
	assert.NotEmpty(t, err.Error())
}

func TestSaveMetadata_IndependentOfPixels(t *testing.T) {
	dir := t.TempDir()
	src := taggedJPEG(t, dir, 8, 8)

	for _, name := range []string{"untouched", "read", "consumed"} {
		t.Run(name, func(t *testing.T) {
			d, err := imgmeta.Open(src, imgmeta.FormatJPEG)
			require.NoError(t, err)
			defer d.Close()

			switch name {
			case "read":
				_, err := d.ReadImage()
				require.NoError(t, err)
			case "consumed":
				frames, err := d.IntoFrames()
				require.NoError(t, err)
				defer frames.Close()
			}

			target := fixtures.WriteFile(t, dir, name+".jpg", fixtures.JPEG(4, 4))
			require.NoError(t, d.SaveMetadata(target, imgmeta.WithValidation()))

			got, err := imgmeta.Open(target, imgmeta.FormatJPEG)
			require.NoError(t, err)
			defer got.Close()
			assert.Equal(t, d.Metadata().Tags(), got.Metadata().Tags())
		})
	}
}

func TestSaveMetadata_SetterChangesAreWritten(t *testing.T) {
	dir := t.TempDir()
	d, err := imgmeta.Open(taggedPNG(t, dir, 4, 4), imgmeta.FormatPNG)
	require.NoError(t, err)
	defer d.Close()

	d.Metadata().SetComment("rewritten")
	target := fixtures.WriteFile(t, dir, "target.png", fixtures.PNG(2, 2))
	require.NoError(t, d.SaveMetadata(target))

	got, err := imgmeta.Open(target, imgmeta.FormatPNG)
	require.NoError(t, err)
	defer got.Close()
	assert.Equal(t, "rewritten", got.Metadata().Comment())
}

func TestSaveMetadata_UnsupportedTarget(t *testing.T) {
	dir := t.TempDir()
	d, err := imgmeta.Open(taggedPNG(t, dir, 2, 2), imgmeta.FormatPNG)
	require.NoError(t, err)
	defer d.Close()

	target := fixtures.WriteFile(t, dir, "target.bmp", fixtures.BMP(2, 2))
	original, err := os.ReadFile(target)
	require.NoError(t, err)

	err = d.SaveMetadata(target)
	var metaErr *imgmeta.MetadataError
	require.ErrorAs(t, err, &metaErr)
	var writeErr *imgmeta.UnsupportedWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, imgmeta.FormatBMP, writeErr.Format)

	after, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, original, after)
}

func TestSaveMetadata_Backup(t *testing.T) {
	dir := t.TempDir()
	d, err := imgmeta.Open(taggedJPEG(t, dir, 2, 2), imgmeta.FormatJPEG)
	require.NoError(t, err)
	defer d.Close()

	original := fixtures.JPEG(3, 3)
	target := fixtures.WriteFile(t, dir, "target.jpg", original)
	require.NoError(t, d.SaveMetadata(target, imgmeta.WithBackup(".bak"), imgmeta.WithPreserveModTime()))

	backup, err := os.ReadFile(target + ".bak")
	require.NoError(t, err)
	assert.Equal(t, original, backup)
}

func TestIntoFrames_ConsumesDecoder(t *testing.T) {
	dir := t.TempDir()
	path := fixtures.WriteFile(t, dir, "anim.gif", fixtures.GIF(3, 3, 4))

	d, err := imgmeta.Open(path, imgmeta.FormatGIF)
	require.NoError(t, err)

	animated, err := d.IsAnimated()
	require.NoError(t, err)
	assert.True(t, animated)

	frames, err := d.IntoFrames()
	require.NoError(t, err)

	_, err = d.IntoFrames()
	var decErr *imgmeta.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.ErrorIs(t, err, imgmeta.ErrDecoderConsumed)
	_, _, err = d.Dimensions()
	assert.ErrorIs(t, err, imgmeta.ErrDecoderConsumed)

	// The frames own the handle: closing the composite must not break them.
	require.NoError(t, d.Close())

	all, err := frames.Collect()
	require.NoError(t, err)
	assert.Len(t, all, 4)
	require.NoError(t, frames.Close())
}

func TestReadScanline_EOFIsUnwrapped(t *testing.T) {
	path := fixtures.WriteFile(t, t.TempDir(), "img.png", fixtures.PNG(2, 2))
	d, err := imgmeta.Open(path, imgmeta.FormatPNG)
	require.NoError(t, err)
	defer d.Close()

	rowLen, err := d.RowLen()
	require.NoError(t, err)
	buf := make([]byte, rowLen)
	for range 2 {
		_, err := d.ReadScanline(buf)
		require.NoError(t, err)
	}
	_, err = d.ReadScanline(buf)
	assert.Equal(t, io.EOF, err)

	_, err = d.ReadScanline(make([]byte, 1))
	var dimErr *imgmeta.DimensionError
	assert.ErrorAs(t, err, &dimErr)
}

func TestClose_Idempotent(t *testing.T) {
	path := fixtures.WriteFile(t, t.TempDir(), "img.png", fixtures.PNG(2, 2))
	d, err := imgmeta.Open(path, imgmeta.FormatPNG)
	require.NoError(t, err)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
}

func TestOpenMany(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		paths = append(paths, fixtures.WriteFile(t, dir, name, fixtures.PNG(2, 2)))
	}

	ds, err := imgmeta.OpenMany(context.Background(), imgmeta.FormatPNG, paths)
	require.NoError(t, err)
	require.Len(t, ds, 3)
	for i, d := range ds {
		assert.Equal(t, paths[i], d.Path())
		require.NoError(t, d.Close())
	}

	none, err := imgmeta.OpenMany(context.Background(), imgmeta.FormatPNG, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestOpenMany_OneFails(t *testing.T) {
	dir := t.TempDir()
	good := fixtures.WriteFile(t, dir, "good.png", fixtures.PNG(2, 2))
	missing := filepath.Join(dir, "missing.png")

	ds, err := imgmeta.OpenMany(context.Background(), imgmeta.FormatPNG, []string{good, missing})
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.Contains(t, err.Error(), "missing.png")

	var metaErr *imgmeta.MetadataError
	assert.ErrorAs(t, err, &metaErr)
}

func TestOpenContext_Cancelled(t *testing.T) {
	path := fixtures.WriteFile(t, t.TempDir(), "img.png", fixtures.PNG(2, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := imgmeta.OpenContext(ctx, path, imgmeta.FormatPNG)
	var internal *imgmeta.InternalError
	require.ErrorAs(t, err, &internal)
	assert.Equal(t, context.Canceled.Error(), internal.Reason)

	ds, err := imgmeta.OpenMany(ctx, imgmeta.FormatPNG, []string{path, path})
	assert.Nil(t, ds)
	require.ErrorAs(t, err, &internal)
	assert.Equal(t, imgmeta.KindInternal, internal.Kind())
}

func TestOpenMany_AppliesOptions(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		fixtures.WriteFile(t, dir, "a.bmp", fixtures.BMP(2, 2)),
		fixtures.WriteFile(t, dir, "b.bmp", fixtures.BMP(2, 2)),
	}

	ds, err := imgmeta.OpenMany(context.Background(), imgmeta.FormatBMP, paths, imgmeta.WithLegacyDispatch())
	require.NoError(t, err)
	for _, d := range ds {
		_, _, err := d.Dimensions()
		assert.EqualError(t, err, "Unsupported file format")
		require.NoError(t, d.Close())
	}
}
