package jpeg

import (
	"bytes"
	"errors"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/imgmeta/internal/fixtures"
	"github.com/simonhull/imgmeta/internal/registry"
	"github.com/simonhull/imgmeta/internal/types"
)

func read(t *testing.T, data []byte) *types.Payload {
	t.Helper()
	p, err := (&reader{}).Read(bytes.NewReader(data), int64(len(data)), "test.jpg")
	require.NoError(t, err)
	return p
}

func TestRegistered(t *testing.T) {
	assert.NotNil(t, registry.Get(types.FormatJPEG))
	assert.NotNil(t, registry.GetWriter(types.FormatJPEG))
}

func TestRead_AllBlocks(t *testing.T) {
	want := fixtures.SamplePayload()
	data := fixtures.WithJPEGMetadata(fixtures.JPEG(8, 8), want)

	got := read(t, data)
	assert.Equal(t, want.Exif, got.Exif)
	assert.Equal(t, want.XMP, got.XMP)
	assert.Equal(t, want.ICC, got.ICC)
	assert.Equal(t, want.IPTC, got.IPTC)
	assert.Equal(t, want.Comment, got.Comment)
}

func TestRead_NoMetadata(t *testing.T) {
	got := read(t, fixtures.JPEG(4, 4))
	assert.True(t, got.Empty())
}

func TestRead_NotJPEG(t *testing.T) {
	data := fixtures.PNG(2, 2)
	_, err := (&reader{}).Read(bytes.NewReader(data), int64(len(data)), "fake.jpg")

	var corrupt *types.CorruptedFileError
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, "fake.jpg", corrupt.Path)
}

func TestRead_Truncated(t *testing.T) {
	data := fixtures.WithJPEGMetadata(fixtures.JPEG(4, 4), fixtures.SamplePayload())
	data = data[:40]
	_, err := (&reader{}).Read(bytes.NewReader(data), int64(len(data)), "cut.jpg")
	assert.Error(t, err)
}

func TestWrite_RoundTrip(t *testing.T) {
	original := fixtures.JPEG(8, 8)
	want := fixtures.SamplePayload()

	out := &bytes.Buffer{}
	require.NoError(t, (&writer{}).Write(out, want, bytes.NewReader(original), int64(len(original))))

	got := read(t, out.Bytes())
	assert.Equal(t, want.Exif, got.Exif)
	assert.Equal(t, want.XMP, got.XMP)
	assert.Equal(t, want.ICC, got.ICC)
	assert.Equal(t, want.IPTC, got.IPTC)
	assert.Equal(t, want.Comment, got.Comment)

	img, err := jpeg.Decode(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestWrite_ReplacesExisting(t *testing.T) {
	original := fixtures.WithJPEGMetadata(fixtures.JPEG(4, 4), fixtures.SamplePayload())
	replacement := &types.Payload{Comment: "replaced"}

	out := &bytes.Buffer{}
	require.NoError(t, (&writer{}).Write(out, replacement, bytes.NewReader(original), int64(len(original))))

	got := read(t, out.Bytes())
	assert.Equal(t, "replaced", got.Comment)
	assert.Nil(t, got.Exif)
	assert.Nil(t, got.XMP)
	assert.Nil(t, got.ICC)
	assert.Nil(t, got.IPTC)
}

func TestWrite_KeepsAPP0First(t *testing.T) {
	original := fixtures.JPEG(4, 4)
	// Insert a JFIF APP0 after SOI.
	app0 := []byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0, 1, 1, 0, 0, 1, 0, 1, 0, 0}
	withAPP0 := append(append(append([]byte{}, original[:2]...), app0...), original[2:]...)

	out := &bytes.Buffer{}
	require.NoError(t, (&writer{}).Write(out, &types.Payload{Comment: "x"}, bytes.NewReader(withAPP0), int64(len(withAPP0))))

	assert.Equal(t, app0, out.Bytes()[2:2+len(app0)])
	assert.Equal(t, []byte{0xFF, markerCOM}, out.Bytes()[2+len(app0):4+len(app0)])
}

func TestWrite_LargeICCIsChunked(t *testing.T) {
	original := fixtures.JPEG(4, 4)
	want := &types.Payload{ICC: fixtures.ICCProfile(maxICCChunk*2 + 100)}

	out := &bytes.Buffer{}
	require.NoError(t, (&writer{}).Write(out, want, bytes.NewReader(original), int64(len(original))))

	got := read(t, out.Bytes())
	assert.Equal(t, want.ICC, got.ICC)
	assert.Equal(t, 3, bytes.Count(out.Bytes(), iccHeader))
}

func TestWrite_OversizedBlock(t *testing.T) {
	original := fixtures.JPEG(4, 4)
	p := &types.Payload{XMP: make([]byte, maxSegmentData)}

	err := (&writer{}).Write(&bytes.Buffer{}, p, bytes.NewReader(original), int64(len(original)))

	var unsupported *types.UnsupportedWriteError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, types.FormatJPEG, unsupported.Format)
	assert.Contains(t, unsupported.Reason, "XMP packet")
}
