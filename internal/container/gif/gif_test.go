package gif

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/imgmeta/internal/fixtures"
	"github.com/simonhull/imgmeta/internal/registry"
	"github.com/simonhull/imgmeta/internal/types"
)

// beforeTrailer splices extension bytes in front of the trailer.
func beforeTrailer(gifData, ext []byte) []byte {
	out := append([]byte{}, gifData[:len(gifData)-1]...)
	out = append(out, ext...)
	return append(out, blockTrailer)
}

func xmpExtension(packet []byte) []byte {
	ext := []byte{blockExtension, labelApplication, 11}
	ext = append(ext, xmpAppID...)
	ext = append(ext, packet...)
	ext = append(ext, 0x01)
	for b := 0xFF; b >= 0; b-- {
		ext = append(ext, byte(b))
	}
	return append(ext, 0x00)
}

func commentExtension(text string) []byte {
	ext := []byte{blockExtension, labelComment}
	for len(text) > 0 {
		n := min(len(text), 255)
		ext = append(ext, byte(n))
		ext = append(ext, text[:n]...)
		text = text[n:]
	}
	return append(ext, 0x00)
}

func read(t *testing.T, data []byte) *types.Payload {
	t.Helper()
	p, err := (&reader{}).Read(bytes.NewReader(data), int64(len(data)), "test.gif")
	require.NoError(t, err)
	return p
}

func TestRegistered(t *testing.T) {
	assert.NotNil(t, registry.Get(types.FormatGIF))
	assert.Nil(t, registry.GetWriter(types.FormatGIF))
}

func TestRead_NoMetadata(t *testing.T) {
	assert.True(t, read(t, fixtures.GIF(4, 4, 3)).Empty())
}

func TestRead_XMP(t *testing.T) {
	packet := fixtures.XMP("Looping", 3)
	got := read(t, beforeTrailer(fixtures.GIF(4, 4, 2), xmpExtension(packet)))
	assert.Equal(t, packet, got.XMP)
}

func TestRead_Comment(t *testing.T) {
	long := string(bytes.Repeat([]byte("c"), 300))
	data := beforeTrailer(fixtures.GIF(2, 2, 1), commentExtension(long))
	data = beforeTrailer(data, commentExtension("second"))

	assert.Equal(t, long, read(t, data).Comment)
}

func TestRead_BadSignature(t *testing.T) {
	data := fixtures.PNG(2, 2)
	_, err := (&reader{}).Read(bytes.NewReader(data), int64(len(data)), "fake.gif")

	var corrupt *types.CorruptedFileError
	require.True(t, errors.As(err, &corrupt))
}

func TestRead_Truncated(t *testing.T) {
	data := fixtures.GIF(8, 8, 2)
	data = data[:len(data)/2]
	_, err := (&reader{}).Read(bytes.NewReader(data), int64(len(data)), "cut.gif")
	assert.Error(t, err)
}

func TestTrimXMP(t *testing.T) {
	assert.Equal(t, []byte(`<a/><?xpacket end="w"?>`), trimXMP([]byte(`<a/><?xpacket end="w"?>junk`)))
	assert.Equal(t, []byte("short"), trimXMP([]byte("short")))
}
