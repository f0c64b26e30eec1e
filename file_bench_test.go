package imgmeta_test

import (
	"context"
	"testing"

	"github.com/simonhull/imgmeta"
	"github.com/simonhull/imgmeta/internal/fixtures"
)

func benchImage(b *testing.B) string {
	b.Helper()
	data := fixtures.WithJPEGMetadata(fixtures.JPEG(256, 256), fixtures.SamplePayload())
	return fixtures.WriteFile(b, b.TempDir(), "bench.jpg", data)
}

// BenchmarkOpen measures metadata loading plus decoder construction.
func BenchmarkOpen(b *testing.B) {
	path := benchImage(b)
	b.ReportAllocs()

	for b.Loop() {
		d, err := imgmeta.Open(path, imgmeta.FormatJPEG)
		if err != nil {
			b.Fatal(err)
		}
		d.Close()
	}
}

// BenchmarkReadImage measures a full decode through the composite.
func BenchmarkReadImage(b *testing.B) {
	path := benchImage(b)
	b.ReportAllocs()

	for b.Loop() {
		d, err := imgmeta.Open(path, imgmeta.FormatJPEG)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := d.ReadImage(); err != nil {
			b.Fatal(err)
		}
		d.Close()
	}
}

// BenchmarkSaveMetadata measures an atomic JPEG rewrite.
func BenchmarkSaveMetadata(b *testing.B) {
	src := benchImage(b)
	target := fixtures.WriteFile(b, b.TempDir(), "target.jpg", fixtures.JPEG(256, 256))

	d, err := imgmeta.Open(src, imgmeta.FormatJPEG)
	if err != nil {
		b.Fatal(err)
	}
	defer d.Close()
	b.ReportAllocs()

	for b.Loop() {
		if err := d.SaveMetadata(target); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkOpenMany measures concurrent construction.
func BenchmarkOpenMany(b *testing.B) {
	path := benchImage(b)
	paths := make([]string, 16)
	for i := range paths {
		paths[i] = path
	}
	b.ReportAllocs()

	for b.Loop() {
		ds, err := imgmeta.OpenMany(context.Background(), imgmeta.FormatJPEG, paths)
		if err != nil {
			b.Fatal(err)
		}
		for _, d := range ds {
			d.Close()
		}
	}
}
