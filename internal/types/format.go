package types

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/simonhull/imgmeta/internal/binary"
)

// Format represents an image container format.
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota // Unknown
	// FormatPNG represents Portable Network Graphics files.
	FormatPNG // PNG
	// FormatJPEG represents JPEG/JFIF/EXIF files.
	FormatJPEG // JPEG
	// FormatGIF represents GIF87a and GIF89a files.
	FormatGIF // GIF
	// FormatWebP represents WebP files. Recognized but not decodable.
	FormatWebP // WebP
	// FormatPNM represents the netpbm family (PBM, PGM, PPM, PAM).
	FormatPNM // PNM
	// FormatTIFF represents TIFF files.
	FormatTIFF // TIFF
	// FormatTGA represents Truevision TGA files.
	FormatTGA // TGA
	// FormatBMP represents Windows bitmap files.
	FormatBMP // BMP
	// FormatICO represents Windows icon files.
	FormatICO // ICO
	// FormatHDR represents Radiance HDR files. Recognized but not decodable.
	FormatHDR // HDR
)

var formatNames = map[Format]string{
	FormatUnknown: "Unknown",
	FormatPNG:     "PNG",
	FormatJPEG:    "JPEG",
	FormatGIF:     "GIF",
	FormatWebP:    "WebP",
	FormatPNM:     "PNM",
	FormatTIFF:    "TIFF",
	FormatTGA:     "TGA",
	FormatBMP:     "BMP",
	FormatICO:     "ICO",
	FormatHDR:     "HDR",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// Decodable reports whether a pixel decoder exists for this format.
func (f Format) Decodable() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatPNM, FormatICO, FormatTIFF, FormatTGA, FormatBMP, FormatGIF:
		return true
	default:
		return false
	}
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatPNG:
		return []string{".png"}
	case FormatJPEG:
		return []string{".jpg", ".jpeg", ".jpe", ".jfif"}
	case FormatGIF:
		return []string{".gif"}
	case FormatWebP:
		return []string{".webp"}
	case FormatPNM:
		return []string{".pnm", ".pbm", ".pgm", ".ppm", ".pam"}
	case FormatTIFF:
		return []string{".tif", ".tiff"}
	case FormatTGA:
		return []string{".tga"}
	case FormatBMP:
		return []string{".bmp", ".dib"}
	case FormatICO:
		return []string{".ico"}
	case FormatHDR:
		return []string{".hdr"}
	default:
		return nil
	}
}

// FormatFromExtension maps a file name to a format by its extension.
// Returns FormatUnknown if the extension is not recognized.
func FormatFromExtension(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return FormatUnknown
	}
	for f := FormatPNG; f <= FormatHDR; f++ {
		for _, e := range f.Extensions() {
			if e == ext {
				return f
			}
		}
	}
	return FormatUnknown
}

// DetectFormat determines the container format by examining magic bytes.
//
// Detection is used by the metadata layer to pick a container reader or
// writer. TGA has no signature and is never detected.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	if size < 2 {
		return FormatUnknown, &UnsupportedFormatError{
			Path:   path,
			Reason: "file too small",
		}
	}

	sr := binary.NewSafeReader(r, size, path)

	n := int64(16)
	if size < n {
		n = size
	}
	magic := make([]byte, n)
	if err := sr.ReadAt(magic, 0, "file magic bytes"); err != nil {
		return FormatUnknown, &UnsupportedFormatError{
			Path:   path,
			Reason: "failed to read file header",
		}
	}

	return Detect(magic), nil
}

// Detect identifies the container format from a header prefix.
func Detect(magic []byte) Format {
	switch {
	case len(magic) >= 3 && magic[0] == 0xFF && magic[1] == 0xD8 && magic[2] == 0xFF:
		return FormatJPEG
	case hasPrefix(magic, "\x89PNG\r\n\x1a\n"):
		return FormatPNG
	case hasPrefix(magic, "GIF87a"), hasPrefix(magic, "GIF89a"):
		return FormatGIF
	case len(magic) >= 12 && hasPrefix(magic, "RIFF") && string(magic[8:12]) == "WEBP":
		return FormatWebP
	case hasPrefix(magic, "II*\x00"), hasPrefix(magic, "MM\x00*"):
		return FormatTIFF
	case hasPrefix(magic, "BM"):
		return FormatBMP
	case hasPrefix(magic, "\x00\x00\x01\x00"):
		return FormatICO
	case hasPrefix(magic, "#?RADIANCE"), hasPrefix(magic, "#?RGBE"):
		return FormatHDR
	case len(magic) >= 3 && magic[0] == 'P' && magic[1] >= '1' && magic[1] <= '7' && isSpace(magic[2]):
		return FormatPNM
	}
	return FormatUnknown
}

func hasPrefix(buf []byte, prefix string) bool {
	return len(buf) >= len(prefix) && string(buf[:len(prefix)]) == prefix
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
