// Package imgmeta decodes images while keeping their metadata.
//
// A plain pixel decoder throws away EXIF, IPTC, XMP, ICC profiles and
// comments. A plain metadata editor knows nothing about pixels.
// DecoderWithMetadata pairs the two: it reads pixels through one
// interface for eight container formats and can write the source's
// metadata into another image file.
//
// # Quick Start
//
//	d, err := imgmeta.Open("photo.jpg", imgmeta.FormatJPEG)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close()
//
//	w, h, err := d.Dimensions()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("%dx%d, %d tags\n", w, h, len(d.Metadata().Keys()))
//
//	// Copy the tags into a processed version of the same photo.
//	if err := d.SaveMetadata("photo-edited.png"); err != nil {
//		log.Fatal(err)
//	}
//
// # Supported Formats
//
// Pixels: PNG, JPEG, PNM, ICO, TIFF, TGA, BMP and GIF (including
// animation). The caller picks the format tag; file content is never
// sniffed to choose a decoder.
//
// Metadata is read from JPEG, PNG, GIF and TIFF, and written into JPEG
// and PNG. Other containers load an empty store.
//
// # Error Handling
//
// Every error returned by a DecoderWithMetadata is one of three kinds:
//
//   - *MetadataError: loading or saving metadata failed
//   - *DecodeError: the pixel decoder failed
//   - *InternalError: the composition itself failed, for example
//     "Unsupported file format" for a tag with no decoder
//
// All three implement Error. The wrapping kinds expose their cause to
// errors.As, so a truncated file surfaces as a *DecodeError holding a
// *FormatError.
//
// Non-fatal problems met while parsing tags are collected in
// Metadata().Warnings.
//
// # Frames
//
// IntoFrames consumes the decoder and hands back a lazy frame sequence:
//
//	frames, err := d.IntoFrames()
//	if err != nil {
//		return err
//	}
//	defer frames.Close()
//	for frame, err := range frames.All() {
//		if err != nil {
//			return err
//		}
//		fmt.Println(frame.Delay)
//	}
//
// After IntoFrames every decode operation fails with ErrDecoderConsumed.
// SaveMetadata keeps working.
package imgmeta
