package imgmeta

import (
	"time"

	"go.uber.org/zap"
)

// SaveMetadata writes the held metadata into the existing image at
// target, replacing the metadata target carried.
//
// The target's container is detected from its content, so it may differ
// from the source's. Whether pixels were read, or the decoder was
// consumed by IntoFrames, makes no difference. Target may be the source
// path itself.
//
// This is an atomic operation: the result is written to a temporary file
// in target's directory, synced, then renamed over target. If any step
// fails, target is unchanged. The in-memory metadata is never modified.
//
// Options can be provided to customize save behavior:
//
//	err := d.SaveMetadata("out.jpg",
//	    imgmeta.WithBackup(".bak"),
//	    imgmeta.WithValidation(),
//	)
//
// Every failure is a *MetadataError. Targets whose container has no
// writer (GIF, TIFF, BMP, ICO, TGA, PNM) fail with an
// *UnsupportedWriteError inside it.
func (d *DecoderWithMetadata) SaveMetadata(target string, opts ...SaveOption) error {
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}

	start := time.Now()
	if err := d.metadata.SaveToFile(target, *options); err != nil {
		d.logger.Debug("save metadata failed", zap.String("target", target), zap.Error(err))
		return &MetadataError{Err: err}
	}
	d.logger.Debug("metadata saved",
		zap.String("target", target),
		zap.Bool("validated", options.Validate),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
