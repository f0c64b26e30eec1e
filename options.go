package imgmeta

import "go.uber.org/zap"

// Option configures behavior when opening images.
//
// Example:
//
//	d, err := imgmeta.Open("scan.tiff", imgmeta.FormatTIFF,
//	    imgmeta.WithLogger(logger),
//	)
type Option func(*openOptions)

// openOptions holds configuration for opening files.
type openOptions struct {
	legacyDispatch bool
	logger         *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{
		logger: zap.NewNop(),
	}
}

// WithLegacyDispatch restricts pixel reads to PNG and JPEG.
//
// Construction still succeeds for every decodable format, but each decode
// operation on any other format fails with a *DecodeError whose message
// is "Unsupported file format". Metadata loading and saving are not
// affected.
func WithLegacyDispatch() Option {
	return func(o *openOptions) {
		o.legacyDispatch = true
	}
}

// WithLogger sets the logger used for debug output. A nil logger is
// ignored. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *openOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
