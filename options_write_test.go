package imgmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSaveOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts := defaultSaveOptions()
		assert.Empty(t, opts.BackupSuffix)
		assert.False(t, opts.Validate)
		assert.False(t, opts.PreserveModTime)
	})

	t.Run("combined", func(t *testing.T) {
		opts := defaultSaveOptions()
		for _, opt := range []SaveOption{WithBackup(".bak"), WithValidation(), WithPreserveModTime()} {
			opt(opts)
		}
		assert.Equal(t, ".bak", opts.BackupSuffix)
		assert.True(t, opts.Validate)
		assert.True(t, opts.PreserveModTime)
	})
}

func TestOpenOptions(t *testing.T) {
	opts := defaultOptions()
	assert.False(t, opts.legacyDispatch)
	assert.NotNil(t, opts.logger)

	WithLegacyDispatch()(opts)
	assert.True(t, opts.legacyDispatch)

	logger := zap.NewExample()
	WithLogger(logger)(opts)
	assert.Same(t, logger, opts.logger)

	WithLogger(nil)(opts)
	assert.Same(t, logger, opts.logger)
}
