package imgmeta

import "github.com/simonhull/imgmeta/internal/meta"

// SaveOption configures behavior when saving metadata.
//
// Example:
//
//	err := d.SaveMetadata("out.png",
//	    imgmeta.WithBackup(".bak"),
//	    imgmeta.WithValidation(),
//	)
type SaveOption func(*meta.SaveOptions)

// defaultSaveOptions returns the default configuration for saving.
func defaultSaveOptions() *meta.SaveOptions {
	return &meta.SaveOptions{}
}

// WithBackup keeps the target's previous contents next to it.
//
// The backup file has the suffix appended to the target name, so
// WithBackup(".bak") moves "photo.jpg" to "photo.jpg.bak" before the new
// file takes its place. An existing backup is overwritten.
func WithBackup(suffix string) SaveOption {
	return func(o *meta.SaveOptions) {
		o.BackupSuffix = suffix
	}
}

// WithValidation re-loads the target after writing and checks that it
// carries the same tags as the store. Tags the target container cannot
// hold, such as IPTC in PNG, are left out of the comparison.
func WithValidation() SaveOption {
	return func(o *meta.SaveOptions) {
		o.Validate = true
	}
}

// WithPreserveModTime keeps the target's modification time.
func WithPreserveModTime() SaveOption {
	return func(o *meta.SaveOptions) {
		o.PreserveModTime = true
	}
}
