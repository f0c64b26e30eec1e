package meta

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/simonhull/imgmeta/internal/registry"
	"github.com/simonhull/imgmeta/internal/types"
)

// SaveOptions configures SaveToFile.
type SaveOptions struct {
	BackupSuffix    string // Rename the existing target to target+suffix first
	Validate        bool   // Re-load the written file and compare tags
	PreserveModTime bool   // Keep the target's modification time
}

// SaveToFile writes the store's metadata into the image at target,
// replacing whatever metadata target carried. The container is detected
// from target's content, so target must already exist.
//
// This is an atomic operation: the new file is written to a temporary file
// in the same directory, synced, then renamed over target. If any step
// fails, target is left unchanged.
//
// Returns UnsupportedWriteError if no writer is registered for target's
// container.
func (s *Store) SaveToFile(target string, opts SaveOptions) error { //nolint:gocyclo // Atomic file operations require sequential steps
	src, err := os.Open(target)
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}

	format, err := types.DetectFormat(src, info.Size(), target)
	if err != nil {
		return err
	}
	writer := registry.GetWriter(format)
	if writer == nil {
		return &types.UnsupportedWriteError{
			Format: format,
			Reason: "no writer registered",
		}
	}

	// Create temp file in same directory as target (for atomic rename)
	tempFile, err := os.CreateTemp(filepath.Dir(target), ".imgmeta-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()    //nolint:errcheck // Best effort cleanup
			_ = os.Remove(tempPath) //nolint:errcheck // Best effort cleanup
		}
	}()

	if err := writer.Write(tempFile, s.payload, src, info.Size()); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	if err := tempFile.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	src.Close()

	if opts.BackupSuffix != "" {
		if err := os.Rename(target, target+opts.BackupSuffix); err != nil {
			return fmt.Errorf("create backup: %w", err)
		}
	}

	if err := os.Rename(tempPath, target); err != nil {
		return fmt.Errorf("rename temp to target: %w", err)
	}
	success = true

	if opts.PreserveModTime {
		_ = os.Chtimes(target, info.ModTime(), info.ModTime()) //nolint:errcheck // Non-fatal: file was written successfully
	}

	if opts.Validate {
		if err := s.validateWrittenFile(target, format); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}

// validateWrittenFile re-loads path and compares the tags its container
// can carry.
func (s *Store) validateWrittenFile(path string, format types.Format) error {
	written, err := Load(path)
	if err != nil {
		return fmt.Errorf("re-load: %w", err)
	}

	want := carried(s.Tags(), format)
	got := written.Tags()
	if maps.Equal(want, got) {
		return nil
	}
	for k, v := range want {
		if got[k] != v {
			return fmt.Errorf("%s mismatch: got %q, want %q", k, got[k], v)
		}
	}
	for k := range got {
		if _, ok := want[k]; !ok {
			return fmt.Errorf("unexpected tag %s", k)
		}
	}
	return nil
}

// carried filters tags down to those format's writer stores.
func carried(tags map[string]string, format types.Format) map[string]string {
	if format != types.FormatPNG {
		return tags
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if !strings.HasPrefix(k, "Iptc.") {
			out[k] = v
		}
	}
	return out
}

// Equivalent reports whether other holds the same tags, limited to what
// format can carry. FormatUnknown compares every tag.
func (s *Store) Equivalent(other *Store, format types.Format) bool {
	return maps.Equal(carried(s.Tags(), format), carried(other.Tags(), format))
}
