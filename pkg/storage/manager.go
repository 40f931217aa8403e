package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	errs "gutenfetch/pkg/errors"
)

const tempPattern = ".partial-*"

// Manager maps item IDs to artifact files in a single directory
type Manager struct {
	outputDir string
	extension string
}

// Stats summarises the artifacts present on disk
type Stats struct {
	Count      int
	TotalBytes int64
	// HighestID is 0 when the directory holds no artifacts
	HighestID int
}

// NewManager creates the output directory if needed and returns a manager
// storing "<id>.<extension>" files in it.
func NewManager(outputDir, extension string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errs.New(errs.ErrorTypeStorage, err, "failed to create output directory %s", outputDir)
	}

	return &Manager{
		outputDir: outputDir,
		extension: strings.TrimPrefix(extension, "."),
	}, nil
}

// Path returns the artifact path for id
func (m *Manager) Path(id int) string {
	return filepath.Join(m.outputDir, fmt.Sprintf("%d.%s", id, m.extension))
}

// Has reports whether the artifact for id exists. Any stat failure other
// than absence is a storage error.
func (m *Manager) Has(id int) (bool, error) {
	info, err := os.Stat(m.Path(id))
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errs.New(errs.ErrorTypeStorage, err, "failed to check artifact %d", id)
}

// Save writes the artifact for id from r, replacing any existing file.
// The data lands in a temporary file first so a partial write is never
// visible under the final name.
func (m *Manager) Save(id int, r io.Reader) (int64, error) {
	filename := m.Path(id)

	out, err := os.CreateTemp(m.outputDir, tempPattern)
	if err != nil {
		return 0, errs.New(errs.ErrorTypeStorage, err, "failed to create temporary file for %d", id)
	}
	tempFile := out.Name()

	written, err := io.Copy(out, r)
	if err != nil {
		out.Close()
		os.Remove(tempFile)
		return written, errs.New(errs.ErrorTypeStorage, err, "failed to write artifact %d", id)
	}

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tempFile)
		return written, errs.New(errs.ErrorTypeStorage, err, "failed to sync artifact %d", id)
	}

	if err := out.Close(); err != nil {
		os.Remove(tempFile)
		return written, errs.New(errs.ErrorTypeStorage, err, "failed to close artifact %d", id)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return written, errs.New(errs.ErrorTypeStorage, err, "failed to set permissions on artifact %d", id)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return written, errs.New(errs.ErrorTypeStorage, err, "failed to rename artifact %d", id)
	}

	return written, nil
}

// RemoveStale deletes temporary files left behind by an interrupted write
func (m *Manager) RemoveStale() (int, error) {
	matches, err := filepath.Glob(filepath.Join(m.outputDir, tempPattern))
	if err != nil {
		return 0, errs.New(errs.ErrorTypeStorage, err, "failed to list temporary files")
	}

	removed := 0
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return removed, errs.New(errs.ErrorTypeStorage, err, "failed to remove %s", match)
		}
		removed++
	}
	return removed, nil
}

// Stats scans the output directory for artifacts
func (m *Manager) Stats() (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return stats, errs.New(errs.ErrorTypeStorage, err, "failed to read directory %s", m.outputDir)
	}

	suffix := "." + m.extension
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), suffix))
		if err != nil || id < 1 {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		stats.Count++
		stats.TotalBytes += info.Size()
		if id > stats.HighestID {
			stats.HighestID = id
		}
	}

	return stats, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}
