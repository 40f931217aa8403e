package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	errs "gutenfetch/pkg/errors"
	"gutenfetch/pkg/logger"
)

// State is the on-disk resume cursor
type State struct {
	// LastID is the highest fully processed ID, 0 before the first one
	LastID int `json:"last_id"`
}

// Info describes the checkpoint file for status reports
type Info struct {
	Path      string
	Exists    bool
	LastID    int
	UpdatedAt time.Time
}

// Manager reads and writes the checkpoint file
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager for path. The parent directory
// is created if needed.
func NewManager(path string, log logger.Logger) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errs.New(errs.ErrorTypeStorage, err, "failed to create checkpoint directory")
		}
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Manager{
		checkpointPath: path,
		logger:         log,
	}, nil
}

// Path returns the checkpoint file path
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Load returns the stored last ID, or 0 when no checkpoint exists
func (m *Manager) Load() (int, error) {
	data, err := os.ReadFile(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errs.New(errs.ErrorTypeStorage, err, "failed to read checkpoint %s", m.checkpointPath)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return 0, errs.New(errs.ErrorTypeStorage, nil, "checkpoint %s is empty", m.checkpointPath)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return 0, errs.New(errs.ErrorTypeStorage, err, "failed to decode checkpoint %s", m.checkpointPath)
	}
	if state.LastID < 0 {
		return 0, errs.New(errs.ErrorTypeStorage, nil, "checkpoint %s has negative last_id %d", m.checkpointPath, state.LastID)
	}

	m.logger.DebugWithFields("Checkpoint loaded", map[string]interface{}{
		"path":    m.checkpointPath,
		"last_id": state.LastID,
	})

	return state.LastID, nil
}

// Save replaces the checkpoint with lastID. The file is written to a
// temporary sibling, synced and renamed over the old one.
func (m *Manager) Save(lastID int) error {
	if lastID < 0 {
		return fmt.Errorf("invalid checkpoint id %d", lastID)
	}

	data, err := json.Marshal(State{LastID: lastID})
	if err != nil {
		return errs.New(errs.ErrorTypeStorage, err, "failed to encode checkpoint")
	}

	file, err := os.CreateTemp(filepath.Dir(m.checkpointPath), filepath.Base(m.checkpointPath)+".tmp-*")
	if err != nil {
		return errs.New(errs.ErrorTypeStorage, err, "failed to create temporary checkpoint file")
	}
	tempPath := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.New(errs.ErrorTypeStorage, err, "failed to write checkpoint")
	}

	// Ensure data is written to disk
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.New(errs.ErrorTypeStorage, err, "failed to sync checkpoint file")
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errs.New(errs.ErrorTypeStorage, err, "failed to close checkpoint file")
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return errs.New(errs.ErrorTypeStorage, err, "failed to set checkpoint permissions")
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return errs.New(errs.ErrorTypeStorage, err, "failed to replace checkpoint file")
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"last_id": lastID,
	})

	return nil
}

// Reset moves the current checkpoint aside to "<path>.backup" so the next
// run starts from the first ID.
func (m *Manager) Reset() error {
	if !m.Exists() {
		return nil
	}

	backupPath := m.checkpointPath + ".backup"
	if err := os.Rename(m.checkpointPath, backupPath); err != nil {
		return errs.New(errs.ErrorTypeStorage, err, "failed to back up checkpoint")
	}

	m.logger.InfoWithFields("Checkpoint reset", map[string]interface{}{
		"backup": backupPath,
	})
	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return errs.New(errs.ErrorTypeStorage, err, "failed to delete checkpoint")
	}
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// Info returns a summary of the checkpoint
func (m *Manager) Info() (Info, error) {
	info := Info{Path: m.checkpointPath}

	stat, err := os.Stat(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return info, nil
		}
		return info, errs.New(errs.ErrorTypeStorage, err, "failed to stat checkpoint")
	}

	lastID, err := m.Load()
	if err != nil {
		return info, err
	}

	info.Exists = true
	info.LastID = lastID
	info.UpdatedAt = stat.ModTime()
	return info, nil
}
