package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "gutenfetch/pkg/errors"
	"gutenfetch/pkg/logger"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(filepath.Join(t.TempDir(), "state", "progress.json"), logger.NewNopLogger())
	require.NoError(t, err)
	return mgr
}

func TestCheckpointManager(t *testing.T) {
	t.Run("MissingFileStartsAtZero", func(t *testing.T) {
		mgr := newManager(t)

		lastID, err := mgr.Load()
		require.NoError(t, err)
		assert.Equal(t, 0, lastID)
		assert.False(t, mgr.Exists())
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		mgr := newManager(t)

		require.NoError(t, mgr.Save(42))
		lastID, err := mgr.Load()
		require.NoError(t, err)
		assert.Equal(t, 42, lastID)

		data, err := os.ReadFile(mgr.Path())
		require.NoError(t, err)
		assert.JSONEq(t, `{"last_id": 42}`, string(data))
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		mgr := newManager(t)

		for id := 1; id <= 5; id++ {
			require.NoError(t, mgr.Save(id))
		}
		lastID, err := mgr.Load()
		require.NoError(t, err)
		assert.Equal(t, 5, lastID)

		entries, err := os.ReadDir(filepath.Dir(mgr.Path()))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temporary files should remain")
	})

	t.Run("RejectsNegative", func(t *testing.T) {
		mgr := newManager(t)
		assert.Error(t, mgr.Save(-1))
	})
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
		wantErr  bool
	}{
		{"compact", `{"last_id":7}`, 7, false},
		{"spaced as written by older tools", `{"last_id": 7}`, 7, false},
		{"unknown fields ignored", `{"last_id": 9, "started": "yesterday"}`, 9, false},
		{"missing key", `{}`, 0, false},
		{"negative", `{"last_id": -3}`, 0, true},
		{"not json", `last_id=3`, 0, true},
		{"empty", "  \n", 0, true},
		{"wrong type", `{"last_id": "3"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := newManager(t)
			require.NoError(t, os.WriteFile(mgr.Path(), []byte(tt.content), 0644))

			lastID, err := mgr.Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.Is(err, errs.ErrorTypeStorage))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, lastID)
		})
	}
}

func TestSaveFailure(t *testing.T) {
	mgr := newManager(t)
	require.NoError(t, os.RemoveAll(filepath.Dir(mgr.Path())))

	err := mgr.Save(1)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeStorage))
}

func TestReset(t *testing.T) {
	mgr := newManager(t)

	// nothing to reset
	require.NoError(t, mgr.Reset())

	require.NoError(t, mgr.Save(120))
	require.NoError(t, mgr.Reset())
	assert.False(t, mgr.Exists())

	backup, err := os.ReadFile(mgr.Path() + ".backup")
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_id": 120}`, string(backup))

	lastID, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, lastID)
}

func TestDelete(t *testing.T) {
	mgr := newManager(t)

	require.NoError(t, mgr.Delete())
	require.NoError(t, mgr.Save(3))
	require.NoError(t, mgr.Delete())
	assert.False(t, mgr.Exists())
}

func TestInfo(t *testing.T) {
	mgr := newManager(t)

	info, err := mgr.Info()
	require.NoError(t, err)
	assert.False(t, info.Exists)
	assert.Equal(t, mgr.Path(), info.Path)

	require.NoError(t, mgr.Save(88))
	info, err = mgr.Info()
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, 88, info.LastID)
	assert.False(t, info.UpdatedAt.IsZero())
}

func TestNewManagerRequiresPath(t *testing.T) {
	_, err := NewManager("", nil)
	assert.Error(t, err)
}
