package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigReloaderBasicProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentflow.toml")
	reloader := NewConfigReloader(path, NewDefaultConfigValidator())

	assert.False(t, reloader.IsWatching())
	assert.Equal(t, 500*time.Millisecond, reloader.debouncePeriod)
	assert.True(t, reloader.GetLastReloadTime().IsZero())

	reloader.SetDebouncePeriod(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, reloader.debouncePeriod)
}

func TestConfigReloaderDetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentflow.toml")
	require.NoError(t, os.WriteFile(path, []byte("[brain]\nchunk_size = 400\n"), 0o644))

	reloader := NewConfigReloader(path, NewDefaultConfigValidator())
	reloader.SetDebouncePeriod(20 * time.Millisecond)

	changed := make(chan *FileConfig, 1)
	reloader.OnConfigChanged(func(cfg *FileConfig, err error) {
		if err == nil {
			changed <- cfg
		}
	})

	require.NoError(t, reloader.Start())
	defer reloader.Stop()
	assert.True(t, reloader.IsWatching())

	require.NoError(t, os.WriteFile(path, []byte("[brain]\nchunk_size = 900\n"), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, 900, cfg.Brain.ChunkSize)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}
}

func TestConfigReloaderStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentflow.toml")
	reloader := NewConfigReloader(path, NewDefaultConfigValidator())
	require.NoError(t, reloader.Start())
	reloader.Stop()
	assert.False(t, reloader.IsWatching())
	reloader.Stop()
}
