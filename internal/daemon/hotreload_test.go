package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/controlcenter/internal/config"
)

func TestConfigWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\nbrightness_step = 5\n"), 0644))

	w := NewConfigWatcher(path, nil)

	var step atomic.Int32
	w.SetReloadCallback(func(cfg *config.Config) {
		step.Store(int32(cfg.UI.BrightnessStep))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, config.DefaultConfig()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[ui]\nbrightness_step = 12\n"), 0644))

	assert.Eventually(t, func() bool {
		return step.Load() == 12
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, 12, w.GetCurrentConfig().UI.BrightnessStep)
}

func TestConfigWatcher_InvalidConfigKeepsCurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	w := NewConfigWatcher(path, nil)

	var failed atomic.Bool
	w.SetErrorCallback(func(err error) {
		failed.Store(true)
	})

	initial := config.DefaultConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, initial))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[ui]\nbrightness_step = 0\n"), 0644))

	assert.Eventually(t, failed.Load, 3*time.Second, 20*time.Millisecond)
	assert.Same(t, initial, w.GetCurrentConfig())
}

func TestConfigWatcher_StopIsIdempotent(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "config.toml"), nil)
	require.NoError(t, w.Start(context.Background(), config.DefaultConfig()))
	w.Stop()
	w.Stop()
}
