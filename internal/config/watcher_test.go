package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/gwcore/internal/event"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestNewWatcher_Defaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gateway.yaml")
	w, err := NewWatcher(path, event.NewBus())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	assert.Equal(t, path, w.path)
	assert.Equal(t, DefaultDebounceDelay, w.debounceDelay)
	assert.Nil(t, w.LastConfig())
}

func TestWatcher_StartFailsOnInvalidConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gateway.yaml")
	writeConfig(t, path, invalidConfigYAML)

	w, err := NewWatcher(path, event.NewBus())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_ChangePublishesRefreshTrigger(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gateway.yaml")
	writeConfig(t, path, validConfigYAML)

	bus := event.NewBus()
	triggers := make(chan event.RefreshTrigger, 8)
	event.Subscribe(bus, func(tr event.RefreshTrigger) { triggers <- tr })

	var callbacks atomic.Int32
	w, err := NewWatcher(path, bus,
		WithDebounceDelay(20*time.Millisecond),
		WithConfigCallback(func(*GatewayConfig) { callbacks.Add(1) }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })
	require.NotNil(t, w.LastConfig())

	updated := validConfigYAML + `    - id: payments
      uri: http://payments.internal:8080
`
	writeConfig(t, path, updated)

	select {
	case tr := <-triggers:
		assert.Equal(t, WatcherTriggerSource, tr.Source)
		assert.NotEmpty(t, tr.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no refresh trigger after config change")
	}

	assert.Eventually(t, func() bool { return callbacks.Load() >= 1 }, time.Second, 10*time.Millisecond)
	assert.Len(t, w.LastConfig().Spec.Routes, 2)
}

func TestWatcher_InvalidChangeIsRejected(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gateway.yaml")
	writeConfig(t, path, validConfigYAML)

	bus := event.NewBus()
	var triggers atomic.Int32
	event.Subscribe(bus, func(event.RefreshTrigger) { triggers.Add(1) })

	errs := make(chan error, 8)
	w, err := NewWatcher(path, bus,
		WithDebounceDelay(10*time.Millisecond),
		WithErrorCallback(func(err error) { errs <- err }),
	)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	before := w.LastConfig()
	writeConfig(t, path, invalidConfigYAML)

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported for invalid config")
	}

	assert.Zero(t, triggers.Load())
	assert.Same(t, before, w.LastConfig())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gateway.yaml")
	writeConfig(t, path, validConfigYAML)

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
