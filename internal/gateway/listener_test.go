package gateway

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/gwcore/internal/config"
	"github.com/vyrodovalexey/gwcore/internal/observability"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
}

func TestNewListener(t *testing.T) {
	t.Parallel()

	cfg := config.ListenerConfig{Port: 8080}
	logger := observability.NopLogger()

	listener, err := NewListener("test-listener", cfg, okHandler(), WithListenerLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, "test-listener", listener.Name())
	assert.Equal(t, 8080, listener.Port())
	assert.Equal(t, logger, listener.logger)
	assert.False(t, listener.IsRunning())
	assert.Nil(t, listener.Addr())

	_, err = NewListener("no-handler", cfg, nil)
	assert.Error(t, err)
}

func TestListener_Address(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      config.ListenerConfig
		expected string
	}{
		{name: "default bind", cfg: config.ListenerConfig{Port: 8080}, expected: "0.0.0.0:8080"},
		{name: "custom bind", cfg: config.ListenerConfig{Bind: "127.0.0.1", Port: 9090}, expected: "127.0.0.1:9090"},
		{name: "ipv6 bind", cfg: config.ListenerConfig{Bind: "::1", Port: 80}, expected: "[::1]:80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			listener, err := NewListener("l", tt.cfg, okHandler())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, listener.Address())
		})
	}
}

func TestListener_StartServeStop(t *testing.T) {
	t.Parallel()

	listener, err := NewListener("test-listener", config.ListenerConfig{Bind: "127.0.0.1"}, okHandler())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, listener.Start(ctx))
	assert.True(t, listener.IsRunning())
	require.NotNil(t, listener.Addr())

	resp, err := http.Get(fmt.Sprintf("http://%s/", listener.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	err = listener.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	require.NoError(t, listener.Stop(ctx))
	assert.False(t, listener.IsRunning())
	assert.Nil(t, listener.Addr())
}

func TestListener_Stop_NotRunning(t *testing.T) {
	t.Parallel()

	listener, err := NewListener("l", config.ListenerConfig{}, okHandler())
	require.NoError(t, err)
	assert.NoError(t, listener.Stop(context.Background()))
}

func TestListener_Start_AddressInUse(t *testing.T) {
	t.Parallel()

	first, err := NewListener("first", config.ListenerConfig{Bind: "127.0.0.1"}, okHandler())
	require.NoError(t, err)
	require.NoError(t, first.Start(context.Background()))
	defer func() { _ = first.Stop(context.Background()) }()

	port := first.Addr().(*net.TCPAddr).Port

	second, err := NewListener("second", config.ListenerConfig{Bind: "127.0.0.1", Port: port}, okHandler())
	require.NoError(t, err)

	err = second.Start(context.Background())
	require.Error(t, err)
	assert.False(t, second.IsRunning())
}

func TestListener_Stop_WithTimeout(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	slow := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		<-release
	})

	listener, err := NewListener("slow", config.ListenerConfig{Bind: "127.0.0.1"}, slow)
	require.NoError(t, err)
	require.NoError(t, listener.Start(context.Background()))

	go func() {
		resp, err := http.Get(fmt.Sprintf("http://%s/", listener.Addr()))
		if err == nil {
			_ = resp.Body.Close()
		}
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = listener.Stop(ctx)
	close(release)
	assert.Error(t, err)
	assert.False(t, listener.IsRunning())
}
