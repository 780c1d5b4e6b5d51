package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/astro-api/internal/domain/aspects"
	"github.com/yanqian/astro-api/internal/infra/config"
	"github.com/yanqian/astro-api/internal/infra/orbprofiles"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orbs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default: modern\nprofiles:\n  modern:\n    conjunction: 8\n"), 0o600))
	catalog, def, err := orbprofiles.Load(path)
	require.NoError(t, err)
	registry, err := aspects.NewRegistry(catalog, def)
	require.NoError(t, err)

	cfg := &config.Config{HTTP: config.HTTPConfig{Address: "127.0.0.1:0"}}
	server := &http.Server{Addr: cfg.HTTP.Address, Handler: http.NotFoundHandler()}
	app := NewApp(cfg, newTestLogger(), server, orbprofiles.NewWatcher(path, registry, newTestLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestRunReportsListenError(t *testing.T) {
	cfg := &config.Config{HTTP: config.HTTPConfig{Address: "bad-address"}}
	server := &http.Server{Addr: cfg.HTTP.Address, Handler: http.NotFoundHandler()}
	app := NewApp(cfg, newTestLogger(), server, nil)

	require.Error(t, app.Run(context.Background()))
}
