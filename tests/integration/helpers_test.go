package integration

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/railgo/internal/config"
	"github.com/udisondev/railgo/internal/game"
	"github.com/udisondev/railgo/internal/server"
	"github.com/udisondev/railgo/internal/testutil"
)

// startServer boots the full stack on an ephemeral port: TCP server,
// registry, observer catalog and action log over in-memory persistence.
// activeMap picks the fixture map that games are created on.
func startServer(t *testing.T, activeMap string) (*testutil.MemStore, string) {
	t.Helper()

	cfg := config.Default()
	cfg.Game = config.Testing()
	cfg.Game.TrainsCount = 2

	store := testutil.NewMemStore()
	maps := testutil.Maps(t)
	require.NoError(t, maps.SetActive(activeMap))

	registry := game.NewRegistry(&cfg.Game, maps, store, store)
	srv := server.NewServer(cfg, registry, store, store, store, maps)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		registry.StopAll()
		cancel()
		<-done
	})
	return store, ln.Addr().String()
}

func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}
