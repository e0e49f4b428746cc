// Package server accepts TCP connections and runs one session per client.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/udisondev/railgo/internal/config"
	"github.com/udisondev/railgo/internal/db"
	"github.com/udisondev/railgo/internal/game"
	"github.com/udisondev/railgo/internal/mapdata"
	"github.com/udisondev/railgo/internal/observer"
)

// PlayerStore persists player identities across games.
type PlayerStore interface {
	GetByName(ctx context.Context, name string) (*db.PlayerRow, error)
	Create(ctx context.Context, id, name, passwordHash string) error
}

// Server is the game server: an accept loop plus one session goroutine per
// connection. Cancelling the run context closes the listener and every live
// connection.
type Server struct {
	cfg      config.Server
	registry *game.Registry
	players  PlayerStore
	rec      game.ActionRecorder
	catalog  observer.Catalog
	maps     *mapdata.Store

	listener net.Listener
	mu       sync.Mutex
}

// NewServer wires the server over its collaborators.
func NewServer(
	cfg config.Server,
	registry *game.Registry,
	players PlayerStore,
	rec game.ActionRecorder,
	catalog observer.Catalog,
	maps *mapdata.Store,
) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		players:  players,
		rec:      rec,
		catalog:  catalog,
		maps:     maps,
	}
}

// Addr returns the listen address, nil before Run.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close closes the listener and stops the server.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run begins listening on the configured address and serves until the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve runs the accept loop over a ready listener. Split from Run so tests
// can serve on an ephemeral port.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("game server started", "address", ln.Addr())
		s.acceptLoop(ctx, &wg, ln)
	}()

	wg.Wait()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("failed to accept new connection", "error", err)
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.handleConnection(ctx, conn)
			}()
		}
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	done := make(chan struct{})
	defer close(done)
	defer conn.Close()

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	slog.Info("new connection", "remote", conn.RemoteAddr())
	sess := newSession(s, conn)
	sess.run(ctx)
}
