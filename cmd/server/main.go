package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/railgo/internal/config"
	"github.com/udisondev/railgo/internal/db"
	"github.com/udisondev/railgo/internal/game"
	"github.com/udisondev/railgo/internal/mapdata"
	"github.com/udisondev/railgo/internal/server"
)

const ConfigPath = "config/server.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("RAILGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))
	slog.Info("railgo server starting", "bind", cfg.BindAddress, "port", cfg.Port, "map", cfg.MapName)

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	maps, err := mapdata.Discover(cfg.MapsDiscovery)
	if err != nil {
		return fmt.Errorf("discovering maps: %w", err)
	}
	if err := maps.SetActive(cfg.MapName); err != nil {
		return fmt.Errorf("activating map: %w", err)
	}
	slog.Info("maps discovered", "maps", maps.Names(), "active", cfg.MapName)

	recorder := db.NewRecorder(db.NewActionRepository(database.Pool()))
	defer recorder.Close()

	registry := game.NewRegistry(&cfg.Game, maps, recorder, db.NewGameRepository(database.Pool()))
	defer registry.StopAll()

	srv := server.NewServer(
		cfg,
		registry,
		db.NewPlayerRepository(database.Pool()),
		recorder,
		db.NewArchive(database.Pool()),
		maps,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("game server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func logLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
