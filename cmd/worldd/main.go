// worldd runs the world generation service: HTTP endpoints over the
// archive and a websocket generation stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oisee/emergent-adventure/internal/config"
	"github.com/oisee/emergent-adventure/internal/logger"
	"github.com/oisee/emergent-adventure/internal/server"
	"github.com/oisee/emergent-adventure/internal/store"
	"github.com/oisee/emergent-adventure/internal/terrain"
	"github.com/oisee/emergent-adventure/internal/world"
)

func main() {
	configPath := flag.String("config", "worldgen.yaml", "Path to config file")
	hashToken := flag.String("hash-token", "", "Print a bcrypt hash for this API token and exit")
	flag.Parse()

	if *hashToken != "" {
		hash, err := server.HashToken(*hashToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error hashing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	gen := world.NewGenerator()
	if cfg.Generation.MaxAttempts > 0 {
		gen.MaxAttempts = cfg.Generation.MaxAttempts
	}
	if cfg.Generation.MaxPlanNodes > 0 {
		gen.MaxPlanNodes = cfg.Generation.MaxPlanNodes
	}
	if cfg.Generation.MaxGridRestarts > 0 {
		gen.MaxGridRestarts = cfg.Generation.MaxGridRestarts
	}
	if cfg.Generation.GenresFile != "" {
		genres, err := terrain.LoadGenres(cfg.Generation.GenresFile)
		if err != nil {
			logger.Error("failed to load genres file", "path", cfg.Generation.GenresFile, "error", err)
			os.Exit(1)
		}
		gen.Genres = genres
	}

	archive, err := store.Open(cfg.Database)
	if err != nil {
		logger.Error("failed to open archive", "error", err)
		os.Exit(1)
	}
	defer archive.Close()

	srv := server.New(cfg, gen, archive)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
