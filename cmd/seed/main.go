// Package main provides the one-shot reference-data seeding CLI: an
// operator runs it once per environment (and safely again any time) to
// guarantee the nine reserved system AnimalCategory rows exist, each with
// a FarmStockBalance materialized against every active farm.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/rebanho/ledger/internal/config"
	"github.com/rebanho/ledger/internal/store"
)

const (
	version = "1.0.0-dev"
	name    = "seed"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.GetEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
	}))

	cfg := store.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid store configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	conn, err := store.NewConnection(cfg)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.String("error", err.Error()))
		}
	}()

	engine, err := store.NewEngine(conn)
	if err != nil {
		logger.Error("failed to construct engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("seeding system categories")

	if err := engine.SeedSystemCategories(context.Background()); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("seeding complete")
}
