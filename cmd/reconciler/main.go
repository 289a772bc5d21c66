// Package main provides the one-shot reconciliation CLI: a ranch's ops team
// runs it after a suspected inconsistency (a crashed migration, a manual
// database edit, a restored backup) to recompute every cached
// FarmStockBalance from the ledger and correct any drift in place.
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
	name    = "reconciler"
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

	logger.Info("starting reconciliation sweep")

	drifted, err := engine.ReconcileAll(context.Background())
	if err != nil {
		logger.Error("reconciliation sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, report := range drifted {
		logger.Warn("drifted balance corrected",
			slog.String("farm_id", report.FarmID),
			slog.String("category_id", report.CategoryID),
			slog.String("token", report.Token),
			slog.Int("snapshot_quantity", report.SnapshotQuantity),
			slog.Int("ledger_quantity", report.LedgerQuantity),
		)
	}

	logger.Info("reconciliation sweep complete", slog.Int("drifted_balances", len(drifted)))
}
