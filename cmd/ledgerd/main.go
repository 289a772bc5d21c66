// Package main provides the ledger daemon: the process that holds the
// PostgreSQL connection pool, the transactional movement engine, and (when
// configured) the Kafka outbox publisher open for the lifetime of the
// service. The engine itself exposes no RPC surface of its own — callers
// embed internal/store.Engine directly — this binary exists to prove out
// the wiring, run the startup database health check, and host the optional
// background reconciliation sweep.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rebanho/ledger/internal/config"
	"github.com/rebanho/ledger/internal/store"
)

const (
	version = "1.0.0-dev"
	name    = "ledgerd"

	defaultReconcileInterval = 0 // disabled unless RECONCILE_INTERVAL is set
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	cfg := store.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid store configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.GetEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
	}))

	logger.Info("starting ledger daemon",
		slog.String("service", name),
		slog.String("version", version),
		slog.String("database_url", cfg.MaskDatabaseURL()),
	)

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

	opts := engineOptions(logger)

	engine, err := store.NewEngine(conn, opts...)
	if err != nil {
		logger.Error("failed to construct engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	reconcileInterval := config.GetEnvDuration("RECONCILE_INTERVAL", defaultReconcileInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if reconcileInterval > 0 {
		go runReconcileLoop(ctx, engine, reconcileInterval, logger)
	}

	logger.Info("ledger daemon ready",
		slog.Duration("reconcile_interval", reconcileInterval),
	)

	waitForShutdown(logger)
}

// engineOptions builds the optional KAFKA_BROKERS/KAFKA_MOVEMENTS_TOPIC outbox
// publisher, falling back to the engine's own NoopPublisher when unset.
func engineOptions(logger *slog.Logger) []store.EngineOption {
	brokers := config.GetEnvStr("KAFKA_BROKERS", "")
	topic := config.GetEnvStr("KAFKA_MOVEMENTS_TOPIC", "")

	if brokers == "" || topic == "" {
		logger.Info("no outbox configured, movements will not be published")

		return nil
	}

	publisher := store.NewKafkaMovementPublisher(strings.Split(brokers, ","), topic)

	logger.Info("outbox publisher configured",
		slog.String("topic", topic),
	)

	return []store.EngineOption{store.WithPublisher(publisher)}
}

// runReconcileLoop runs a full ReconcileAll sweep on a fixed interval until
// ctx is cancelled. A failed sweep is logged and retried on the next tick.
func runReconcileLoop(ctx context.Context, engine *store.Engine, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			drifted, err := engine.ReconcileAll(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("reconciliation sweep failed", slog.String("error", err.Error()))

				continue
			}

			logger.Info("reconciliation sweep complete", slog.Int("drifted_balances", len(drifted)))
		}
	}
}

// waitForShutdown blocks until SIGINT or SIGTERM is received.
func waitForShutdown(logger *slog.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	sig := <-stop

	logger.Info("received shutdown signal", slog.String("signal", sig.String()))
}
