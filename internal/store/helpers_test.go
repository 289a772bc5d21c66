package store

import (
	"io"
	"log/slog"
)

// noopLogger discards everything, keeping unit test output quiet.
func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
