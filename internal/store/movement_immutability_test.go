package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rebanho/ledger/internal/ledger"
)

// TestMovement_CannotBeUpdated mirrors the original
// test_movimento_nao_pode_ser_alterado: a persisted movement rejects any
// attempt to change it.
func TestMovement_CannotBeUpdated(t *testing.T) {
	if !testing.Short() {
		t.Skip("unit test: run with -short")
	}

	e := &Engine{logger: noopLogger()}

	_, err := e.UpdateMovement(context.Background(), "some-movement-id", ledger.EntryParams{Quantity: 1})
	require.ErrorIs(t, err, ledger.ErrLedgerImmutable)
}

// TestMovement_CannotBeDeleted mirrors the original
// test_movimento_nao_pode_ser_deletado: a persisted movement rejects
// deletion.
func TestMovement_CannotBeDeleted(t *testing.T) {
	if !testing.Short() {
		t.Skip("unit test: run with -short")
	}

	e := &Engine{logger: noopLogger()}

	err := e.DeleteMovement(context.Background(), "some-movement-id")
	require.ErrorIs(t, err, ledger.ErrLedgerImmutable)
}
