package canonicalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateMovementIdempotencyKey_Deterministic(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	key := BalanceKey("farm-1", "cat-7")

	a := GenerateMovementIdempotencyKey("movement-1", key, "SALE")
	b := GenerateMovementIdempotencyKey("movement-1", key, "SALE")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestGenerateMovementIdempotencyKey_DiffersByMovement(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	key := BalanceKey("farm-1", "cat-7")

	a := GenerateMovementIdempotencyKey("movement-1", key, "SALE")
	b := GenerateMovementIdempotencyKey("movement-2", key, "SALE")

	assert.NotEqual(t, a, b)
}

func TestGenerateReconciliationToken_Deterministic(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	key := BalanceKey("farm-1", "cat-7")

	a := GenerateReconciliationToken(key, "2026-07-31T00:00:00Z")
	b := GenerateReconciliationToken(key, "2026-07-31T00:00:00Z")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestGenerateReconciliationToken_DiffersByInstant(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	key := BalanceKey("farm-1", "cat-7")

	a := GenerateReconciliationToken(key, "2026-07-31T00:00:00Z")
	b := GenerateReconciliationToken(key, "2026-08-01T00:00:00Z")

	assert.NotEqual(t, a, b)
}
