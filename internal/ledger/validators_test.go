package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequirePositive(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	assert.NoError(t, RequirePositive(1))
	assert.NoError(t, RequirePositive(1000))

	assert.ErrorIs(t, RequirePositive(0), ErrInvalidQuantity)
	assert.ErrorIs(t, RequirePositive(-5), ErrInvalidQuantity)
}

func TestRequireSufficient(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	assert.NoError(t, RequireSufficient(20, 20, "farm", "cat"))
	assert.NoError(t, RequireSufficient(20, 5, "farm", "cat"))

	err := RequireSufficient(20, 21, "farm", "cat")
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestRequireCompanions(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	assert.NoError(t, RequireCompanions(OperationSale, "client-1", ""))
	assert.NoError(t, RequireCompanions(OperationDeath, "", "reason-1"))
	assert.NoError(t, RequireCompanions(OperationBirth, "", ""))

	assert.ErrorIs(t, RequireCompanions(OperationSale, "", ""), ErrInvalidOperation)
	assert.ErrorIs(t, RequireCompanions(OperationDonation, "", ""), ErrInvalidOperation)
	assert.ErrorIs(t, RequireCompanions(OperationDeath, "", ""), ErrInvalidOperation)
}

func TestRequireTransferParams(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	assert.NoError(t, RequireTransferParams("farm-a", "farm-b"))
	assert.ErrorIs(t, RequireTransferParams("", "farm-b"), ErrInvalidOperation)
	assert.ErrorIs(t, RequireTransferParams("farm-a", "farm-a"), ErrInvalidOperation)
}

func TestRequireCategoryChangeParams(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	assert.NoError(t, RequireCategoryChangeParams("cat-a", "cat-b"))
	assert.ErrorIs(t, RequireCategoryChangeParams("cat-a", "cat-a"), ErrInvalidOperation)
	assert.ErrorIs(t, RequireCategoryChangeParams("", ""), ErrInvalidOperation)
}

func TestRequireWeaningParams(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	assert.NoError(t, RequireWeaningParams("farm-a", 6, 4))
	assert.NoError(t, RequireWeaningParams("farm-a", 6, 0))
	assert.NoError(t, RequireWeaningParams("farm-a", 0, 4))

	assert.ErrorIs(t, RequireWeaningParams("", 6, 4), ErrInvalidOperation)
	assert.ErrorIs(t, RequireWeaningParams("farm-a", -1, 4), ErrInvalidOperation)
	assert.ErrorIs(t, RequireWeaningParams("farm-a", 0, 0), ErrInvalidOperation)
}

func TestRequireDirection(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	assert.NoError(t, RequireDirection(OperationBirth, MovementEntry))
	assert.NoError(t, RequireDirection(OperationDeath, MovementExit))

	err := RequireDirection(OperationBirth, MovementExit)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	err = RequireDirection(OperationType("BOGUS"), MovementEntry)
	assert.True(t, errors.Is(err, ErrInvalidOperation))
}

func TestMetadata_RelatedMovement(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	var m Metadata

	m = m.WithRelatedMovement("movement-123")

	id, ok := m.RelatedMovement()
	assert.True(t, ok)
	assert.Equal(t, "movement-123", id)

	empty := Metadata{}

	_, ok = empty.RelatedMovement()
	assert.False(t, ok)
}
