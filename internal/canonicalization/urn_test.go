package canonicalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBalanceKey(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	assert.Equal(t, "farm:farm-1/category:cat-7", BalanceKey("farm-1", "cat-7"))
}

func TestBalanceKey_Deterministic(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	a := BalanceKey("farm-a", "cat-b")
	b := BalanceKey("farm-a", "cat-b")
	assert.Equal(t, a, b)
}

func TestParseBalanceKey_RoundTrip(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	key := BalanceKey("farm-1", "cat-7")

	farmID, categoryID, err := ParseBalanceKey(key)
	assert.NoError(t, err)
	assert.Equal(t, "farm-1", farmID)
	assert.Equal(t, "cat-7", categoryID)
}

func TestParseBalanceKey_MissingDelimiter(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	_, _, err := ParseBalanceKey("farm:farm-1")
	assert.ErrorIs(t, err, ErrKeyMissingDelimiter)
}

func TestParseBalanceKey_MissingFarmPrefix(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	_, _, err := ParseBalanceKey("ranch:farm-1/category:cat-7")
	assert.ErrorIs(t, err, ErrKeyMissingFarm)
}

func TestParseBalanceKey_EmptyIDs(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	_, _, err := ParseBalanceKey("farm:/category:cat-7")
	assert.ErrorIs(t, err, ErrKeyEmptyFarmID)

	_, _, err = ParseBalanceKey("farm:farm-1/category:")
	assert.ErrorIs(t, err, ErrKeyEmptyCategoryID)
}
