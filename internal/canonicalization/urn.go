// Package canonicalization provides stable key construction for stock
// balances.
//
// A balance key identifies one FarmStockBalance row (the Farm × AnimalCategory
// pair) independent of how the farm or category happens to be spelled in a
// request. It fixes the order in which two balances are locked, and it feeds
// the outbox message key and the reconciliation token, so two requests naming
// the same balance always produce the same key regardless of request ordering.
//
// Key format: "farm:{farmID}/category:{categoryID}"
package canonicalization

import (
	"errors"
	"strings"
)

// Sentinel errors for balance key operations.
var (
	ErrKeyMissingDelimiter = errors.New("invalid balance key: missing '/' delimiter")
	ErrKeyMissingFarm      = errors.New("invalid balance key: missing 'farm:' segment")
	ErrKeyMissingCategory  = errors.New("invalid balance key: missing 'category:' segment")
	ErrKeyEmptyFarmID      = errors.New("invalid balance key: empty farm id")
	ErrKeyEmptyCategoryID  = errors.New("invalid balance key: empty category id")
)

const (
	farmPrefix     = "farm:"
	categoryPrefix = "category:"
)

// BalanceKey constructs the canonical key for a Farm × AnimalCategory pair.
//
// Examples:
//   - BalanceKey("farm-1", "cat-7") → "farm:farm-1/category:cat-7"
//
// Two calls with the same (farmID, categoryID) always produce the same key,
// so it is safe to use as a map key or a rate-limiter bucket identifier.
func BalanceKey(farmID, categoryID string) string {
	return farmPrefix + farmID + "/" + categoryPrefix + categoryID
}

// ParseBalanceKey splits a balance key back into its farm and category ids.
//
// Returns an error if the key was not produced by BalanceKey: missing the
// "/" delimiter, missing either prefix, or carrying an empty id.
func ParseBalanceKey(key string) (farmID, categoryID string, err error) {
	delimiterIdx := strings.Index(key, "/"+categoryPrefix)
	if delimiterIdx == -1 {
		return "", "", ErrKeyMissingDelimiter
	}

	farmSegment := key[:delimiterIdx]
	categorySegment := key[delimiterIdx+1:]

	if !strings.HasPrefix(farmSegment, farmPrefix) {
		return "", "", ErrKeyMissingFarm
	}

	if !strings.HasPrefix(categorySegment, categoryPrefix) {
		return "", "", ErrKeyMissingCategory
	}

	farmID = strings.TrimPrefix(farmSegment, farmPrefix)
	categoryID = strings.TrimPrefix(categorySegment, categoryPrefix)

	if farmID == "" {
		return "", "", ErrKeyEmptyFarmID
	}

	if categoryID == "" {
		return "", "", ErrKeyEmptyCategoryID
	}

	return farmID, categoryID, nil
}
