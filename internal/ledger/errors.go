// Package ledger provides the domain vocabulary, entity model, and
// invariant validators for the livestock inventory ledger.
package ledger

import "errors"

// Sentinel domain errors, each carrying a stable code for external callers.
// Only ErrConcurrencyConflict is documented as locally recoverable by retry;
// every other error indicates a data or programming fault and must not be
// retried internally.
var (
	// ErrInvalidQuantity indicates a quantity that is zero, negative, or not an integer.
	ErrInvalidQuantity = errors.New("INVALID_QUANTITY")

	// ErrInsufficientStock indicates an exit would drive the balance negative.
	ErrInsufficientStock = errors.New("INSUFFICIENT_STOCK")

	// ErrStockBalanceNotFound indicates no balance row exists for (farm, category).
	ErrStockBalanceNotFound = errors.New("STOCK_BALANCE_NOT_FOUND")

	// ErrConcurrencyConflict indicates a version mismatch on the snapshot update.
	// This is the only error a caller may reasonably retry.
	ErrConcurrencyConflict = errors.New("CONCURRENCY_CONFLICT")

	// ErrInvalidOperation indicates a direction mismatch, missing companion,
	// or equal source/target where distinct values are required.
	ErrInvalidOperation = errors.New("INVALID_OPERATION")

	// ErrWeaningCategoryNotFound indicates a system category required by the
	// weaning rule table is missing because the seeder has not been run.
	ErrWeaningCategoryNotFound = errors.New("WEANING_CATEGORY_NOT_FOUND")

	// ErrLedgerImmutable indicates an attempt to update or delete a persisted movement.
	ErrLedgerImmutable = errors.New("LEDGER_IMMUTABLE")
)
