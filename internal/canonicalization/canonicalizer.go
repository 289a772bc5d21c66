// Package canonicalization also provides deterministic, collision-resistant
// tokens for movement publishing and reconciliation.
//
// These are pure functions over primitives (strings), not domain types, so
// they stay reusable regardless of how AnimalMovement itself evolves.
package canonicalization

import (
	"crypto/sha256"
	"encoding/hex"
)

// GenerateMovementIdempotencyKey derives the Kafka message key the movement
// outbox publishes under.
//
// Formula: SHA256(movementID + balanceKey + operation)
//
// Using the ledger movement id alone as the message key would be sufficient
// for uniqueness, but folding in the balance key and operation lets a
// consumer partition on (and deduplicate by) the same token a log line
// carries, without re-deriving it from the message body.
//
// Returns a 64-character lowercase hex string.
func GenerateMovementIdempotencyKey(movementID, balanceKey, operation string) string {
	return hashSHA256(movementID + balanceKey + operation)
}

// GenerateReconciliationToken derives a deterministic token identifying one
// reconciliation pass over a single balance as of a given instant.
//
// Formula: SHA256(balanceKey + asOf)
//
// The reconciliation worker puts this token in its report and in the log
// line for a corrected balance; it does not use the token to skip work.
//
// Returns a 64-character lowercase hex string.
func GenerateReconciliationToken(balanceKey, asOf string) string {
	return hashSHA256(balanceKey + asOf)
}

// hashSHA256 computes the SHA256 hash of the input string.
func hashSHA256(input string) string {
	hash := sha256.Sum256([]byte(input))

	return hex.EncodeToString(hash[:])
}
