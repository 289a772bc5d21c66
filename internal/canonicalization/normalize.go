package canonicalization

import "strings"

// NormalizeSlug normalizes an AnimalCategory or Farm slug for comparison.
//
// Ranch staff enter slugs by hand in imports and ad-hoc tooling, so the same
// category routinely shows up with inconsistent casing or spacing
// ("Bois 2A", " bois-2a"). Normalization steps:
//  1. Trim leading/trailing whitespace
//  2. Lowercase
//  3. Collapse internal whitespace to a single hyphen
//
// The reference-data seeder's slug lookup compares against normalized
// input, so "Bois 2A" and "bois-2a" resolve to the same category.
func NormalizeSlug(slug string) string {
	trimmed := strings.ToLower(strings.TrimSpace(slug))

	fields := strings.Fields(trimmed)

	return strings.Join(fields, "-")
}
