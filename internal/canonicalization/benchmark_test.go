package canonicalization

import "testing"

func Benchmark_NormalizeSlug(b *testing.B) {
	if !testing.Short() {
		b.Skip("skipping benchmark in non-short mode")
	}

	slugs := []string{
		"bois-2a",
		"Bois 2A",
		"  vacas  ",
		"touros",
		"Bezerro Macho",
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for _, s := range slugs {
			_ = NormalizeSlug(s)
		}
	}
}

func Benchmark_BalanceKey(b *testing.B) {
	if !testing.Short() {
		b.Skip("skipping benchmark in non-short mode")
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = BalanceKey("farm-1", "cat-7")
	}
}

func Benchmark_GenerateMovementIdempotencyKey(b *testing.B) {
	if !testing.Short() {
		b.Skip("skipping benchmark in non-short mode")
	}

	key := BalanceKey("farm-1", "cat-7")

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = GenerateMovementIdempotencyKey("movement-1", key, "SALE")
	}
}
