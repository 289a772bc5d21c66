package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rebanho/ledger/internal/canonicalization"
	"github.com/rebanho/ledger/internal/ledger"
)

// systemCategorySpec is one of the nine reserved AnimalCategory rows the
// seeder guarantees exist.
type systemCategorySpec struct {
	Slug        ledger.SystemSlug
	Name        string
	Description string
	Order       int
}

// systemCategorySpecs is the authoritative nine-row table, in display order.
var systemCategorySpecs = []systemCategorySpec{
	{ledger.SlugTouros, "Touros", "Touros reprodutores", 1},
	{ledger.SlugVacas, "Vacas", "Vacas em produção", 2},
	{ledger.SlugBezerroMacho, "Bezerro Macho", "Bezerros machos não desmamados", 3},
	{ledger.SlugBezerroFemea, "Bezerra Fêmea", "Bezerras fêmeas não desmamadas", 4},
	{ledger.SlugNovilha2a, "Novilha 2 anos", "Novilhas de até dois anos", 5},
	{ledger.SlugNovilha3a, "Novilha 3 anos", "Novilhas de até três anos", 6},
	{ledger.SlugBois2a, "Bois 2 anos", "Bois de até dois anos", 7},
	{ledger.SlugRufiao, "Rufião", "Touros rufiões", 8},
	{ledger.SlugVacaPrimipara, "Vaca Primípara", "Vacas de primeira cria", 9},
}

// SeedSystemCategories is a one-shot idempotent procedure: for each of the
// nine system-category records, locate by slug, else by name (back-compat
// with categories created manually before slugs existed), else create.
// Always sets is_system = true, is_active = true; updates other fields only
// if they differ. After syncing, re-runs OnCategoryCreated for every row to
// guarantee balance coverage.
func (e *Engine) SeedSystemCategories(ctx context.Context) error {
	for _, spec := range systemCategorySpecs {
		categoryID, err := e.upsertSystemCategory(ctx, spec)
		if err != nil {
			return fmt.Errorf("failed to seed category %s: %w", spec.Slug, err)
		}

		if err := e.OnCategoryCreated(ctx, categoryID); err != nil {
			return fmt.Errorf("failed to materialize balances after seeding %s: %w", spec.Slug, err)
		}
	}

	return nil
}

func (e *Engine) upsertSystemCategory(ctx context.Context, spec systemCategorySpec) (string, error) {
	categoryID, found, err := e.findCategoryBySlug(ctx, string(spec.Slug))
	if err != nil {
		return "", err
	}

	if !found {
		categoryID, found, err = e.findCategoryByName(ctx, spec.Name)
		if err != nil {
			return "", err
		}
	}

	if !found {
		return e.insertSystemCategory(ctx, spec)
	}

	if err := e.syncSystemCategory(ctx, categoryID, spec); err != nil {
		return "", err
	}

	return categoryID, nil
}

// findCategoryBySlug compares against a normalized form of the stored slug,
// so a ranch-entered slug with inconsistent casing or spacing ("Bois 2A")
// still resolves to the canonical system category ("bois-2a").
func (e *Engine) findCategoryBySlug(ctx context.Context, slug string) (string, bool, error) {
	const query = `
		SELECT id FROM animal_categories
		WHERE slug IS NOT NULL AND lower(regexp_replace(btrim(slug), '\s+', '-', 'g')) = $1
	`

	var id string

	err := e.conn.QueryRowContext(ctx, query, canonicalization.NormalizeSlug(slug)).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("failed to look up category by slug: %w", err)
	}

	return id, true, nil
}

func (e *Engine) findCategoryByName(ctx context.Context, name string) (string, bool, error) {
	const query = `SELECT id FROM animal_categories WHERE name = $1`

	var id string

	err := e.conn.QueryRowContext(ctx, query, name).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("failed to look up category by name: %w", err)
	}

	return id, true, nil
}

func (e *Engine) insertSystemCategory(ctx context.Context, spec systemCategorySpec) (string, error) {
	const query = `
		INSERT INTO animal_categories (id, name, slug, is_system, "order", active, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, true, $3, true, now(), now())
		RETURNING id
	`

	var id string

	err := e.conn.QueryRowContext(ctx, query, spec.Name, string(spec.Slug), spec.Order).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert system category: %w", err)
	}

	return id, nil
}

// syncSystemCategory brings an existing category row in line with spec,
// updating only fields that differ and always forcing is_system/is_active.
func (e *Engine) syncSystemCategory(ctx context.Context, categoryID string, spec systemCategorySpec) error {
	const query = `
		UPDATE animal_categories
		SET name = $2, slug = $3, "order" = $4, is_system = true, active = true, updated_at = now()
		WHERE id = $1
		  AND (name, slug, "order", is_system, active) IS DISTINCT FROM ($2, $3, $4, true, true)
	`

	if _, err := e.conn.ExecContext(ctx, query, categoryID, spec.Name, string(spec.Slug), spec.Order); err != nil {
		return fmt.Errorf("failed to sync system category: %w", err)
	}

	return nil
}
