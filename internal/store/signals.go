package store

import (
	"context"
	"fmt"
)

// OnFarmCreated materializes a zero-quantity balance row for every active
// AnimalCategory against the new farm. CREATE IF NOT EXISTS semantics: safe
// to re-run, never alters an existing row.
//
// Called explicitly by the farm CRUD layer after it commits a new Farm; this
// package never subscribes to implicit storage-engine triggers.
func (e *Engine) OnFarmCreated(ctx context.Context, farmID string) error {
	const query = `
		INSERT INTO farm_stock_balances (id, farm_id, category_id, current_quantity, version, updated_at)
		SELECT gen_random_uuid(), $1, c.id, 0, 0, now()
		FROM animal_categories c
		WHERE c.active = true
		ON CONFLICT (farm_id, category_id) DO NOTHING
	`

	if _, err := e.conn.ExecContext(ctx, query, farmID); err != nil {
		return fmt.Errorf("failed to materialize balances for farm %s: %w", farmID, err)
	}

	return nil
}

// OnCategoryCreated materializes a zero-quantity balance row for every
// active Farm against the new category. CREATE IF NOT EXISTS semantics.
func (e *Engine) OnCategoryCreated(ctx context.Context, categoryID string) error {
	const query = `
		INSERT INTO farm_stock_balances (id, farm_id, category_id, current_quantity, version, updated_at)
		SELECT gen_random_uuid(), f.id, $1, 0, 0, now()
		FROM farms f
		WHERE f.active = true
		ON CONFLICT (farm_id, category_id) DO NOTHING
	`

	if _, err := e.conn.ExecContext(ctx, query, categoryID); err != nil {
		return fmt.Errorf("failed to materialize balances for category %s: %w", categoryID, err)
	}

	return nil
}
