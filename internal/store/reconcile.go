package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/rebanho/ledger/internal/canonicalization"
)

const (
	// reconcileBatchSize bounds how many balance rows are pulled per page,
	// avoiding a single long-running scan over every (farm, category) pair.
	reconcileBatchSize = 500

	// reconcileRateLimit caps how many individual balance reconciliations
	// run per second, so a full-farm sweep doesn't starve live traffic of
	// row locks.
	reconcileRateLimit rate.Limit = 50
	reconcileBurst                = 10
)

// ReconciliationReport describes one (farm, category) balance's drift, if
// any, between the ledger's reconstructed total and the cached snapshot.
type ReconciliationReport struct {
	FarmID           string
	CategoryID       string
	Token            string
	SnapshotQuantity int
	LedgerQuantity   int
	Drifted          bool
	CorrectedAt      time.Time
}

// Reconcile recomputes the full ledger total for one (farmID, categoryID)
// pair and compares it against the cached snapshot. A mismatch is corrected
// in place under the same pessimistic lock the movement operations use, so
// reconciliation can safely run concurrently with live writes.
func (e *Engine) Reconcile(ctx context.Context, farmID, categoryID string) (*ReconciliationReport, error) {
	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reconciliation transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	balance, err := lockBalance(ctx, tx, farmID, categoryID)
	if err != nil {
		return nil, err
	}

	ledgerTotal, err := reconstructLedgerTotal(ctx, tx, balance.ID)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		FarmID:           farmID,
		CategoryID:       categoryID,
		Token:            canonicalization.GenerateReconciliationToken(canonicalization.BalanceKey(farmID, categoryID), time.Now().UTC().Format(time.RFC3339)),
		SnapshotQuantity: balance.CurrentQuantity,
		LedgerQuantity:   ledgerTotal,
		Drifted:          ledgerTotal != balance.CurrentQuantity,
	}

	if !report.Drifted {
		return report, nil
	}

	const query = `
		UPDATE farm_stock_balances
		SET current_quantity = $1, version = version + 1, updated_at = now()
		WHERE id = $2
	`

	if _, err := tx.ExecContext(ctx, query, ledgerTotal, balance.ID); err != nil {
		return nil, fmt.Errorf("failed to correct drifted balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	report.CorrectedAt = time.Now().UTC()

	e.logger.Warn("corrected drifted balance",
		slog.String("farm_id", farmID),
		slog.String("category_id", categoryID),
		slog.String("token", report.Token),
		slog.Int("snapshot_quantity", report.SnapshotQuantity),
		slog.Int("ledger_quantity", report.LedgerQuantity),
	)

	return report, nil
}

// reconstructLedgerTotal sums every ENTRY/EXIT row ever recorded against
// balanceID, independent of the snapshot. A negative result clamps to zero:
// it signals ledger corruption, not a legitimate business state.
func reconstructLedgerTotal(ctx context.Context, tx *sql.Tx, balanceID string) (int, error) {
	const query = `
		SELECT
			COALESCE(SUM(CASE WHEN movement_type = 'ENTRY' THEN quantity ELSE 0 END), 0)
			- COALESCE(SUM(CASE WHEN movement_type = 'EXIT' THEN quantity ELSE 0 END), 0)
		FROM animal_movements
		WHERE balance_id = $1
	`

	var total int

	if err := tx.QueryRowContext(ctx, query, balanceID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to reconstruct ledger total: %w", err)
	}

	if total < 0 {
		total = 0
	}

	return total, nil
}

// ReconcileAll walks every (farm, category) balance and reconciles it,
// throttled to reconcileRateLimit reconciliations per second so a full sweep
// doesn't compete with live traffic for row locks. Returns every drifted
// report found; a per-row failure is logged and skipped rather than
// aborting the whole sweep.
func (e *Engine) ReconcileAll(ctx context.Context) ([]ReconciliationReport, error) {
	limiter := rate.NewLimiter(reconcileRateLimit, reconcileBurst)

	var drifted []ReconciliationReport

	var lastFarmID, lastCategoryID string

	for {
		pairs, err := e.pageBalanceKeys(ctx, lastFarmID, lastCategoryID, reconcileBatchSize)
		if err != nil {
			return drifted, err
		}

		if len(pairs) == 0 {
			return drifted, nil
		}

		for _, pair := range pairs {
			if err := limiter.Wait(ctx); err != nil {
				return drifted, fmt.Errorf("reconciliation sweep cancelled: %w", err)
			}

			report, err := e.Reconcile(ctx, pair.FarmID, pair.CategoryID)
			if err != nil {
				e.logger.Error("failed to reconcile balance",
					slog.String("farm_id", pair.FarmID),
					slog.String("category_id", pair.CategoryID),
					slog.String("error", err.Error()),
				)

				continue
			}

			if report.Drifted {
				drifted = append(drifted, *report)
			}
		}

		last := pairs[len(pairs)-1]
		lastFarmID, lastCategoryID = last.FarmID, last.CategoryID
	}
}

// pageBalanceKeys returns up to limit (farm_id, category_id) pairs ordered
// after (afterFarmID, afterCategoryID), keyset-paginated to avoid an
// OFFSET scan over a potentially large balance table.
func (e *Engine) pageBalanceKeys(
	ctx context.Context,
	afterFarmID, afterCategoryID string,
	limit int,
) ([]balanceLocator, error) {
	const query = `
		SELECT farm_id, category_id
		FROM farm_stock_balances
		WHERE (farm_id, category_id) > ($1, $2)
		ORDER BY farm_id, category_id
		LIMIT $3
	`

	rows, err := e.conn.QueryContext(ctx, query, afterFarmID, afterCategoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to page balance keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	pairs := make([]balanceLocator, 0, limit)

	for rows.Next() {
		var loc balanceLocator

		if err := rows.Scan(&loc.FarmID, &loc.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to scan balance key: %w", err)
		}

		pairs = append(pairs, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance keys: %w", err)
	}

	return pairs, nil
}
