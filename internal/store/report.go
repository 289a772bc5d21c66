package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rebanho/ledger/internal/ledger"
)

var _ ledger.ReportQueries = (*Engine)(nil)

// startOfDay truncates t to 00:00:00.000000000 on its own calendar day, in
// t's own location. Mirrors the original reporting queries'
// datetime.combine(date, time.min).
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay returns the last representable instant of t's calendar day, in
// t's own location. Mirrors datetime.combine(date, time.max): an inclusive
// BETWEEN against this value covers the full end date, not just its
// midnight instant.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 23, 59, 59, 999999999, t.Location())
}

// OpeningStock implements ledger.ReportQueries. It reconstructs the balance
// exclusively from the ledger, ignoring the snapshot entirely, so reports
// stay correct even when late-arriving events are appended with past
// timestamps. startDate is normalized to the start of its calendar day, so
// any event recorded later that same day is excluded from the opening
// figure regardless of the time-of-day the caller passed in.
func (e *Engine) OpeningStock(ctx context.Context, farmID, categoryID string, startDate time.Time) (int, error) {
	const query = `
		SELECT
			COALESCE(SUM(CASE WHEN m.movement_type = 'ENTRY' THEN m.quantity ELSE 0 END), 0)
			- COALESCE(SUM(CASE WHEN m.movement_type = 'EXIT' THEN m.quantity ELSE 0 END), 0)
		FROM animal_movements m
		JOIN farm_stock_balances b ON b.id = m.balance_id
		WHERE b.farm_id = $1 AND b.category_id = $2 AND m.timestamp < $3
	`

	var balance int

	err := e.conn.QueryRowContext(ctx, query, farmID, categoryID, startOfDay(startDate)).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to compute opening stock: %w", err)
	}

	if balance < 0 {
		// Clamp for display. A negative reconstructed balance signals
		// ledger corruption, not a legitimate business state.
		balance = 0
	}

	return balance, nil
}

// ClosingStock implements ledger.ReportQueries: opening stock plus the
// entries minus exits recorded within [startDate, endDate]. endDate is
// normalized to the last instant of its calendar day, so an event recorded
// anywhere during that day is included, not just one at its exact midnight.
func (e *Engine) ClosingStock(
	ctx context.Context,
	farmID, categoryID string,
	startDate, endDate time.Time,
) (int, error) {
	opening, err := e.OpeningStock(ctx, farmID, categoryID, startDate)
	if err != nil {
		return 0, err
	}

	const query = `
		SELECT
			COALESCE(SUM(CASE WHEN m.movement_type = 'ENTRY' THEN m.quantity ELSE 0 END), 0)
			- COALESCE(SUM(CASE WHEN m.movement_type = 'EXIT' THEN m.quantity ELSE 0 END), 0)
		FROM animal_movements m
		JOIN farm_stock_balances b ON b.id = m.balance_id
		WHERE b.farm_id = $1 AND b.category_id = $2 AND m.timestamp BETWEEN $3 AND $4
	`

	var periodDelta int

	err = e.conn.QueryRowContext(ctx, query, farmID, categoryID, startOfDay(startDate), endOfDay(endDate)).
		Scan(&periodDelta)
	if err != nil {
		return 0, fmt.Errorf("failed to compute closing stock: %w", err)
	}

	return opening + periodDelta, nil
}

// PeriodMovements implements ledger.ReportQueries: every ledger row within
// the inclusive period, ordered by timestamp ascending. startDate/endDate
// are normalized to the start/end of their respective calendar days.
func (e *Engine) PeriodMovements(
	ctx context.Context,
	farmID, categoryID string,
	startDate, endDate time.Time,
) ([]ledger.AnimalMovement, error) {
	const query = `
		SELECT m.id, m.balance_id, m.movement_type, m.operation_type, m.quantity, m.timestamp,
		       COALESCE(m.client_id, ''), COALESCE(m.death_reason_id, ''), m.metadata,
		       m.created_by, m.created_at, COALESCE(m.source_ip, '')
		FROM animal_movements m
		JOIN farm_stock_balances b ON b.id = m.balance_id
		WHERE b.farm_id = $1 AND b.category_id = $2 AND m.timestamp BETWEEN $3 AND $4
		ORDER BY m.timestamp ASC
	`

	return e.queryMovements(ctx, query, farmID, categoryID, startOfDay(startDate), endOfDay(endDate))
}

// PrePeriodMovements implements ledger.ReportQueries: every ledger row with
// timestamp strictly before the start of beforeDate's calendar day.
func (e *Engine) PrePeriodMovements(
	ctx context.Context,
	farmID, categoryID string,
	beforeDate time.Time,
) ([]ledger.AnimalMovement, error) {
	const query = `
		SELECT m.id, m.balance_id, m.movement_type, m.operation_type, m.quantity, m.timestamp,
		       COALESCE(m.client_id, ''), COALESCE(m.death_reason_id, ''), m.metadata,
		       m.created_by, m.created_at, COALESCE(m.source_ip, '')
		FROM animal_movements m
		JOIN farm_stock_balances b ON b.id = m.balance_id
		WHERE b.farm_id = $1 AND b.category_id = $2 AND m.timestamp < $3
		ORDER BY m.timestamp ASC
	`

	return e.queryMovements(ctx, query, farmID, categoryID, startOfDay(beforeDate))
}

func (e *Engine) queryMovements(ctx context.Context, query string, args ...interface{}) ([]ledger.AnimalMovement, error) {
	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	movements := make([]ledger.AnimalMovement, 0)

	for rows.Next() {
		var (
			m            ledger.AnimalMovement
			metadataJSON []byte
		)

		if err := rows.Scan(
			&m.ID, &m.BalanceID, &m.MovementType, &m.OperationType, &m.Quantity, &m.Timestamp,
			&m.ClientID, &m.DeathReasonID, &metadataJSON, &m.CreatedByID, &m.CreatedAt, &m.SourceIP,
		); err != nil {
			return nil, fmt.Errorf("failed to scan movement row: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &m.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal movement metadata: %w", err)
			}
		}

		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movement rows: %w", err)
	}

	return movements, nil
}
