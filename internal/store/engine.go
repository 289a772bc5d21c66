package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/rebanho/ledger/internal/canonicalization"
	"github.com/rebanho/ledger/internal/config"
	"github.com/rebanho/ledger/internal/ledger"
)

// Compile-time interface assertions: Engine must satisfy every interface the
// domain package defines against a persistence backend.
var (
	_ ledger.MovementService = (*Engine)(nil)
	_ ledger.TransferService = (*Engine)(nil)
)

// ErrNoDatabaseConnection is returned when Engine is constructed with a nil
// connection.
var ErrNoDatabaseConnection = errors.New("no database connection provided")

type (
	// Engine implements ledger.MovementService and ledger.TransferService
	// against a PostgreSQL-backed ledger and snapshot. Every mutation is a
	// pessimistic row lock (SELECT ... FOR UPDATE) on the FarmStockBalance
	// row plus an optimistic version-guarded UPDATE, with the ledger append
	// sharing the same transaction as the snapshot update.
	Engine struct {
		conn      *Connection
		logger    *slog.Logger
		publisher MovementPublisher
		rules     *WeaningRules
	}

	// EngineOption configures optional Engine behavior.
	EngineOption func(*Engine)
)

// WithPublisher sets the outbox publisher notified after each commit.
// If not set, movements are committed but never published (NoopPublisher).
func WithPublisher(p MovementPublisher) EngineOption {
	return func(e *Engine) {
		e.publisher = p
	}
}

// NewEngine constructs an Engine over conn, loading the weaning rule table.
func NewEngine(conn *Connection, opts ...EngineOption) (*Engine, error) {
	if conn == nil {
		return nil, ErrNoDatabaseConnection
	}

	rules, err := LoadWeaningRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load weaning rules: %w", err)
	}

	e := &Engine{
		conn: conn,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.GetEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
		})),
		publisher: NoopPublisher{},
		rules:     rules,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// ExecuteEntry implements ledger.MovementService.
func (e *Engine) ExecuteEntry(ctx context.Context, params ledger.EntryParams) (*ledger.AnimalMovement, error) {
	if err := ledger.RequirePositive(params.Quantity); err != nil {
		return nil, err
	}

	if err := ledger.RequireDirection(params.Operation, ledger.MovementEntry); err != nil {
		return nil, err
	}

	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	balance, err := lockBalance(ctx, tx, params.FarmID, params.CategoryID)
	if err != nil {
		return nil, err
	}

	if err := applyBalanceDelta(ctx, tx, balance, params.Quantity); err != nil {
		return nil, err
	}

	movement, err := insertMovement(ctx, tx, insertMovementParams{
		BalanceID:     balance.ID,
		MovementType:  ledger.MovementEntry,
		OperationType: params.Operation,
		Quantity:      params.Quantity,
		Timestamp:     orNow(params.Timestamp),
		Metadata:      params.Metadata,
		ActorID:       params.Actor.ID,
		SourceIP:      params.SourceIP,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit entry: %w", err)
	}

	e.publisher.Publish(ctx, canonicalization.BalanceKey(params.FarmID, params.CategoryID), movement)

	return movement, nil
}

// ExecuteExit implements ledger.MovementService.
func (e *Engine) ExecuteExit(ctx context.Context, params ledger.ExitParams) (*ledger.AnimalMovement, error) {
	if err := ledger.RequirePositive(params.Quantity); err != nil {
		return nil, err
	}

	if err := ledger.RequireDirection(params.Operation, ledger.MovementExit); err != nil {
		return nil, err
	}

	if err := ledger.RequireCompanions(params.Operation, params.ClientID, params.DeathReasonID); err != nil {
		return nil, err
	}

	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	balance, err := lockBalance(ctx, tx, params.FarmID, params.CategoryID)
	if err != nil {
		return nil, err
	}

	if err := ledger.RequireSufficient(balance.CurrentQuantity, params.Quantity, params.FarmID, params.CategoryID); err != nil {
		return nil, err
	}

	if err := applyBalanceDelta(ctx, tx, balance, -params.Quantity); err != nil {
		return nil, err
	}

	movement, err := insertMovement(ctx, tx, insertMovementParams{
		BalanceID:     balance.ID,
		MovementType:  ledger.MovementExit,
		OperationType: params.Operation,
		Quantity:      params.Quantity,
		Timestamp:     orNow(params.Timestamp),
		ClientID:      params.ClientID,
		DeathReasonID: params.DeathReasonID,
		Metadata:      params.Metadata,
		ActorID:       params.Actor.ID,
		SourceIP:      params.SourceIP,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit exit: %w", err)
	}

	e.publisher.Publish(ctx, canonicalization.BalanceKey(params.FarmID, params.CategoryID), movement)

	return movement, nil
}

// UpdateMovement implements ledger.MovementService. The ledger is append-only:
// no row, once committed, is ever rewritten. movementID is accepted (not
// ignored) so a future caller-facing error can still report which movement
// it refused to touch.
func (e *Engine) UpdateMovement(_ context.Context, movementID string, _ ledger.EntryParams) (*ledger.AnimalMovement, error) {
	return nil, fmt.Errorf("%w: movement %s", ledger.ErrLedgerImmutable, movementID)
}

// DeleteMovement implements ledger.MovementService. Same append-only
// guarantee as UpdateMovement: corrections happen via an offsetting entry or
// reconciliation, never by erasing history.
func (e *Engine) DeleteMovement(_ context.Context, movementID string) error {
	return fmt.Errorf("%w: movement %s", ledger.ErrLedgerImmutable, movementID)
}

// ExecuteTransfer implements ledger.TransferService.
func (e *Engine) ExecuteTransfer(ctx context.Context, params ledger.TransferParams) (*ledger.MovementPair, error) {
	if err := ledger.RequireTransferParams(params.SourceFarmID, params.TargetFarmID); err != nil {
		return nil, err
	}

	if err := ledger.RequirePositive(params.Quantity); err != nil {
		return nil, err
	}

	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	source, target, err := lockBalancePairOrdered(ctx, tx,
		balanceLocator{FarmID: params.SourceFarmID, CategoryID: params.CategoryID},
		balanceLocator{FarmID: params.TargetFarmID, CategoryID: params.CategoryID},
	)
	if err != nil {
		return nil, err
	}

	if err := ledger.RequireSufficient(source.CurrentQuantity, params.Quantity, params.SourceFarmID, params.CategoryID); err != nil {
		return nil, err
	}

	if err := applyBalanceDelta(ctx, tx, source, -params.Quantity); err != nil {
		return nil, err
	}

	if err := applyBalanceDelta(ctx, tx, target, params.Quantity); err != nil {
		return nil, err
	}

	pair, err := insertPairedMovements(ctx, tx, pairedMovementParams{
		OutBalanceID: source.ID,
		InBalanceID:  target.ID,
		OutOp:        ledger.OperationTransferOut,
		InOp:         ledger.OperationTransferIn,
		Quantity:     params.Quantity,
		Timestamp:    orNow(params.Timestamp),
		Metadata:     params.Metadata,
		ActorID:      params.Actor.ID,
		SourceIP:     params.SourceIP,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	e.publisher.Publish(ctx, canonicalization.BalanceKey(params.SourceFarmID, params.CategoryID), pair.Out)
	e.publisher.Publish(ctx, canonicalization.BalanceKey(params.TargetFarmID, params.CategoryID), pair.In)

	return pair, nil
}

// ExecuteCategoryChange implements ledger.TransferService.
func (e *Engine) ExecuteCategoryChange(
	ctx context.Context,
	params ledger.CategoryChangeParams,
) (*ledger.MovementPair, error) {
	if err := ledger.RequireCategoryChangeParams(params.SourceCategoryID, params.TargetCategoryID); err != nil {
		return nil, err
	}

	if err := ledger.RequirePositive(params.Quantity); err != nil {
		return nil, err
	}

	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	pair, err := e.categoryChangeTx(ctx, tx, categoryChangeTxParams{
		FarmID:           params.FarmID,
		SourceCategoryID: params.SourceCategoryID,
		TargetCategoryID: params.TargetCategoryID,
		Quantity:         params.Quantity,
		Timestamp:        orNow(params.Timestamp),
		Metadata:         params.Metadata,
		ActorID:          params.Actor.ID,
		SourceIP:         params.SourceIP,
		OutOp:            ledger.OperationCategoryChangeOut,
		InOp:             ledger.OperationCategoryChangeIn,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit category change: %w", err)
	}

	e.publisher.Publish(ctx, canonicalization.BalanceKey(params.FarmID, params.SourceCategoryID), pair.Out)
	e.publisher.Publish(ctx, canonicalization.BalanceKey(params.FarmID, params.TargetCategoryID), pair.In)

	return pair, nil
}

// ExecuteWeaning implements ledger.TransferService. The full operation is
// indivisible: a failed female leg rolls back a successful male leg.
func (e *Engine) ExecuteWeaning(ctx context.Context, params ledger.WeaningParams) ([]ledger.MovementPair, error) {
	if err := ledger.RequireWeaningParams(params.FarmID, params.QtyMales, params.QtyFemales); err != nil {
		return nil, err
	}

	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	ts := orNow(params.Timestamp)

	pairs := make([]ledger.MovementPair, 0, 2) //nolint:mnd // at most one pair per sex

	type legKeys struct {
		sourceKey, targetKey string
	}

	keys := make([]legKeys, 0, 2) //nolint:mnd // at most one pair per sex

	legs := []struct {
		qty  int
		rule WeaningRule
	}{
		{params.QtyMales, e.rules.Male},
		{params.QtyFemales, e.rules.Female},
	}

	for _, leg := range legs {
		if leg.qty <= 0 {
			continue
		}

		sourceCategoryID, err := lookupCategoryIDBySlug(ctx, tx, leg.rule.SourceSlug)
		if err != nil {
			return nil, err
		}

		targetCategoryID, err := lookupCategoryIDBySlug(ctx, tx, leg.rule.TargetSlug)
		if err != nil {
			return nil, err
		}

		pair, err := e.categoryChangeTx(ctx, tx, categoryChangeTxParams{
			FarmID:           params.FarmID,
			SourceCategoryID: sourceCategoryID,
			TargetCategoryID: targetCategoryID,
			Quantity:         leg.qty,
			Timestamp:        ts,
			Metadata:         params.Metadata,
			ActorID:          params.Actor.ID,
			SourceIP:         params.SourceIP,
			OutOp:            ledger.OperationWeaningOut,
			InOp:             ledger.OperationWeaningIn,
		})
		if err != nil {
			return nil, err
		}

		pairs = append(pairs, *pair)
		keys = append(keys, legKeys{
			sourceKey: canonicalization.BalanceKey(params.FarmID, sourceCategoryID),
			targetKey: canonicalization.BalanceKey(params.FarmID, targetCategoryID),
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit weaning: %w", err)
	}

	for i, pair := range pairs {
		e.publisher.Publish(ctx, keys[i].sourceKey, pair.Out)
		e.publisher.Publish(ctx, keys[i].targetKey, pair.In)
	}

	return pairs, nil
}

type categoryChangeTxParams struct {
	FarmID           string
	SourceCategoryID string
	TargetCategoryID string
	Quantity         int
	Timestamp        time.Time
	Metadata         ledger.Metadata
	ActorID          string
	SourceIP         string
	OutOp            ledger.OperationType
	InOp             ledger.OperationType
}

// categoryChangeTx performs one source→target category move within an
// already-open transaction, shared by ExecuteCategoryChange and each leg of
// ExecuteWeaning.
func (e *Engine) categoryChangeTx(
	ctx context.Context,
	tx *sql.Tx,
	params categoryChangeTxParams,
) (*ledger.MovementPair, error) {
	source, target, err := lockBalancePairOrdered(ctx, tx,
		balanceLocator{FarmID: params.FarmID, CategoryID: params.SourceCategoryID},
		balanceLocator{FarmID: params.FarmID, CategoryID: params.TargetCategoryID},
	)
	if err != nil {
		return nil, err
	}

	if err := ledger.RequireSufficient(source.CurrentQuantity, params.Quantity, params.FarmID, params.SourceCategoryID); err != nil {
		return nil, err
	}

	if err := applyBalanceDelta(ctx, tx, source, -params.Quantity); err != nil {
		return nil, err
	}

	if err := applyBalanceDelta(ctx, tx, target, params.Quantity); err != nil {
		return nil, err
	}

	return insertPairedMovements(ctx, tx, pairedMovementParams{
		OutBalanceID: source.ID,
		InBalanceID:  target.ID,
		OutOp:        params.OutOp,
		InOp:         params.InOp,
		Quantity:     params.Quantity,
		Timestamp:    params.Timestamp,
		Metadata:     params.Metadata,
		ActorID:      params.ActorID,
		SourceIP:     params.SourceIP,
	})
}

// balanceLocator names a balance row by its natural key.
type balanceLocator struct {
	FarmID     string
	CategoryID string
}

// lockBalance fetches and row-locks the FarmStockBalance for (farmID,
// categoryID). The lock is held until the caller's transaction commits or
// rolls back.
func lockBalance(ctx context.Context, tx *sql.Tx, farmID, categoryID string) (*ledger.FarmStockBalance, error) {
	const query = `
		SELECT id, current_quantity, version, updated_at
		FROM farm_stock_balances
		WHERE farm_id = $1 AND category_id = $2
		FOR UPDATE
	`

	var b ledger.FarmStockBalance

	b.FarmID = farmID
	b.CategoryID = categoryID

	err := tx.QueryRowContext(ctx, query, farmID, categoryID).Scan(
		&b.ID, &b.CurrentQuantity, &b.Version, &b.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: farm %s category %s", ledger.ErrStockBalanceNotFound, farmID, categoryID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}

	return &b, nil
}

// lockBalancePairOrdered locks two balances in a deterministic order
// (sorted by their canonical key) to prevent deadlocks between concurrent
// composite operations that touch the same two rows in opposite order, then
// returns them in the caller's requested (a, b) order.
func lockBalancePairOrdered(
	ctx context.Context,
	tx *sql.Tx,
	a, b balanceLocator,
) (*ledger.FarmStockBalance, *ledger.FarmStockBalance, error) {
	keyA := canonicalization.BalanceKey(a.FarmID, a.CategoryID)
	keyB := canonicalization.BalanceKey(b.FarmID, b.CategoryID)

	locators := []balanceLocator{a, b}
	if keyB < keyA {
		locators = []balanceLocator{b, a}
	}

	locked := make(map[string]*ledger.FarmStockBalance, 2) //nolint:mnd // exactly two balances

	for _, loc := range locators {
		bal, err := lockBalance(ctx, tx, loc.FarmID, loc.CategoryID)
		if err != nil {
			return nil, nil, err
		}

		locked[canonicalization.BalanceKey(loc.FarmID, loc.CategoryID)] = bal
	}

	return locked[keyA], locked[keyB], nil
}

// applyBalanceDelta adds delta to balance's current quantity under the
// optimistic version guard: the UPDATE only succeeds if no other
// transaction changed the version since balance was locked.
func applyBalanceDelta(ctx context.Context, tx *sql.Tx, balance *ledger.FarmStockBalance, delta int) error {
	const query = `
		UPDATE farm_stock_balances
		SET current_quantity = current_quantity + $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
	`

	result, err := tx.ExecContext(ctx, query, delta, balance.ID, balance.Version)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: balance %s was modified concurrently", ledger.ErrConcurrencyConflict, balance.ID)
	}

	balance.CurrentQuantity += delta
	balance.Version++

	return nil
}

type insertMovementParams struct {
	BalanceID     string
	MovementType  ledger.MovementType
	OperationType ledger.OperationType
	Quantity      int
	Timestamp     time.Time
	ClientID      string
	DeathReasonID string
	Metadata      ledger.Metadata
	ActorID       string
	SourceIP      string
}

// insertMovement appends one immutable ledger row within tx, generating a
// fresh movement id.
func insertMovement(ctx context.Context, tx *sql.Tx, params insertMovementParams) (*ledger.AnimalMovement, error) {
	return insertMovementWithID(ctx, tx, uuid.NewString(), params)
}

type pairedMovementParams struct {
	OutBalanceID string
	InBalanceID  string
	OutOp        ledger.OperationType
	InOp         ledger.OperationType
	Quantity     int
	Timestamp    time.Time
	Metadata     ledger.Metadata
	ActorID      string
	SourceIP     string
}

// insertPairedMovements inserts the exit and entry legs of a composite
// operation, recording each as the other's counterparty via
// ledger.RelatedMovementKey.
func insertPairedMovements(ctx context.Context, tx *sql.Tx, params pairedMovementParams) (*ledger.MovementPair, error) {
	outID := uuid.NewString()
	inID := uuid.NewString()

	outMetadata := params.Metadata.WithRelatedMovement(inID)
	inMetadata := params.Metadata.WithRelatedMovement(outID)

	out, err := insertMovementWithID(ctx, tx, outID, insertMovementParams{
		BalanceID:     params.OutBalanceID,
		MovementType:  ledger.MovementExit,
		OperationType: params.OutOp,
		Quantity:      params.Quantity,
		Timestamp:     params.Timestamp,
		Metadata:      outMetadata,
		ActorID:       params.ActorID,
		SourceIP:      params.SourceIP,
	})
	if err != nil {
		return nil, err
	}

	in, err := insertMovementWithID(ctx, tx, inID, insertMovementParams{
		BalanceID:     params.InBalanceID,
		MovementType:  ledger.MovementEntry,
		OperationType: params.InOp,
		Quantity:      params.Quantity,
		Timestamp:     params.Timestamp,
		Metadata:      inMetadata,
		ActorID:       params.ActorID,
		SourceIP:      params.SourceIP,
	})
	if err != nil {
		return nil, err
	}

	return &ledger.MovementPair{Out: out, In: in}, nil
}

// insertMovementWithID is insertMovement with a caller-chosen id, so paired
// legs can reference each other before either row exists.
func insertMovementWithID(
	ctx context.Context,
	tx *sql.Tx,
	id string,
	params insertMovementParams,
) (*ledger.AnimalMovement, error) {
	metadataJSON, err := marshalMetadata(params.Metadata)
	if err != nil {
		return nil, err
	}

	const query = `
		INSERT INTO animal_movements
			(id, balance_id, movement_type, operation_type, quantity, timestamp,
			 client_id, death_reason_id, metadata, created_by, source_ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, NULLIF($11, ''), now())
		RETURNING created_at
	`

	movement := &ledger.AnimalMovement{
		ID:            id,
		BalanceID:     params.BalanceID,
		MovementType:  params.MovementType,
		OperationType: params.OperationType,
		Quantity:      params.Quantity,
		Timestamp:     params.Timestamp,
		ClientID:      params.ClientID,
		DeathReasonID: params.DeathReasonID,
		Metadata:      params.Metadata,
		CreatedByID:   params.ActorID,
		SourceIP:      params.SourceIP,
	}

	err = tx.QueryRowContext(ctx, query,
		movement.ID, movement.BalanceID, movement.MovementType, movement.OperationType,
		movement.Quantity, movement.Timestamp, movement.ClientID, movement.DeathReasonID,
		metadataJSON, movement.CreatedByID, movement.SourceIP,
	).Scan(&movement.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert movement: %w", err)
	}

	return movement, nil
}

func marshalMetadata(metadata ledger.Metadata) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return data, nil
}

// lookupCategoryIDBySlug resolves a system category's id by its reserved
// slug within tx. Fails ErrWeaningCategoryNotFound if the seeder has not
// been run.
func lookupCategoryIDBySlug(ctx context.Context, tx *sql.Tx, slug string) (string, error) {
	const query = `SELECT id FROM animal_categories WHERE slug = $1 AND active = true`

	var id string

	err := tx.QueryRowContext(ctx, query, slug).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: slug %s", ledger.ErrWeaningCategoryNotFound, slug)
	}

	if err != nil {
		return "", fmt.Errorf("failed to resolve category by slug: %w", err)
	}

	return id, nil
}

func orNow(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now().UTC()
	}

	return ts
}
