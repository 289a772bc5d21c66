package ledger

import (
	"context"
	"time"
)

// EntryParams carries the arguments to MovementService.ExecuteEntry.
type EntryParams struct {
	FarmID     string
	CategoryID string
	Operation  OperationType
	Quantity   int
	Actor      Actor
	Timestamp  time.Time // zero value means "now"
	Metadata   Metadata
	SourceIP   string
}

// ExitParams carries the arguments to MovementService.ExecuteExit.
type ExitParams struct {
	FarmID        string
	CategoryID    string
	Operation     OperationType
	Quantity      int
	Actor         Actor
	Timestamp     time.Time // zero value means "now"
	Metadata      Metadata
	ClientID      string
	DeathReasonID string
	SourceIP      string
}

// MovementService performs atomic single-balance mutations: a pessimistic
// row lock plus an optimistic-version snapshot update, with the ledger
// append and the snapshot update sharing one transaction.
type MovementService interface {
	// ExecuteEntry appends an ENTRY movement and increments the balance.
	ExecuteEntry(ctx context.Context, params EntryParams) (*AnimalMovement, error)

	// ExecuteExit appends an EXIT movement and decrements the balance.
	// Fails ErrInsufficientStock if the balance would go negative.
	ExecuteExit(ctx context.Context, params ExitParams) (*AnimalMovement, error)

	// UpdateMovement always fails with ErrLedgerImmutable. A persisted
	// AnimalMovement is the ledger's permanent witness of a headcount
	// change; correcting a mistake means recording an offsetting entry or
	// running reconciliation, never mutating history.
	UpdateMovement(ctx context.Context, movementID string, params EntryParams) (*AnimalMovement, error)

	// DeleteMovement always fails with ErrLedgerImmutable, for the same
	// reason as UpdateMovement.
	DeleteMovement(ctx context.Context, movementID string) error
}

// TransferParams carries the arguments to TransferService.ExecuteTransfer.
type TransferParams struct {
	SourceFarmID string
	TargetFarmID string
	CategoryID   string
	Quantity     int
	Actor        Actor
	Timestamp    time.Time
	Metadata     Metadata
	SourceIP     string
}

// CategoryChangeParams carries the arguments to
// TransferService.ExecuteCategoryChange.
type CategoryChangeParams struct {
	FarmID           string
	SourceCategoryID string
	TargetCategoryID string
	Quantity         int
	Actor            Actor
	Timestamp        time.Time
	Metadata         Metadata
	SourceIP         string
}

// WeaningParams carries the arguments to TransferService.ExecuteWeaning.
type WeaningParams struct {
	FarmID    string
	QtyMales  int
	QtyFemales int
	Actor     Actor
	Timestamp time.Time
	Metadata  Metadata
	SourceIP  string
}

// MovementPair is one (exit, entry) leg pair produced by a composite operation.
type MovementPair struct {
	Out *AnimalMovement
	In  *AnimalMovement
}

// TransferService performs composite atomic operations that compose
// multiple MovementService calls inside one shared transaction: inter-farm
// transfer, within-farm category change, and rule-driven weaning.
type TransferService interface {
	// ExecuteTransfer moves quantity of one category from source farm to
	// target farm, emitting TRANSFER_OUT and TRANSFER_IN with a shared
	// timestamp.
	ExecuteTransfer(ctx context.Context, params TransferParams) (*MovementPair, error)

	// ExecuteCategoryChange moves quantity from one category to another
	// within the same farm, emitting CATEGORY_CHANGE_OUT and
	// CATEGORY_CHANGE_IN.
	ExecuteCategoryChange(ctx context.Context, params CategoryChangeParams) (*MovementPair, error)

	// ExecuteWeaning applies the weaning rule table to promote calves into
	// their two-year-old categories, emitting one WEANING_OUT/WEANING_IN
	// pair per non-zero quantity, all within one transaction.
	ExecuteWeaning(ctx context.Context, params WeaningParams) ([]MovementPair, error)
}

// ReportQueries reconstructs historical positions exclusively from the
// ledger; the snapshot is never consulted.
type ReportQueries interface {
	// OpeningStock returns the non-negative balance as of the start of
	// startDate, ignoring any event at or after that instant.
	OpeningStock(ctx context.Context, farmID, categoryID string, startDate time.Time) (int, error)

	// ClosingStock returns OpeningStock plus entries minus exits within
	// [startDate, endDate].
	ClosingStock(ctx context.Context, farmID, categoryID string, startDate, endDate time.Time) (int, error)

	// PeriodMovements returns every ledger row with timestamp in the
	// inclusive range [startDate, endDate], ordered by timestamp ascending.
	PeriodMovements(ctx context.Context, farmID, categoryID string, startDate, endDate time.Time) ([]AnimalMovement, error)

	// PrePeriodMovements returns every ledger row with timestamp strictly
	// before beforeDate.
	PrePeriodMovements(ctx context.Context, farmID, categoryID string, beforeDate time.Time) ([]AnimalMovement, error)
}
