package ledger

import "time"

// SystemSlug identifies one of the nine reserved AnimalCategory slugs.
// System categories cannot be deactivated and their slug is immutable.
type SystemSlug string

const (
	SlugTouros         SystemSlug = "touros"
	SlugVacas          SystemSlug = "vacas"
	SlugBezerroMacho   SystemSlug = "bezerro-macho"
	SlugBezerroFemea   SystemSlug = "bezerro-femea"
	SlugNovilha2a      SystemSlug = "novilha-2a"
	SlugNovilha3a      SystemSlug = "novilha-3a"
	SlugBois2a         SystemSlug = "bois-2a"
	SlugRufiao         SystemSlug = "rufiao"
	SlugVacaPrimipara  SystemSlug = "vaca-primipara"
)

// SystemSlugs returns all nine reserved system category slugs.
func SystemSlugs() []SystemSlug {
	return []SystemSlug{
		SlugTouros, SlugVacas, SlugBezerroMacho, SlugBezerroFemea,
		SlugNovilha2a, SlugNovilha3a, SlugBois2a, SlugRufiao, SlugVacaPrimipara,
	}
}

// Metadata carries free-form structured data attached to a movement
// (weight, price, supplier, observation, and paired-operation annotations
// such as "related_movement_id"). Keys are strings and values are
// JSON-compatible; unknown keys are preserved, not rejected.
type Metadata map[string]interface{}

// RelatedMovementKey is the metadata key used to record the counterparty of
// a composite (paired) operation, per Design Note 9's simpler alternative
// to a nullable self-referencing foreign key.
const RelatedMovementKey = "related_movement_id"

// WithRelatedMovement returns a copy of m with the counterparty movement ID
// recorded under RelatedMovementKey. A nil receiver is treated as empty.
func (m Metadata) WithRelatedMovement(movementID string) Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}

	out[RelatedMovementKey] = movementID

	return out
}

// RelatedMovement returns the counterparty movement ID recorded in metadata,
// if any.
func (m Metadata) RelatedMovement() (string, bool) {
	v, ok := m[RelatedMovementKey]
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

type (
	// Farm is an identity with a stable opaque ID and a unique human name.
	// Created by an external CRUD layer; its creation triggers balance
	// materialization for every active AnimalCategory (see Initialization
	// Signals).
	Farm struct {
		ID        string
		Name      string
		Active    bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// AnimalCategory is an identity with a unique name and an optional
	// unique slug, present exactly when IsSystem is true. System
	// categories cannot be deactivated and their slug is immutable.
	AnimalCategory struct {
		ID        string
		Name      string
		Slug      string // empty for custom (non-system) categories
		IsSystem  bool
		Order     int
		Active    bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Client is a buyer or donee reference, owned by an external module.
	// The core only ever sees its ID and Name.
	Client struct {
		ID   string
		Name string
	}

	// DeathReason is a mortality-cause reference, owned by an external
	// module. The core only ever sees its ID and Name.
	DeathReason struct {
		ID   string
		Name string
	}

	// Actor is the opaque identity of whoever performed an operation: a
	// stable ID and a display name. The core does not authenticate or
	// authorize; callers are trusted to have performed access checks.
	Actor struct {
		ID          string
		DisplayName string
	}

	// FarmStockBalance is the consolidated current-state snapshot for one
	// (Farm, AnimalCategory) pair, cached for O(1) read. Mutated
	// exclusively by MovementService under a pessimistic lock plus
	// optimistic version guard.
	FarmStockBalance struct {
		ID              string
		FarmID          string
		CategoryID      string
		CurrentQuantity int
		Version         int
		UpdatedAt       time.Time
	}

	// AnimalMovement is one immutable ledger event. Once persisted it can
	// never be updated or deleted (ErrLedgerImmutable) — the ledger is the
	// witness of every headcount change.
	AnimalMovement struct {
		ID              string
		BalanceID       string
		MovementType    MovementType
		OperationType   OperationType
		Quantity        int
		Timestamp       time.Time
		RelatedMovement string // optional, self-reference for paired events (unused when encoded in Metadata)
		ClientID        string // required iff OperationType requires a client
		DeathReasonID   string // required iff OperationType requires a death reason
		Metadata        Metadata
		CreatedByID     string
		CreatedAt       time.Time
		SourceIP        string
	}
)
