package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/slotswap/internal/model"
)

// Store interfaces consumed by the services. The pgx repositories satisfy
// them over Postgres; tests satisfy them in memory. Lookups return
// (nil, nil) when the record does not exist; conditional writes report
// whether a row matched so callers can tell a lost race from a failure.

type SlotStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	// GetForUpdate locks the row for the rest of the surrounding
	// transaction. Outside a transaction it is a plain read.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Slot, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error)
	ListSwappable(ctx context.Context, excludeOwner uuid.UUID) ([]*model.Slot, error)
	Create(ctx context.Context, slot *model.Slot) error
	// UpdateFields rewrites title and times, refusing slots that are
	// SWAP_PENDING or not owned by ownerID. Reports whether a row matched.
	UpdateFields(ctx context.Context, id, ownerID uuid.UUID, title string, start, end time.Time) (bool, error)
	// SetStatus moves id from one status to another, matching only rows
	// currently in the from status.
	SetStatus(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) (bool, error)
	// SetOwnerStatus reassigns ownership and sets the terminal status,
	// matching only rows currently SWAP_PENDING.
	SetOwnerStatus(ctx context.Context, id, newOwner uuid.UUID, to model.SlotStatus) (bool, error)
	// Delete removes the slot, refusing SWAP_PENDING rows and rows not
	// owned by ownerID.
	Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
}

type SwapRequestStore interface {
	Create(ctx context.Context, req *model.SwapRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	// Decide moves a PENDING request to a terminal status, matching only
	// rows still PENDING.
	Decide(ctx context.Context, id uuid.UUID, to model.SwapStatus, decidedAt time.Time) (bool, error)
	ListByResponder(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error)
	ListByRequester(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error)
}

// UnitOfWork bounds an atomic section: every store call made through the
// stores handed to fn happens inside one transaction that commits iff fn
// returns nil and rolls back completely otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(slots SlotStore, swaps SwapRequestStore) error) error
}
