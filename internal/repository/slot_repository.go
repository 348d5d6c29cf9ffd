package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/slotswap/internal/model"
	"github.com/Freeeeeet/slotswap/internal/repository/base"
)

const slotColumns = "id, owner_id, title, start_time, end_time, status, created_at"

type SlotRepository struct {
	db base.Querier
}

func NewSlotRepository(db base.Querier) *SlotRepository {
	return &SlotRepository{db: db}
}

// WithTx returns a view of the repository bound to the transaction.
func (r *SlotRepository) WithTx(tx pgx.Tx) *SlotRepository {
	return &SlotRepository{db: tx}
}

// Create inserts a new slot
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (id, owner_id, title, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.ID,
		slot.OwnerID,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
	).Scan(&slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID fetches a slot by id, nil when absent
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id), "get slot by id")
}

// GetForUpdate fetches a slot and locks its row for the rest of the
// surrounding transaction
func (r *SlotRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRow(ctx, query, id), "lock slot")
}

// GetMany fetches a batch of slots keyed by id
func (r *SlotRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Slot, error) {
	out := make(map[uuid.UUID]*model.Slot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out[slot.ID] = slot
	}
	return out, rows.Err()
}

// ListByOwner returns all slots of one owner ordered by start time
func (r *SlotRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE owner_id = $1
		ORDER BY start_time
	`
	return r.list(ctx, query, "list slots by owner", ownerID)
}

// ListSwappable returns SWAPPABLE slots of everyone except excludeOwner,
// ordered by start time
func (r *SlotRepository) ListSwappable(ctx context.Context, excludeOwner uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE owner_id <> $1
		  AND status = $2
		ORDER BY start_time
	`
	return r.list(ctx, query, "list swappable slots", excludeOwner, model.SlotStatusSwappable)
}

// UpdateFields rewrites the owner-editable fields; SWAP_PENDING rows and
// rows of other owners never match
func (r *SlotRepository) UpdateFields(ctx context.Context, id, ownerID uuid.UUID, title string, start, end time.Time) (bool, error) {
	query := `
		UPDATE slots
		SET title = $1, start_time = $2, end_time = $3
		WHERE id = $4 AND owner_id = $5 AND status <> $6
	`

	tag, err := r.db.Exec(ctx, query, title, start, end, id, ownerID, model.SlotStatusSwapPending)
	if err != nil {
		return false, fmt.Errorf("update slot: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetStatus moves a slot between statuses, matching only rows currently
// in the from status
func (r *SlotRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) (bool, error) {
	query := `
		UPDATE slots
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	tag, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("set slot status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetOwnerStatus reassigns ownership and leaves the negotiation state;
// only SWAP_PENDING rows match
func (r *SlotRepository) SetOwnerStatus(ctx context.Context, id, newOwner uuid.UUID, to model.SlotStatus) (bool, error) {
	query := `
		UPDATE slots
		SET owner_id = $1, status = $2
		WHERE id = $3 AND status = $4
	`

	tag, err := r.db.Exec(ctx, query, newOwner, to, id, model.SlotStatusSwapPending)
	if err != nil {
		return false, fmt.Errorf("set slot owner: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the slot; SWAP_PENDING rows and rows of other owners
// never match
func (r *SlotRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM slots
		WHERE id = $1 AND owner_id = $2 AND status <> $3
	`

	tag, err := r.db.Exec(ctx, query, id, ownerID, model.SlotStatusSwapPending)
	if err != nil {
		return false, fmt.Errorf("delete slot: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SlotRepository) list(ctx context.Context, query, op string, args ...any) ([]*model.Slot, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (r *SlotRepository) scanOne(row pgx.Row, op string) (*model.Slot, error) {
	slot, err := scanSlotRow(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return slot, nil
}

func scanSlot(rows pgx.Rows) (*model.Slot, error) {
	slot, err := scanSlotRow(rows)
	if err != nil {
		return nil, fmt.Errorf("scan slot: %w", err)
	}
	return slot, nil
}

func scanSlotRow(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.OwnerID,
		&slot.Title,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}
