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

const swapColumns = "id, requester_id, responder_id, my_slot_id, their_slot_id, status, created_at, decided_at"

type SwapRequestRepository struct {
	db base.Querier
}

func NewSwapRequestRepository(db base.Querier) *SwapRequestRepository {
	return &SwapRequestRepository{db: db}
}

// WithTx returns a view of the repository bound to the transaction.
func (r *SwapRequestRepository) WithTx(tx pgx.Tx) *SwapRequestRepository {
	return &SwapRequestRepository{db: tx}
}

// Create inserts a new PENDING request
func (r *SwapRequestRepository) Create(ctx context.Context, req *model.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (id, requester_id, responder_id, my_slot_id, their_slot_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		req.ID,
		req.RequesterID,
		req.ResponderID,
		req.MySlotID,
		req.TheirSlotID,
		req.Status,
	).Scan(&req.CreatedAt)

	if err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}

	return nil
}

// GetByID fetches a request by id, nil when absent
func (r *SwapRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id), "get swap request by id")
}

// GetForUpdate fetches a request and locks its row for the rest of the
// surrounding transaction
func (r *SwapRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRow(ctx, query, id), "lock swap request")
}

// Decide moves a PENDING request to a terminal status; rows already
// decided never match
func (r *SwapRequestRepository) Decide(ctx context.Context, id uuid.UUID, to model.SwapStatus, decidedAt time.Time) (bool, error) {
	query := `
		UPDATE swap_requests
		SET status = $1, decided_at = $2
		WHERE id = $3 AND status = $4
	`

	tag, err := r.db.Exec(ctx, query, to, decidedAt, id, model.SwapStatusPending)
	if err != nil {
		return false, fmt.Errorf("decide swap request: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByResponder returns requests the user was asked to decide, newest
// first
func (r *SwapRequestRepository) ListByResponder(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	query := `
		SELECT ` + swapColumns + `
		FROM swap_requests
		WHERE responder_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, "list requests by responder", userID)
}

// ListByRequester returns requests the user initiated, newest first
func (r *SwapRequestRepository) ListByRequester(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	query := `
		SELECT ` + swapColumns + `
		FROM swap_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, "list requests by requester", userID)
}

func (r *SwapRequestRepository) list(ctx context.Context, query, op string, args ...any) ([]*model.SwapRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var reqs []*model.SwapRequest
	for rows.Next() {
		req, err := scanSwapRequestRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *SwapRequestRepository) scanOne(row pgx.Row, op string) (*model.SwapRequest, error) {
	req, err := scanSwapRequestRow(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return req, nil
}

func scanSwapRequestRow(row pgx.Row) (*model.SwapRequest, error) {
	var req model.SwapRequest
	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.ResponderID,
		&req.MySlotID,
		&req.TheirSlotID,
		&req.Status,
		&req.CreatedAt,
		&req.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
