package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/slotswap/internal/repository/base"
	"github.com/Freeeeeet/slotswap/internal/service"
)

// UnitOfWork realizes the engine's transactional contract over a single
// pgx transaction: the stores handed to the body are bound to that
// transaction, and the whole section commits or rolls back as one.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(slots service.SlotStore, swaps service.SwapRequestStore) error) error {
	return base.WithinTx(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(NewSlotRepository(tx), NewSwapRequestRepository(tx))
	})
}

// Compile-time checks that the pgx repositories satisfy the engine ports.
var (
	_ service.UnitOfWork       = (*UnitOfWork)(nil)
	_ service.SlotStore        = (*SlotRepository)(nil)
	_ service.SwapRequestStore = (*SwapRequestRepository)(nil)
	_ service.UserStore        = (*UserRepository)(nil)
)
