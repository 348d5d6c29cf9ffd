// Package testutil provides in-memory realizations of the store ports so
// the engine and handlers can be exercised without Postgres.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/slotswap/internal/model"
	"github.com/Freeeeeet/slotswap/internal/service"
)

// MemStore holds slots, swap requests and users in maps and hands out
// views satisfying the engine's store ports. Transactions are serialized
// by a dedicated mutex and roll back by snapshot, so the engine's atomic
// sections behave as they would against a serializing database.
type MemStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	slots map[uuid.UUID]*model.Slot
	swaps map[uuid.UUID]*model.SwapRequest
	users map[uuid.UUID]*model.User

	// BeforeTx, when set, runs exactly once at the start of the next
	// transaction, before the transaction lock is taken. Tests use it to
	// interleave a rival operation between an optimistic pre-check and
	// the atomic section.
	BeforeTx func()

	// FailTx, when set, makes every transaction fail with this error
	// before running its body.
	FailTx error
}

func NewMemStore() *MemStore {
	return &MemStore{
		slots: make(map[uuid.UUID]*model.Slot),
		swaps: make(map[uuid.UUID]*model.SwapRequest),
		users: make(map[uuid.UUID]*model.User),
	}
}

// SlotStore returns the slot view of the store.
func (m *MemStore) SlotStore() service.SlotStore { return slotView{m} }

// SwapStore returns the swap request view of the store.
func (m *MemStore) SwapStore() service.SwapRequestStore { return swapView{m} }

// UserStore returns the user view of the store.
func (m *MemStore) UserStore() service.UserStore { return userView{m} }

var _ service.UnitOfWork = (*MemStore)(nil)

// WithinTx serializes the body against all other transactions and
// restores the pre-transaction state when the body fails.
func (m *MemStore) WithinTx(_ context.Context, fn func(slots service.SlotStore, swaps service.SwapRequestStore) error) error {
	m.mu.Lock()
	hook := m.BeforeTx
	m.BeforeTx = nil
	failure := m.FailTx
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if failure != nil {
		return failure
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	slotSnap := make(map[uuid.UUID]*model.Slot, len(m.slots))
	for id, s := range m.slots {
		slotSnap[id] = copySlot(s)
	}
	swapSnap := make(map[uuid.UUID]*model.SwapRequest, len(m.swaps))
	for id, r := range m.swaps {
		swapSnap[id] = copySwap(r)
	}
	m.mu.Unlock()

	if err := fn(slotView{m}, swapView{m}); err != nil {
		m.mu.Lock()
		m.slots = slotSnap
		m.swaps = swapSnap
		m.mu.Unlock()
		return err
	}
	return nil
}

// ── Fixture and assertion helpers ──

func (m *MemStore) AddUser(name string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     name + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
	m.users[u.ID] = u
	return u
}

func (m *MemStore) AddSlot(ownerID uuid.UUID, title string, status model.SlotStatus) *model.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := time.Now().UTC().Add(24 * time.Hour)
	s := &model.Slot{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	m.slots[s.ID] = s
	return copySlot(s)
}

// Slot returns a copy of the stored slot, nil when absent.
func (m *MemStore) Slot(id uuid.UUID) *model.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySlot(m.slots[id])
}

// Swap returns a copy of the stored request, nil when absent.
func (m *MemStore) Swap(id uuid.UUID) *model.SwapRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySwap(m.swaps[id])
}

// PendingSwaps returns all stored requests still PENDING.
func (m *MemStore) PendingSwaps() []*model.SwapRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SwapRequest
	for _, r := range m.swaps {
		if r.Status == model.SwapStatusPending {
			out = append(out, copySwap(r))
		}
	}
	return out
}

// ── Slot view ──

type slotView struct{ m *MemStore }

func (v slotView) GetByID(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return copySlot(v.m.slots[id]), nil
}

func (v slotView) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	return v.GetByID(ctx, id)
}

func (v slotView) GetMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Slot, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	out := make(map[uuid.UUID]*model.Slot, len(ids))
	for _, id := range ids {
		if s := v.m.slots[id]; s != nil {
			out[id] = copySlot(s)
		}
	}
	return out, nil
}

func (v slotView) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	return v.m.listSlots(func(s *model.Slot) bool { return s.OwnerID == ownerID }), nil
}

func (v slotView) ListSwappable(_ context.Context, excludeOwner uuid.UUID) ([]*model.Slot, error) {
	return v.m.listSlots(func(s *model.Slot) bool {
		return s.OwnerID != excludeOwner && s.Status == model.SlotStatusSwappable
	}), nil
}

func (v slotView) Create(_ context.Context, slot *model.Slot) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	v.m.slots[slot.ID] = copySlot(slot)
	return nil
}

func (v slotView) UpdateFields(_ context.Context, id, ownerID uuid.UUID, title string, start, end time.Time) (bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	s := v.m.slots[id]
	if s == nil || s.OwnerID != ownerID || s.Status == model.SlotStatusSwapPending {
		return false, nil
	}
	s.Title, s.StartTime, s.EndTime = title, start, end
	return true, nil
}

func (v slotView) SetStatus(_ context.Context, id uuid.UUID, from, to model.SlotStatus) (bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	s := v.m.slots[id]
	if s == nil || s.Status != from {
		return false, nil
	}
	s.Status = to
	return true, nil
}

func (v slotView) SetOwnerStatus(_ context.Context, id, newOwner uuid.UUID, to model.SlotStatus) (bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	s := v.m.slots[id]
	if s == nil || s.Status != model.SlotStatusSwapPending {
		return false, nil
	}
	s.OwnerID = newOwner
	s.Status = to
	return true, nil
}

func (v slotView) Delete(_ context.Context, id, ownerID uuid.UUID) (bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	s := v.m.slots[id]
	if s == nil || s.OwnerID != ownerID || s.Status == model.SlotStatusSwapPending {
		return false, nil
	}
	delete(v.m.slots, id)
	return true, nil
}

func (m *MemStore) listSlots(match func(*model.Slot) bool) []*model.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Slot
	for _, s := range m.slots {
		if match(s) {
			out = append(out, copySlot(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// ── Swap request view ──

type swapView struct{ m *MemStore }

func (v swapView) Create(_ context.Context, req *model.SwapRequest) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	v.m.swaps[req.ID] = copySwap(req)
	return nil
}

func (v swapView) GetByID(_ context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return copySwap(v.m.swaps[id]), nil
}

func (v swapView) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	return v.GetByID(ctx, id)
}

func (v swapView) Decide(_ context.Context, id uuid.UUID, to model.SwapStatus, decidedAt time.Time) (bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	r := v.m.swaps[id]
	if r == nil || r.Status != model.SwapStatusPending {
		return false, nil
	}
	r.Status = to
	at := decidedAt
	r.DecidedAt = &at
	return true, nil
}

func (v swapView) ListByResponder(_ context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return v.m.listSwaps(func(r *model.SwapRequest) bool { return r.ResponderID == userID }), nil
}

func (v swapView) ListByRequester(_ context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return v.m.listSwaps(func(r *model.SwapRequest) bool { return r.RequesterID == userID }), nil
}

func (m *MemStore) listSwaps(match func(*model.SwapRequest) bool) []*model.SwapRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SwapRequest
	for _, r := range m.swaps {
		if match(r) {
			out = append(out, copySwap(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ── User view ──

type userView struct{ m *MemStore }

func (v userView) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if u := v.m.users[id]; u != nil {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (v userView) GetMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	out := make(map[uuid.UUID]*model.User, len(ids))
	for _, id := range ids {
		if u := v.m.users[id]; u != nil {
			copied := *u
			out[id] = &copied
		}
	}
	return out, nil
}

func copySlot(s *model.Slot) *model.Slot {
	if s == nil {
		return nil
	}
	copied := *s
	return &copied
}

func copySwap(r *model.SwapRequest) *model.SwapRequest {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}
