package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slotswap/internal/model"
	"github.com/Freeeeeet/slotswap/internal/notify"
)

// SwapService is the swap negotiation engine. It owns every mutation of
// slot status/owner and swap request status; no other component writes
// those fields.
type SwapService struct {
	uow        UnitOfWork
	slots      SlotStore
	swaps      SwapRequestStore
	users      UserStore
	dispatcher notify.Dispatcher
	logger     *zap.Logger
}

func NewSwapService(
	uow UnitOfWork,
	slots SlotStore,
	swaps SwapRequestStore,
	users UserStore,
	dispatcher notify.Dispatcher,
	logger *zap.Logger,
) *SwapService {
	return &SwapService{
		uow:        uow,
		slots:      slots,
		swaps:      swaps,
		users:      users,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Propose creates a PENDING swap request between the requester's slot and
// another user's slot, moving both slots to SWAP_PENDING.
//
// Cheap checks run first against unlocked reads; the same checks are then
// repeated inside the transaction on locked rows, and those are the ones
// that count. A concurrent proposal that won the race surfaces here as
// ErrConflict with nothing committed.
func (s *SwapService) Propose(ctx context.Context, requesterID, mySlotID, theirSlotID uuid.UUID) (*model.SwapRequest, error) {
	if mySlotID == theirSlotID {
		return nil, fmt.Errorf("%w: cannot swap a slot with itself", ErrInvalidState)
	}

	// Fast-fail checks, no locks held
	mySlot, err := s.slots.GetByID(ctx, mySlotID)
	if err != nil {
		return nil, storeFailure("propose: get my slot", err)
	}
	if mySlot == nil || mySlot.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: slot %s", ErrNotFound, mySlotID)
	}
	theirSlot, err := s.slots.GetByID(ctx, theirSlotID)
	if err != nil {
		return nil, storeFailure("propose: get their slot", err)
	}
	if theirSlot == nil {
		return nil, fmt.Errorf("%w: slot %s", ErrNotFound, theirSlotID)
	}
	if theirSlot.OwnerID == requesterID {
		return nil, fmt.Errorf("%w: cannot swap with yourself", ErrInvalidState)
	}
	if mySlot.Status != model.SlotStatusSwappable || theirSlot.Status != model.SlotStatusSwappable {
		return nil, fmt.Errorf("%w: both slots must be SWAPPABLE", ErrInvalidState)
	}

	var req *model.SwapRequest
	err = s.uow.WithinTx(ctx, func(slots SlotStore, swaps SwapRequestStore) error {
		// Lock both rows in id order so two overlapping proposals never
		// deadlock each other; the loser blocks, then fails the re-check.
		mine, theirs, err := lockSlotPair(ctx, slots, mySlotID, theirSlotID)
		if err != nil {
			return err
		}
		if mine == nil || theirs == nil {
			return fmt.Errorf("%w: slot disappeared during negotiation", ErrConflict)
		}
		if mine.OwnerID != requesterID || theirs.OwnerID != theirSlot.OwnerID ||
			mine.Status != model.SlotStatusSwappable || theirs.Status != model.SlotStatusSwappable {
			return fmt.Errorf("%w: slots are no longer swappable", ErrConflict)
		}

		req = &model.SwapRequest{
			ID:          uuid.New(),
			RequesterID: requesterID,
			ResponderID: theirs.OwnerID,
			MySlotID:    mine.ID,
			TheirSlotID: theirs.ID,
			Status:      model.SwapStatusPending,
		}
		if err := swaps.Create(ctx, req); err != nil {
			return fmt.Errorf("create swap request: %w", err)
		}

		for _, id := range []uuid.UUID{mine.ID, theirs.ID} {
			matched, err := slots.SetStatus(ctx, id, model.SlotStatusSwappable, model.SlotStatusSwapPending)
			if err != nil {
				return fmt.Errorf("mark slot pending: %w", err)
			}
			if !matched {
				return fmt.Errorf("%w: slot %s changed under us", ErrConflict, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeFailure("propose swap", err)
	}

	s.logger.Info("Swap proposed",
		zap.String("request_id", req.ID.String()),
		zap.String("requester_id", requesterID.String()),
		zap.String("responder_id", req.ResponderID.String()),
	)

	// Post-commit, best-effort
	s.dispatcher.Notify(ctx, req.ResponderID, notify.EventSwapIncoming,
		notify.SwapIncomingPayload{RequestID: req.ID})

	return req, nil
}

// Respond decides a PENDING request exactly once. Accept exchanges the
// two slots' owners and parks both as BUSY; reject returns both to
// SWAPPABLE untouched. Either way the request becomes terminal and both
// slot updates commit with it or not at all.
func (s *SwapService) Respond(ctx context.Context, requestID, responderID uuid.UUID, accept bool) (*model.SwapRequest, error) {
	// Fast-fail checks, no locks held
	req, err := s.swaps.GetByID(ctx, requestID)
	if err != nil {
		return nil, storeFailure("respond: get request", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: swap request %s", ErrNotFound, requestID)
	}
	if req.ResponderID != responderID {
		return nil, fmt.Errorf("%w: only the responder may decide this request", ErrForbidden)
	}
	if req.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: request already decided", ErrInvalidState)
	}

	decision := model.SwapStatusRejected
	if accept {
		decision = model.SwapStatusAccepted
	}

	var decided *model.SwapRequest
	err = s.uow.WithinTx(ctx, func(slots SlotStore, swaps SwapRequestStore) error {
		// The locked re-read of the request is what makes the decision
		// once-only under racing responders.
		locked, err := swaps.GetForUpdate(ctx, requestID)
		if err != nil {
			return fmt.Errorf("lock request: %w", err)
		}
		if locked == nil {
			return fmt.Errorf("%w: swap request %s", ErrNotFound, requestID)
		}
		if locked.Status.IsTerminal() {
			return fmt.Errorf("%w: request already decided", ErrInvalidState)
		}

		mine, theirs, err := lockSlotPair(ctx, slots, locked.MySlotID, locked.TheirSlotID)
		if err != nil {
			return err
		}
		if mine == nil || theirs == nil {
			return fmt.Errorf("%w: referenced slot is missing", ErrConflict)
		}

		if accept {
			for _, step := range []struct {
				slotID, newOwner uuid.UUID
			}{
				{mine.ID, theirs.OwnerID},
				{theirs.ID, mine.OwnerID},
			} {
				matched, err := slots.SetOwnerStatus(ctx, step.slotID, step.newOwner, model.SlotStatusBusy)
				if err != nil {
					return fmt.Errorf("exchange slot owner: %w", err)
				}
				if !matched {
					return fmt.Errorf("%w: slot %s left SWAP_PENDING unexpectedly", ErrConflict, step.slotID)
				}
			}
		} else {
			for _, id := range []uuid.UUID{mine.ID, theirs.ID} {
				matched, err := slots.SetStatus(ctx, id, model.SlotStatusSwapPending, model.SlotStatusSwappable)
				if err != nil {
					return fmt.Errorf("release slot: %w", err)
				}
				if !matched {
					return fmt.Errorf("%w: slot %s left SWAP_PENDING unexpectedly", ErrConflict, id)
				}
			}
		}

		now := time.Now().UTC()
		matched, err := swaps.Decide(ctx, requestID, decision, now)
		if err != nil {
			return fmt.Errorf("decide request: %w", err)
		}
		if !matched {
			return fmt.Errorf("%w: request already decided", ErrInvalidState)
		}

		decided = locked
		decided.Status = decision
		decided.DecidedAt = &now
		return nil
	})
	if err != nil {
		return nil, storeFailure("respond to swap", err)
	}

	s.logger.Info("Swap decided",
		zap.String("request_id", requestID.String()),
		zap.String("responder_id", responderID.String()),
		zap.String("status", string(decision)),
	)

	// Post-commit, best-effort, both parties
	payload := notify.SwapUpdatePayload{RequestID: decided.ID, Status: string(decision)}
	s.dispatcher.Notify(ctx, decided.RequesterID, notify.EventSwapUpdate, payload)
	s.dispatcher.Notify(ctx, decided.ResponderID, notify.EventSwapUpdate, payload)

	return decided, nil
}

// List returns the user's incoming (they respond) and outgoing (they
// asked) requests, newest first, with slots and counterparties attached
// for display. Read-only.
func (s *SwapService) List(ctx context.Context, userID uuid.UUID) (*model.SwapInbox, error) {
	incoming, err := s.swaps.ListByResponder(ctx, userID)
	if err != nil {
		return nil, storeFailure("list incoming requests", err)
	}
	outgoing, err := s.swaps.ListByRequester(ctx, userID)
	if err != nil {
		return nil, storeFailure("list outgoing requests", err)
	}

	if err := s.attachDetails(ctx, append(append([]*model.SwapRequest{}, incoming...), outgoing...)); err != nil {
		return nil, storeFailure("attach request details", err)
	}

	if incoming == nil {
		incoming = []*model.SwapRequest{}
	}
	if outgoing == nil {
		outgoing = []*model.SwapRequest{}
	}
	return &model.SwapInbox{Incoming: incoming, Outgoing: outgoing}, nil
}

func (s *SwapService) attachDetails(ctx context.Context, reqs []*model.SwapRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	slotIDs := make([]uuid.UUID, 0, len(reqs)*2)
	userIDs := make([]uuid.UUID, 0, len(reqs)*2)
	for _, r := range reqs {
		slotIDs = append(slotIDs, r.MySlotID, r.TheirSlotID)
		userIDs = append(userIDs, r.RequesterID, r.ResponderID)
	}

	slots, err := s.slots.GetMany(ctx, slotIDs)
	if err != nil {
		return err
	}
	users, err := s.users.GetMany(ctx, userIDs)
	if err != nil {
		return err
	}

	for _, r := range reqs {
		r.MySlot = slots[r.MySlotID]
		r.TheirSlot = slots[r.TheirSlotID]
		r.Requester = users[r.RequesterID]
		r.Responder = users[r.ResponderID]
	}
	return nil
}

// lockSlotPair reads both slots with row locks, always in ascending id
// order regardless of argument order, and returns them matched back to
// the caller's order.
func lockSlotPair(ctx context.Context, slots SlotStore, a, b uuid.UUID) (*model.Slot, *model.Slot, error) {
	first, second := a, b
	if bytes.Compare(b[:], a[:]) < 0 {
		first, second = b, a
	}

	s1, err := slots.GetForUpdate(ctx, first)
	if err != nil {
		return nil, nil, fmt.Errorf("lock slot: %w", err)
	}
	s2, err := slots.GetForUpdate(ctx, second)
	if err != nil {
		return nil, nil, fmt.Errorf("lock slot: %w", err)
	}

	if first == a {
		return s1, s2, nil
	}
	return s2, s1, nil
}

// storeFailure passes domain errors through untouched and brands
// everything else as transient infrastructure failure the caller may
// retry.
func storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
}
