package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slotswap/internal/model"
)

// SlotService handles single-owner slot management. Status edits go
// through the owner half of the slot state machine, so a slot caught in
// an active negotiation cannot be touched until the engine releases it.
type SlotService struct {
	slots  SlotStore
	users  UserStore
	logger *zap.Logger
}

func NewSlotService(slots SlotStore, users UserStore, logger *zap.Logger) *SlotService {
	return &SlotService{slots: slots, users: users, logger: logger}
}

// CreateSlotInput carries the owner-supplied fields of a new slot.
type CreateSlotInput struct {
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Status    model.SlotStatus // empty defaults to BUSY
}

func (s *SlotService) Create(ctx context.Context, ownerID uuid.UUID, in CreateSlotInput) (*model.Slot, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return nil, fmt.Errorf("%w: start and end time are required", ErrValidation)
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	if in.Status == "" {
		in.Status = model.SlotStatusBusy
	}
	if in.Status == model.SlotStatusSwapPending {
		return nil, fmt.Errorf("%w: a slot cannot be created as SWAP_PENDING", ErrValidation)
	}

	slot := &model.Slot{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     in.Title,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    in.Status,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, storeFailure("create slot", err)
	}

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("status", string(slot.Status)),
	)
	return slot, nil
}

// ListMine returns the caller's slots ordered by start time.
func (s *SlotService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	slots, err := s.slots.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeFailure("list own slots", err)
	}
	if slots == nil {
		slots = []*model.Slot{}
	}
	return slots, nil
}

// ListSwappable is the marketplace view: other users' SWAPPABLE slots
// with owner summaries attached.
func (s *SlotService) ListSwappable(ctx context.Context, userID uuid.UUID) ([]*model.Slot, error) {
	slots, err := s.slots.ListSwappable(ctx, userID)
	if err != nil {
		return nil, storeFailure("list swappable slots", err)
	}

	ownerIDs := make([]uuid.UUID, 0, len(slots))
	for _, slot := range slots {
		ownerIDs = append(ownerIDs, slot.OwnerID)
	}
	owners, err := s.users.GetMany(ctx, ownerIDs)
	if err != nil {
		return nil, storeFailure("attach slot owners", err)
	}
	for _, slot := range slots {
		slot.Owner = owners[slot.OwnerID]
	}

	if slots == nil {
		slots = []*model.Slot{}
	}
	return slots, nil
}

// UpdateSlotInput carries the fields an owner may change. Nil means
// "leave as is".
type UpdateSlotInput struct {
	Title     *string
	StartTime *time.Time
	EndTime   *time.Time
	Status    *model.SlotStatus
}

// Update edits the caller's slot. Slots that are SWAP_PENDING belong to
// the negotiation until it resolves and refuse every edit.
func (s *SlotService) Update(ctx context.Context, ownerID, slotID uuid.UUID, in UpdateSlotInput) (*model.Slot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, storeFailure("get slot", err)
	}
	if slot == nil || slot.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: slot %s", ErrNotFound, slotID)
	}
	if slot.Status == model.SlotStatusSwapPending {
		return nil, fmt.Errorf("%w: slot is part of an active swap negotiation", ErrInvalidState)
	}

	if in.Status != nil && *in.Status != slot.Status {
		if !model.OwnerCanSet(slot.Status, *in.Status) {
			return nil, fmt.Errorf("%w: cannot change slot from %s to %s", ErrInvalidState, slot.Status, *in.Status)
		}
		matched, err := s.slots.SetStatus(ctx, slotID, slot.Status, *in.Status)
		if err != nil {
			return nil, storeFailure("update slot status", err)
		}
		if !matched {
			// A proposal grabbed the slot between our read and this write.
			return nil, fmt.Errorf("%w: slot status changed concurrently", ErrConflict)
		}
		slot.Status = *in.Status
	}

	if in.Title != nil || in.StartTime != nil || in.EndTime != nil {
		title := slot.Title
		if in.Title != nil {
			title = strings.TrimSpace(*in.Title)
			if title == "" {
				return nil, fmt.Errorf("%w: title is required", ErrValidation)
			}
		}
		start, end := slot.StartTime, slot.EndTime
		if in.StartTime != nil {
			start = *in.StartTime
		}
		if in.EndTime != nil {
			end = *in.EndTime
		}
		if !end.After(start) {
			return nil, fmt.Errorf("%w: end time must be after start time", ErrValidation)
		}

		matched, err := s.slots.UpdateFields(ctx, slotID, ownerID, title, start, end)
		if err != nil {
			return nil, storeFailure("update slot", err)
		}
		if !matched {
			return nil, fmt.Errorf("%w: slot status changed concurrently", ErrConflict)
		}
		slot.Title, slot.StartTime, slot.EndTime = title, start, end
	}

	s.logger.Info("Slot updated",
		zap.String("slot_id", slotID.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return slot, nil
}

// Delete removes the caller's slot unless it is locked into a pending
// negotiation.
func (s *SlotService) Delete(ctx context.Context, ownerID, slotID uuid.UUID) error {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return storeFailure("get slot", err)
	}
	if slot == nil || slot.OwnerID != ownerID {
		return fmt.Errorf("%w: slot %s", ErrNotFound, slotID)
	}
	if slot.Status == model.SlotStatusSwapPending {
		return fmt.Errorf("%w: slot is part of an active swap negotiation", ErrInvalidState)
	}

	matched, err := s.slots.Delete(ctx, slotID, ownerID)
	if err != nil {
		return storeFailure("delete slot", err)
	}
	if !matched {
		return fmt.Errorf("%w: slot status changed concurrently", ErrConflict)
	}

	s.logger.Info("Slot deleted",
		zap.String("slot_id", slotID.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return nil
}
