package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slotswap/internal/model"
	"github.com/Freeeeeet/slotswap/internal/service"
	"github.com/Freeeeeet/slotswap/internal/testutil"
)

func newSlotService(store *testutil.MemStore) *service.SlotService {
	return service.NewSlotService(store.SlotStore(), store.UserStore(), zap.NewNop())
}

func validInput() service.CreateSlotInput {
	start := time.Now().UTC().Add(48 * time.Hour)
	return service.CreateSlotInput{
		Title:     "tuesday shift",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}
}

func TestSlotCreate(t *testing.T) {
	store := testutil.NewMemStore()
	svc := newSlotService(store)
	owner := store.AddUser("alice")

	slot, err := svc.Create(context.Background(), owner.ID, validInput())
	require.NoError(t, err)
	require.Equal(t, owner.ID, slot.OwnerID)
	require.Equal(t, model.SlotStatusBusy, slot.Status, "status defaults to BUSY")
	require.NotNil(t, store.Slot(slot.ID))
}

func TestSlotCreate_Validation(t *testing.T) {
	store := testutil.NewMemStore()
	svc := newSlotService(store)
	owner := store.AddUser("alice")

	for _, tc := range []struct {
		name   string
		mutate func(*service.CreateSlotInput)
	}{
		{"empty title", func(in *service.CreateSlotInput) { in.Title = "  " }},
		{"zero start", func(in *service.CreateSlotInput) { in.StartTime = time.Time{} }},
		{"end before start", func(in *service.CreateSlotInput) { in.EndTime = in.StartTime.Add(-time.Hour) }},
		{"created as pending", func(in *service.CreateSlotInput) { in.Status = model.SlotStatusSwapPending }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), owner.ID, in)
			require.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func TestSlotUpdate_OwnerStatusToggle(t *testing.T) {
	store := testutil.NewMemStore()
	svc := newSlotService(store)
	owner := store.AddUser("alice")
	slot := store.AddSlot(owner.ID, "shift", model.SlotStatusBusy)

	swappable := model.SlotStatusSwappable
	updated, err := svc.Update(context.Background(), owner.ID, slot.ID, service.UpdateSlotInput{Status: &swappable})
	require.NoError(t, err)
	require.Equal(t, model.SlotStatusSwappable, updated.Status)
	require.Equal(t, model.SlotStatusSwappable, store.Slot(slot.ID).Status)

	busy := model.SlotStatusBusy
	_, err = svc.Update(context.Background(), owner.ID, slot.ID, service.UpdateSlotInput{Status: &busy})
	require.NoError(t, err)
	require.Equal(t, model.SlotStatusBusy, store.Slot(slot.ID).Status)
}

func TestSlotUpdate_OwnerCannotTouchPending(t *testing.T) {
	store := testutil.NewMemStore()
	svc := newSlotService(store)
	owner := store.AddUser("alice")
	slot := store.AddSlot(owner.ID, "shift", model.SlotStatusSwapPending)

	busy := model.SlotStatusBusy
	_, err := svc.Update(context.Background(), owner.ID, slot.ID, service.UpdateSlotInput{Status: &busy})
	require.ErrorIs(t, err, service.ErrInvalidState)

	title := "renamed"
	_, err = svc.Update(context.Background(), owner.ID, slot.ID, service.UpdateSlotInput{Title: &title})
	require.ErrorIs(t, err, service.ErrInvalidState)

	require.Equal(t, "shift", store.Slot(slot.ID).Title)
	require.Equal(t, model.SlotStatusSwapPending, store.Slot(slot.ID).Status)
}

func TestSlotUpdate_NotOwner(t *testing.T) {
	store := testutil.NewMemStore()
	svc := newSlotService(store)
	owner := store.AddUser("alice")
	other := store.AddUser("bob")
	slot := store.AddSlot(owner.ID, "shift", model.SlotStatusBusy)

	title := "stolen"
	_, err := svc.Update(context.Background(), other.ID, slot.ID, service.UpdateSlotInput{Title: &title})
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestSlotDelete(t *testing.T) {
	store := testutil.NewMemStore()
	svc := newSlotService(store)
	owner := store.AddUser("alice")

	slot := store.AddSlot(owner.ID, "shift", model.SlotStatusBusy)
	require.NoError(t, svc.Delete(context.Background(), owner.ID, slot.ID))
	require.Nil(t, store.Slot(slot.ID))

	pending := store.AddSlot(owner.ID, "negotiating", model.SlotStatusSwapPending)
	err := svc.Delete(context.Background(), owner.ID, pending.ID)
	require.ErrorIs(t, err, service.ErrInvalidState)
	require.NotNil(t, store.Slot(pending.ID))
}

func TestListSwappable_MarketplaceView(t *testing.T) {
	store := testutil.NewMemStore()
	svc := newSlotService(store)

	alice := store.AddUser("alice")
	bob := store.AddUser("bob")
	store.AddSlot(alice.ID, "own swappable", model.SlotStatusSwappable)
	store.AddSlot(bob.ID, "busy", model.SlotStatusBusy)
	offered := store.AddSlot(bob.ID, "offered", model.SlotStatusSwappable)

	slots, err := svc.ListSwappable(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, offered.ID, slots[0].ID)
	require.NotNil(t, slots[0].Owner, "owner summary attached for display")
	require.Equal(t, "bob", slots[0].Owner.Name)
}
