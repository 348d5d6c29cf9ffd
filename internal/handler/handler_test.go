package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slotswap/internal/handler"
	"github.com/Freeeeeet/slotswap/internal/model"
	"github.com/Freeeeeet/slotswap/internal/notify"
	"github.com/Freeeeeet/slotswap/internal/service"
	"github.com/Freeeeeet/slotswap/internal/testutil"
)

type testAPI struct {
	store  *testutil.MemStore
	router chi.Router
}

func newTestAPI() *testAPI {
	store := testutil.NewMemStore()
	logger := zap.NewNop()
	dispatcher := &testutil.RecordingDispatcher{}

	swapSvc := service.NewSwapService(store, store.SlotStore(), store.SwapStore(), store.UserStore(), dispatcher, logger)
	slotSvc := service.NewSlotService(store.SlotStore(), store.UserStore(), logger)

	router := handler.NewRouter(
		handler.NewSlotHandler(slotSvc, logger),
		handler.NewSwapHandler(swapSvc, logger),
		handler.NewEventsHandler(notify.NewHub(), logger),
		logger,
	)
	return &testAPI{store: store, router: router}
}

func (a *testAPI) do(t *testing.T, userID uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAPI_RequiresIdentity(t *testing.T) {
	api := newTestAPI()

	rec := api.do(t, uuid.Nil, http.MethodGet, "/api/requests", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	req.Header.Set("X-User-ID", "not-a-uuid")
	rec2 := httptest.NewRecorder()
	api.router.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestAPI_Health(t *testing.T) {
	api := newTestAPI()
	rec := api.do(t, uuid.Nil, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

// Full negotiation over the wire: slots created and offered, a proposal,
// an acceptance, and the ownership exchange visible afterwards.
func TestAPI_AcceptedSwapScenario(t *testing.T) {
	api := newTestAPI()
	u1 := api.store.AddUser("alice")
	u2 := api.store.AddUser("bob")

	start := time.Now().UTC().Add(24 * time.Hour)
	rec := api.do(t, u1.ID, http.MethodPost, "/api/slots", map[string]any{
		"title":      "monday shift",
		"start_time": start,
		"end_time":   start.Add(time.Hour),
		"status":     "SWAPPABLE",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	slot1 := decodeBody[model.Slot](t, rec)

	rec = api.do(t, u2.ID, http.MethodPost, "/api/slots", map[string]any{
		"title":      "friday shift",
		"start_time": start.Add(96 * time.Hour),
		"end_time":   start.Add(97 * time.Hour),
		"status":     "SWAPPABLE",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	slot2 := decodeBody[model.Slot](t, rec)

	// Alice sees Bob's slot on the marketplace, not her own
	rec = api.do(t, u1.ID, http.MethodGet, "/api/swappable-slots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	market := decodeBody[[]model.Slot](t, rec)
	require.Len(t, market, 1)
	require.Equal(t, slot2.ID, market[0].ID)

	rec = api.do(t, u1.ID, http.MethodPost, "/api/swap-request", map[string]any{
		"mySlotId":    slot1.ID,
		"theirSlotId": slot2.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	swap := decodeBody[model.SwapRequest](t, rec)
	require.Equal(t, model.SwapStatusPending, swap.Status)

	require.Equal(t, model.SlotStatusSwapPending, api.store.Slot(slot1.ID).Status)
	require.Equal(t, model.SlotStatusSwapPending, api.store.Slot(slot2.ID).Status)

	// Bob sees the incoming request with details attached
	rec = api.do(t, u2.ID, http.MethodGet, "/api/requests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decodeBody[model.SwapInbox](t, rec)
	require.Len(t, inbox.Incoming, 1)
	require.NotNil(t, inbox.Incoming[0].Requester)
	require.Equal(t, "alice", inbox.Incoming[0].Requester.Name)

	rec = api.do(t, u2.ID, http.MethodPost, "/api/swap-response/"+swap.ID.String(), map[string]any{
		"accepted": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decided := decodeBody[model.SwapRequest](t, rec)
	require.Equal(t, model.SwapStatusAccepted, decided.Status)

	require.Equal(t, u2.ID, api.store.Slot(slot1.ID).OwnerID)
	require.Equal(t, u1.ID, api.store.Slot(slot2.ID).OwnerID)
	require.Equal(t, model.SlotStatusBusy, api.store.Slot(slot1.ID).Status)
	require.Equal(t, model.SlotStatusBusy, api.store.Slot(slot2.ID).Status)
}

func TestAPI_RejectedSwapScenario(t *testing.T) {
	api := newTestAPI()
	u1 := api.store.AddUser("alice")
	u2 := api.store.AddUser("bob")
	slot1 := api.store.AddSlot(u1.ID, "mine", model.SlotStatusSwappable)
	slot2 := api.store.AddSlot(u2.ID, "theirs", model.SlotStatusSwappable)

	rec := api.do(t, u1.ID, http.MethodPost, "/api/swap-request", map[string]any{
		"mySlotId":    slot1.ID,
		"theirSlotId": slot2.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	swap := decodeBody[model.SwapRequest](t, rec)

	rec = api.do(t, u2.ID, http.MethodPost, "/api/swap-response/"+swap.ID.String(), map[string]any{
		"accepted": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, u1.ID, api.store.Slot(slot1.ID).OwnerID)
	require.Equal(t, u2.ID, api.store.Slot(slot2.ID).OwnerID)
	require.Equal(t, model.SlotStatusSwappable, api.store.Slot(slot1.ID).Status)
	require.Equal(t, model.SlotStatusSwappable, api.store.Slot(slot2.ID).Status)
}

func TestAPI_ErrorMapping(t *testing.T) {
	api := newTestAPI()
	u1 := api.store.AddUser("alice")
	u2 := api.store.AddUser("bob")
	intruder := api.store.AddUser("mallory")
	slot1 := api.store.AddSlot(u1.ID, "mine", model.SlotStatusSwappable)
	slot2 := api.store.AddSlot(u2.ID, "theirs", model.SlotStatusSwappable)
	busy := api.store.AddSlot(u2.ID, "busy", model.SlotStatusBusy)

	// Missing slot -> 404
	rec := api.do(t, u1.ID, http.MethodPost, "/api/swap-request", map[string]any{
		"mySlotId":    slot1.ID,
		"theirSlotId": uuid.New(),
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Wrong status -> 400
	rec = api.do(t, u1.ID, http.MethodPost, "/api/swap-request", map[string]any{
		"mySlotId":    slot1.ID,
		"theirSlotId": busy.ID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown status value is rejected at the boundary -> 400
	rec = api.do(t, u1.ID, http.MethodPost, "/api/slots", map[string]any{
		"title":      "x",
		"start_time": time.Now().UTC(),
		"end_time":   time.Now().UTC().Add(time.Hour),
		"status":     "FREE",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, u1.ID, http.MethodPost, "/api/swap-request", map[string]any{
		"mySlotId":    slot1.ID,
		"theirSlotId": slot2.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	swap := decodeBody[model.SwapRequest](t, rec)

	// Counter-proposal over slots already SWAP_PENDING -> 400
	rec = api.do(t, u2.ID, http.MethodPost, "/api/swap-request", map[string]any{
		"mySlotId":    slot2.ID,
		"theirSlotId": slot1.ID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Not the responder -> 403
	rec = api.do(t, intruder.ID, http.MethodPost, "/api/swap-response/"+swap.ID.String(), map[string]any{
		"accepted": true,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Decide, then decide again -> 400 already decided
	rec = api.do(t, u2.ID, http.MethodPost, "/api/swap-response/"+swap.ID.String(), map[string]any{
		"accepted": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, u2.ID, http.MethodPost, "/api/swap-response/"+swap.ID.String(), map[string]any{
		"accepted": true,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown request -> 404
	rec = api.do(t, u2.ID, http.MethodPost, "/api/swap-response/"+uuid.New().String(), map[string]any{
		"accepted": true,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ConflictMapsTo409(t *testing.T) {
	api := newTestAPI()
	u1 := api.store.AddUser("alice")
	u2 := api.store.AddUser("bob")
	u3 := api.store.AddUser("carol")
	mine := api.store.AddSlot(u1.ID, "mine", model.SlotStatusSwappable)
	rival := api.store.AddSlot(u3.ID, "rival", model.SlotStatusSwappable)
	contested := api.store.AddSlot(u2.ID, "contested", model.SlotStatusSwappable)

	// Carol wins the race inside Alice's request handling
	api.store.BeforeTx = func() {
		rec := api.do(t, u3.ID, http.MethodPost, "/api/swap-request", map[string]any{
			"mySlotId":    rival.ID,
			"theirSlotId": contested.ID,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := api.do(t, u1.ID, http.MethodPost, "/api/swap-request", map[string]any{
		"mySlotId":    mine.ID,
		"theirSlotId": contested.ID,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}
