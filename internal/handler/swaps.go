package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slotswap/internal/service"
)

// SwapHandler serves the swap negotiation API.
type SwapHandler struct {
	svc    *service.SwapService
	logger *zap.Logger
}

func NewSwapHandler(svc *service.SwapService, logger *zap.Logger) *SwapHandler {
	return &SwapHandler{svc: svc, logger: logger}
}

type proposeRequest struct {
	MySlotID    uuid.UUID `json:"mySlotId"`
	TheirSlotID uuid.UUID `json:"theirSlotId"`
}

type respondRequest struct {
	Accepted bool `json:"accepted"`
}

// Propose handles POST /api/swap-request
func (h *SwapHandler) Propose(w http.ResponseWriter, r *http.Request) {
	var req proposeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.MySlotID == uuid.Nil || req.TheirSlotID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "missing slot ids")
		return
	}

	swap, err := h.svc.Propose(r.Context(), CurrentUser(r.Context()), req.MySlotID, req.TheirSlotID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, swap)
}

// Respond handles POST /api/swap-response/{requestID}
func (h *SwapHandler) Respond(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req respondRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	swap, err := h.svc.Respond(r.Context(), requestID, CurrentUser(r.Context()), req.Accepted)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, swap)
}

// List handles GET /api/requests
func (h *SwapHandler) List(w http.ResponseWriter, r *http.Request) {
	inbox, err := h.svc.List(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inbox)
}
