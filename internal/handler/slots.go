package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slotswap/internal/model"
	"github.com/Freeeeeet/slotswap/internal/service"
)

// SlotHandler serves the single-owner slot management API.
type SlotHandler struct {
	svc    *service.SlotService
	logger *zap.Logger
}

func NewSlotHandler(svc *service.SlotService, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{svc: svc, logger: logger}
}

type createSlotRequest struct {
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status,omitempty"`
}

type updateSlotRequest struct {
	Title     *string    `json:"title,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Status    *string    `json:"status,omitempty"`
}

// Create handles POST /api/slots
func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	in := service.CreateSlotInput{
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if req.Status != "" {
		status, err := model.ParseSlotStatus(req.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Status = status
	}

	slot, err := h.svc.Create(r.Context(), CurrentUser(r.Context()), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

// ListMine handles GET /api/slots
func (h *SlotHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	slots, err := h.svc.ListMine(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// ListSwappable handles GET /api/swappable-slots
func (h *SlotHandler) ListSwappable(w http.ResponseWriter, r *http.Request) {
	slots, err := h.svc.ListSwappable(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// Update handles PUT /api/slots/{id}
func (h *SlotHandler) Update(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot id")
		return
	}

	var req updateSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	in := service.UpdateSlotInput{
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if req.Status != nil {
		status, err := model.ParseSlotStatus(*req.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Status = &status
	}

	slot, err := h.svc.Update(r.Context(), CurrentUser(r.Context()), slotID, in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

// Delete handles DELETE /api/slots/{id}
func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot id")
		return
	}

	if err := h.svc.Delete(r.Context(), CurrentUser(r.Context()), slotID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
