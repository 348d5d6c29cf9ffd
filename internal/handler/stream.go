package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Freeeeeet/slotswap/internal/notify"
)

// EventsHandler attaches a client to the notification hub over
// server-sent events. The subscription lives exactly as long as the
// connection: registered here, cancelled on disconnect.
type EventsHandler struct {
	hub    *notify.Hub
	logger *zap.Logger
}

func NewEventsHandler(hub *notify.Hub, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger}
}

// Stream handles GET /api/events/stream
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	userID := CurrentUser(r.Context())
	events, cancel := h.hub.Subscribe(userID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Debug("Event stream attached", zap.String("user_id", userID.String()))

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("Event stream detached", zap.String("user_id", userID.String()))
			return
		case msg := <-events:
			body, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, body)
			flusher.Flush()
		}
	}
}
