package handler

import (
	"net/http"

	"github.com/mcoot/paradox/internal/api/sse"
	"github.com/mcoot/paradox/internal/model"
)

// EventsHandler streams committed economy events over SSE
type EventsHandler struct {
	hub *sse.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *sse.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /api/v1/events. An identity_id query parameter limits
// the stream to events about that identity.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sse.ServeSSE(w, r, h.hub, model.IdentityID(r.URL.Query().Get("identity_id")))
}
