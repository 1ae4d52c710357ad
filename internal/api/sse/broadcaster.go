package sse

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/paradox/internal/model"
)

// Broadcaster publishes committed economy events to the hub as JSON. It
// satisfies progression.Notifier.
type Broadcaster struct {
	hub    *Hub
	logger *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// Publish sends event to every interested client
func (b *Broadcaster) Publish(event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("sse failed to encode event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}
	b.hub.BroadcastEvent(string(event.Type), event.IdentityID, string(data))
}
