package wsstream

import "github.com/agentstation/storefront/internal/events"

var _ events.Subscriber = (*Subscriber)(nil)

// Subscriber adapts the hub to the events.Subscriber interface.
type Subscriber struct {
	hub *Hub
}

// NewSubscriber creates a broker subscriber that forwards to hub.
func NewSubscriber(hub *Hub) *Subscriber {
	return &Subscriber{hub: hub}
}

// Send delivers an event to all WebSocket clients.
func (s *Subscriber) Send(event events.Event) error {
	s.hub.Broadcast(event)
	return nil
}

// Close is a no-op; the hub manages its own lifecycle.
func (s *Subscriber) Close() error {
	return nil
}
