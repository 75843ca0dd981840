// Package events distributes storefront state changes to subscribers.
//
// Components publish to a Broker; the broker fans every event out, in publish
// order, to each registered Subscriber (CLI printers, websocket streams, tests).
package events

import "time"

// EventType represents the type of storefront event.
type EventType string

// Event types.
const (
	// View-state snapshots from the controller.
	StateChanged EventType = "state.changed"

	// Fetch lifecycle.
	FetchStarted   EventType = "fetch.started"
	FetchCompleted EventType = "fetch.completed"
	FetchFailed    EventType = "fetch.failed"

	// Product changes between consecutive successful fetches.
	ProductAdded   EventType = "product.added"
	ProductUpdated EventType = "product.updated"
	ProductRemoved EventType = "product.removed"

	// Connectivity transitions.
	ConnectivityLost     EventType = "connectivity.lost"
	ConnectivityRestored EventType = "connectivity.restored"

	// Stream clients.
	ClientConnected EventType = "client.connected"
)

// Event represents a storefront event with type, timestamp, and data.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}
