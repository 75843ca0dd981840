package events

import (
	"errors"
	"sync"
)

// ErrSubscriberFull is returned when a subscriber cannot accept more events.
var ErrSubscriberFull = errors.New("subscriber buffer full")

// ErrSubscriberClosed is returned when sending to a closed subscriber.
var ErrSubscriberClosed = errors.New("subscriber closed")

// Subscriber is an interface for event consumers.
type Subscriber interface {
	// Send delivers an event to the subscriber. It must not block.
	Send(Event) error

	// Close cleanly shuts down the subscriber.
	Close() error
}

// ChannelSubscriber buffers events on a channel.
type ChannelSubscriber struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewChannelSubscriber creates a subscriber with the given buffer size.
func NewChannelSubscriber(size int) *ChannelSubscriber {
	return &ChannelSubscriber{ch: make(chan Event, size)}
}

// Events returns the receive side. It is closed when the subscriber closes.
func (s *ChannelSubscriber) Events() <-chan Event {
	return s.ch
}

// Send implements Subscriber. Events are dropped when the buffer is full.
func (s *ChannelSubscriber) Send(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubscriberClosed
	}
	select {
	case s.ch <- e:
		return nil
	default:
		return ErrSubscriberFull
	}
}

// Close implements Subscriber.
func (s *ChannelSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

// funcSubscriber adapts a function to the Subscriber interface.
type funcSubscriber struct {
	fn func(Event)
}

// SubscriberFunc returns a Subscriber that calls fn for every event.
// fn runs on the broker goroutine and must return quickly.
func SubscriberFunc(fn func(Event)) Subscriber {
	return &funcSubscriber{fn: fn}
}

// Send implements Subscriber.
func (f *funcSubscriber) Send(e Event) error {
	f.fn(e)
	return nil
}

// Close implements Subscriber.
func (f *funcSubscriber) Close() error {
	return nil
}
