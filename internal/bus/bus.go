// Package bus is the per-room publish/subscribe channel used for
// real-time delivery. Delivery is best-effort with a single attempt per
// subscriber: there is no acknowledgment, replay or backpressure, and a
// client that missed events reconciles via the authoritative list
// endpoints.
package bus

import (
	"context"
	"encoding/json"
	"sync"
)

// Event types carried on a room channel.
const (
	EventMessage   = "chat.message"
	EventKeyShared = "chat.keyShared"
	EventDestroy   = "chat.destroy"
)

// EventVersion is the current payload schema version.
const EventVersion = 1

// Event is a typed, versioned payload broadcast on a room channel.
type Event struct {
	V       int             `json:"v"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent builds an Event of the given type from a payload value.
func NewEvent(eventType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{V: EventVersion, Type: eventType, Payload: b}, nil
}

// Subscription is one client's attachment to a room channel. Close it to
// unsubscribe; C is closed afterwards.
type Subscription struct {
	C chan Event

	closeOnce sync.Once
	closeFn   func()
}

// NewSubscription wraps a delivery channel and a teardown hook. closeFn
// runs exactly once, on the first Close.
func NewSubscription(c chan Event, closeFn func()) *Subscription {
	return &Subscription{C: c, closeFn: closeFn}
}

func (s *Subscription) Close() {
	s.closeOnce.Do(s.closeFn)
}

// Bus broadcasts events to the current subscribers of a room channel.
type Bus interface {
	Publish(ctx context.Context, roomID string, ev Event) error
	Subscribe(ctx context.Context, roomID string) (*Subscription, error)
}
