package bus

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// MemoryBus is an in-process Bus. It serves single-node deployments and
// the test suite; multi-node deployments use RedisBus so events reach
// subscribers connected to other instances.
type MemoryBus struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscription]struct{}
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{rooms: make(map[string]map[*Subscription]struct{})}
}

func (b *MemoryBus) Publish(_ context.Context, roomID string, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.rooms[roomID] {
		select {
		case sub.C <- ev:
		default:
			// slow subscriber: drop, delivery is best-effort
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, roomID string) (*Subscription, error) {
	c := make(chan Event, subscriberBuffer)
	var sub *Subscription
	sub = NewSubscription(c, func() {
		b.mu.Lock()
		if subs, ok := b.rooms[roomID]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(b.rooms, roomID)
			}
		}
		b.mu.Unlock()
		close(c)
	})

	b.mu.Lock()
	if b.rooms[roomID] == nil {
		b.rooms[roomID] = make(map[*Subscription]struct{})
	}
	b.rooms[roomID][sub] = struct{}{}
	b.mu.Unlock()
	return sub, nil
}
