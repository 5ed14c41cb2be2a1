package service

import (
	"context"
	"sync"
	"testing"

	"github.com/tims-exe/secure-chat/internal/bus"
	"github.com/tims-exe/secure-chat/internal/repo"
)

// captureBus records published events and optionally runs a hook inside
// Publish, which lets tests observe store state at broadcast time.
type captureBus struct {
	mu        sync.Mutex
	events    []capturedEvent
	onPublish func(roomID string, ev bus.Event)
}

type capturedEvent struct {
	roomID string
	ev     bus.Event
}

func (b *captureBus) Publish(_ context.Context, roomID string, ev bus.Event) error {
	b.mu.Lock()
	b.events = append(b.events, capturedEvent{roomID: roomID, ev: ev})
	hook := b.onPublish
	b.mu.Unlock()
	if hook != nil {
		hook(roomID, ev)
	}
	return nil
}

func (b *captureBus) Subscribe(_ context.Context, _ string) (*bus.Subscription, error) {
	c := make(chan bus.Event, 16)
	return bus.NewSubscription(c, func() { close(c) }), nil
}

func (b *captureBus) captured() []capturedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]capturedEvent, len(b.events))
	copy(out, b.events)
	return out
}

func newTestServices(ttlSec int) (*repo.MemoryRoomRepo, *captureBus, *RoomService, *AdmissionService, *KeyExchangeService, *MessageService) {
	mr := repo.NewMemoryRoomRepo()
	cb := &captureBus{}
	return mr, cb,
		NewRoomService(mr, cb, ttlSec),
		NewAdmissionService(mr),
		NewKeyExchangeService(mr, cb),
		NewMessageService(mr, cb)
}

func mustCreateRoom(t *testing.T, rooms *RoomService) string {
	t.Helper()
	roomID, err := rooms.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return roomID
}
