// Package service holds the business logic: room lifecycle, admission
// control, key-exchange coordination and the message relay.
package service

import (
	"context"
	"log"
	"time"

	"github.com/tims-exe/secure-chat/internal/bus"
	"github.com/tims-exe/secure-chat/internal/idgen"
	"github.com/tims-exe/secure-chat/internal/models"
	"github.com/tims-exe/secure-chat/internal/repo"
)

// RoomService owns the room lifecycle: creation, TTL propagation across
// the room's sibling records, and destruction. A room is ACTIVE while its
// metadata record exists; expiry or destruction removes the record, which
// is the terminal state.
type RoomService struct {
	repo   repo.RoomRepo
	bus    bus.Bus
	ttlSec int
}

func NewRoomService(r repo.RoomRepo, b bus.Bus, ttlSec int) *RoomService {
	return &RoomService{repo: r, bus: b, ttlSec: ttlSec}
}

// Create allocates a fresh room with the fixed default TTL and an empty
// connected-token set. Retries on the rare ID collision.
func (s *RoomService) Create(ctx context.Context) (string, error) {
	const maxRetries = 10

	for i := 0; i < maxRetries; i++ {
		roomID, err := idgen.NewRoomID()
		if err != nil {
			return "", err
		}
		exists, err := s.repo.RoomExists(ctx, roomID)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		room := models.Room{RoomID: roomID, CreatedAt: time.Now().Unix()}
		if err := s.repo.CreateRoom(ctx, room, s.ttlSec); err != nil {
			return "", err
		}
		return roomID, nil
	}
	return "", ErrRoomIDGenerationFailed
}

// RemainingTTL reports the live remaining TTL in seconds, floored to zero,
// and whether the room still exists. Polling clients render "00:00" from a
// zero rather than faulting.
func (s *RoomService) RemainingTTL(ctx context.Context, roomID string) (int64, bool, error) {
	return s.repo.RemainingTTL(ctx, roomID)
}

// Touch re-applies the metadata record's remaining TTL to every sibling
// record so none expires before another.
func (s *RoomService) Touch(ctx context.Context, roomID string) error {
	return s.repo.SyncTTL(ctx, roomID)
}

// Destroy broadcasts chat.destroy and then deletes every record belonging
// to the room. The broadcast happens first so connected clients are told
// while the room channel is still addressable. Destroying an absent or
// already-destroyed room is a no-op.
func (s *RoomService) Destroy(ctx context.Context, roomID string) error {
	exists, err := s.repo.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	ev, err := bus.NewEvent(bus.EventDestroy, models.DestroyPayload{IsDestroyed: true})
	if err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, roomID, ev); err != nil {
		// destruction proceeds even if nobody could be notified
		log.Printf("destroy broadcast failed (roomId=%s): %v", roomID, err)
	}
	return s.repo.DestroyRoom(ctx, roomID)
}
