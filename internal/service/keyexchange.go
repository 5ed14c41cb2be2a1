package service

import (
	"context"

	"github.com/tims-exe/secure-chat/internal/bus"
	"github.com/tims-exe/secure-chat/internal/models"
	"github.com/tims-exe/secure-chat/internal/repo"
)

// KeyExchangeService relays exported public keys between the two
// participants. Private keys and derived secrets never reach the server:
// each browser derives the shared secret locally from its own private key
// and the counterpart's published public key.
type KeyExchangeService struct {
	repo repo.RoomRepo
	bus  bus.Bus
}

func NewKeyExchangeService(r repo.RoomRepo, b bus.Bus) *KeyExchangeService {
	return &KeyExchangeService{repo: r, bus: b}
}

// Share stores (or overwrites) the room's public-key record for username,
// re-synchronizes the sibling TTLs and emits chat.keyShared so the
// counterpart can derive the shared secret without polling.
func (s *KeyExchangeService) Share(ctx context.Context, roomID, username, publicKey string) error {
	exists, err := s.repo.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoomNotFound
	}

	if err := s.repo.PutKey(ctx, roomID, username, publicKey); err != nil {
		return err
	}
	if err := s.repo.SyncTTL(ctx, roomID); err != nil {
		return err
	}

	ev, err := bus.NewEvent(bus.EventKeyShared, models.KeySharedPayload{
		Username:  username,
		PublicKey: publicKey,
	})
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, roomID, ev)
}

// List returns the current username → public-key mapping; empty before
// either party has published. Each client excludes its own username to
// find the counterpart's key.
func (s *KeyExchangeService) List(ctx context.Context, roomID string) (map[string]string, error) {
	exists, err := s.repo.RoomExists(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRoomNotFound
	}
	return s.repo.ListKeys(ctx, roomID)
}
