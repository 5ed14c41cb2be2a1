package service

import (
	"context"
	"time"

	"github.com/tims-exe/secure-chat/internal/bus"
	"github.com/tims-exe/secure-chat/internal/idgen"
	"github.com/tims-exe/secure-chat/internal/models"
	"github.com/tims-exe/secure-chat/internal/repo"
)

// MessageService is the relay and store for ciphertext envelopes: a dumb,
// ordered, TTL-bound append log plus a redaction view. It never interprets
// ciphertext.
type MessageService struct {
	repo repo.RoomRepo
	bus  bus.Bus
}

func NewMessageService(r repo.RoomRepo, b bus.Bus) *MessageService {
	return &MessageService{repo: r, bus: b}
}

// Post appends an envelope to the room's message log, re-synchronizes the
// sibling TTLs and emits chat.message with the envelope minus the owning
// token.
func (s *MessageService) Post(ctx context.Context, roomID, token, sender, ciphertext, iv string) (models.Envelope, error) {
	exists, err := s.repo.RoomExists(ctx, roomID)
	if err != nil {
		return models.Envelope{}, err
	}
	if !exists {
		return models.Envelope{}, ErrRoomNotFound
	}

	env := models.Envelope{
		ID:         idgen.NewMessageID(),
		Sender:     sender,
		Ciphertext: ciphertext,
		IV:         iv,
		Timestamp:  time.Now().UnixMilli(),
		RoomID:     roomID,
		Token:      token,
	}
	if err := s.repo.AppendMessage(ctx, roomID, env); err != nil {
		return models.Envelope{}, err
	}
	if err := s.repo.SyncTTL(ctx, roomID); err != nil {
		return models.Envelope{}, err
	}

	broadcast := env
	broadcast.Token = "" // session identity never leaves the store
	ev, err := bus.NewEvent(bus.EventMessage, broadcast)
	if err != nil {
		return models.Envelope{}, err
	}
	if err := s.bus.Publish(ctx, roomID, ev); err != nil {
		return models.Envelope{}, err
	}
	return env, nil
}

// List returns the full append-ordered sequence with the owning token
// visible only on envelopes posted under callerToken. The redaction lets a
// client tell its own sends apart from the counterpart's without leaking
// session identity.
func (s *MessageService) List(ctx context.Context, roomID, callerToken string) ([]models.Envelope, error) {
	exists, err := s.repo.RoomExists(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRoomNotFound
	}

	envs, err := s.repo.ListMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Envelope, 0, len(envs))
	for _, env := range envs {
		out = append(out, env.Redacted(callerToken))
	}
	return out, nil
}
