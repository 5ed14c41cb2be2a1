package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tims-exe/secure-chat/internal/models"
)

// MemoryRoomRepo is a thread-safe in-memory RoomRepo with deadline-based
// expiry. It mirrors the Redis implementation's semantics, including
// per-record expiry horizons, and backs the test suite so no Redis
// instance is needed.
type MemoryRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*memoryRoom
}

type memoryRoom struct {
	meta     models.Room
	tokens   map[string]struct{}
	keys     map[string]string
	messages []models.Envelope

	// each sibling record carries its own deadline, like separate store keys
	metaDeadline     time.Time
	tokensDeadline   time.Time
	keysDeadline     time.Time
	messagesDeadline time.Time
}

func NewMemoryRoomRepo() *MemoryRoomRepo {
	return &MemoryRoomRepo{rooms: make(map[string]*memoryRoom)}
}

// live returns the room if its metadata deadline has not passed. Expired
// rooms are dropped lazily, matching the store's purge-on-expiry.
func (mr *MemoryRoomRepo) live(roomID string) *memoryRoom {
	room, ok := mr.rooms[roomID]
	if !ok {
		return nil
	}
	if time.Now().After(room.metaDeadline) {
		delete(mr.rooms, roomID)
		return nil
	}
	return room
}

func (mr *MemoryRoomRepo) CreateRoom(_ context.Context, room models.Room, ttlSec int) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if mr.live(room.RoomID) != nil {
		return errors.New("room already exists")
	}
	deadline := time.Now().Add(time.Duration(ttlSec) * time.Second)
	mr.rooms[room.RoomID] = &memoryRoom{
		meta:             room,
		tokens:           make(map[string]struct{}),
		keys:             make(map[string]string),
		metaDeadline:     deadline,
		tokensDeadline:   deadline,
		keysDeadline:     deadline,
		messagesDeadline: deadline,
	}
	return nil
}

func (mr *MemoryRoomRepo) RoomExists(_ context.Context, roomID string) (bool, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.live(roomID) != nil, nil
}

func (mr *MemoryRoomRepo) RemainingTTL(_ context.Context, roomID string) (int64, bool, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	room := mr.live(roomID)
	if room == nil {
		return 0, false, nil
	}
	remaining := int64(time.Until(room.metaDeadline) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true, nil
}

func (mr *MemoryRoomRepo) SyncTTL(_ context.Context, roomID string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	room := mr.live(roomID)
	if room == nil {
		return nil
	}
	room.tokensDeadline = room.metaDeadline
	room.keysDeadline = room.metaDeadline
	room.messagesDeadline = room.metaDeadline
	return nil
}

func (mr *MemoryRoomRepo) DestroyRoom(_ context.Context, roomID string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	delete(mr.rooms, roomID)
	return nil
}

func (mr *MemoryRoomRepo) AdmitToken(_ context.Context, roomID, token string) (AdmitResult, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	room := mr.live(roomID)
	if room == nil {
		return AdmitRoomGone, nil
	}
	if _, ok := room.tokens[token]; ok {
		return AdmitOK, nil
	}
	if len(room.tokens) >= RoomCapacity {
		return AdmitRoomFull, nil
	}
	room.tokens[token] = struct{}{}
	room.tokensDeadline = room.metaDeadline
	return AdmitOK, nil
}

func (mr *MemoryRoomRepo) HasToken(_ context.Context, roomID, token string) (bool, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	room := mr.live(roomID)
	if room == nil {
		return false, nil
	}
	_, ok := room.tokens[token]
	return ok, nil
}

func (mr *MemoryRoomRepo) TokenCount(_ context.Context, roomID string) (int64, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	room := mr.live(roomID)
	if room == nil {
		return 0, nil
	}
	return int64(len(room.tokens)), nil
}

func (mr *MemoryRoomRepo) PutKey(_ context.Context, roomID, username, publicKey string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	room := mr.live(roomID)
	if room == nil {
		return nil
	}
	room.keys[username] = publicKey
	return nil
}

func (mr *MemoryRoomRepo) ListKeys(_ context.Context, roomID string) (map[string]string, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	out := map[string]string{}
	room := mr.live(roomID)
	if room == nil {
		return out, nil
	}
	for k, v := range room.keys {
		out[k] = v
	}
	return out, nil
}

func (mr *MemoryRoomRepo) AppendMessage(_ context.Context, roomID string, env models.Envelope) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	room := mr.live(roomID)
	if room == nil {
		return nil
	}
	room.messages = append(room.messages, env)
	return nil
}

func (mr *MemoryRoomRepo) ListMessages(_ context.Context, roomID string) ([]models.Envelope, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	room := mr.live(roomID)
	if room == nil {
		return []models.Envelope{}, nil
	}
	out := make([]models.Envelope, len(room.messages))
	copy(out, room.messages)
	return out, nil
}

// recordDeadlines reports the deadlines of the room's sibling records.
// Exposed for tests that check the TTL synchronization invariant.
func (mr *MemoryRoomRepo) recordDeadlines(roomID string) (meta, tokens, keys, messages time.Time, ok bool) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	room := mr.live(roomID)
	if room == nil {
		return
	}
	return room.metaDeadline, room.tokensDeadline, room.keysDeadline, room.messagesDeadline, true
}
