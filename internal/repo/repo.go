package repo

import (
	"context"

	"github.com/tims-exe/secure-chat/internal/models"
)

// AdmitResult is the outcome of an atomic admission attempt.
type AdmitResult int

const (
	AdmitOK       AdmitResult = iota // token admitted (or already a member)
	AdmitRoomFull                    // both participant slots taken
	AdmitRoomGone                    // room metadata absent or expired
)

// RoomRepo persists a room and its sibling records (token set, public-key
// map, message list) in a TTL-capable store. All records belonging to a
// room must share the same expiry horizon; SyncTTL re-establishes that
// after any write that creates or touches a sibling record.
type RoomRepo interface {
	CreateRoom(ctx context.Context, room models.Room, ttlSec int) error
	RoomExists(ctx context.Context, roomID string) (bool, error)
	// RemainingTTL reports the live TTL of the room metadata in seconds.
	// The boolean is false when the room is absent or expired.
	RemainingTTL(ctx context.Context, roomID string) (int64, bool, error)
	SyncTTL(ctx context.Context, roomID string) error
	// DestroyRoom removes the metadata and every sibling record. Destroying
	// an absent room is a no-op.
	DestroyRoom(ctx context.Context, roomID string) error

	// AdmitToken performs the capacity check and token insertion as one
	// atomic operation. Admitting a token that is already a member succeeds.
	AdmitToken(ctx context.Context, roomID, token string) (AdmitResult, error)
	HasToken(ctx context.Context, roomID, token string) (bool, error)
	TokenCount(ctx context.Context, roomID string) (int64, error)

	PutKey(ctx context.Context, roomID, username, publicKey string) error
	ListKeys(ctx context.Context, roomID string) (map[string]string, error)

	AppendMessage(ctx context.Context, roomID string, env models.Envelope) error
	ListMessages(ctx context.Context, roomID string) ([]models.Envelope, error)
}
