package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/tims-exe/secure-chat/internal/bus"
	"github.com/tims-exe/secure-chat/internal/models"
)

func TestMessages_PostAndOrderedList(t *testing.T) {
	ctx := context.Background()
	_, _, rooms, _, _, msgs := newTestServices(600)
	roomID := mustCreateRoom(t, rooms)

	first, err := msgs.Post(ctx, roomID, "tok-a", "alice", "ct-1", "iv-1")
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	second, err := msgs.Post(ctx, roomID, "tok-b", "bob", "ct-2", "iv-2")
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("envelope IDs collide")
	}

	envs, err := msgs.List(ctx, roomID, "tok-a")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(envs) != 2 {
		t.Fatalf("List() len = %d, want 2", len(envs))
	}
	if envs[0].ID != first.ID || envs[1].ID != second.ID {
		t.Fatal("List() not in insertion order")
	}
}

func TestMessages_TokenRedaction(t *testing.T) {
	ctx := context.Background()
	_, _, rooms, _, _, msgs := newTestServices(600)
	roomID := mustCreateRoom(t, rooms)

	_, _ = msgs.Post(ctx, roomID, "tok-a", "alice", "ct-1", "iv-1")
	_, _ = msgs.Post(ctx, roomID, "tok-b", "bob", "ct-2", "iv-2")

	envs, err := msgs.List(ctx, roomID, "tok-a")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if envs[0].Token != "tok-a" {
		t.Fatalf("own envelope token = %q, want tok-a", envs[0].Token)
	}
	if envs[1].Token != "" {
		t.Fatalf("counterpart envelope token = %q, want redacted", envs[1].Token)
	}

	// both envelopes remain fully readable either way
	if envs[1].Ciphertext != "ct-2" || envs[1].Sender != "bob" {
		t.Fatalf("redaction removed more than the token: %+v", envs[1])
	}
}

func TestMessages_EventOmitsToken(t *testing.T) {
	ctx := context.Background()
	_, cb, rooms, _, _, msgs := newTestServices(600)
	roomID := mustCreateRoom(t, rooms)

	posted, err := msgs.Post(ctx, roomID, "tok-a", "alice", "ct", "iv")
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	events := cb.captured()
	if len(events) != 1 || events[0].ev.Type != bus.EventMessage {
		t.Fatalf("events = %+v, want single chat.message", events)
	}
	var env models.Envelope
	if err := json.Unmarshal(events[0].ev.Payload, &env); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if env.Token != "" {
		t.Fatalf("broadcast envelope carries token %q", env.Token)
	}
	if env.ID != posted.ID || env.Ciphertext != "ct" || env.IV != "iv" || env.RoomID != roomID {
		t.Fatalf("broadcast envelope = %+v", env)
	}
}

func TestMessages_UnknownRoom(t *testing.T) {
	ctx := context.Background()
	_, _, _, _, _, msgs := newTestServices(600)

	if _, err := msgs.Post(ctx, "no-such-room", "tok", "alice", "ct", "iv"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("Post() error = %v, want ErrRoomNotFound", err)
	}
	if _, err := msgs.List(ctx, "no-such-room", "tok"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("List() error = %v, want ErrRoomNotFound", err)
	}
}

func TestMessages_GoneAfterDestroy(t *testing.T) {
	ctx := context.Background()
	_, _, rooms, _, _, msgs := newTestServices(600)
	roomID := mustCreateRoom(t, rooms)

	_, _ = msgs.Post(ctx, roomID, "tok-a", "alice", "ct", "iv")
	if err := rooms.Destroy(ctx, roomID); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}

	if _, err := msgs.List(ctx, roomID, "tok-a"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("List() after destroy error = %v, want ErrRoomNotFound", err)
	}
}
