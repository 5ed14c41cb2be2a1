package repo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tims-exe/secure-chat/internal/models"
)

func newTestRoom(t *testing.T, mr *MemoryRoomRepo, ttlSec int) string {
	t.Helper()
	room := models.Room{RoomID: "r-" + t.Name(), CreatedAt: time.Now().Unix()}
	if err := mr.CreateRoom(context.Background(), room, ttlSec); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	return room.RoomID
}

func TestMemoryRepo_RoomLifecycle(t *testing.T) {
	ctx := context.Background()
	mr := NewMemoryRoomRepo()
	roomID := newTestRoom(t, mr, 600)

	exists, err := mr.RoomExists(ctx, roomID)
	if err != nil || !exists {
		t.Fatalf("RoomExists() = %v, %v, want true", exists, err)
	}

	ttl, ok, err := mr.RemainingTTL(ctx, roomID)
	if err != nil || !ok {
		t.Fatalf("RemainingTTL() ok = %v, err = %v", ok, err)
	}
	if ttl <= 0 || ttl > 600 {
		t.Fatalf("RemainingTTL() = %d, want (0, 600]", ttl)
	}

	if err := mr.DestroyRoom(ctx, roomID); err != nil {
		t.Fatalf("DestroyRoom() error = %v", err)
	}
	if exists, _ := mr.RoomExists(ctx, roomID); exists {
		t.Fatal("room still exists after DestroyRoom()")
	}
	// second destroy is a no-op
	if err := mr.DestroyRoom(ctx, roomID); err != nil {
		t.Fatalf("second DestroyRoom() error = %v", err)
	}
}

func TestMemoryRepo_Expiry(t *testing.T) {
	ctx := context.Background()
	mr := NewMemoryRoomRepo()
	roomID := newTestRoom(t, mr, 1)

	time.Sleep(1100 * time.Millisecond)

	if exists, _ := mr.RoomExists(ctx, roomID); exists {
		t.Fatal("room still exists after TTL elapsed")
	}
	ttl, ok, _ := mr.RemainingTTL(ctx, roomID)
	if ok || ttl != 0 {
		t.Fatalf("RemainingTTL() after expiry = %d, %v, want 0, false", ttl, ok)
	}
	if res, _ := mr.AdmitToken(ctx, roomID, "tok"); res != AdmitRoomGone {
		t.Fatalf("AdmitToken() after expiry = %v, want AdmitRoomGone", res)
	}
}

func TestMemoryRepo_AdmitCapacity(t *testing.T) {
	ctx := context.Background()
	mr := NewMemoryRoomRepo()
	roomID := newTestRoom(t, mr, 600)

	for i := 0; i < RoomCapacity; i++ {
		res, err := mr.AdmitToken(ctx, roomID, fmt.Sprintf("token-%d", i))
		if err != nil || res != AdmitOK {
			t.Fatalf("AdmitToken(%d) = %v, %v, want AdmitOK", i, res, err)
		}
	}
	if res, _ := mr.AdmitToken(ctx, roomID, "token-extra"); res != AdmitRoomFull {
		t.Fatalf("third AdmitToken() = %v, want AdmitRoomFull", res)
	}
	// a member token re-admits without consuming anything
	if res, _ := mr.AdmitToken(ctx, roomID, "token-0"); res != AdmitOK {
		t.Fatalf("re-AdmitToken() = %v, want AdmitOK", res)
	}
	if n, _ := mr.TokenCount(ctx, roomID); n != RoomCapacity {
		t.Fatalf("TokenCount() = %d, want %d", n, RoomCapacity)
	}
}

func TestMemoryRepo_AdmitRace(t *testing.T) {
	ctx := context.Background()
	mr := NewMemoryRoomRepo()
	roomID := newTestRoom(t, mr, 600)

	const attempts = 32
	var wg sync.WaitGroup
	admitted := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := mr.AdmitToken(ctx, roomID, fmt.Sprintf("racer-%d", i))
			if err != nil {
				t.Errorf("AdmitToken() error = %v", err)
				return
			}
			if res == AdmitOK {
				admitted <- struct{}{}
			}
		}(i)
	}
	wg.Wait()
	close(admitted)

	if got := len(admitted); got != RoomCapacity {
		t.Fatalf("concurrent admissions = %d, want exactly %d", got, RoomCapacity)
	}
}

func TestMemoryRepo_SyncTTLAlignsSiblings(t *testing.T) {
	ctx := context.Background()
	mr := NewMemoryRoomRepo()
	roomID := newTestRoom(t, mr, 600)

	if err := mr.PutKey(ctx, roomID, "alice", "pk"); err != nil {
		t.Fatalf("PutKey() error = %v", err)
	}
	if err := mr.AppendMessage(ctx, roomID, models.Envelope{ID: "m1", RoomID: roomID}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if _, err := mr.AdmitToken(ctx, roomID, "tok"); err != nil {
		t.Fatalf("AdmitToken() error = %v", err)
	}

	if err := mr.SyncTTL(ctx, roomID); err != nil {
		t.Fatalf("SyncTTL() error = %v", err)
	}

	meta, tokens, keys, messages, ok := mr.recordDeadlines(roomID)
	if !ok {
		t.Fatal("recordDeadlines() room gone")
	}
	for name, d := range map[string]time.Time{"tokens": tokens, "keys": keys, "messages": messages} {
		if !d.Equal(meta) {
			t.Errorf("%s deadline = %v, want %v (metadata)", name, d, meta)
		}
	}
}

func TestMemoryRepo_Messages(t *testing.T) {
	ctx := context.Background()
	mr := NewMemoryRoomRepo()
	roomID := newTestRoom(t, mr, 600)

	for i := 0; i < 3; i++ {
		env := models.Envelope{ID: fmt.Sprintf("m%d", i), RoomID: roomID}
		if err := mr.AppendMessage(ctx, roomID, env); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}
	envs, err := mr.ListMessages(ctx, roomID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(envs) != 3 {
		t.Fatalf("ListMessages() len = %d, want 3", len(envs))
	}
	for i, env := range envs {
		if want := fmt.Sprintf("m%d", i); env.ID != want {
			t.Errorf("envs[%d].ID = %q, want %q (insertion order)", i, env.ID, want)
		}
	}
}

func TestMemoryRepo_Keys(t *testing.T) {
	ctx := context.Background()
	mr := NewMemoryRoomRepo()
	roomID := newTestRoom(t, mr, 600)

	keys, err := mr.ListKeys(ctx, roomID)
	if err != nil || len(keys) != 0 {
		t.Fatalf("ListKeys() on fresh room = %v, %v, want empty", keys, err)
	}

	_ = mr.PutKey(ctx, roomID, "alice", "pk-1")
	_ = mr.PutKey(ctx, roomID, "alice", "pk-2") // last write wins
	_ = mr.PutKey(ctx, roomID, "bob", "pk-b")

	keys, _ = mr.ListKeys(ctx, roomID)
	if keys["alice"] != "pk-2" || keys["bob"] != "pk-b" {
		t.Fatalf("ListKeys() = %v", keys)
	}
}
