package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tims-exe/secure-chat/internal/models"
)

// RoomCapacity is the fixed number of participant slots per room.
const RoomCapacity = 2

type RedisRoomRepo struct{ rdb *redis.Client }

func NewRedisRoomRepo(rdb *redis.Client) *RedisRoomRepo {
	return &RedisRoomRepo{rdb: rdb}
}

func metaKey(id string) string {
	return fmt.Sprintf("room:%s", id)
}
func tokensKey(id string) string {
	return fmt.Sprintf("room:%s:tokens", id)
}
func keysKey(id string) string {
	return fmt.Sprintf("room:%s:keys", id)
}
func messagesKey(id string) string {
	return fmt.Sprintf("room:%s:messages", id)
}

func sec(v int) time.Duration {
	return time.Duration(v) * time.Second
}

func (rr *RedisRoomRepo) CreateRoom(ctx context.Context, room models.Room, ttlSec int) error {
	b, err := json.Marshal(room)
	if err != nil {
		return err
	}
	ok, err := rr.rdb.SetArgs(ctx, metaKey(room.RoomID), b, redis.SetArgs{Mode: "NX", TTL: sec(ttlSec)}).Result()
	if err == redis.Nil || (err == nil && ok != "OK") {
		return errors.New("room already exists")
	}
	return err
}

func (rr *RedisRoomRepo) RoomExists(ctx context.Context, roomID string) (bool, error) {
	n, err := rr.rdb.Exists(ctx, metaKey(roomID)).Result()
	return n == 1, err
}

func (rr *RedisRoomRepo) RemainingTTL(ctx context.Context, roomID string) (int64, bool, error) {
	d, err := rr.rdb.TTL(ctx, metaKey(roomID)).Result()
	if err != nil {
		return 0, false, err
	}
	if d == -2 { // key does not exist
		return 0, false, nil
	}
	if d < 0 { // no expiry set; treat as already expired
		return 0, true, nil
	}
	return int64(d / time.Second), true, nil
}

// syncTTLScript re-applies the metadata key's remaining TTL to every
// sibling record that exists, so none of them expires before another.
var syncTTLScript = redis.NewScript(`
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl <= 0 then
		return 0
	end
	for i = 2, #KEYS do
		if redis.call('EXISTS', KEYS[i]) == 1 then
			redis.call('PEXPIRE', KEYS[i], ttl)
		end
	end
	return 1
`)

func (rr *RedisRoomRepo) SyncTTL(ctx context.Context, roomID string) error {
	keys := []string{metaKey(roomID), tokensKey(roomID), keysKey(roomID), messagesKey(roomID)}
	return syncTTLScript.Run(ctx, rr.rdb, keys).Err()
}

func (rr *RedisRoomRepo) DestroyRoom(ctx context.Context, roomID string) error {
	return rr.rdb.Del(ctx,
		metaKey(roomID), tokensKey(roomID), keysKey(roomID), messagesKey(roomID),
	).Err()
}

// admitScript closes the check-then-set admission race: the capacity check
// and the token insertion happen inside one script execution. A token that
// is already a member is re-admitted without consuming a slot.
var admitScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return 'gone'
	end
	if redis.call('SISMEMBER', KEYS[2], ARGV[1]) == 1 then
		return 'ok'
	end
	if redis.call('SCARD', KEYS[2]) >= tonumber(ARGV[2]) then
		return 'full'
	end
	redis.call('SADD', KEYS[2], ARGV[1])
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl > 0 then
		redis.call('PEXPIRE', KEYS[2], ttl)
	end
	return 'ok'
`)

func (rr *RedisRoomRepo) AdmitToken(ctx context.Context, roomID, token string) (AdmitResult, error) {
	res, err := admitScript.Run(ctx, rr.rdb,
		[]string{metaKey(roomID), tokensKey(roomID)}, token, RoomCapacity).Text()
	if err != nil {
		return AdmitRoomGone, err
	}
	switch res {
	case "ok":
		return AdmitOK, nil
	case "full":
		return AdmitRoomFull, nil
	default:
		return AdmitRoomGone, nil
	}
}

func (rr *RedisRoomRepo) HasToken(ctx context.Context, roomID, token string) (bool, error) {
	return rr.rdb.SIsMember(ctx, tokensKey(roomID), token).Result()
}

func (rr *RedisRoomRepo) TokenCount(ctx context.Context, roomID string) (int64, error) {
	return rr.rdb.SCard(ctx, tokensKey(roomID)).Result()
}

func (rr *RedisRoomRepo) PutKey(ctx context.Context, roomID, username, publicKey string) error {
	return rr.rdb.HSet(ctx, keysKey(roomID), username, publicKey).Err()
}

func (rr *RedisRoomRepo) ListKeys(ctx context.Context, roomID string) (map[string]string, error) {
	m, err := rr.rdb.HGetAll(ctx, keysKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func (rr *RedisRoomRepo) AppendMessage(ctx context.Context, roomID string, env models.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return rr.rdb.RPush(ctx, messagesKey(roomID), b).Err()
}

func (rr *RedisRoomRepo) ListMessages(ctx context.Context, roomID string) ([]models.Envelope, error) {
	vals, err := rr.rdb.LRange(ctx, messagesKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	res := make([]models.Envelope, 0, len(vals))
	for _, v := range vals {
		var env models.Envelope
		if json.Unmarshal([]byte(v), &env) == nil {
			res = append(res, env)
		}
	}
	return res, nil
}
