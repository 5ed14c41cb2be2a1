package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisBus carries room events over Redis Pub/Sub, so a subscriber on one
// instance sees events published by another. Delivery inherits Redis
// Pub/Sub semantics: no persistence, no replay.
type RedisBus struct {
	rdb *redis.Client
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func channelKey(roomID string) string {
	return fmt.Sprintf("room:%s:events", roomID)
}

func (b *RedisBus) Publish(ctx context.Context, roomID string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channelKey(roomID), payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, roomID string) (*Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channelKey(roomID))
	// force the subscription onto the wire before returning, so events
	// published right after Subscribe are not missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	c := make(chan Event, subscriberBuffer)
	sub := NewSubscription(c, func() { _ = ps.Close() })

	go func() {
		defer close(c)
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("bus: dropping malformed event on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case sub.C <- ev:
			default:
				// slow subscriber: drop, delivery is best-effort
			}
		}
	}()

	return sub, nil
}
