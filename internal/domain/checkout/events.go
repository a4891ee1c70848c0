// internal/domain/checkout/events.go
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventStore remembers which gateway events were already handled
type EventStore interface {
	// MarkProcessed returns false when the event was seen before
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
	// Forget lets a failed event be delivered again
	Forget(ctx context.Context, eventID string) error
}

// DefaultEventTTL covers the gateway's retry window
const DefaultEventTTL = 72 * time.Hour

// RedisEventStore dedupes events with SETNX
type RedisEventStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEventStore(client *redis.Client, ttl time.Duration) *RedisEventStore {
	return &RedisEventStore{client: client, ttl: ttl}
}

func eventKey(eventID string) string {
	return fmt.Sprintf("payment:event:%s", eventID)
}

func (r *RedisEventStore) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, eventKey(eventID), time.Now().Unix(), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record payment event: %w", err)
	}
	return ok, nil
}

func (r *RedisEventStore) Forget(ctx context.Context, eventID string) error {
	if err := r.client.Del(ctx, eventKey(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to forget payment event: %w", err)
	}
	return nil
}
