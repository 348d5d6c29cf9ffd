package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes events to a per-user redis channel so replicas of
// the service (and any other interested consumer) can fan them out to
// connections they hold themselves.
type RedisSink struct {
	client *redis.Client
}

func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func channelFor(msg Message) string {
	return "swap.notify." + msg.UserID.String()
}

func (s *RedisSink) Deliver(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.client.Publish(ctx, channelFor(msg), body).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
