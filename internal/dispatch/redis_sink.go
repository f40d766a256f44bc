package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const broadcastChannel = "location:broadcast"

// RedisSink publishes events to Redis pub/sub so peer instances can deliver
// them to their own websocket sessions.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink creates a new RedisSink
func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func (s *RedisSink) Name() string {
	return "redis"
}

// UserChannel returns the pub/sub channel for one user's events
func UserChannel(userID string) string {
	return fmt.Sprintf("location:user:%s", userID)
}

// BroadcastChannel returns the shared fan-out channel
func BroadcastChannel() string {
	return broadcastChannel
}

func (s *RedisSink) Deliver(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := UserChannel(event.Recipient.String())
	if event.Broadcast {
		channel = broadcastChannel
	}

	return s.client.Publish(ctx, channel, data).Err()
}
