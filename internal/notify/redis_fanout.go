package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/stayloop/rooms-service/internal/utils"
)

type envelope struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RedisFanout publishes events over redis pub/sub, one channel per hotel.
type RedisFanout struct {
	client *redis.Client
}

func NewRedisFanout(ctx context.Context, addr, password string, db int) (*RedisFanout, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisFanout{client: client}, nil
}

func channelFor(hotelID uuid.UUID) string {
	return fmt.Sprintf("hotel_%s", hotelID)
}

func (f *RedisFanout) Publish(ctx context.Context, hotelID uuid.UUID, eventType string, payload interface{}) error {
	body, err := json.Marshal(envelope{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, channelFor(hotelID), body).Err(); err != nil {
		utils.Logger.WithError(err).WithField("event", eventType).Warn("fanout publish failed")
		return err
	}
	return nil
}

func (f *RedisFanout) Close() error {
	return f.client.Close()
}
