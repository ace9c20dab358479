package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cardapio/internal/config"
	"cardapio/internal/logging"
	"cardapio/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NotificationTTL is how long the full notification payload stays readable.
const NotificationTTL = 5 * time.Second

// NewRedisClient builds a client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisBus carries notifications across instances through three channels:
// a short-lived notification key, a pub/sub broadcast and a lastUpdate marker.
type RedisBus struct {
	client *redis.Client
	logger *zerolog.Logger
}

func NewRedisBus(client *redis.Client, logger *zerolog.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		logger: logging.Component(logger, "redis_bus"),
	}
}

func (b *RedisBus) Name() string { return "redis" }

func (b *RedisBus) Ping(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return b.client.Ping(ctx).Err()
}

func (b *RedisBus) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// Publish writes every channel even when an earlier one fails.
func (b *RedisBus) Publish(ctx context.Context, n models.UpdateNotification) error {
	if b.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	broadcast, err := json.Marshal(models.BroadcastMessage{
		Type:       n.Type,
		Timestamp:  n.Timestamp,
		InstanceID: n.InstanceID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast: %w", err)
	}

	var errs []error
	if err := b.client.Set(ctx, models.NotificationKey, payload, NotificationTTL).Err(); err != nil {
		errs = append(errs, fmt.Errorf("set notification: %w", err))
	}
	if err := b.client.Publish(ctx, models.BroadcastTopic, broadcast).Err(); err != nil {
		errs = append(errs, fmt.Errorf("publish broadcast: %w", err))
	}
	if err := b.client.Set(ctx, models.LastUpdateKey, strconv.FormatInt(n.Timestamp, 10), 0).Err(); err != nil {
		errs = append(errs, fmt.Errorf("set last update: %w", err))
	}
	return errors.Join(errs...)
}

// Subscribe turns broadcasts into notifications. When the stored payload
// matches the broadcast timestamp its item changes are attached.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan models.UpdateNotification, error) {
	if b.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	pubsub := b.client.Subscribe(ctx, models.BroadcastTopic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", models.BroadcastTopic, err)
	}

	out := make(chan models.UpdateNotification, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var bm models.BroadcastMessage
				if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
					b.logger.Warn().Err(err).Msg("Ignoring malformed broadcast")
					continue
				}
				note := models.UpdateNotification{
					Type:       bm.Type,
					Timestamp:  bm.Timestamp,
					InstanceID: bm.InstanceID,
				}
				if full, err := b.Latest(ctx); err == nil && full != nil && full.Timestamp == bm.Timestamp {
					note = *full
				}
				select {
				case out <- note:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *RedisBus) LastUpdate(ctx context.Context) (string, error) {
	if b.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	val, err := b.client.Get(ctx, models.LastUpdateKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last update: %w", err)
	}
	return val, nil
}

func (b *RedisBus) Latest(ctx context.Context) (*models.UpdateNotification, error) {
	if b.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := b.client.Get(ctx, models.NotificationKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	var n models.UpdateNotification
	if err := json.Unmarshal([]byte(val), &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &n, nil
}
