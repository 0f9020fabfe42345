package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// RedisNotifier publishes stock alerts to a Redis stream. Downstream
// consumers (notification bell, email digests) read the stream with their
// own consumer groups.
type RedisNotifier struct {
	client    *redis.Client
	streamKey string
	logger    *slog.Logger
}

// NewRedisNotifier creates a notifier that appends alerts to streamKey.
func NewRedisNotifier(client *redis.Client, streamKey string, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:    client,
		streamKey: streamKey,
		logger:    logger.With("component", "redis_notifier"),
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, alert domain.StockAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal stock alert: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: n.streamKey,
		Values: map[string]interface{}{
			"payload":      payload,
			"published_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := n.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD stock alert: %w", err)
	}
	return nil
}
