package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisNotificationRepository stores notifications as JSON blobs with a
// per-user index list, newest first.
type RedisNotificationRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisNotificationRepository(client *redis.Client) ports.NotificationRepository {
	return &RedisNotificationRepository{
		client: client,
		prefix: "socialdeck:notification:",
	}
}

func (r *RedisNotificationRepository) notificationKey(id string) string {
	return r.prefix + id
}

func (r *RedisNotificationRepository) userIndexKey(userID domain.UserID) string {
	return r.prefix + "user:" + string(userID)
}

func (r *RedisNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := r.client.Set(ctx, r.notificationKey(n.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set notification in Redis: %w", err)
	}

	if err := r.client.LPush(ctx, r.userIndexKey(n.OwnerUserID), n.ID).Err(); err != nil {
		return fmt.Errorf("failed to index notification: %w", err)
	}

	return nil
}

func (r *RedisNotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	data, err := r.client.Get(ctx, r.notificationKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification from Redis: %w", err)
	}

	var n domain.Notification
	if err := json.Unmarshal([]byte(data), &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &n, nil
}

func (r *RedisNotificationRepository) ListForUser(ctx context.Context, userID domain.UserID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	ids, err := r.client.LRange(ctx, r.userIndexKey(userID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list notification ids: %w", err)
	}

	notifications := make([]*domain.Notification, 0, len(ids))
	for _, id := range ids {
		n, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotificationNotFound) {
				continue // index entry outlived the blob
			}
			return nil, err
		}
		if unreadOnly && n.Read {
			continue
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (r *RedisNotificationRepository) MarkRead(ctx context.Context, id string) error {
	n, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	n.Read = true

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := r.client.Set(ctx, r.notificationKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update notification in Redis: %w", err)
	}
	return nil
}
