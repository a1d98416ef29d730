package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
)

type MemoryNotificationRepository struct {
	notifications map[string]*domain.Notification
	mu            sync.RWMutex
}

func NewMemoryNotificationRepository() ports.NotificationRepository {
	return &MemoryNotificationRepository{
		notifications: make(map[string]*domain.Notification),
	}
}

func (r *MemoryNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.notifications[n.ID]; exists {
		return fmt.Errorf("notification already exists: %s", n.ID)
	}

	copied := *n
	r.notifications[n.ID] = &copied
	return nil
}

func (r *MemoryNotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, exists := r.notifications[id]
	if !exists {
		return nil, domain.ErrNotificationNotFound
	}

	copied := *n
	return &copied, nil
}

func (r *MemoryNotificationRepository) ListForUser(ctx context.Context, userID domain.UserID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var visible []*domain.Notification
	for _, n := range r.notifications {
		if n.OwnerUserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		copied := *n
		visible = append(visible, &copied)
	}

	sort.Slice(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})

	if limit > 0 && len(visible) > limit {
		visible = visible[:limit]
	}
	return visible, nil
}

func (r *MemoryNotificationRepository) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, exists := r.notifications[id]
	if !exists {
		return domain.ErrNotificationNotFound
	}

	n.Read = true
	return nil
}
