package scheduler

import (
	"context"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/pkg/distributed"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishLockKey = "scheduler:publish"

// PostPublisher promotes scheduled posts to published once their scheduled
// time passes, then fans the event out and notifies the owner. When a lock
// manager is configured only one instance runs a sweep at a time, so a post
// is published at most once across the cluster.
type PostPublisher struct {
	posts         ports.PostRepository
	notifications ports.NotificationRepository
	dispatcher    ports.Dispatcher
	locks         *distributed.LockManager // nil in single-instance mode
	interval      time.Duration
	logger        *zap.SugaredLogger
	stopChan      chan struct{}
}

func NewPostPublisher(
	posts ports.PostRepository,
	notifications ports.NotificationRepository,
	dispatcher ports.Dispatcher,
	locks *distributed.LockManager,
	interval time.Duration,
	logger *zap.SugaredLogger,
) *PostPublisher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PostPublisher{
		posts:         posts,
		notifications: notifications,
		dispatcher:    dispatcher,
		locks:         locks,
		interval:      interval,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

// Start sweeps for due posts until the context is cancelled.
func (p *PostPublisher) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweep(ctx)
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *PostPublisher) Stop() {
	close(p.stopChan)
}

func (p *PostPublisher) sweep(ctx context.Context) {
	if p.locks != nil {
		lock := p.locks.AcquireLock(publishLockKey, p.interval)
		acquired, err := lock.TryLock(ctx)
		if err != nil {
			p.logger.Errorw("failed to acquire publish lock", "error", err)
			return
		}
		if !acquired {
			// Another instance is sweeping
			return
		}
		defer func() {
			if err := lock.Unlock(ctx); err != nil {
				p.logger.Warnw("failed to release publish lock", "error", err)
			}
		}()
	}

	due, err := p.posts.List(ctx, domain.OwnershipFilter{All: true}, ports.PostListOptions{
		Status: domain.PostScheduled,
	})
	if err != nil {
		p.logger.Errorw("failed to list scheduled posts", "error", err)
		return
	}

	now := time.Now()
	for _, post := range due {
		if post.ScheduledAt == nil || post.ScheduledAt.After(now) {
			continue
		}
		p.publish(ctx, post, now)
	}
}

func (p *PostPublisher) publish(ctx context.Context, post *domain.Post, now time.Time) {
	post.Status = domain.PostPublished
	post.PublishedAt = &now
	post.UpdatedAt = now

	if err := p.posts.Update(ctx, post); err != nil {
		p.logger.Errorw("failed to publish scheduled post", "post_id", post.ID, "error", err)
		return
	}

	p.logger.Infow("published scheduled post", "post_id", post.ID, "scheduled_at", post.ScheduledAt)

	event := domain.Event{Type: "post:published", Data: post}
	p.dispatcher.Dispatch(event, domain.PostScope(post.ID))
	if post.OwnerTeamID != "" {
		p.dispatcher.Dispatch(event, domain.TeamScope(post.OwnerTeamID))
	}

	notification := &domain.Notification{
		ID:          uuid.New().String(),
		Type:        domain.NotificationPostPublished,
		Title:       "Post published",
		Message:     "Your scheduled post has been published.",
		OwnerUserID: post.OwnerUserID,
		OwnerTeamID: post.OwnerTeamID,
		CreatedAt:   now,
	}
	if err := p.notifications.Create(ctx, notification); err != nil {
		p.logger.Warnw("failed to create publish notification", "post_id", post.ID, "error", err)
		return
	}

	p.dispatcher.Dispatch(
		domain.Event{Type: "notification:new", Data: notification},
		domain.UserScope(post.OwnerUserID),
	)
}
