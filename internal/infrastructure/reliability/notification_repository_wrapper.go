package reliability

import (
	"context"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/pkg/circuitbreaker"
	"socialdeck/pkg/retry"

	"go.uber.org/zap"
)

// NotificationRepositoryWrapper wraps a network-backed notification
// repository with retry logic and a circuit breaker, so a flapping store
// degrades to fast failures instead of piling up blocked requests.
type NotificationRepositoryWrapper struct {
	repo   ports.NotificationRepository
	logger *zap.SugaredLogger

	retryConfig    retry.Config
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewNotificationRepositoryWrapper creates a new wrapper with retry and circuit breaker
func NewNotificationRepositoryWrapper(
	repo ports.NotificationRepository,
	retryConfig retry.Config,
	cbConfig circuitbreaker.Config,
	logger *zap.SugaredLogger,
) *NotificationRepositoryWrapper {
	wrapper := &NotificationRepositoryWrapper{
		repo:           repo,
		logger:         logger,
		retryConfig:    retryConfig,
		circuitBreaker: circuitbreaker.New(cbConfig),
	}

	wrapper.circuitBreaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Infow("notification store circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
	})

	return wrapper
}

// Create stores a notification with retry logic
func (w *NotificationRepositoryWrapper) Create(ctx context.Context, n *domain.Notification) error {
	if !w.retryConfig.Enabled {
		return w.repo.Create(ctx, n)
	}

	return retry.Retry(ctx, w.retryConfig, func() error {
		return w.circuitBreaker.Execute(ctx, func() error {
			return w.repo.Create(ctx, n)
		})
	})
}

// MarkRead marks a notification read with retry logic
func (w *NotificationRepositoryWrapper) MarkRead(ctx context.Context, id string) error {
	if !w.retryConfig.Enabled {
		return w.repo.MarkRead(ctx, id)
	}

	return retry.Retry(ctx, w.retryConfig, func() error {
		return w.circuitBreaker.Execute(ctx, func() error {
			return w.repo.MarkRead(ctx, id)
		})
	})
}

// GetByID reads a notification (no retry needed for read operations)
func (w *NotificationRepositoryWrapper) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	return w.repo.GetByID(ctx, id)
}

// ListForUser lists notifications (no retry needed for read operations)
func (w *NotificationRepositoryWrapper) ListForUser(ctx context.Context, userID domain.UserID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	return w.repo.ListForUser(ctx, userID, unreadOnly, limit)
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (w *NotificationRepositoryWrapper) GetCircuitBreakerStats() circuitbreaker.Stats {
	return w.circuitBreaker.GetStats()
}
