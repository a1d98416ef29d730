package ports

import (
	"context"
	"time"

	"socialdeck/internal/core/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	ListByTeam(ctx context.Context, teamID domain.TeamID) ([]*domain.Account, error)
}

type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id domain.TeamID) (*domain.Team, error)
	Update(ctx context.Context, team *domain.Team) error
	CreateInvitation(ctx context.Context, inv *domain.TeamInvitation) error
	GetInvitation(ctx context.Context, id string) (*domain.TeamInvitation, error)
	UpdateInvitation(ctx context.Context, inv *domain.TeamInvitation) error
	ListInvitationsForUser(ctx context.Context, userID domain.UserID) ([]*domain.TeamInvitation, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.OwnershipFilter, opts PostListOptions) ([]*domain.Post, error)
}

type PostListOptions struct {
	Status   domain.PostStatus
	Platform domain.Platform
	Limit    int
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	List(ctx context.Context, filter domain.OwnershipFilter) ([]*domain.Campaign, error)
}

type AnalyticsRepository interface {
	Record(ctx context.Context, event domain.MetricEvent) error
	ListVisible(ctx context.Context, filter domain.OwnershipFilter, opts MetricQueryOptions) ([]domain.MetricEvent, error)
}

type MetricQueryOptions struct {
	Platform  domain.Platform // empty matches all platforms
	SubjectID string          // empty matches all subjects
	From      time.Time       // zero means unbounded
	To        time.Time       // zero means unbounded
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListForUser(ctx context.Context, userID domain.UserID, unreadOnly bool, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
}
