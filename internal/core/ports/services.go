package ports

import (
	"context"

	"socialdeck/internal/core/domain"
)

type IdentityVerifier interface {
	Verify(ctx context.Context, bearer string) (*domain.Principal, error)
	VerifyOptional(ctx context.Context, bearer string) *domain.Principal
	GenerateToken(userID domain.UserID) (string, error)
	GenerateRefreshToken(userID domain.UserID) (string, error)
}

type AccessResolver interface {
	Authorize(p *domain.Principal, resource domain.Ownable, intent domain.AccessIntent) domain.AccessDecision
	ListFilterFor(p *domain.Principal) domain.OwnershipFilter
	RequireRead(p *domain.Principal, resource domain.Ownable) error
	RequireWrite(p *domain.Principal, resource domain.Ownable) error
}

type Aggregator interface {
	Aggregate(events []domain.MetricEvent, g domain.Granularity) (domain.TimeSeries, error)
	EngagementRate(c domain.Counters) float64
	GrowthRate(series domain.TimeSeries, metric func(domain.Bucket) int64) domain.GrowthRate
	FollowerGrowth(events []domain.MetricEvent, g domain.Granularity) (domain.GrowthRate, domain.TimeSeries, error)
	LatestSnapshots(events []domain.MetricEvent) []domain.MetricEvent
	Rollup(events []domain.MetricEvent) domain.Counters
	Overview(events []domain.MetricEvent) domain.AnalyticsOverview
}

// Dispatcher fans a domain event out to every connection currently admitted
// to the target scope. Delivery is fire-and-forget, at most once per
// connection per call.
type Dispatcher interface {
	Dispatch(event domain.Event, scope domain.ChannelScope)
}
