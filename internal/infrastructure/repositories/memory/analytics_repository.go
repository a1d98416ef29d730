package memory

import (
	"context"
	"sort"
	"sync"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
)

type MemoryAnalyticsRepository struct {
	events []domain.MetricEvent
	mu     sync.RWMutex
}

func NewMemoryAnalyticsRepository() ports.AnalyticsRepository {
	return &MemoryAnalyticsRepository{}
}

func (r *MemoryAnalyticsRepository) Record(ctx context.Context, event domain.MetricEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	return nil
}

// ListVisible returns the events matching both the ownership filter and the
// query options, ordered by occurrence time ascending.
func (r *MemoryAnalyticsRepository) ListVisible(ctx context.Context, filter domain.OwnershipFilter, opts ports.MetricQueryOptions) ([]domain.MetricEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var visible []domain.MetricEvent
	for _, event := range r.events {
		if !filter.Matches(event) {
			continue
		}
		if opts.Platform != "" && event.Platform != opts.Platform {
			continue
		}
		if opts.SubjectID != "" && event.SubjectID != opts.SubjectID {
			continue
		}
		if !opts.From.IsZero() && event.OccurredAt.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && event.OccurredAt.After(opts.To) {
			continue
		}
		visible = append(visible, event)
	}

	sort.Slice(visible, func(i, j int) bool {
		return visible[i].OccurredAt.Before(visible[j].OccurredAt)
	})
	return visible, nil
}
