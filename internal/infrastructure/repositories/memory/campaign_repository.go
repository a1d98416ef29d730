package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
)

type MemoryCampaignRepository struct {
	campaigns map[string]*domain.Campaign
	mu        sync.RWMutex
}

func NewMemoryCampaignRepository() ports.CampaignRepository {
	return &MemoryCampaignRepository{
		campaigns: make(map[string]*domain.Campaign),
	}
}

func (r *MemoryCampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.campaigns[campaign.ID]; exists {
		return fmt.Errorf("campaign already exists: %s", campaign.ID)
	}

	copied := *campaign
	r.campaigns[campaign.ID] = &copied
	return nil
}

func (r *MemoryCampaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	campaign, exists := r.campaigns[id]
	if !exists {
		return nil, domain.ErrCampaignNotFound
	}

	copied := *campaign
	return &copied, nil
}

func (r *MemoryCampaignRepository) List(ctx context.Context, filter domain.OwnershipFilter) ([]*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var visible []*domain.Campaign
	for _, campaign := range r.campaigns {
		if !filter.Matches(campaign) {
			continue
		}
		copied := *campaign
		visible = append(visible, &copied)
	}

	sort.Slice(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})
	return visible, nil
}
