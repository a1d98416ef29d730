package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
)

type MemoryTeamRepository struct {
	teams       map[domain.TeamID]*domain.Team
	invitations map[string]*domain.TeamInvitation
	mu          sync.RWMutex
}

func NewMemoryTeamRepository() ports.TeamRepository {
	return &MemoryTeamRepository{
		teams:       make(map[domain.TeamID]*domain.Team),
		invitations: make(map[string]*domain.TeamInvitation),
	}
}

func (r *MemoryTeamRepository) Create(ctx context.Context, team *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[team.ID]; exists {
		return fmt.Errorf("team already exists: %s", team.ID)
	}

	copied := *team
	r.teams[team.ID] = &copied
	return nil
}

func (r *MemoryTeamRepository) GetByID(ctx context.Context, id domain.TeamID) (*domain.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, exists := r.teams[id]
	if !exists {
		return nil, domain.ErrTeamNotFound
	}

	copied := *team
	return &copied, nil
}

func (r *MemoryTeamRepository) Update(ctx context.Context, team *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[team.ID]; !exists {
		return domain.ErrTeamNotFound
	}

	copied := *team
	r.teams[team.ID] = &copied
	return nil
}

func (r *MemoryTeamRepository) CreateInvitation(ctx context.Context, inv *domain.TeamInvitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.invitations[inv.ID]; exists {
		return fmt.Errorf("invitation already exists: %s", inv.ID)
	}

	copied := *inv
	r.invitations[inv.ID] = &copied
	return nil
}

func (r *MemoryTeamRepository) GetInvitation(ctx context.Context, id string) (*domain.TeamInvitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, exists := r.invitations[id]
	if !exists {
		return nil, domain.ErrInvitationNotFound
	}

	copied := *inv
	return &copied, nil
}

func (r *MemoryTeamRepository) UpdateInvitation(ctx context.Context, inv *domain.TeamInvitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.invitations[inv.ID]; !exists {
		return domain.ErrInvitationNotFound
	}

	copied := *inv
	r.invitations[inv.ID] = &copied
	return nil
}

func (r *MemoryTeamRepository) ListInvitationsForUser(ctx context.Context, userID domain.UserID) ([]*domain.TeamInvitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []*domain.TeamInvitation
	for _, inv := range r.invitations {
		if inv.InviteeUserID != userID || inv.Status != domain.InvitationPending {
			continue
		}
		copied := *inv
		pending = append(pending, &copied)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	return pending, nil
}
