package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
)

type MemoryAccountRepository struct {
	accounts map[domain.UserID]*domain.Account
	byEmail  map[string]domain.UserID
	mu       sync.RWMutex
}

func NewMemoryAccountRepository() ports.AccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[domain.UserID]*domain.Account),
		byEmail:  make(map[string]domain.UserID),
	}
}

func (r *MemoryAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.ID]; exists {
		return fmt.Errorf("account already exists: %s", account.ID)
	}
	if _, exists := r.byEmail[account.Email]; exists {
		return fmt.Errorf("email already registered: %s", account.Email)
	}

	copied := *account
	r.accounts[account.ID] = &copied
	r.byEmail[account.Email] = account.ID
	return nil
}

func (r *MemoryAccountRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, domain.ErrAccountNotFound
	}

	copied := *account
	return &copied, nil
}

func (r *MemoryAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEmail[email]
	if !exists {
		return nil, domain.ErrAccountNotFound
	}

	copied := *r.accounts[id]
	return &copied, nil
}

func (r *MemoryAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.accounts[account.ID]
	if !exists {
		return domain.ErrAccountNotFound
	}

	if existing.Email != account.Email {
		delete(r.byEmail, existing.Email)
		r.byEmail[account.Email] = account.ID
	}

	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

func (r *MemoryAccountRepository) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var members []*domain.Account
	for _, account := range r.accounts {
		if account.TeamID != teamID || !account.Active {
			continue
		}
		copied := *account
		members = append(members, &copied)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})
	return members, nil
}
