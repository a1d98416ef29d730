package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
)

type MemoryPostRepository struct {
	posts map[string]*domain.Post
	mu    sync.RWMutex
}

func NewMemoryPostRepository() ports.PostRepository {
	return &MemoryPostRepository{
		posts: make(map[string]*domain.Post),
	}
}

func (r *MemoryPostRepository) Create(ctx context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[post.ID]; exists {
		return fmt.Errorf("post already exists: %s", post.ID)
	}

	copied := *post
	r.posts[post.ID] = &copied
	return nil
}

func (r *MemoryPostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, domain.ErrPostNotFound
	}

	copied := *post
	return &copied, nil
}

func (r *MemoryPostRepository) Update(ctx context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[post.ID]; !exists {
		return domain.ErrPostNotFound
	}

	copied := *post
	r.posts[post.ID] = &copied
	return nil
}

func (r *MemoryPostRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[id]; !exists {
		return domain.ErrPostNotFound
	}

	delete(r.posts, id)
	return nil
}

// List applies the ownership filter so listings obey the exact same access
// rule as single-resource reads.
func (r *MemoryPostRepository) List(ctx context.Context, filter domain.OwnershipFilter, opts ports.PostListOptions) ([]*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var visible []*domain.Post
	for _, post := range r.posts {
		if !filter.Matches(post) {
			continue
		}
		if opts.Status != "" && post.Status != opts.Status {
			continue
		}
		if opts.Platform != "" && !hasPlatform(post, opts.Platform) {
			continue
		}
		copied := *post
		visible = append(visible, &copied)
	}

	sort.Slice(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})

	if opts.Limit > 0 && len(visible) > opts.Limit {
		visible = visible[:opts.Limit]
	}
	return visible, nil
}

func hasPlatform(post *domain.Post, platform domain.Platform) bool {
	for _, p := range post.Platforms {
		if p == platform {
			return true
		}
	}
	return false
}
