package memory

import (
	"context"
	"testing"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
)

func seedPosts(t *testing.T, repo ports.PostRepository) {
	t.Helper()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, post := range []*domain.Post{
		{ID: "p1", Content: "a", OwnerUserID: "u1", Status: domain.PostDraft, Platforms: []domain.Platform{domain.PlatformTwitter}, CreatedAt: base},
		{ID: "p2", Content: "b", OwnerUserID: "u1", Status: domain.PostPublished, Platforms: []domain.Platform{domain.PlatformInstagram}, CreatedAt: base.Add(time.Hour)},
		{ID: "p3", Content: "c", OwnerUserID: "u2", OwnerTeamID: "t1", Status: domain.PostDraft, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "p4", Content: "d", OwnerUserID: "u3", Status: domain.PostDraft, CreatedAt: base.Add(3 * time.Hour)},
	} {
		if err := repo.Create(context.Background(), post); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMemoryPostRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()

	post := &domain.Post{ID: "p1", Content: "hello", OwnerUserID: "u1"}
	if err := repo.Create(ctx, post); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, post); err == nil {
		t.Error("duplicate create should fail")
	}

	// The stored copy is isolated from later mutation of the argument.
	post.Content = "mutated"
	got, err := repo.GetByID(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "hello" {
		t.Errorf("stored post content = %q, want %q", got.Content, "hello")
	}

	got.Content = "updated"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, err := repo.GetByID(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Content != "updated" {
		t.Errorf("content after update = %q", again.Content)
	}

	if err := repo.Delete(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByID(ctx, "p1"); err != domain.ErrPostNotFound {
		t.Errorf("expected ErrPostNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "p1"); err != domain.ErrPostNotFound {
		t.Errorf("expected ErrPostNotFound on double delete, got %v", err)
	}
}

func TestMemoryPostRepository_ListOwnershipFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()
	seedPosts(t, repo)

	tests := []struct {
		name   string
		filter domain.OwnershipFilter
		want   []string
	}{
		{
			name:   "user sees own posts",
			filter: domain.OwnershipFilter{UserID: "u1"},
			want:   []string{"p2", "p1"},
		},
		{
			name:   "team membership adds team posts",
			filter: domain.OwnershipFilter{UserID: "u1", TeamID: "t1"},
			want:   []string{"p3", "p2", "p1"},
		},
		{
			name:   "admin sees everything newest first",
			filter: domain.OwnershipFilter{All: true},
			want:   []string{"p4", "p3", "p2", "p1"},
		},
		{
			name:   "no match means empty, not error",
			filter: domain.OwnershipFilter{UserID: "ghost"},
			want:   nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			posts, err := repo.List(ctx, tc.filter, ports.PostListOptions{})
			if err != nil {
				t.Fatal(err)
			}
			if len(posts) != len(tc.want) {
				t.Fatalf("got %d posts, want %d", len(posts), len(tc.want))
			}
			for i, id := range tc.want {
				if posts[i].ID != id {
					t.Errorf("posts[%d] = %s, want %s", i, posts[i].ID, id)
				}
			}
		})
	}
}

func TestMemoryPostRepository_ListOptions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()
	seedPosts(t, repo)

	t.Run("status filter", func(t *testing.T) {
		posts, err := repo.List(ctx, domain.OwnershipFilter{All: true}, ports.PostListOptions{Status: domain.PostPublished})
		if err != nil {
			t.Fatal(err)
		}
		if len(posts) != 1 || posts[0].ID != "p2" {
			t.Errorf("expected only p2, got %d posts", len(posts))
		}
	})

	t.Run("platform filter", func(t *testing.T) {
		posts, err := repo.List(ctx, domain.OwnershipFilter{All: true}, ports.PostListOptions{Platform: domain.PlatformTwitter})
		if err != nil {
			t.Fatal(err)
		}
		if len(posts) != 1 || posts[0].ID != "p1" {
			t.Errorf("expected only p1, got %d posts", len(posts))
		}
	})

	t.Run("limit truncates newest first", func(t *testing.T) {
		posts, err := repo.List(ctx, domain.OwnershipFilter{All: true}, ports.PostListOptions{Limit: 2})
		if err != nil {
			t.Fatal(err)
		}
		if len(posts) != 2 || posts[0].ID != "p4" {
			t.Errorf("expected the 2 newest posts, got %d starting with %s", len(posts), posts[0].ID)
		}
	})
}
