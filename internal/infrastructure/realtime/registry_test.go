package realtime

import (
	"fmt"
	"sync"
	"testing"

	"socialdeck/internal/core/domain"
)

func TestRegistry_AdmitGrantsInitialScopes(t *testing.T) {
	registry := NewRegistry()
	principal := &domain.Principal{ID: "u1", Role: domain.RoleUser, TeamID: "t1"}

	registry.Admit("c1", principal, make(chan []byte, 1),
		domain.UserScope("u1"),
		domain.TeamScope("t1"),
		domain.NotificationsScope(),
	)

	if registry.ConnectionCount() != 1 {
		t.Fatalf("connection count = %d, want 1", registry.ConnectionCount())
	}

	scopes := registry.Scopes("c1")
	if len(scopes) != 3 {
		t.Errorf("expected 3 initial scopes, got %d", len(scopes))
	}

	got, ok := registry.Principal("c1")
	if !ok || got.ID != "u1" {
		t.Errorf("principal lookup failed: %+v, %v", got, ok)
	}
}

func TestRegistry_JoinAndLeave(t *testing.T) {
	registry := NewRegistry()
	registry.Admit("c1", &domain.Principal{ID: "u1"}, make(chan []byte, 1))

	if !registry.Join("c1", domain.PostScope("p1")) {
		t.Fatal("join on an admitted connection should succeed")
	}
	if channels := registry.sendChannels(domain.PostScope("p1")); len(channels) != 1 {
		t.Errorf("expected 1 member after join, got %d", len(channels))
	}

	registry.Leave("c1", domain.PostScope("p1"))
	if channels := registry.sendChannels(domain.PostScope("p1")); len(channels) != 0 {
		t.Errorf("expected 0 members after leave, got %d", len(channels))
	}

	// Leaving a scope never held and leaving on an unknown connection are
	// both no-ops.
	registry.Leave("c1", domain.PostScope("never-joined"))
	registry.Leave("ghost", domain.PostScope("p1"))
}

func TestRegistry_JoinUnknownConnection(t *testing.T) {
	registry := NewRegistry()
	if registry.Join("ghost", domain.PostScope("p1")) {
		t.Error("join on an unadmitted connection must fail")
	}
}

func TestRegistry_CloseRemovesAllMemberships(t *testing.T) {
	registry := NewRegistry()
	registry.Admit("c1", &domain.Principal{ID: "u1"}, make(chan []byte, 1), domain.UserScope("u1"))
	registry.Join("c1", domain.PostScope("p1"))
	registry.Join("c1", domain.CampaignScope("camp1"))

	registry.Close("c1")

	if registry.ConnectionCount() != 0 {
		t.Error("closed connection still counted")
	}
	for _, scope := range []domain.ChannelScope{
		domain.UserScope("u1"),
		domain.PostScope("p1"),
		domain.CampaignScope("camp1"),
	} {
		if channels := registry.sendChannels(scope); len(channels) != 0 {
			t.Errorf("membership in %s outlived the connection", scope.Key())
		}
	}
	if _, ok := registry.Principal("c1"); ok {
		t.Error("principal lookup should fail after close")
	}
}

func TestRegistry_BroadcastReachesEveryConnection(t *testing.T) {
	registry := NewRegistry()
	registry.Admit("c1", &domain.Principal{ID: "u1"}, make(chan []byte, 1))
	registry.Admit("c2", &domain.Principal{ID: "u2"}, make(chan []byte, 1), domain.PostScope("p1"))

	channels := registry.sendChannels(domain.BroadcastScope())
	if len(channels) != 2 {
		t.Errorf("broadcast should target every connection, got %d", len(channels))
	}
}

// Dispatch reads race against join/leave/close writes on the same scopes.
// Run with -race: the registry must never hand out a half-updated member
// set, and closing must win over any concurrent join.
func TestRegistry_ConcurrentJoinLeaveDispatch(t *testing.T) {
	registry := NewRegistry()
	scopes := []domain.ChannelScope{
		domain.PostScope("p1"),
		domain.PostScope("p2"),
		domain.TeamScope("t1"),
	}

	const conns = 16
	var wg sync.WaitGroup
	for i := 0; i < conns; i++ {
		id := ConnID(fmt.Sprintf("c%d", i))
		registry.Admit(id, &domain.Principal{ID: domain.UserID(fmt.Sprintf("u%d", i))}, make(chan []byte, 4))

		wg.Add(1)
		go func(id ConnID) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				scope := scopes[j%len(scopes)]
				registry.Join(id, scope)
				registry.Leave(id, scope)
			}
			registry.Close(id)
		}(id)
	}

	// Concurrent dispatch-side reads over the same scopes.
	stop := make(chan struct{})
	var readers sync.WaitGroup
	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for _, scope := range scopes {
					for _, ch := range registry.sendChannels(scope) {
						if ch == nil {
							t.Error("dispatch observed a nil send channel")
							return
						}
					}
				}
				registry.sendChannels(domain.BroadcastScope())
			}
		}()
	}

	wg.Wait()
	close(stop)
	readers.Wait()

	if registry.ConnectionCount() != 0 {
		t.Errorf("all connections closed, but %d remain", registry.ConnectionCount())
	}
	for _, scope := range scopes {
		if channels := registry.sendChannels(scope); len(channels) != 0 {
			t.Errorf("membership in %s outlived every connection", scope.Key())
		}
	}
}

// A join racing a close must either land before it (and be removed with the
// connection) or be refused; it can never resurrect the connection.
func TestRegistry_JoinAfterCloseIsRefused(t *testing.T) {
	registry := NewRegistry()
	scope := domain.PostScope("p1")

	for i := 0; i < 100; i++ {
		id := ConnID(fmt.Sprintf("c%d", i))
		registry.Admit(id, &domain.Principal{ID: "u1"}, make(chan []byte, 1))

		done := make(chan struct{})
		go func() {
			registry.Close(id)
			close(done)
		}()
		registry.Join(id, scope)
		<-done

		if _, ok := registry.Principal(id); ok {
			t.Fatal("join must not resurrect a closed connection")
		}
		if channels := registry.sendChannels(scope); len(channels) != 0 {
			t.Fatalf("iteration %d: membership outlived the connection", i)
		}
	}
}

func TestRegistry_ScopeIsolation(t *testing.T) {
	registry := NewRegistry()
	registry.Admit("c1", &domain.Principal{ID: "u1"}, make(chan []byte, 1), domain.PostScope("p1"))
	registry.Admit("c2", &domain.Principal{ID: "u2"}, make(chan []byte, 1), domain.PostScope("p2"))

	if channels := registry.sendChannels(domain.PostScope("p1")); len(channels) != 1 {
		t.Errorf("scope p1 should have exactly its own member, got %d", len(channels))
	}
}
