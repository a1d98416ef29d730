package realtime

import (
	"encoding/json"
	"testing"

	"socialdeck/internal/core/domain"

	"go.uber.org/zap/zaptest"
)

func TestDispatcher_DeliversToScopeMembers(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, zaptest.NewLogger(t).Sugar())

	member := make(chan []byte, 4)
	outsider := make(chan []byte, 4)
	registry.Admit("c1", &domain.Principal{ID: "u1"}, member, domain.PostScope("p1"))
	registry.Admit("c2", &domain.Principal{ID: "u2"}, outsider, domain.PostScope("p2"))

	dispatcher.Dispatch(domain.Event{Type: "post:updated", Data: map[string]string{"id": "p1"}}, domain.PostScope("p1"))

	select {
	case payload := <-member:
		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			t.Fatalf("payload is not a valid envelope: %v", err)
		}
		if env.Type != "post:updated" {
			t.Errorf("envelope type = %s", env.Type)
		}
		if env.Scope != "post:p1" {
			t.Errorf("envelope scope = %s", env.Scope)
		}
		if env.Timestamp.IsZero() {
			t.Error("envelope timestamp not set")
		}
	default:
		t.Fatal("scope member received nothing")
	}

	select {
	case <-outsider:
		t.Fatal("event leaked to a connection outside the scope")
	default:
	}
}

func TestDispatcher_SlowConsumerIsSkippedNotBlocked(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, zaptest.NewLogger(t).Sugar())

	// Buffer of one, pre-filled: the connection cannot accept anything.
	full := make(chan []byte, 1)
	full <- []byte("stale")
	healthy := make(chan []byte, 4)

	registry.Admit("slow", &domain.Principal{ID: "u1"}, full, domain.TeamScope("t1"))
	registry.Admit("fast", &domain.Principal{ID: "u2"}, healthy, domain.TeamScope("t1"))

	var gotDelivered, gotDropped int
	dispatcher.SetObserver(func(scope domain.ChannelScope, delivered, dropped int) {
		gotDelivered, gotDropped = delivered, dropped
	})

	// Must return immediately even though one member cannot receive.
	dispatcher.Dispatch(domain.Event{Type: "team:update"}, domain.TeamScope("t1"))

	if gotDelivered != 1 || gotDropped != 1 {
		t.Errorf("delivered/dropped = %d/%d, want 1/1", gotDelivered, gotDropped)
	}
	if len(healthy) != 1 {
		t.Errorf("healthy member should have received the event")
	}
	// The slow consumer's buffer is untouched; the event for it is gone.
	if got := <-full; string(got) != "stale" {
		t.Errorf("slow consumer buffer disturbed: %q", got)
	}
	if len(full) != 0 {
		t.Error("dropped event must not be queued anywhere")
	}
}

func TestDispatcher_EmptyScopeIsNoOp(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, zaptest.NewLogger(t).Sugar())

	// No members, no panic, nothing delivered.
	dispatcher.Dispatch(domain.Event{Type: "post:updated"}, domain.PostScope("nobody"))
}

type recordingBridge struct {
	scopes   []string
	payloads [][]byte
}

func (b *recordingBridge) Publish(scope domain.ChannelScope, payload []byte) {
	b.scopes = append(b.scopes, scope.Key())
	b.payloads = append(b.payloads, payload)
}

func TestDispatcher_ForwardsOverBridge(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, zaptest.NewLogger(t).Sugar())

	bridge := &recordingBridge{}
	dispatcher.SetBridge(bridge)

	dispatcher.Dispatch(domain.Event{Type: "post:published"}, domain.PostScope("p1"))

	if len(bridge.scopes) != 1 || bridge.scopes[0] != "post:p1" {
		t.Fatalf("bridge publish scopes = %v", bridge.scopes)
	}
}

func TestDispatcher_DeliverRemoteDoesNotRepublish(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, zaptest.NewLogger(t).Sugar())

	bridge := &recordingBridge{}
	dispatcher.SetBridge(bridge)

	send := make(chan []byte, 1)
	registry.Admit("c1", &domain.Principal{ID: "u1"}, send, domain.PostScope("p1"))

	dispatcher.DeliverRemote([]byte(`{"type":"post:updated"}`), domain.PostScope("p1"))

	if len(send) != 1 {
		t.Error("remote payload should reach local members")
	}
	if len(bridge.scopes) != 0 {
		t.Error("remote delivery must not loop back over the bridge")
	}
}
