package presence

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeGraph struct {
	neighbors map[string][]string
}

func (g *fakeGraph) NeighborIDs(ctx context.Context, userID string) ([]string, error) {
	return g.neighbors[userID], nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	online  map[string][][]string // user -> target sets per notification
	offline map[string][][]string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		online:  make(map[string][][]string),
		offline: make(map[string][][]string),
	}
}

func (n *fakeNotifier) NotifyOnline(userID string, since time.Time, targets []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.online[userID] = append(n.online[userID], targets)
}

func (n *fakeNotifier) NotifyOffline(userID string, lastSeen time.Time, targets []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offline[userID] = append(n.offline[userID], targets)
}

func TestConnectDisconnectSingleSession(t *testing.T) {
	registry := NewRegistry(&fakeGraph{}, nil)

	session := registry.Connect("alice")
	if !registry.IsOnline("alice") {
		t.Fatal("alice should be online after connect")
	}
	if got := len(registry.SessionsFor("alice")); got != 1 {
		t.Fatalf("sessions = %d, want 1", got)
	}

	registry.Disconnect(session.ID)
	if registry.IsOnline("alice") {
		t.Fatal("alice should be offline after disconnect")
	}
}

func TestMultiDeviceOfflineOnlyOnLastDisconnect(t *testing.T) {
	graph := &fakeGraph{neighbors: map[string][]string{"alice": {"bob"}}}
	registry := NewRegistry(graph, nil)
	notifier := newFakeNotifier()
	registry.SetNotifier(notifier)

	// bob online so he is a notification target
	registry.Connect("bob")

	phone := registry.Connect("alice")
	laptop := registry.Connect("alice")

	if got := len(notifier.online["alice"]); got != 1 {
		t.Fatalf("online notifications = %d, want exactly 1 for two devices", got)
	}

	registry.Disconnect(phone.ID)
	if !registry.IsOnline("alice") {
		t.Fatal("alice still has a session, should stay online")
	}
	if len(notifier.offline["alice"]) != 0 {
		t.Fatal("no offline notification while a session remains")
	}

	registry.Disconnect(laptop.ID)
	if registry.IsOnline("alice") {
		t.Fatal("alice should be offline after last disconnect")
	}
	if got := len(notifier.offline["alice"]); got != 1 {
		t.Fatalf("offline notifications = %d, want exactly 1", got)
	}
	if targets := notifier.offline["alice"][0]; len(targets) != 1 || targets[0] != "bob" {
		t.Fatalf("offline targets = %v, want [bob]", targets)
	}
}

func TestOfflineNeighborsNotNotified(t *testing.T) {
	graph := &fakeGraph{neighbors: map[string][]string{"alice": {"bob", "carol"}}}
	registry := NewRegistry(graph, nil)
	notifier := newFakeNotifier()
	registry.SetNotifier(notifier)

	// only bob is online
	registry.Connect("bob")
	registry.Connect("alice")

	targets := notifier.online["alice"]
	if len(targets) != 1 {
		t.Fatalf("online notifications = %d, want 1", len(targets))
	}
	if len(targets[0]) != 1 || targets[0][0] != "bob" {
		t.Fatalf("targets = %v, want [bob]", targets[0])
	}
}

func TestDisconnectUnknownSessionIsNoop(t *testing.T) {
	registry := NewRegistry(&fakeGraph{}, nil)
	registry.Disconnect("no-such-session")
}

func TestPushAfterDisconnectFails(t *testing.T) {
	registry := NewRegistry(&fakeGraph{}, nil)
	session := registry.Connect("alice")
	registry.Disconnect(session.ID)

	if session.Push([]byte("late")) {
		t.Fatal("push to a closed session should report failure")
	}
}

func TestPushFullBufferFails(t *testing.T) {
	session := newSession("s1", "alice", 2)
	if !session.Push([]byte("a")) || !session.Push([]byte("b")) {
		t.Fatal("pushes within the buffer should succeed")
	}
	if session.Push([]byte("c")) {
		t.Fatal("push beyond the buffer should fail, not block")
	}
}
