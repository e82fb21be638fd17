package event

import (
	"context"
	"encoding/json"
	"testing"

	"ripple_chat_server/internal/service/presence"
	"ripple_chat_server/pkg/constants"
)

type staticGraph struct{}

func (staticGraph) NeighborIDs(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, members map[string][]string) (*Router, *presence.Registry) {
	t.Helper()
	registry := presence.NewRegistry(staticGraph{}, nil)
	broker := NewLocalBroker(registry)
	router := NewRouter(MembershipFunc(func(ctx context.Context, convID string) ([]string, error) {
		return members[convID], nil
	}), broker)
	return router, registry
}

func drainOne(t *testing.T, session *presence.Session) Event {
	t.Helper()
	select {
	case data := <-session.Outbound():
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return evt
	default:
		t.Fatal("expected an event on the session")
		return Event{}
	}
}

func TestPublishToUsersReachesEverySession(t *testing.T) {
	router, registry := newTestRouter(t, nil)

	phone := registry.Connect("alice")
	laptop := registry.Connect("alice")

	router.PublishToUsers(context.Background(), Event{
		Type: TypeUserOnline,
		Data: OnlinePayload{UserID: "bob"},
	}, "alice")

	for _, session := range []*presence.Session{phone, laptop} {
		evt := drainOne(t, session)
		if evt.Type != TypeUserOnline {
			t.Fatalf("type = %s, want %s", evt.Type, TypeUserOnline)
		}
	}
}

func TestPublishToOfflineUserIsDropped(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	// no sessions for carol; must not panic or queue anywhere
	router.PublishToUsers(context.Background(), Event{
		Type: TypeUserOnline,
		Data: OnlinePayload{UserID: "bob"},
	}, "carol")
}

func TestPublishToConversationExcludesSender(t *testing.T) {
	members := map[string][]string{"C1": {"alice", "bob", "carol"}}
	router, registry := newTestRouter(t, members)

	alice := registry.Connect("alice")
	bob := registry.Connect("bob")
	carol := registry.Connect("carol")

	router.PublishToConversation(context.Background(), Event{
		Type: TypeTyping,
		Data: TypingPayload{ConversationID: "C1", UserID: "alice", IsTyping: true},
	}, "C1", "alice")

	if len(alice.Outbound()) != 0 {
		t.Fatal("the excluded user should not receive the event")
	}
	for _, session := range []*presence.Session{bob, carol} {
		evt := drainOne(t, session)
		if evt.Type != TypeTyping {
			t.Fatalf("type = %s, want %s", evt.Type, TypeTyping)
		}
	}
}

func TestSlowSessionIsEvicted(t *testing.T) {
	router, registry := newTestRouter(t, nil)
	registry.Connect("alice")

	// fill the buffer without draining, then one more to trip eviction
	for i := 0; i <= constants.CHANNEL_SIZE; i++ {
		router.PublishToUsers(context.Background(), Event{
			Type: TypeUserOnline,
			Data: OnlinePayload{UserID: "bob"},
		}, "alice")
	}

	if registry.IsOnline("alice") {
		t.Fatal("a session that stopped draining should be evicted")
	}
}
