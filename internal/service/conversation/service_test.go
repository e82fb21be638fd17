package conversation_test

import (
	"context"
	"sync"
	"testing"

	"ripple_chat_server/internal/model"
	"ripple_chat_server/internal/service/conversation"
	"ripple_chat_server/internal/service/event"
	"ripple_chat_server/internal/testutil"
	"ripple_chat_server/pkg/errorx"
)

func newService(t *testing.T) (*conversation.Service, *testutil.FakeStore, *testutil.EventRecorder) {
	t.Helper()
	store := testutil.NewFakeStore()
	recorder := testutil.NewEventRecorder()
	svc := conversation.NewConversationService(store.Repos(), recorder)
	svc.DisableCache()
	for _, u := range []string{"alice", "bob", "carol", "dave"} {
		store.AddUser(u, u)
	}
	return svc, store, recorder
}

func TestGetOrCreateDirectIsIdempotent(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	first, err := svc.GetOrCreateDirect(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("create direct: %v", err)
	}
	// order of the pair must not matter
	second, err := svc.GetOrCreateDirect(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("reopen direct: %v", err)
	}
	if first.Uuid != second.Uuid {
		t.Fatalf("got two conversations for one pair: %s vs %s", first.Uuid, second.Uuid)
	}
}

func TestGetOrCreateDirectConcurrent(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	const callers = 8
	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := svc.GetOrCreateDirect(ctx, "alice", "bob")
			if err != nil {
				t.Errorf("concurrent create: %v", err)
				return
			}
			results[i] = conv.Uuid
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d got %s, caller 0 got %s", i, results[i], results[0])
		}
	}
}

func TestGetOrCreateDirectRejectsSelf(t *testing.T) {
	svc, _, _ := newService(t)
	if _, err := svc.GetOrCreateDirect(context.Background(), "alice", "alice"); errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("self conversation should be invalid, got %v", err)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateGroup(ctx, "alice", []string{"bob", "carol"}, "", ""); errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("empty name should be invalid, got %v", err)
	}
	if _, err := svc.CreateGroup(ctx, "alice", []string{"bob"}, "trio", ""); errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("one member should be invalid, got %v", err)
	}

	conv, err := svc.CreateGroup(ctx, "alice", []string{"bob", "carol"}, "trio", "")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	creator := store.Member(conv.Uuid, "alice")
	if creator == nil || !creator.IsAdmin {
		t.Fatal("creator should be the group admin")
	}
	if member := store.Member(conv.Uuid, "bob"); member == nil || member.IsAdmin {
		t.Fatal("regular members should not be admins")
	}
}

func TestSetTypingRequiresParticipant(t *testing.T) {
	svc, _, recorder := newService(t)
	ctx := context.Background()

	conv, err := svc.GetOrCreateDirect(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("create direct: %v", err)
	}

	if err := svc.SetTyping(ctx, conv.Uuid, "carol", true); !errorx.IsNotAuthorized(err) {
		t.Fatalf("outsider typing should be NotAuthorized, got %v", err)
	}

	if err := svc.SetTyping(ctx, conv.Uuid, "alice", true); err != nil {
		t.Fatalf("set typing: %v", err)
	}
	if users := svc.TypingUsers(conv.Uuid); len(users) != 1 || users[0] != "alice" {
		t.Fatalf("typing users = %v, want [alice]", users)
	}

	// repeated signals are fine and always re-broadcast
	if err := svc.SetTyping(ctx, conv.Uuid, "alice", true); err != nil {
		t.Fatalf("repeat typing: %v", err)
	}
	if got := len(recorder.OfType(event.TypeTyping)); got != 2 {
		t.Fatalf("typing events = %d, want 2", got)
	}

	if err := svc.SetTyping(ctx, conv.Uuid, "alice", false); err != nil {
		t.Fatalf("stop typing: %v", err)
	}
	if users := svc.TypingUsers(conv.Uuid); len(users) != 0 {
		t.Fatalf("typing users = %v, want empty", users)
	}
}

func TestMarkReadResetsUnread(t *testing.T) {
	svc, store, recorder := newService(t)
	ctx := context.Background()

	conv, err := svc.GetOrCreateDirect(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("create direct: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := svc.IncrementUnread(ctx, conv.Uuid, "alice"); err != nil {
			t.Fatalf("increment unread: %v", err)
		}
	}
	if m := store.Member(conv.Uuid, "bob"); m.UnreadCount != 3 {
		t.Fatalf("bob unread = %d, want 3", m.UnreadCount)
	}
	if m := store.Member(conv.Uuid, "alice"); m.UnreadCount != 0 {
		t.Fatalf("alice unread = %d, want 0 (sender excluded)", m.UnreadCount)
	}

	if err := svc.MarkRead(ctx, conv.Uuid, "bob"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if m := store.Member(conv.Uuid, "bob"); m.UnreadCount != 0 {
		t.Fatalf("bob unread after read = %d, want 0", m.UnreadCount)
	}
	if got := len(recorder.OfType(event.TypeConversationRead)); got != 1 {
		t.Fatalf("conversation_read events = %d, want 1", got)
	}

	// second call is a no-op, but still announces the read
	if err := svc.MarkRead(ctx, conv.Uuid, "bob"); err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}
}

func TestMarkReadSeenMarksBacklog(t *testing.T) {
	svc, store, recorder := newService(t)
	ctx := context.Background()

	conv, err := svc.GetOrCreateDirect(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("create direct: %v", err)
	}
	repos := store.Repos()
	for _, id := range []string{"M1", "M2", "M3"} {
		msg := &model.Message{
			Uuid:             id,
			ConversationUuid: conv.Uuid,
			SenderId:         "alice",
			Type:             model.MessageTypeText,
			Content:          "hello " + id,
		}
		if err := repos.Message.Create(ctx, msg); err != nil {
			t.Fatalf("seed message %s: %v", id, err)
		}
	}

	if err := svc.MarkRead(ctx, conv.Uuid, "bob"); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	// every backlog message is acknowledged towards its sender
	seen := recorder.OfType(event.TypeMessageSeen)
	if len(seen) != 3 {
		t.Fatalf("message_seen events = %d, want 3", len(seen))
	}
	for _, evt := range seen {
		if len(evt.Users) != 1 || evt.Users[0] != "alice" {
			t.Fatalf("seen event targets = %v, want [alice]", evt.Users)
		}
	}
	unseen, err := repos.Message.FindUnseenBy(ctx, conv.Uuid, "bob")
	if err != nil {
		t.Fatalf("find unseen: %v", err)
	}
	if len(unseen) != 0 {
		t.Fatalf("unseen after mark read = %d, want 0", len(unseen))
	}

	// the receipts already exist, so a repeat acknowledges nothing
	recorder.Reset()
	if err := svc.MarkRead(ctx, conv.Uuid, "bob"); err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}
	if got := len(recorder.OfType(event.TypeMessageSeen)); got != 0 {
		t.Fatalf("repeat mark read produced %d seen events, want 0", got)
	}
}

func TestUpdateSettings(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	conv, err := svc.GetOrCreateDirect(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("create direct: %v", err)
	}

	theme := "midnight"
	muted := true
	if err := svc.UpdateSettings(ctx, conv.Uuid, "carol", &theme, nil, nil); !errorx.IsNotAuthorized(err) {
		t.Fatalf("outsider settings change should be NotAuthorized, got %v", err)
	}
	if err := svc.UpdateSettings(ctx, conv.Uuid, "alice", &theme, nil, &muted); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	updated, err := svc.Get(ctx, conv.Uuid, "alice")
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if updated.Theme != "midnight" {
		t.Fatalf("theme = %s, want midnight", updated.Theme)
	}
	member := store.Member(conv.Uuid, "alice")
	if !member.IsMuted || !member.MutedUntil.Valid {
		t.Fatal("mute should set the flag and a deadline")
	}
}

func TestDeleteDirectArchivesForCallerOnly(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	conv, err := svc.GetOrCreateDirect(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("create direct: %v", err)
	}
	if err := svc.DeleteOrArchive(ctx, conv.Uuid, "alice"); err != nil {
		t.Fatalf("archive direct: %v", err)
	}

	aliceList, err := svc.ListForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("list for alice: %v", err)
	}
	if len(aliceList) != 0 {
		t.Fatalf("alice list = %d conversations, want 0 after archive", len(aliceList))
	}

	bobList, err := svc.ListForUser(ctx, "bob")
	if err != nil {
		t.Fatalf("list for bob: %v", err)
	}
	if len(bobList) != 1 {
		t.Fatalf("bob list = %d conversations, want 1", len(bobList))
	}
}

func TestDeleteGroupRequiresAdmin(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	conv, err := svc.CreateGroup(ctx, "alice", []string{"bob", "carol"}, "trio", "")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	if err := svc.DeleteOrArchive(ctx, conv.Uuid, "bob"); !errorx.IsNotAuthorized(err) {
		t.Fatalf("non-admin delete should be NotAuthorized, got %v", err)
	}
	if err := svc.DeleteOrArchive(ctx, conv.Uuid, "dave"); !errorx.IsNotAuthorized(err) {
		t.Fatalf("outsider delete should be NotAuthorized, got %v", err)
	}

	if err := svc.DeleteOrArchive(ctx, conv.Uuid, "alice"); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := svc.Get(ctx, conv.Uuid, "alice"); !errorx.IsNotFound(err) {
		t.Fatalf("deleted group should be NotFound, got %v", err)
	}
	if store.MessageCount(conv.Uuid) != 0 {
		t.Fatal("group delete should cascade to its messages")
	}
}
