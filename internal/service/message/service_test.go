package message_test

import (
	"context"
	"sync"
	"testing"

	"ripple_chat_server/internal/dto/respond"
	"ripple_chat_server/internal/model"
	"ripple_chat_server/internal/service/conversation"
	"ripple_chat_server/internal/service/event"
	"ripple_chat_server/internal/service/message"
	"ripple_chat_server/internal/testutil"
	"ripple_chat_server/pkg/constants"
	"ripple_chat_server/pkg/errorx"
)

type fixture struct {
	svc      *message.Service
	convSvc  *conversation.Service
	store    *testutil.FakeStore
	recorder *testutil.EventRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewFakeStore()
	recorder := testutil.NewEventRecorder()
	convSvc := conversation.NewConversationService(store.Repos(), recorder)
	convSvc.DisableCache()
	svc := message.NewMessageService(store.Repos(), recorder, convSvc)
	for _, u := range []string{"alice", "bob", "carol"} {
		store.AddUser(u, u)
	}
	return &fixture{svc: svc, convSvc: convSvc, store: store, recorder: recorder}
}

func (f *fixture) direct(t *testing.T, a, b string) string {
	t.Helper()
	conv, err := f.convSvc.GetOrCreateDirect(context.Background(), a, b)
	if err != nil {
		t.Fatalf("create direct: %v", err)
	}
	return conv.Uuid
}

func (f *fixture) send(t *testing.T, convID, sender, content string) string {
	t.Helper()
	rsp, err := f.svc.Append(context.Background(), convID, sender, message.SendParams{Content: content})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	return rsp.MessageId
}

func TestAppendRequiresParticipant(t *testing.T) {
	f := newFixture(t)
	convID := f.direct(t, "alice", "bob")

	_, err := f.svc.Append(context.Background(), convID, "carol", message.SendParams{Content: "hi"})
	if !errorx.IsNotAuthorized(err) {
		t.Fatalf("outsider append should be NotAuthorized, got %v", err)
	}
}

func TestAppendSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, "alice", "bob")

	f.send(t, convID, "alice", "hello bob")

	if m := f.store.Member(convID, "bob"); m.UnreadCount != 1 {
		t.Fatalf("bob unread = %d, want 1", m.UnreadCount)
	}
	if m := f.store.Member(convID, "alice"); m.UnreadCount != 0 {
		t.Fatalf("alice unread = %d, want 0", m.UnreadCount)
	}

	conv, err := f.convSvc.Get(ctx, convID, "alice")
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conv.LastMessagePreview != "hello bob" {
		t.Fatalf("preview = %q, want %q", conv.LastMessagePreview, "hello bob")
	}

	events := f.recorder.OfType(event.TypeNewMessage)
	if len(events) != 1 {
		t.Fatalf("new_message events = %d, want 1", len(events))
	}
	if events[0].Exclude != "alice" {
		t.Fatalf("sender should be excluded from fan-out, got exclude=%q", events[0].Exclude)
	}
}

func TestReplyMustStayInConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convAB := f.direct(t, "alice", "bob")
	convAC := f.direct(t, "alice", "carol")

	target := f.send(t, convAB, "alice", "original")

	if _, err := f.svc.Append(ctx, convAC, "alice", message.SendParams{Content: "re", ReplyTo: target}); errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("cross-conversation reply should be invalid, got %v", err)
	}
	if _, err := f.svc.Append(ctx, convAB, "bob", message.SendParams{Content: "re", ReplyTo: target}); err != nil {
		t.Fatalf("same-conversation reply: %v", err)
	}
}

func TestOfflineBacklogDeliveredOnFetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, "alice", "bob")

	// bob is offline while alice sends three messages
	for _, text := range []string{"one", "two", "three"} {
		f.send(t, convID, "alice", text)
	}
	if m := f.store.Member(convID, "bob"); m.UnreadCount != 3 {
		t.Fatalf("bob unread = %d, want 3", m.UnreadCount)
	}

	page, err := f.svc.ListPage(ctx, convID, "bob", 1, 0)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(page.Messages))
	}
	// oldest first within the page
	if page.Messages[0].Content != "one" || page.Messages[2].Content != "three" {
		t.Fatalf("page order = [%s .. %s], want [one .. three]",
			page.Messages[0].Content, page.Messages[2].Content)
	}
	if page.HasMore {
		t.Fatal("three messages in one page should not report more")
	}

	// fetching marks delivered, not seen
	unseen, err := f.store.FindUnseenBy(ctx, convID, "bob")
	if err != nil {
		t.Fatalf("find unseen: %v", err)
	}
	if len(unseen) != 3 {
		t.Fatalf("unseen after fetch = %d, want 3 (delivery is not seen)", len(unseen))
	}
}

func TestConcurrentAppendFanOutFollowsLedgerOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, "alice", "bob")

	const writers = 4
	const perWriter = 25
	senders := []string{"alice", "bob"}
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			sender := senders[w%len(senders)]
			for i := 0; i < perWriter; i++ {
				if _, err := f.svc.Append(ctx, convID, sender, message.SendParams{Content: "m"}); err != nil {
					t.Errorf("concurrent append: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	page, err := f.svc.ListPage(ctx, convID, "alice", 1, writers*perWriter)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page.Messages) != writers*perWriter {
		t.Fatalf("ledger holds %d messages, want %d", len(page.Messages), writers*perWriter)
	}

	// new_message is published under the same per-conversation lock as the
	// insert, so the fan-out sequence must equal the ledger sequence
	events := f.recorder.OfType(event.TypeNewMessage)
	if len(events) != writers*perWriter {
		t.Fatalf("new_message events = %d, want %d", len(events), writers*perWriter)
	}
	for i, evt := range events {
		rsp, ok := evt.Data.(respond.MessageRespond)
		if !ok {
			t.Fatalf("event %d carries %T, want MessageRespond", i, evt.Data)
		}
		if rsp.MessageId != page.Messages[i].MessageId {
			t.Fatalf("fan-out order diverges from ledger order at position %d", i)
		}
	}
}

func TestMarkSeenNotifiesSenderOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, "alice", "bob")
	msgID := f.send(t, convID, "alice", "hello")

	if err := f.svc.MarkSeen(ctx, msgID, "bob"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	if err := f.svc.MarkSeen(ctx, msgID, "bob"); err != nil {
		t.Fatalf("repeat mark seen: %v", err)
	}

	events := f.recorder.OfType(event.TypeMessageSeen)
	if len(events) != 1 {
		t.Fatalf("message_seen events = %d, want exactly 1", len(events))
	}
	if len(events[0].Users) != 1 || events[0].Users[0] != "alice" {
		t.Fatalf("seen event targets = %v, want [alice]", events[0].Users)
	}
}

func TestMarkSeenConcurrentNotifiesSenderOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, "alice", "bob")
	msgID := f.send(t, convID, "alice", "hello")

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.svc.MarkSeen(ctx, msgID, "bob"); err != nil {
				t.Errorf("concurrent mark seen: %v", err)
			}
		}()
	}
	wg.Wait()

	// the unique receipt row lets exactly one caller win the stamp
	events := f.recorder.OfType(event.TypeMessageSeen)
	if len(events) != 1 {
		t.Fatalf("message_seen events = %d, want exactly 1", len(events))
	}
	if len(events[0].Users) != 1 || events[0].Users[0] != "alice" {
		t.Fatalf("seen event targets = %v, want [alice]", events[0].Users)
	}
}

func TestMarkSeenOwnMessageIsNoop(t *testing.T) {
	f := newFixture(t)
	convID := f.direct(t, "alice", "bob")
	msgID := f.send(t, convID, "alice", "hello")

	if err := f.svc.MarkSeen(context.Background(), msgID, "alice"); err != nil {
		t.Fatalf("self mark seen: %v", err)
	}
	if len(f.recorder.OfType(event.TypeMessageSeen)) != 0 {
		t.Fatal("seeing your own message should not notify anyone")
	}
}

func TestToggleReactionSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, "alice", "bob")
	msgID := f.send(t, convID, "alice", "hello")

	// add
	if err := f.svc.ToggleReaction(ctx, msgID, "bob", "👍"); err != nil {
		t.Fatalf("add reaction: %v", err)
	}
	reactions, _ := f.store.FindReactionsByMessage(ctx, msgID)
	if len(reactions) != 1 || reactions[0].Emoji != "👍" {
		t.Fatalf("reactions = %v, want one 👍", reactions)
	}

	// replace
	if err := f.svc.ToggleReaction(ctx, msgID, "bob", "😂"); err != nil {
		t.Fatalf("replace reaction: %v", err)
	}
	reactions, _ = f.store.FindReactionsByMessage(ctx, msgID)
	if len(reactions) != 1 || reactions[0].Emoji == "👍" {
		t.Fatalf("reactions = %v, want the replacement only", reactions)
	}

	// toggle off with the same emoji
	if err := f.svc.ToggleReaction(ctx, msgID, "bob", reactions[0].Emoji); err != nil {
		t.Fatalf("remove reaction: %v", err)
	}
	reactions, _ = f.store.FindReactionsByMessage(ctx, msgID)
	if len(reactions) != 0 {
		t.Fatalf("reactions = %v, want empty", reactions)
	}

	if got := len(f.recorder.OfType(event.TypeMessageReaction)); got != 3 {
		t.Fatalf("reaction events = %d, want 3", got)
	}
}

func TestSoftDeleteOnlySender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, "alice", "bob")
	msgID := f.send(t, convID, "alice", "secret")

	if err := f.svc.SoftDelete(ctx, msgID, "bob"); !errorx.IsNotAuthorized(err) {
		t.Fatalf("non-sender delete should be NotAuthorized, got %v", err)
	}
	if err := f.svc.SoftDelete(ctx, msgID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	msg, err := f.store.FindMessageByUuid(ctx, msgID)
	if err != nil {
		t.Fatalf("find message: %v", err)
	}
	if !msg.IsDeleted || msg.Content != constants.DELETED_PLACEHOLDER {
		t.Fatalf("deleted message = %+v, want placeholder content", msg)
	}

	page, err := f.svc.ListPage(ctx, convID, "bob", 1, 0)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page.Messages) != 0 {
		t.Fatal("deleted messages should not appear in pages")
	}
}

func TestForwardSkipsForeignConversations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convAB := f.direct(t, "alice", "bob")
	convAC := f.direct(t, "alice", "carol")
	convBC := f.direct(t, "bob", "carol")

	msgID := f.send(t, convAB, "bob", "worth sharing")

	copies, err := f.svc.Forward(ctx, msgID, "alice", []string{convAC, convBC})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if len(copies) != 1 {
		t.Fatalf("copies = %d, want 1 (alice is not in bob-carol)", len(copies))
	}
	if copies[0].ConversationId != convAC {
		t.Fatalf("copy landed in %s, want %s", copies[0].ConversationId, convAC)
	}
	if copies[0].ForwardedFrom != "bob" {
		t.Fatalf("forwardedFrom = %s, want the original sender bob", copies[0].ForwardedFrom)
	}
	if copies[0].SenderId != "alice" {
		t.Fatalf("senderId = %s, want the forwarder alice", copies[0].SenderId)
	}
	if f.store.MessageCount(convBC) != 0 {
		t.Fatal("no copy should land in a conversation the forwarder cannot post to")
	}
}

func TestTextMessageNeedsContent(t *testing.T) {
	f := newFixture(t)
	convID := f.direct(t, "alice", "bob")

	_, err := f.svc.Append(context.Background(), convID, "alice", message.SendParams{Type: model.MessageTypeText})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("empty text should be invalid, got %v", err)
	}
}
