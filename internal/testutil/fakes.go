// Package testutil holds in-memory repository fakes for service tests.
// The fakes enforce the same uniqueness rules the MySQL schema does, so
// conflict paths are exercised without a database.
package testutil

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"ripple_chat_server/internal/dao/mysql/repository"
	"ripple_chat_server/internal/model"
	"ripple_chat_server/pkg/errorx"
)

// FakeStore backs every repository interface with maps.
type FakeStore struct {
	mu sync.Mutex

	conversations map[string]*model.Conversation
	pairKeys      map[string]string // pair_key -> conversation uuid
	members       map[string]map[string]*model.ConversationMember

	messages     map[string]*model.Message
	messageOrder map[string][]string // conversation uuid -> message uuids, append order

	receipts  map[string]map[string]*model.MessageReceipt
	reactions map[string]map[string]*model.MessageReaction

	contacts map[string]map[string]struct{}
	users    map[string]*model.UserInfo
}

// NewFakeStore returns an empty store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		conversations: make(map[string]*model.Conversation),
		pairKeys:      make(map[string]string),
		members:       make(map[string]map[string]*model.ConversationMember),
		messages:      make(map[string]*model.Message),
		messageOrder:  make(map[string][]string),
		receipts:      make(map[string]map[string]*model.MessageReceipt),
		reactions:     make(map[string]map[string]*model.MessageReaction),
		contacts:      make(map[string]map[string]struct{}),
		users:         make(map[string]*model.UserInfo),
	}
}

// Repos wires the store into the aggregate the services take. Interface
// method names collide across repositories, so each gets a thin adapter
// over the shared store.
func (f *FakeStore) Repos() *repository.Repositories {
	return &repository.Repositories{
		Conversation: convRepo{f},
		Member:       f,
		Message:      msgRepo{f},
		Receipt:      f,
		Reaction:     reactRepo{f},
		Contact:      f,
		User:         userRepo{f},
	}
}

type convRepo struct{ s *FakeStore }

func (r convRepo) Create(ctx context.Context, conv *model.Conversation, members []model.ConversationMember) error {
	return r.s.CreateConversation(ctx, conv, members)
}
func (r convRepo) FindByUuid(ctx context.Context, uuid string) (*model.Conversation, error) {
	return r.s.FindConversationByUuid(ctx, uuid)
}
func (r convRepo) FindDirectByPairKey(ctx context.Context, pairKey string) (*model.Conversation, error) {
	return r.s.FindDirectByPairKey(ctx, pairKey)
}
func (r convRepo) FindForUser(ctx context.Context, userUuid string) ([]model.Conversation, error) {
	return r.s.FindForUser(ctx, userUuid)
}
func (r convRepo) UpdateLastMessage(ctx context.Context, convUuid, messageUuid, preview string, at time.Time) error {
	return r.s.UpdateLastMessage(ctx, convUuid, messageUuid, preview, at)
}
func (r convRepo) UpdateSettings(ctx context.Context, convUuid string, theme, emoji *string) error {
	return r.s.UpdateSettings(ctx, convUuid, theme, emoji)
}
func (r convRepo) Delete(ctx context.Context, convUuid string) error {
	return r.s.DeleteConversation(ctx, convUuid)
}

type msgRepo struct{ s *FakeStore }

func (r msgRepo) Create(ctx context.Context, msg *model.Message) error {
	return r.s.CreateMessage(ctx, msg)
}
func (r msgRepo) FindByUuid(ctx context.Context, uuid string) (*model.Message, error) {
	return r.s.FindMessageByUuid(ctx, uuid)
}
func (r msgRepo) FindPage(ctx context.Context, convUuid string, page, pageSize int) ([]model.Message, error) {
	return r.s.FindPage(ctx, convUuid, page, pageSize)
}
func (r msgRepo) FindUnseenBy(ctx context.Context, convUuid, userUuid string) ([]model.Message, error) {
	return r.s.FindUnseenBy(ctx, convUuid, userUuid)
}
func (r msgRepo) SoftDelete(ctx context.Context, uuid, placeholder string, at time.Time) error {
	return r.s.SoftDelete(ctx, uuid, placeholder, at)
}
func (r msgRepo) DeleteByConversation(ctx context.Context, convUuid string) error {
	return r.s.DeleteByConversation(ctx, convUuid)
}

type reactRepo struct{ s *FakeStore }

func (r reactRepo) FindByMessage(ctx context.Context, messageUuid string) ([]model.MessageReaction, error) {
	return r.s.FindReactionsByMessage(ctx, messageUuid)
}
func (r reactRepo) FindByMessageAndUser(ctx context.Context, messageUuid, userUuid string) (*model.MessageReaction, error) {
	return r.s.FindReactionByMessageAndUser(ctx, messageUuid, userUuid)
}
func (r reactRepo) Upsert(ctx context.Context, reaction *model.MessageReaction) error {
	return r.s.UpsertReaction(ctx, reaction)
}
func (r reactRepo) Delete(ctx context.Context, messageUuid, userUuid string) error {
	return r.s.DeleteReaction(ctx, messageUuid, userUuid)
}

type userRepo struct{ s *FakeStore }

func (r userRepo) FindByUuid(ctx context.Context, uuid string) (*model.UserInfo, error) {
	return r.s.FindUserByUuid(ctx, uuid)
}
func (r userRepo) Search(ctx context.Context, query string, limit int) ([]model.UserInfo, error) {
	return r.s.SearchUsers(ctx, query, limit)
}
func (r userRepo) SetOnline(ctx context.Context, uuid string, online bool, lastSeen time.Time) error {
	return r.s.SetOnline(ctx, uuid, online, lastSeen)
}

// AddUser seeds a profile.
func (f *FakeStore) AddUser(uuid, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[uuid] = &model.UserInfo{Uuid: uuid, Username: username, FullName: username}
}

// AddContact seeds a directed follow edge.
func (f *FakeStore) AddContact(from, to string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contacts[from] == nil {
		f.contacts[from] = make(map[string]struct{})
	}
	f.contacts[from][to] = struct{}{}
}

// Member returns the membership row for assertions.
func (f *FakeStore) Member(convUuid, userUuid string) *model.ConversationMember {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.members[convUuid][userUuid]; ok {
		clone := *m
		return &clone
	}
	return nil
}

// MessageCount returns how many ledger entries a conversation holds.
func (f *FakeStore) MessageCount(convUuid string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messageOrder[convUuid])
}

// ConversationRepository

func (f *FakeStore) CreateConversation(ctx context.Context, conv *model.Conversation, members []model.ConversationMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv.PairKey != nil {
		if _, exists := f.pairKeys[*conv.PairKey]; exists {
			return errorx.Newf(errorx.CodeConflict, "create conversation %s: duplicate", conv.Uuid)
		}
		f.pairKeys[*conv.PairKey] = conv.Uuid
	}
	conv.CreatedAt = time.Now()
	clone := *conv
	f.conversations[conv.Uuid] = &clone
	f.members[conv.Uuid] = make(map[string]*model.ConversationMember)
	for i := range members {
		m := members[i]
		m.ConversationUuid = conv.Uuid
		f.members[conv.Uuid][m.UserUuid] = &m
	}
	return nil
}

func (f *FakeStore) FindConversationByUuid(ctx context.Context, uuid string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[uuid]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "find conversation %s: not found", uuid)
	}
	clone := *conv
	return &clone, nil
}

func (f *FakeStore) FindDirectByPairKey(ctx context.Context, pairKey string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uuid, ok := f.pairKeys[pairKey]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "find direct conversation %s: not found", pairKey)
	}
	clone := *f.conversations[uuid]
	return &clone, nil
}

func (f *FakeStore) FindForUser(ctx context.Context, userUuid string) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var convs []model.Conversation
	for uuid, conv := range f.conversations {
		m, ok := f.members[uuid][userUuid]
		if !ok || m.IsArchived {
			continue
		}
		convs = append(convs, *conv)
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastMessageAt.Time.After(convs[j].LastMessageAt.Time)
	})
	return convs, nil
}

func (f *FakeStore) UpdateLastMessage(ctx context.Context, convUuid, messageUuid, preview string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[convUuid]
	if !ok {
		return errorx.Newf(errorx.CodeNotFound, "conversation %s: not found", convUuid)
	}
	conv.LastMessageId = messageUuid
	conv.LastMessagePreview = preview
	conv.LastMessageAt = sql.NullTime{Time: at, Valid: true}
	return nil
}

func (f *FakeStore) UpdateSettings(ctx context.Context, convUuid string, theme, emoji *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[convUuid]
	if !ok {
		return errorx.Newf(errorx.CodeNotFound, "conversation %s: not found", convUuid)
	}
	if theme != nil {
		conv.Theme = *theme
	}
	if emoji != nil {
		conv.Emoji = *emoji
	}
	return nil
}

func (f *FakeStore) DeleteConversation(ctx context.Context, convUuid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[convUuid]
	if !ok {
		return errorx.Newf(errorx.CodeNotFound, "conversation %s: not found", convUuid)
	}
	if conv.PairKey != nil {
		delete(f.pairKeys, *conv.PairKey)
	}
	delete(f.conversations, convUuid)
	delete(f.members, convUuid)
	return nil
}

// MemberRepository

func (f *FakeStore) FindMembers(ctx context.Context, convUuid string) ([]model.ConversationMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var members []model.ConversationMember
	for _, m := range f.members[convUuid] {
		members = append(members, *m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserUuid < members[j].UserUuid })
	return members, nil
}

func (f *FakeStore) FindMember(ctx context.Context, convUuid, userUuid string) (*model.ConversationMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[convUuid][userUuid]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "member %s of %s: not found", userUuid, convUuid)
	}
	clone := *m
	return &clone, nil
}

func (f *FakeStore) IncrementUnread(ctx context.Context, convUuid, excludeUserUuid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[convUuid] {
		if m.UserUuid != excludeUserUuid {
			m.UnreadCount++
		}
	}
	return nil
}

func (f *FakeStore) ResetUnread(ctx context.Context, convUuid, userUuid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.members[convUuid][userUuid]; ok {
		m.UnreadCount = 0
	}
	return nil
}

func (f *FakeStore) SetArchived(ctx context.Context, convUuid, userUuid string, archived bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[convUuid][userUuid]
	if !ok {
		return errorx.Newf(errorx.CodeNotFound, "member %s of %s: not found", userUuid, convUuid)
	}
	m.IsArchived = archived
	return nil
}

func (f *FakeStore) SetMuted(ctx context.Context, convUuid, userUuid string, muted bool, until sql.NullTime) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[convUuid][userUuid]
	if !ok {
		return errorx.Newf(errorx.CodeNotFound, "member %s of %s: not found", userUuid, convUuid)
	}
	m.IsMuted = muted
	m.MutedUntil = until
	return nil
}

// MessageRepository

func (f *FakeStore) CreateMessage(ctx context.Context, msg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.CreatedAt = time.Now()
	clone := *msg
	f.messages[msg.Uuid] = &clone
	f.messageOrder[msg.ConversationUuid] = append(f.messageOrder[msg.ConversationUuid], msg.Uuid)
	return nil
}

func (f *FakeStore) FindMessageByUuid(ctx context.Context, uuid string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[uuid]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "find message %s: not found", uuid)
	}
	clone := *msg
	return &clone, nil
}

func (f *FakeStore) FindPage(ctx context.Context, convUuid string, page, pageSize int) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var live []string
	for _, id := range f.messageOrder[convUuid] {
		if !f.messages[id].IsDeleted {
			live = append(live, id)
		}
	}
	// newest first, like the SQL ordering
	var pageMsgs []model.Message
	start := (page - 1) * pageSize
	for i := 0; i < pageSize; i++ {
		idx := len(live) - 1 - start - i
		if idx < 0 {
			break
		}
		pageMsgs = append(pageMsgs, *f.messages[live[idx]])
	}
	return pageMsgs, nil
}

func (f *FakeStore) FindUnseenBy(ctx context.Context, convUuid, userUuid string) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var unseen []model.Message
	for _, id := range f.messageOrder[convUuid] {
		msg := f.messages[id]
		if msg.SenderId == userUuid || msg.IsDeleted {
			continue
		}
		if r, ok := f.receipts[id][userUuid]; ok && r.SeenAt.Valid {
			continue
		}
		unseen = append(unseen, *msg)
	}
	return unseen, nil
}

func (f *FakeStore) SoftDelete(ctx context.Context, uuid, placeholder string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[uuid]
	if !ok {
		return errorx.Newf(errorx.CodeNotFound, "message %s: not found", uuid)
	}
	msg.IsDeleted = true
	msg.DeletedTime = sql.NullTime{Time: at, Valid: true}
	msg.Content = placeholder
	return nil
}

func (f *FakeStore) DeleteByConversation(ctx context.Context, convUuid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.messageOrder[convUuid] {
		delete(f.messages, id)
		delete(f.receipts, id)
		delete(f.reactions, id)
	}
	delete(f.messageOrder, convUuid)
	return nil
}

// ReceiptRepository

func (f *FakeStore) MarkDelivered(ctx context.Context, messageUuids []string, userUuid string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range messageUuids {
		if f.receipts[id] == nil {
			f.receipts[id] = make(map[string]*model.MessageReceipt)
		}
		if _, exists := f.receipts[id][userUuid]; exists {
			continue
		}
		f.receipts[id][userUuid] = &model.MessageReceipt{
			MessageUuid: id,
			UserUuid:    userUuid,
			DeliveredAt: sql.NullTime{Time: at, Valid: true},
		}
	}
	return nil
}

func (f *FakeStore) MarkSeen(ctx context.Context, messageUuid, userUuid string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receipts[messageUuid] == nil {
		f.receipts[messageUuid] = make(map[string]*model.MessageReceipt)
	}
	r, exists := f.receipts[messageUuid][userUuid]
	if !exists {
		f.receipts[messageUuid][userUuid] = &model.MessageReceipt{
			MessageUuid: messageUuid,
			UserUuid:    userUuid,
			DeliveredAt: sql.NullTime{Time: at, Valid: true},
			SeenAt:      sql.NullTime{Time: at, Valid: true},
		}
		return true, nil
	}
	if r.SeenAt.Valid {
		return false, nil
	}
	r.SeenAt = sql.NullTime{Time: at, Valid: true}
	if !r.DeliveredAt.Valid {
		r.DeliveredAt = sql.NullTime{Time: at, Valid: true}
	}
	return true, nil
}

func (f *FakeStore) FindByMessage(ctx context.Context, messageUuid string) ([]model.MessageReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var receipts []model.MessageReceipt
	for _, r := range f.receipts[messageUuid] {
		receipts = append(receipts, *r)
	}
	sort.Slice(receipts, func(i, j int) bool { return receipts[i].UserUuid < receipts[j].UserUuid })
	return receipts, nil
}

// ReactionRepository

func (f *FakeStore) FindReactionsByMessage(ctx context.Context, messageUuid string) ([]model.MessageReaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var reactions []model.MessageReaction
	for _, r := range f.reactions[messageUuid] {
		reactions = append(reactions, *r)
	}
	sort.Slice(reactions, func(i, j int) bool { return reactions[i].UserUuid < reactions[j].UserUuid })
	return reactions, nil
}

func (f *FakeStore) FindReactionByMessageAndUser(ctx context.Context, messageUuid, userUuid string) (*model.MessageReaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reactions[messageUuid][userUuid]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "reaction of %s on %s: not found", userUuid, messageUuid)
	}
	clone := *r
	return &clone, nil
}

func (f *FakeStore) UpsertReaction(ctx context.Context, reaction *model.MessageReaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactions[reaction.MessageUuid] == nil {
		f.reactions[reaction.MessageUuid] = make(map[string]*model.MessageReaction)
	}
	clone := *reaction
	f.reactions[reaction.MessageUuid][reaction.UserUuid] = &clone
	return nil
}

func (f *FakeStore) DeleteReaction(ctx context.Context, messageUuid, userUuid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reactions[messageUuid], userUuid)
	return nil
}

// ContactRepository

func (f *FakeStore) NeighborIDs(ctx context.Context, userUuid string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[string]struct{})
	for to := range f.contacts[userUuid] {
		set[to] = struct{}{}
	}
	for from, tos := range f.contacts {
		if _, ok := tos[userUuid]; ok {
			set[from] = struct{}{}
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// UserRepository

func (f *FakeStore) FindUserByUuid(ctx context.Context, uuid string) (*model.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[uuid]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "find user %s: not found", uuid)
	}
	clone := *user
	return &clone, nil
}

func (f *FakeStore) SearchUsers(ctx context.Context, query string, limit int) ([]model.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []model.UserInfo
	for _, u := range f.users {
		if len(users) >= limit {
			break
		}
		if containsFold(u.Username, query) || containsFold(u.FullName, query) {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (f *FakeStore) SetOnline(ctx context.Context, uuid string, online bool, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[uuid]; ok {
		u.IsOnline = online
		u.LastSeen = sql.NullTime{Time: lastSeen, Valid: true}
	}
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
