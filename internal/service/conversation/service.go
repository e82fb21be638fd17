// Package conversation is the conversation directory: membership, typing
// state, per-participant unread counters and settings.
package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"ripple_chat_server/internal/dao/mysql/repository"
	myredis "ripple_chat_server/internal/dao/redis"
	"ripple_chat_server/internal/dto/respond"
	"ripple_chat_server/internal/model"
	"ripple_chat_server/internal/service/event"
	"ripple_chat_server/pkg/constants"
	"ripple_chat_server/pkg/errorx"
	"ripple_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

const timeLayout = "2006-01-02 15:04:05"

// Service implements the conversation directory.
type Service struct {
	repos  *repository.Repositories
	events event.Publisher
	typing *typingState

	// cacheEnabled is off in tests that run without a Redis instance.
	cacheEnabled bool
}

// NewConversationService creates the directory service.
func NewConversationService(repos *repository.Repositories, events event.Publisher) *Service {
	return &Service{
		repos:        repos,
		events:       events,
		typing:       newTypingState(),
		cacheEnabled: true,
	}
}

// DisableCache turns the Redis read-through off (test support).
func (s *Service) DisableCache() {
	s.cacheEnabled = false
}

// pairKey builds the canonical unordered-pair key of a direct
// conversation.
func pairKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// GetOrCreateDirect returns the single direct conversation of the pair,
// creating it lazily on first contact. Safe under concurrent calls: the
// create races on the pair_key unique index and the loser re-fetches the
// winning row.
func (s *Service) GetOrCreateDirect(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	if userA == "" || userB == "" || userA == userB {
		return nil, errorx.New(errorx.CodeInvalidParam, "direct conversation needs two distinct users")
	}
	key := pairKey(userA, userB)

	conv, err := s.repos.Conversation.FindDirectByPairKey(ctx, key)
	if err == nil {
		return conv, nil
	}
	if !errorx.IsNotFound(err) {
		return nil, err
	}

	conv = &model.Conversation{
		Uuid:    "C" + snowflake.GenerateIDString(),
		IsGroup: false,
		PairKey: &key,
		Theme:   constants.DEFAULT_THEME,
		Emoji:   constants.DEFAULT_EMOJI,
	}
	members := []model.ConversationMember{
		{UserUuid: userA},
		{UserUuid: userB},
	}
	err = s.repos.Conversation.Create(ctx, conv, members)
	if err == nil {
		s.invalidateListCache(userA, userB)
		return conv, nil
	}
	if errorx.IsConflict(err) {
		// lost the creation race, the winner's row is authoritative
		return s.repos.Conversation.FindDirectByPairKey(ctx, key)
	}
	return nil, err
}

// CreateGroup creates a group conversation; the creator becomes the sole
// initial admin.
func (s *Service) CreateGroup(ctx context.Context, creator string, memberIDs []string, name, avatar string) (*model.Conversation, error) {
	if name == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "group name is required")
	}
	unique := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		if id != "" && id != creator {
			unique[id] = struct{}{}
		}
	}
	if len(unique) < 2 {
		return nil, errorx.New(errorx.CodeInvalidParam, "a group needs at least 2 members besides the creator")
	}

	conv := &model.Conversation{
		Uuid:    "G" + snowflake.GenerateIDString(),
		IsGroup: true,
		Name:    name,
		Avatar:  avatar,
		Theme:   constants.DEFAULT_THEME,
		Emoji:   constants.DEFAULT_EMOJI,
	}
	members := make([]model.ConversationMember, 0, len(unique)+1)
	members = append(members, model.ConversationMember{UserUuid: creator, IsAdmin: true})
	affected := []string{creator}
	for id := range unique {
		members = append(members, model.ConversationMember{UserUuid: id})
		affected = append(affected, id)
	}
	if err := s.repos.Conversation.Create(ctx, conv, members); err != nil {
		return nil, err
	}
	s.invalidateListCache(affected...)
	return conv, nil
}

// Get returns the conversation after checking the caller is a
// participant.
func (s *Service) Get(ctx context.Context, convID, userID string) (*model.Conversation, error) {
	conv, err := s.repos.Conversation.FindByUuid(ctx, convID)
	if err != nil {
		return nil, err
	}
	if err := s.RequireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}
	return conv, nil
}

// RequireParticipant returns NotAuthorized unless userID belongs to the
// conversation.
func (s *Service) RequireParticipant(ctx context.Context, convID, userID string) error {
	_, err := s.repos.Member.FindMember(ctx, convID, userID)
	if err == nil {
		return nil
	}
	if errorx.IsNotFound(err) {
		return errorx.Newf(errorx.CodeNotAuthorized, "user %s is not a participant of conversation %s", userID, convID)
	}
	return err
}

// ParticipantIDs lists the participant ids; used by the event router for
// conversation-targeted fan-out.
func (s *Service) ParticipantIDs(ctx context.Context, convID string) ([]string, error) {
	members, err := s.repos.Member.FindMembers(ctx, convID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserUuid)
	}
	return ids, nil
}

// SetTyping updates the typing set idempotently and always emits the
// typing event to the other participants; repeated identical signals are
// acceptable on the wire.
func (s *Service) SetTyping(ctx context.Context, convID, userID string, isTyping bool) error {
	if err := s.RequireParticipant(ctx, convID, userID); err != nil {
		return err
	}
	s.typing.set(convID, userID, isTyping)
	s.events.PublishToConversation(ctx, event.Event{
		Type: event.TypeTyping,
		Data: event.TypingPayload{ConversationID: convID, UserID: userID, IsTyping: isTyping},
	}, convID, userID)
	return nil
}

// TypingUsers returns who is typing right now.
func (s *Service) TypingUsers(convID string) []string {
	return s.typing.users(convID)
}

// IncrementUnread bumps every participant's counter except the sender's.
// Called by the message ledger under the conversation's append lock.
func (s *Service) IncrementUnread(ctx context.Context, convID, excludeUserID string) error {
	if err := s.repos.Member.IncrementUnread(ctx, convID, excludeUserID); err != nil {
		return err
	}
	s.invalidateConversationCaches(ctx, convID)
	return nil
}

// TouchLastMessage updates the denormalised last-message fields.
func (s *Service) TouchLastMessage(ctx context.Context, convID, messageID, preview string, at time.Time) error {
	return s.repos.Conversation.UpdateLastMessage(ctx, convID, messageID, preview, at)
}

// MarkRead resets the caller's unread counter to zero and seen-marks every
// message they had not acknowledged yet, notifying each sender. Calling it
// twice in a row is a no-op the second time.
func (s *Service) MarkRead(ctx context.Context, convID, userID string) error {
	if err := s.RequireParticipant(ctx, convID, userID); err != nil {
		return err
	}
	if err := s.repos.Member.ResetUnread(ctx, convID, userID); err != nil {
		return err
	}

	now := time.Now()
	unseen, err := s.repos.Message.FindUnseenBy(ctx, convID, userID)
	if err != nil {
		return err
	}
	for _, msg := range unseen {
		newlySeen, err := s.repos.Receipt.MarkSeen(ctx, msg.Uuid, userID, now)
		if err != nil {
			zap.L().Error("mark seen on read failed",
				zap.String("message", msg.Uuid), zap.Error(err))
			continue
		}
		if newlySeen {
			s.events.PublishToUsers(ctx, event.Event{
				Type: event.TypeMessageSeen,
				Data: event.SeenPayload{MessageID: msg.Uuid, SeenBy: userID, SeenAt: now},
			}, msg.SenderId)
		}
	}

	s.events.PublishToConversation(ctx, event.Event{
		Type: event.TypeConversationRead,
		Data: event.ConversationReadPayload{ConversationID: convID, UserID: userID, ReadAt: now},
	}, convID, userID)
	s.invalidateListCache(userID)
	return nil
}

// UpdateSettings applies theme/emoji/mute changes for a participant.
// Muting holds for 24 hours; unmuting clears the deadline.
func (s *Service) UpdateSettings(ctx context.Context, convID, userID string, theme, emoji *string, isMuted *bool) error {
	if _, err := s.repos.Conversation.FindByUuid(ctx, convID); err != nil {
		return err
	}
	if err := s.RequireParticipant(ctx, convID, userID); err != nil {
		return err
	}
	if theme != nil || emoji != nil {
		if err := s.repos.Conversation.UpdateSettings(ctx, convID, theme, emoji); err != nil {
			return err
		}
	}
	if isMuted != nil {
		var until sql.NullTime
		if *isMuted {
			until = sql.NullTime{Time: time.Now().Add(constants.MUTE_DURATION), Valid: true}
		}
		if err := s.repos.Member.SetMuted(ctx, convID, userID, *isMuted, until); err != nil {
			return err
		}
	}
	s.events.PublishToConversation(ctx, event.Event{
		Type: event.TypeConversationUpdated,
		Data: event.ConversationUpdatedPayload{ConversationID: convID},
	}, convID, userID)
	s.invalidateConversationCaches(ctx, convID)
	return nil
}

// DeleteOrArchive deletes a group (admins only, cascading its messages)
// or archives a direct conversation for the caller only.
func (s *Service) DeleteOrArchive(ctx context.Context, convID, userID string) error {
	conv, err := s.repos.Conversation.FindByUuid(ctx, convID)
	if err != nil {
		return err
	}
	member, err := s.repos.Member.FindMember(ctx, convID, userID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return errorx.Newf(errorx.CodeNotAuthorized, "user %s is not a participant of conversation %s", userID, convID)
		}
		return err
	}

	if conv.IsGroup {
		if !member.IsAdmin {
			return errorx.New(errorx.CodeNotAuthorized, "only a group admin can delete the group")
		}
		participants, err := s.ParticipantIDs(ctx, convID)
		if err != nil {
			return err
		}
		if err := s.repos.Message.DeleteByConversation(ctx, convID); err != nil {
			return err
		}
		if err := s.repos.Conversation.Delete(ctx, convID); err != nil {
			return err
		}
		s.typing.clear(convID)
		s.invalidateListCache(participants...)
		return nil
	}

	if err := s.repos.Member.SetArchived(ctx, convID, userID, true); err != nil {
		return err
	}
	s.invalidateListCache(userID)
	return nil
}

// ListForUser returns the caller's conversation list, most recent
// activity first, with their unread counters. Read-through Redis cache;
// every state change invalidates asynchronously.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]respond.ConversationRespond, error) {
	cacheKey := "conversation_list_" + userID
	if s.cacheEnabled {
		if cached, err := myredis.GetKeyNilIsErr(ctx, cacheKey); err == nil {
			var rsp []respond.ConversationRespond
			if err := json.Unmarshal([]byte(cached), &rsp); err != nil {
				zap.L().Error("unmarshal cached conversation list failed", zap.Error(err))
			} else {
				return rsp, nil
			}
		}
	}

	convs, err := s.repos.Conversation.FindForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	rspList := make([]respond.ConversationRespond, 0, len(convs))
	for _, conv := range convs {
		rsp := respond.ConversationRespond{
			ConversationId:     conv.Uuid,
			IsGroup:            conv.IsGroup,
			Name:               conv.Name,
			Avatar:             conv.Avatar,
			Theme:              conv.Theme,
			Emoji:              conv.Emoji,
			LastMessagePreview: conv.LastMessagePreview,
		}
		if conv.LastMessageAt.Valid {
			rsp.LastMessageAt = conv.LastMessageAt.Time.Format(timeLayout)
		}
		if member, err := s.repos.Member.FindMember(ctx, conv.Uuid, userID); err == nil {
			rsp.UnreadCount = member.UnreadCount
			rsp.IsMuted = member.IsMuted && (!member.MutedUntil.Valid || member.MutedUntil.Time.After(time.Now()))
			rsp.IsAdmin = member.IsAdmin
		}
		if !conv.IsGroup {
			rsp.Participant = s.otherParticipant(ctx, conv.Uuid, userID)
		}
		rspList = append(rspList, rsp)
	}

	if s.cacheEnabled {
		myredis.SubmitCacheTask(func() {
			jsonBytes, err := json.Marshal(rspList)
			if err != nil {
				zap.L().Error("marshal conversation list failed", zap.Error(err))
				return
			}
			if err := myredis.SetKeyEx(context.Background(), cacheKey, string(jsonBytes),
				time.Duration(constants.REDIS_TIMEOUT)*time.Minute); err != nil {
				zap.L().Error("cache conversation list failed", zap.Error(err))
			}
		})
	}
	return rspList, nil
}

func (s *Service) otherParticipant(ctx context.Context, convID, userID string) *respond.ParticipantRespond {
	members, err := s.repos.Member.FindMembers(ctx, convID)
	if err != nil {
		return nil
	}
	for _, m := range members {
		if m.UserUuid == userID {
			continue
		}
		p := &respond.ParticipantRespond{UserId: m.UserUuid}
		if user, err := s.repos.User.FindByUuid(ctx, m.UserUuid); err == nil {
			p.Username = user.Username
			p.FullName = user.FullName
			p.Avatar = user.Avatar
			p.IsOnline = user.IsOnline
			if user.LastSeen.Valid {
				p.LastSeen = user.LastSeen.Time.Format(timeLayout)
			}
		}
		return p
	}
	return nil
}

func (s *Service) invalidateListCache(userIDs ...string) {
	if !s.cacheEnabled {
		return
	}
	ids := append([]string(nil), userIDs...)
	myredis.SubmitCacheTask(func() {
		for _, id := range ids {
			if err := myredis.DelKeyIfExists(context.Background(), "conversation_list_"+id); err != nil {
				zap.L().Error("invalidate conversation list failed", zap.Error(err))
			}
		}
	})
}

func (s *Service) invalidateConversationCaches(ctx context.Context, convID string) {
	if !s.cacheEnabled {
		return
	}
	ids, err := s.ParticipantIDs(ctx, convID)
	if err != nil {
		zap.L().Error("resolve participants for invalidation failed", zap.Error(err))
		return
	}
	s.invalidateListCache(ids...)
}
