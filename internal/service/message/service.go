// Package message is the message ledger: append-only conversation
// history plus receipts, reactions, soft deletes and forwarding.
package message

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"ripple_chat_server/internal/dao/mysql/repository"
	"ripple_chat_server/internal/dto/respond"
	"ripple_chat_server/internal/model"
	"ripple_chat_server/internal/service/conversation"
	"ripple_chat_server/internal/service/event"
	"ripple_chat_server/pkg/constants"
	"ripple_chat_server/pkg/errorx"
	"ripple_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

const timeLayout = "2006-01-02 15:04:05"

// appendStripes bounds the lock table for per-conversation append
// serialisation.
const appendStripes = 64

// SendParams carries everything a client may set on a new message.
type SendParams struct {
	Type     string
	Content  string
	MediaUrl string
	FileName string
	FileSize int64
	Duration int
	ReplyTo  string
}

// Service implements the message ledger.
type Service struct {
	repos     *repository.Repositories
	events    event.Publisher
	directory *conversation.Service

	// appendMu serialises appends per conversation (hashed onto a
	// stripe) so the unread bump and last-message touch of one message
	// never interleave with another's.
	appendMu [appendStripes]sync.Mutex
}

// NewMessageService creates the ledger service.
func NewMessageService(repos *repository.Repositories, events event.Publisher, directory *conversation.Service) *Service {
	return &Service{
		repos:     repos,
		events:    events,
		directory: directory,
	}
}

func (s *Service) lockFor(convID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(convID))
	return &s.appendMu[h.Sum32()%appendStripes]
}

// Append stores a new message and fans out new_message to the other
// participants. The sender must be a participant; a reply target must
// belong to the same conversation.
func (s *Service) Append(ctx context.Context, convID, senderID string, params SendParams) (*respond.MessageRespond, error) {
	if err := s.directory.RequireParticipant(ctx, convID, senderID); err != nil {
		return nil, err
	}
	msgType := params.Type
	if msgType == "" {
		msgType = model.MessageTypeText
	}
	if msgType == model.MessageTypeText && params.Content == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "text message needs content")
	}

	var replyTo *string
	if params.ReplyTo != "" {
		target, err := s.repos.Message.FindByUuid(ctx, params.ReplyTo)
		if err != nil {
			return nil, err
		}
		if target.ConversationUuid != convID {
			return nil, errorx.New(errorx.CodeInvalidParam, "reply target belongs to another conversation")
		}
		replyTo = &params.ReplyTo
	}

	msg := &model.Message{
		Uuid:             snowflake.GenerateIDString(),
		ConversationUuid: convID,
		SenderId:         senderID,
		Type:             msgType,
		Content:          params.Content,
		MediaUrl:         params.MediaUrl,
		FileName:         params.FileName,
		FileSize:         params.FileSize,
		Duration:         params.Duration,
		ReplyToUuid:      replyTo,
	}

	rsp, err := s.appendAndNotify(ctx, msg)
	if err != nil {
		return nil, err
	}
	return &rsp, nil
}

// appendAndNotify runs the insert, its conversation side effects and the
// new_message fan-out under the stripe lock. Publishing inside the lock
// keeps fan-out order equal to commit order; Session.Push never blocks,
// so holding the lock across the publish is safe.
func (s *Service) appendAndNotify(ctx context.Context, msg *model.Message) (respond.MessageRespond, error) {
	mu := s.lockFor(msg.ConversationUuid)
	mu.Lock()
	defer mu.Unlock()

	if err := s.repos.Message.Create(ctx, msg); err != nil {
		return respond.MessageRespond{}, err
	}
	now := time.Now()
	if err := s.directory.TouchLastMessage(ctx, msg.ConversationUuid, msg.Uuid, preview(msg), now); err != nil {
		zap.L().Error("touch last message failed",
			zap.String("conversation", msg.ConversationUuid), zap.Error(err))
	}
	if err := s.directory.IncrementUnread(ctx, msg.ConversationUuid, msg.SenderId); err != nil {
		zap.L().Error("increment unread failed",
			zap.String("conversation", msg.ConversationUuid), zap.Error(err))
	}

	rsp := s.toRespond(msg, nil)
	s.events.PublishToConversation(ctx, event.Event{
		Type: event.TypeNewMessage,
		Data: rsp,
	}, msg.ConversationUuid, msg.SenderId)
	return rsp, nil
}

// preview builds the denormalised last-message text for the list view.
func preview(msg *model.Message) string {
	switch msg.Type {
	case model.MessageTypeText:
		runes := []rune(msg.Content)
		if len(runes) > 100 {
			return string(runes[:100])
		}
		return msg.Content
	case model.MessageTypeImage:
		return "[image]"
	case model.MessageTypeVideo:
		return "[video]"
	case model.MessageTypeAudio, model.MessageTypeVoice:
		return "[audio]"
	case model.MessageTypeGif:
		return "[gif]"
	case model.MessageTypeCall:
		return "[call]"
	default:
		return "[file]"
	}
}

// ListPage returns one page of the conversation, oldest-first within the
// page, and records delivery for every returned message the caller had
// not received yet. Delivery bookkeeping never fails the read.
func (s *Service) ListPage(ctx context.Context, convID, userID string, page, pageSize int) (*respond.MessagePageRespond, error) {
	if err := s.directory.RequireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = constants.DEFAULT_PAGE_SIZE
	}
	if pageSize > constants.MAX_PAGE_SIZE {
		pageSize = constants.MAX_PAGE_SIZE
	}

	msgs, err := s.repos.Message.FindPage(ctx, convID, page, pageSize)
	if err != nil {
		return nil, err
	}

	toDeliver := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.SenderId != userID {
			toDeliver = append(toDeliver, m.Uuid)
		}
	}
	if len(toDeliver) > 0 {
		if err := s.repos.Receipt.MarkDelivered(ctx, toDeliver, userID, time.Now()); err != nil {
			zap.L().Error("mark delivered failed",
				zap.String("conversation", convID), zap.Error(err))
		}
	}

	// FindPage is newest-first for the offset math; clients want the
	// page oldest-first.
	rsp := &respond.MessagePageRespond{
		Messages: make([]respond.MessageRespond, 0, len(msgs)),
		HasMore:  len(msgs) == pageSize,
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		reactions, err := s.repos.Reaction.FindByMessage(ctx, msgs[i].Uuid)
		if err != nil {
			zap.L().Error("load reactions failed", zap.String("message", msgs[i].Uuid), zap.Error(err))
		}
		rsp.Messages = append(rsp.Messages, s.toRespond(&msgs[i], reactions))
	}
	return rsp, nil
}

// MarkSeen acknowledges one message for the caller and, on the first
// acknowledgement only, notifies the sender.
func (s *Service) MarkSeen(ctx context.Context, messageID, userID string) error {
	msg, err := s.repos.Message.FindByUuid(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.directory.RequireParticipant(ctx, msg.ConversationUuid, userID); err != nil {
		return err
	}
	if msg.SenderId == userID {
		return nil
	}

	now := time.Now()
	newlySeen, err := s.repos.Receipt.MarkSeen(ctx, messageID, userID, now)
	if err != nil {
		return err
	}
	if newlySeen {
		s.events.PublishToUsers(ctx, event.Event{
			Type: event.TypeMessageSeen,
			Data: event.SeenPayload{MessageID: messageID, SeenBy: userID, SeenAt: now},
		}, msg.SenderId)
	}
	return nil
}

// ToggleReaction sets, replaces or removes the caller's reaction:
// reacting with the current emoji removes it, any other emoji replaces
// it. The full reaction set is broadcast afterwards so clients converge
// regardless of delivery order.
func (s *Service) ToggleReaction(ctx context.Context, messageID, userID, emoji string) error {
	if emoji == "" {
		emoji = constants.DEFAULT_EMOJI
	}
	msg, err := s.repos.Message.FindByUuid(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.directory.RequireParticipant(ctx, msg.ConversationUuid, userID); err != nil {
		return err
	}

	existing, err := s.repos.Reaction.FindByMessageAndUser(ctx, messageID, userID)
	switch {
	case err == nil && existing.Emoji == emoji:
		if err := s.repos.Reaction.Delete(ctx, messageID, userID); err != nil {
			return err
		}
	case err == nil || errorx.IsNotFound(err):
		if err := s.repos.Reaction.Upsert(ctx, &model.MessageReaction{
			MessageUuid: messageID,
			UserUuid:    userID,
			Emoji:       emoji,
		}); err != nil {
			return err
		}
	default:
		return err
	}

	reactions, err := s.repos.Reaction.FindByMessage(ctx, messageID)
	if err != nil {
		return err
	}
	entries := make([]event.ReactionEntry, 0, len(reactions))
	for _, r := range reactions {
		entries = append(entries, event.ReactionEntry{UserID: r.UserUuid, Emoji: r.Emoji})
	}
	s.events.PublishToConversation(ctx, event.Event{
		Type: event.TypeMessageReaction,
		Data: event.ReactionPayload{MessageID: messageID, Reactions: entries},
	}, msg.ConversationUuid, "")
	return nil
}

// SoftDelete replaces the message content with a placeholder. Only the
// sender may delete; identity and timestamps survive.
func (s *Service) SoftDelete(ctx context.Context, messageID, userID string) error {
	msg, err := s.repos.Message.FindByUuid(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderId != userID {
		return errorx.New(errorx.CodeNotAuthorized, "only the sender can delete a message")
	}
	if msg.IsDeleted {
		return nil
	}
	if err := s.repos.Message.SoftDelete(ctx, messageID, constants.DELETED_PLACEHOLDER, time.Now()); err != nil {
		return err
	}
	s.events.PublishToConversation(ctx, event.Event{
		Type: event.TypeMessageDeleted,
		Data: event.DeletedPayload{MessageID: messageID},
	}, msg.ConversationUuid, userID)
	return nil
}

// Forward copies a message into each target conversation the caller
// belongs to, preserving the original sender as ForwardedFrom. Targets
// the caller cannot post to are skipped, not fatal; the successful
// copies are returned.
func (s *Service) Forward(ctx context.Context, messageID, userID string, targetConvIDs []string) ([]respond.MessageRespond, error) {
	original, err := s.repos.Message.FindByUuid(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.directory.RequireParticipant(ctx, original.ConversationUuid, userID); err != nil {
		return nil, err
	}
	if original.IsDeleted {
		return nil, errorx.New(errorx.CodeInvalidParam, "cannot forward a deleted message")
	}
	forwardedFrom := original.SenderId
	if original.ForwardedFrom != "" {
		forwardedFrom = original.ForwardedFrom
	}

	results := make([]respond.MessageRespond, 0, len(targetConvIDs))
	for _, target := range targetConvIDs {
		if err := s.directory.RequireParticipant(ctx, target, userID); err != nil {
			zap.L().Info("forward target skipped",
				zap.String("conversation", target), zap.String("user", userID))
			continue
		}
		copyMsg := &model.Message{
			Uuid:             snowflake.GenerateIDString(),
			ConversationUuid: target,
			SenderId:         userID,
			Type:             original.Type,
			Content:          original.Content,
			MediaUrl:         original.MediaUrl,
			FileName:         original.FileName,
			FileSize:         original.FileSize,
			Duration:         original.Duration,
			ForwardedFrom:    forwardedFrom,
		}
		rsp, err := s.appendAndNotify(ctx, copyMsg)
		if err != nil {
			zap.L().Error("forward append failed",
				zap.String("conversation", target), zap.Error(err))
			continue
		}
		results = append(results, rsp)
	}
	return results, nil
}

// Receipts lists the per-user delivery/seen state of one of the caller's
// messages.
func (s *Service) Receipts(ctx context.Context, messageID, userID string) ([]model.MessageReceipt, error) {
	msg, err := s.repos.Message.FindByUuid(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.directory.RequireParticipant(ctx, msg.ConversationUuid, userID); err != nil {
		return nil, err
	}
	return s.repos.Receipt.FindByMessage(ctx, messageID)
}

func (s *Service) toRespond(msg *model.Message, reactions []model.MessageReaction) respond.MessageRespond {
	rsp := respond.MessageRespond{
		MessageId:      msg.Uuid,
		ConversationId: msg.ConversationUuid,
		SenderId:       msg.SenderId,
		Type:           msg.Type,
		Content:        msg.Content,
		MediaUrl:       msg.MediaUrl,
		FileName:       msg.FileName,
		FileSize:       msg.FileSize,
		Duration:       msg.Duration,
		ForwardedFrom:  msg.ForwardedFrom,
		IsDeleted:      msg.IsDeleted,
	}
	if msg.ReplyToUuid != nil {
		rsp.ReplyTo = *msg.ReplyToUuid
	}
	if !msg.CreatedAt.IsZero() {
		rsp.CreatedAt = msg.CreatedAt.Format(timeLayout)
	}
	if msg.EditedAt.Valid {
		rsp.EditedAt = msg.EditedAt.Time.Format(timeLayout)
	}
	for _, r := range reactions {
		rsp.Reactions = append(rsp.Reactions, respond.ReactionRespond{UserId: r.UserUuid, Emoji: r.Emoji})
	}
	return rsp
}
