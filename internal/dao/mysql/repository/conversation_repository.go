package repository

import (
	"context"
	"time"

	"ripple_chat_server/internal/model"

	"gorm.io/gorm"
)

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates the conversation repository.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Create inserts the conversation and its member rows atomically.
// The pair_key unique index turns a concurrent duplicate direct-creation
// into a Conflict error the service resolves by re-fetching.
func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation, members []model.ConversationMember) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for i := range members {
			members[i].ConversationUuid = conv.Uuid
		}
		return tx.Create(&members).Error
	})
	return wrapDBErrorf(err, "create conversation %s", conv.Uuid)
}

func (r *conversationRepository) FindByUuid(ctx context.Context, uuid string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&conv).Error; err != nil {
		return nil, wrapDBErrorf(err, "find conversation %s", uuid)
	}
	return &conv, nil
}

func (r *conversationRepository) FindDirectByPairKey(ctx context.Context, pairKey string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.WithContext(ctx).Where("pair_key = ? AND is_group = ?", pairKey, false).First(&conv).Error; err != nil {
		return nil, wrapDBErrorf(err, "find direct conversation %s", pairKey)
	}
	return &conv, nil
}

func (r *conversationRepository) FindForUser(ctx context.Context, userUuid string) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_member cm ON cm.conversation_uuid = conversation.uuid").
		Where("cm.user_uuid = ? AND cm.is_archived = ? AND cm.deleted_at IS NULL", userUuid, false).
		Order("conversation.last_message_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "list conversations for user %s", userUuid)
	}
	return convs, nil
}

func (r *conversationRepository) UpdateLastMessage(ctx context.Context, convUuid, messageUuid, preview string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("uuid = ?", convUuid).
		Updates(map[string]any{
			"last_message_id":      messageUuid,
			"last_message_preview": preview,
			"last_message_at":      at,
		}).Error
	return wrapDBErrorf(err, "update last message of conversation %s", convUuid)
}

func (r *conversationRepository) UpdateSettings(ctx context.Context, convUuid string, theme, emoji *string) error {
	updates := map[string]any{}
	if theme != nil {
		updates["theme"] = *theme
	}
	if emoji != nil {
		updates["emoji"] = *emoji
	}
	if len(updates) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("uuid = ?", convUuid).
		Updates(updates).Error
	return wrapDBErrorf(err, "update settings of conversation %s", convUuid)
}

// Delete removes the conversation and its member rows for good; callers
// cascade messages separately via MessageRepository.DeleteByConversation.
func (r *conversationRepository) Delete(ctx context.Context, convUuid string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("conversation_uuid = ?", convUuid).Delete(&model.ConversationMember{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("uuid = ?", convUuid).Delete(&model.Conversation{}).Error
	})
	return wrapDBErrorf(err, "delete conversation %s", convUuid)
}
