package repository

import (
	"context"
	"database/sql"
	"time"

	"ripple_chat_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates the message repository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return wrapDBError(err, "create message")
	}
	return nil
}

func (r *messageRepository) FindByUuid(ctx context.Context, uuid string) (*model.Message, error) {
	var msg model.Message
	if err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&msg).Error; err != nil {
		return nil, wrapDBErrorf(err, "find message %s", uuid)
	}
	return &msg, nil
}

// FindPage returns the page newest-first; the service reverses it for
// display order.
func (r *messageRepository) FindPage(ctx context.Context, convUuid string, page, pageSize int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_uuid = ? AND is_deleted = ?", convUuid, false).
		Order("created_at DESC, uuid DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "find messages of conversation %s", convUuid)
	}
	return messages, nil
}

func (r *messageRepository) FindUnseenBy(ctx context.Context, convUuid, userUuid string) ([]model.Message, error) {
	var messages []model.Message
	seen := r.db.Model(&model.MessageReceipt{}).
		Select("message_uuid").
		Where("user_uuid = ? AND seen_at IS NOT NULL", userUuid)
	err := r.db.WithContext(ctx).
		Where("conversation_uuid = ? AND sender_id <> ? AND is_deleted = ?", convUuid, userUuid, false).
		Where("uuid NOT IN (?)", seen).
		Find(&messages).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "find unseen messages of conversation %s", convUuid)
	}
	return messages, nil
}

// SoftDelete flags the row and swaps the content for the placeholder.
// Media references stay as-is; this is a display convention, not a
// redaction.
func (r *messageRepository) SoftDelete(ctx context.Context, uuid, placeholder string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("uuid = ?", uuid).
		Updates(map[string]any{
			"is_deleted":   true,
			"deleted_time": sql.NullTime{Time: at, Valid: true},
			"content":      placeholder,
		}).Error
	return wrapDBErrorf(err, "soft delete message %s", uuid)
}

// DeleteByConversation hard-deletes messages with their receipts and
// reactions. Only the group-delete cascade reaches this.
func (r *messageRepository) DeleteByConversation(ctx context.Context, convUuid string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&model.Message{}).Select("uuid").Where("conversation_uuid = ?", convUuid)
		if err := tx.Unscoped().Where("message_uuid IN (?)", ids).Delete(&model.MessageReceipt{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("message_uuid IN (?)", ids).Delete(&model.MessageReaction{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("conversation_uuid = ?", convUuid).Delete(&model.Message{}).Error
	})
	return wrapDBErrorf(err, "delete messages of conversation %s", convUuid)
}
