package repository

import (
	"context"
	"database/sql"

	"ripple_chat_server/internal/model"

	"gorm.io/gorm"
)

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates the conversation-member repository.
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) FindMembers(ctx context.Context, convUuid string) ([]model.ConversationMember, error) {
	var members []model.ConversationMember
	if err := r.db.WithContext(ctx).Where("conversation_uuid = ?", convUuid).Find(&members).Error; err != nil {
		return nil, wrapDBErrorf(err, "find members of conversation %s", convUuid)
	}
	return members, nil
}

func (r *memberRepository) FindMember(ctx context.Context, convUuid, userUuid string) (*model.ConversationMember, error) {
	var member model.ConversationMember
	err := r.db.WithContext(ctx).
		Where("conversation_uuid = ? AND user_uuid = ?", convUuid, userUuid).
		First(&member).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "find member %s of conversation %s", userUuid, convUuid)
	}
	return &member, nil
}

// IncrementUnread is a single UPDATE with an expression increment, so
// concurrent messages landing in the same conversation never lose counts.
func (r *memberRepository) IncrementUnread(ctx context.Context, convUuid, excludeUserUuid string) error {
	err := r.db.WithContext(ctx).Model(&model.ConversationMember{}).
		Where("conversation_uuid = ? AND user_uuid <> ?", convUuid, excludeUserUuid).
		UpdateColumn("unread_count", gorm.Expr("unread_count + ?", 1)).Error
	return wrapDBErrorf(err, "increment unread of conversation %s", convUuid)
}

func (r *memberRepository) ResetUnread(ctx context.Context, convUuid, userUuid string) error {
	err := r.db.WithContext(ctx).Model(&model.ConversationMember{}).
		Where("conversation_uuid = ? AND user_uuid = ?", convUuid, userUuid).
		UpdateColumn("unread_count", 0).Error
	return wrapDBErrorf(err, "reset unread of conversation %s", convUuid)
}

func (r *memberRepository) SetArchived(ctx context.Context, convUuid, userUuid string, archived bool) error {
	err := r.db.WithContext(ctx).Model(&model.ConversationMember{}).
		Where("conversation_uuid = ? AND user_uuid = ?", convUuid, userUuid).
		UpdateColumn("is_archived", archived).Error
	return wrapDBErrorf(err, "archive conversation %s for user %s", convUuid, userUuid)
}

func (r *memberRepository) SetMuted(ctx context.Context, convUuid, userUuid string, muted bool, until sql.NullTime) error {
	err := r.db.WithContext(ctx).Model(&model.ConversationMember{}).
		Where("conversation_uuid = ? AND user_uuid = ?", convUuid, userUuid).
		Updates(map[string]any{
			"is_muted":    muted,
			"muted_until": until,
		}).Error
	return wrapDBErrorf(err, "mute conversation %s for user %s", convUuid, userUuid)
}
