package repository

import (
	"context"

	"ripple_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates the reaction repository.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) FindByMessage(ctx context.Context, messageUuid string) ([]model.MessageReaction, error) {
	var reactions []model.MessageReaction
	if err := r.db.WithContext(ctx).Where("message_uuid = ?", messageUuid).Find(&reactions).Error; err != nil {
		return nil, wrapDBErrorf(err, "find reactions of message %s", messageUuid)
	}
	return reactions, nil
}

func (r *reactionRepository) FindByMessageAndUser(ctx context.Context, messageUuid, userUuid string) (*model.MessageReaction, error) {
	var reaction model.MessageReaction
	err := r.db.WithContext(ctx).
		Where("message_uuid = ? AND user_uuid = ?", messageUuid, userUuid).
		First(&reaction).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "find reaction of user %s on message %s", userUuid, messageUuid)
	}
	return &reaction, nil
}

// Upsert replaces any prior reaction from the same user atomically; the
// unique (message, user) index keeps it at one reaction per user even when
// two reacts race.
func (r *reactionRepository) Upsert(ctx context.Context, reaction *model.MessageReaction) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_uuid"}, {Name: "user_uuid"}},
			DoUpdates: clause.AssignmentColumns([]string{"emoji"}),
		}).
		Create(reaction).Error
	return wrapDBErrorf(err, "upsert reaction on message %s", reaction.MessageUuid)
}

func (r *reactionRepository) Delete(ctx context.Context, messageUuid, userUuid string) error {
	err := r.db.WithContext(ctx).Unscoped().
		Where("message_uuid = ? AND user_uuid = ?", messageUuid, userUuid).
		Delete(&model.MessageReaction{}).Error
	return wrapDBErrorf(err, "delete reaction of user %s on message %s", userUuid, messageUuid)
}
