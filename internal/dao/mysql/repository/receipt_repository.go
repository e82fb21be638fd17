package repository

import (
	"context"
	"database/sql"
	"time"

	"ripple_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates the receipt repository.
func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

// MarkDelivered upserts delivery rows; the unique (message, user) index
// absorbs concurrent duplicates, so racing fetches still leave exactly one
// receipt per user per message.
func (r *receiptRepository) MarkDelivered(ctx context.Context, messageUuids []string, userUuid string, at time.Time) error {
	if len(messageUuids) == 0 {
		return nil
	}
	rows := make([]model.MessageReceipt, 0, len(messageUuids))
	for _, id := range messageUuids {
		rows = append(rows, model.MessageReceipt{
			MessageUuid: id,
			UserUuid:    userUuid,
			DeliveredAt: sql.NullTime{Time: at, Valid: true},
		})
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_uuid"}, {Name: "user_uuid"}},
			DoNothing: true,
		}).
		Create(&rows).Error
	return wrapDBErrorf(err, "mark delivered for user %s", userUuid)
}

// MarkSeen is idempotent and race-safe: first an insert guarded by the
// unique index, then a conditional update for a pre-existing delivery-only
// row. Exactly one of the two stamping paths wins for a given user.
func (r *receiptRepository) MarkSeen(ctx context.Context, messageUuid, userUuid string, at time.Time) (bool, error) {
	stamp := sql.NullTime{Time: at, Valid: true}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_uuid"}, {Name: "user_uuid"}},
			DoNothing: true,
		}).
		Create(&model.MessageReceipt{
			MessageUuid: messageUuid,
			UserUuid:    userUuid,
			DeliveredAt: stamp,
			SeenAt:      stamp,
		})
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "mark seen message %s", messageUuid)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// Row existed already; stamp seen only if it is still unseen.
	upd := r.db.WithContext(ctx).Model(&model.MessageReceipt{}).
		Where("message_uuid = ? AND user_uuid = ? AND seen_at IS NULL", messageUuid, userUuid).
		Updates(map[string]any{
			"seen_at":      stamp,
			"delivered_at": gorm.Expr("COALESCE(delivered_at, ?)", at),
		})
	if upd.Error != nil {
		return false, wrapDBErrorf(upd.Error, "mark seen message %s", messageUuid)
	}
	return upd.RowsAffected > 0, nil
}

func (r *receiptRepository) FindByMessage(ctx context.Context, messageUuid string) ([]model.MessageReceipt, error) {
	var receipts []model.MessageReceipt
	if err := r.db.WithContext(ctx).Where("message_uuid = ?", messageUuid).Find(&receipts).Error; err != nil {
		return nil, wrapDBErrorf(err, "find receipts of message %s", messageUuid)
	}
	return receipts, nil
}
