package repository

import (
	"context"
	"database/sql"
	"time"

	"ripple_chat_server/internal/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates the user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByUuid(ctx context.Context, uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&user).Error; err != nil {
		return nil, wrapDBErrorf(err, "find user %s", uuid)
	}
	return &user, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]model.UserInfo, error) {
	var users []model.UserInfo
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("username LIKE ? OR full_name LIKE ?", pattern, pattern).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "search users %q", query)
	}
	return users, nil
}

func (r *userRepository) SetOnline(ctx context.Context, uuid string, online bool, lastSeen time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.UserInfo{}).
		Where("uuid = ?", uuid).
		Updates(map[string]any{
			"is_online": online,
			"last_seen": sql.NullTime{Time: lastSeen, Valid: true},
		}).Error
	return wrapDBErrorf(err, "set online state of user %s", uuid)
}
