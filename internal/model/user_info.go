package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// UserInfo is the minimal profile record the engine needs: identity,
// display fields for search results, and presence persistence so peers can
// show "last seen" after a restart. Profile management itself belongs to
// the external identity component.
type UserInfo struct {
	gorm.Model
	Uuid     string `gorm:"column:uuid;uniqueIndex;type:char(20);not null"`
	Username string `gorm:"column:username;index;type:varchar(30);not null"`
	FullName string `gorm:"column:full_name;type:varchar(50)"`
	Avatar   string `gorm:"column:avatar;type:varchar(255)"`

	IsOnline bool         `gorm:"column:is_online;not null;default:false"`
	LastSeen sql.NullTime `gorm:"column:last_seen"`
}

func (UserInfo) TableName() string {
	return "user_info"
}
