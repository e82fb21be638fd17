package model

import (
	"gorm.io/gorm"
)

// UserContact is one directed follow edge of the social graph.
// A user's presence "neighbors" are everyone appearing on either side of
// an edge with them (followers ∪ following).
type UserContact struct {
	gorm.Model
	UserUuid    string `gorm:"column:user_uuid;uniqueIndex:idx_user_contact;type:char(20);not null"`
	ContactUuid string `gorm:"column:contact_uuid;uniqueIndex:idx_user_contact;index;type:char(20);not null"`
}

func (UserContact) TableName() string {
	return "user_contact"
}
