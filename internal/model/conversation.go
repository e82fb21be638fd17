// Package model defines the database entities.
// This file defines the conversation and its per-participant state row.
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// Conversation is one chat thread, direct or group.
//
// For direct conversations PairKey holds "minUserId:maxUserId"; its unique
// index is what guarantees at most one conversation per unordered pair even
// under concurrent creation. Group conversations leave PairKey NULL so they
// never collide on the index.
type Conversation struct {
	gorm.Model

	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);not null"`

	IsGroup bool `gorm:"column:is_group;not null;default:false"`

	// PairKey is set for direct conversations only.
	PairKey *string `gorm:"column:pair_key;uniqueIndex;type:varchar(41)"`

	// Name and Avatar are only meaningful for groups.
	Name   string `gorm:"column:name;type:varchar(50)"`
	Avatar string `gorm:"column:avatar;type:varchar(255)"`

	// Theme and Emoji are per-conversation display settings.
	Theme string `gorm:"column:theme;type:varchar(30);default:default"`
	Emoji string `gorm:"column:emoji;type:varchar(10)"`

	// Last-message denormalisation for the conversation list.
	LastMessageId      string       `gorm:"column:last_message_id;type:char(20)"`
	LastMessagePreview string       `gorm:"column:last_message_preview;type:varchar(255)"`
	LastMessageAt      sql.NullTime `gorm:"column:last_message_at;index"`
}

func (Conversation) TableName() string {
	return "conversation"
}

// ConversationMember is the per-participant row of a conversation: admin
// flag, unread counter, archive and mute state.
//
// UnreadCount is only ever mutated by single-statement increments and
// resets so concurrent messages never lose updates.
type ConversationMember struct {
	gorm.Model

	ConversationUuid string `gorm:"column:conversation_uuid;uniqueIndex:idx_conv_user;type:char(20);not null"`
	UserUuid         string `gorm:"column:user_uuid;uniqueIndex:idx_conv_user;index;type:char(20);not null"`

	IsAdmin bool `gorm:"column:is_admin;not null;default:false"`

	UnreadCount int `gorm:"column:unread_count;not null;default:0"`

	IsArchived bool `gorm:"column:is_archived;not null;default:false"`

	IsMuted    bool         `gorm:"column:is_muted;not null;default:false"`
	MutedUntil sql.NullTime `gorm:"column:muted_until"`
}

func (ConversationMember) TableName() string {
	return "conversation_member"
}
