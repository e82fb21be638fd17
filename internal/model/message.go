// Package model defines the database entities.
// This file defines the message and its per-user receipt and reaction rows.
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// Message type values.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeVideo = "video"
	MessageTypeAudio = "audio"
	MessageTypeFile  = "file"
	MessageTypeVoice = "voice"
	MessageTypeGif   = "gif"
	MessageTypeCall  = "call"
)

// Message is one entry of a conversation's append-only ledger.
// Identity and CreatedAt are immutable once created; deletion is a soft
// flag plus a content placeholder, never a row removal (except via the
// group-delete cascade).
type Message struct {
	gorm.Model

	// Uuid is a snowflake id in string form, safe across a JSON boundary.
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);not null"`

	ConversationUuid string `gorm:"column:conversation_uuid;index:idx_conv_created;type:char(20);not null"`
	SenderId         string `gorm:"column:sender_id;index;type:char(20);not null"`

	Type    string `gorm:"column:type;type:varchar(10);not null;default:text"`
	Content string `gorm:"column:content;type:TEXT"`

	// Media is stored by an external blob service; only the reference lives here.
	MediaUrl string `gorm:"column:media_url;type:varchar(255)"`
	FileName string `gorm:"column:file_name;type:varchar(100)"`
	FileSize int64  `gorm:"column:file_size;default:0"`
	Duration int    `gorm:"column:duration;default:0"` // seconds, audio/video

	// ReplyToUuid must reference a message of the same conversation.
	ReplyToUuid *string `gorm:"column:reply_to_uuid;type:char(20)"`

	// ForwardedFrom is the original sender when this message was forwarded.
	ForwardedFrom string `gorm:"column:forwarded_from;type:char(20)"`

	IsDeleted bool `gorm:"column:is_deleted;not null;default:false"`
	// DeletedTime is the soft-delete timestamp; distinct from the
	// gorm.Model DeletedAt, which stays unused so ledger rows are never
	// hidden from queries.
	DeletedTime sql.NullTime `gorm:"column:deleted_time"`
	EditedAt    sql.NullTime `gorm:"column:edited_at"`
}

func (Message) TableName() string {
	return "message"
}

// MessageReceipt records per-user delivery and seen state for one message.
// The composite unique index makes marking idempotent under concurrency:
// two racing markers resolve to one row.
type MessageReceipt struct {
	gorm.Model

	MessageUuid string `gorm:"column:message_uuid;uniqueIndex:idx_msg_user;type:char(20);not null"`
	UserUuid    string `gorm:"column:user_uuid;uniqueIndex:idx_msg_user;type:char(20);not null"`

	DeliveredAt sql.NullTime `gorm:"column:delivered_at"`
	SeenAt      sql.NullTime `gorm:"column:seen_at"`
}

func (MessageReceipt) TableName() string {
	return "message_receipt"
}

// MessageReaction holds at most one emoji per (message, user); a new emoji
// from the same user replaces the old one via upsert on the unique index.
type MessageReaction struct {
	gorm.Model

	MessageUuid string `gorm:"column:message_uuid;uniqueIndex:idx_react_msg_user;type:char(20);not null"`
	UserUuid    string `gorm:"column:user_uuid;uniqueIndex:idx_react_msg_user;type:char(20);not null"`

	Emoji string `gorm:"column:emoji;type:varchar(10);not null"`
}

func (MessageReaction) TableName() string {
	return "message_reaction"
}
