// Package repository defines the data-access interfaces and their GORM
// implementations. Interfaces live here so the service layer can be tested
// against in-memory fakes.
//
// Counter, receipt and reaction mutations are single-statement operations
// (atomic increments, upserts against unique indexes); no method does a
// fetch-mutate-save cycle on shared state.
package repository

import (
	"context"
	"database/sql"
	"time"

	"ripple_chat_server/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository accesses conversation rows.
type ConversationRepository interface {
	// Create inserts the conversation and its member rows in one
	// transaction. A duplicate pair_key returns a Conflict error.
	Create(ctx context.Context, conv *model.Conversation, members []model.ConversationMember) error
	FindByUuid(ctx context.Context, uuid string) (*model.Conversation, error)
	FindDirectByPairKey(ctx context.Context, pairKey string) (*model.Conversation, error)
	// FindForUser lists the caller's non-archived conversations, most
	// recent activity first.
	FindForUser(ctx context.Context, userUuid string) ([]model.Conversation, error)
	UpdateLastMessage(ctx context.Context, convUuid, messageUuid, preview string, at time.Time) error
	UpdateSettings(ctx context.Context, convUuid string, theme, emoji *string) error
	// Delete hard-deletes the conversation and its member rows.
	Delete(ctx context.Context, convUuid string) error
}

// MemberRepository accesses per-participant conversation state.
type MemberRepository interface {
	FindMembers(ctx context.Context, convUuid string) ([]model.ConversationMember, error)
	FindMember(ctx context.Context, convUuid, userUuid string) (*model.ConversationMember, error)
	// IncrementUnread bumps unread_count by one for every participant
	// except excludeUserUuid, as a single UPDATE.
	IncrementUnread(ctx context.Context, convUuid, excludeUserUuid string) error
	ResetUnread(ctx context.Context, convUuid, userUuid string) error
	SetArchived(ctx context.Context, convUuid, userUuid string, archived bool) error
	SetMuted(ctx context.Context, convUuid, userUuid string, muted bool, until sql.NullTime) error
}

// MessageRepository accesses the message ledger.
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	FindByUuid(ctx context.Context, uuid string) (*model.Message, error)
	// FindPage returns non-deleted messages, newest first.
	FindPage(ctx context.Context, convUuid string, page, pageSize int) ([]model.Message, error)
	// FindUnseenBy returns messages of the conversation not sent by
	// userUuid and not yet seen by them.
	FindUnseenBy(ctx context.Context, convUuid, userUuid string) ([]model.Message, error)
	SoftDelete(ctx context.Context, uuid, placeholder string, at time.Time) error
	// DeleteByConversation removes the conversation's messages together
	// with their receipts and reactions (group-delete cascade).
	DeleteByConversation(ctx context.Context, convUuid string) error
}

// ReceiptRepository accesses per-user delivery/seen receipts.
type ReceiptRepository interface {
	// MarkDelivered records delivery idempotently for the given messages.
	MarkDelivered(ctx context.Context, messageUuids []string, userUuid string, at time.Time) error
	// MarkSeen records the seen (and, if absent, delivered) timestamp.
	// Returns false when the user had already seen the message.
	MarkSeen(ctx context.Context, messageUuid, userUuid string, at time.Time) (bool, error)
	FindByMessage(ctx context.Context, messageUuid string) ([]model.MessageReceipt, error)
}

// ReactionRepository accesses message reactions.
type ReactionRepository interface {
	FindByMessage(ctx context.Context, messageUuid string) ([]model.MessageReaction, error)
	FindByMessageAndUser(ctx context.Context, messageUuid, userUuid string) (*model.MessageReaction, error)
	// Upsert inserts or replaces the user's reaction on the message.
	Upsert(ctx context.Context, reaction *model.MessageReaction) error
	Delete(ctx context.Context, messageUuid, userUuid string) error
}

// ContactRepository is the social-graph collaborator surface the engine
// needs: the neighbor set used for presence notifications.
type ContactRepository interface {
	NeighborIDs(ctx context.Context, userUuid string) ([]string, error)
}

// UserRepository accesses profile records (search plumbing and presence
// persistence).
type UserRepository interface {
	FindByUuid(ctx context.Context, uuid string) (*model.UserInfo, error)
	Search(ctx context.Context, query string, limit int) ([]model.UserInfo, error)
	SetOnline(ctx context.Context, uuid string, online bool, lastSeen time.Time) error
}

// Repositories aggregates every repository for injection into services.
type Repositories struct {
	Conversation ConversationRepository
	Member       MemberRepository
	Message      MessageRepository
	Receipt      ReceiptRepository
	Reaction     ReactionRepository
	Contact      ContactRepository
	User         UserRepository
}

// NewRepositories wires all GORM-backed repositories to one DB handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Conversation: NewConversationRepository(db),
		Member:       NewMemberRepository(db),
		Message:      NewMessageRepository(db),
		Receipt:      NewReceiptRepository(db),
		Reaction:     NewReactionRepository(db),
		Contact:      NewContactRepository(db),
		User:         NewUserRepository(db),
	}
}
