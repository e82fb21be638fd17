// Package event routes outbound real-time events to the right set of
// connected sessions. Delivery is at-most-once and best-effort: offline
// users receive nothing and re-sync on reconnect.
package event

import (
	"encoding/json"
	"time"
)

// Event types on the wire.
const (
	TypeNewMessage      = "new_message"
	TypeMessageSeen     = "message_seen"
	TypeMessageReaction = "message_reaction"
	TypeMessageDeleted  = "message_deleted"
	TypeTyping          = "typing"

	TypeUserOnline  = "user_online"
	TypeUserOffline = "user_offline"

	TypeConversationRead    = "conversation_read"
	TypeConversationUpdated = "conversation_updated"

	TypeCallOffer    = "call_offer"
	TypeCallAnswer   = "call_answer"
	TypeIceCandidate = "ice_candidate"
	TypeEndCall      = "end_call"
)

// Event is one outbound notification before target resolution.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Envelope is an event bound to its resolved user targets. In kafka mode
// this is what travels on the topic so every node can deliver to its own
// local sessions.
type Envelope struct {
	Targets []string        `json:"targets"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
}

// payload returns the serialized form handed to sessions.
func (e Envelope) payload() ([]byte, error) {
	return json.Marshal(Event{Type: e.Type, Data: e.Data})
}

// OnlinePayload announces a user's first session coming up.
type OnlinePayload struct {
	UserID string    `json:"userId"`
	Since  time.Time `json:"since"`
}

// OfflinePayload announces a user's last session going away.
type OfflinePayload struct {
	UserID   string    `json:"userId"`
	LastSeen time.Time `json:"lastSeen"`
}

// TypingPayload carries a typing-indicator change.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

// SeenPayload notifies a sender that their message was seen.
type SeenPayload struct {
	MessageID string    `json:"messageId"`
	SeenBy    string    `json:"seenBy"`
	SeenAt    time.Time `json:"seenAt"`
}

// ConversationReadPayload announces a participant clearing a conversation.
type ConversationReadPayload struct {
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"userId"`
	ReadAt         time.Time `json:"readAt"`
}

// ConversationUpdatedPayload nudges clients to refetch a conversation's
// settings.
type ConversationUpdatedPayload struct {
	ConversationID string `json:"conversationId"`
}

// DeletedPayload carries only the id, matching the thin deletion event.
type DeletedPayload struct {
	MessageID string `json:"messageId"`
}

// ReactionEntry is one user's reaction inside a reaction broadcast.
type ReactionEntry struct {
	UserID string `json:"userId"`
	Emoji  string `json:"emoji"`
}

// ReactionPayload carries the full updated reaction list of a message.
type ReactionPayload struct {
	MessageID string          `json:"messageId"`
	Reactions []ReactionEntry `json:"reactions"`
}

// CallSignalPayload relays WebRTC signaling point-to-point. Signal is
// opaque to the engine.
type CallSignalPayload struct {
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal,omitempty"`
}
