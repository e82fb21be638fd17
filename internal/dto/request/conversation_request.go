// Package request defines the HTTP request bodies.
package request

// OpenDirectRequest opens (or returns) the direct conversation with a
// peer.
type OpenDirectRequest struct {
	PeerId string `json:"peerId" binding:"required"`
}

// CreateGroupRequest creates a group conversation.
type CreateGroupRequest struct {
	Name      string   `json:"name" binding:"required"`
	Avatar    string   `json:"avatar"`
	MemberIds []string `json:"memberIds" binding:"required,min=2"`
}

// UpdateConversationRequest changes display settings or mute state.
// Nil fields are left untouched.
type UpdateConversationRequest struct {
	Theme   *string `json:"theme"`
	Emoji   *string `json:"emoji"`
	IsMuted *bool   `json:"isMuted"`
}

// MarkReadRequest acknowledges a whole conversation.
type MarkReadRequest struct {
	ConversationId string `json:"conversationId" binding:"required"`
}

// TypingRequest signals typing state over HTTP (the socket command is
// the usual path).
type TypingRequest struct {
	ConversationId string `json:"conversationId" binding:"required"`
	IsTyping       bool   `json:"isTyping"`
}
