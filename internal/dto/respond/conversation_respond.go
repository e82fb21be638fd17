package respond

// ParticipantRespond is a participant summary inside conversation
// responses.
type ParticipantRespond struct {
	UserId   string `json:"userId"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
	IsOnline bool   `json:"isOnline"`
	LastSeen string `json:"lastSeen,omitempty"`
}

// ConversationRespond is one entry of the caller's conversation list.
// UnreadCount and mute state are the caller's own.
type ConversationRespond struct {
	ConversationId string `json:"conversationId"`
	IsGroup        bool   `json:"isGroup"`
	Name           string `json:"name,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
	Theme          string `json:"theme"`
	Emoji          string `json:"emoji"`

	// Participant is the other user for direct conversations.
	Participant *ParticipantRespond `json:"participant,omitempty"`

	LastMessagePreview string `json:"lastMessagePreview,omitempty"`
	LastMessageAt      string `json:"lastMessageAt,omitempty"`

	UnreadCount int  `json:"unreadCount"`
	IsMuted     bool `json:"isMuted"`
	IsAdmin     bool `json:"isAdmin,omitempty"`
}
