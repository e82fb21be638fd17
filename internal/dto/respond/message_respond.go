package respond

// ReactionRespond is one user's reaction on a message.
type ReactionRespond struct {
	UserId string `json:"userId"`
	Emoji  string `json:"emoji"`
}

// MessageRespond is a ledger entry as returned to clients and carried in
// new_message events.
type MessageRespond struct {
	MessageId      string `json:"messageId"`
	ConversationId string `json:"conversationId"`
	SenderId       string `json:"senderId"`

	Type    string `json:"type"`
	Content string `json:"content"`

	MediaUrl string `json:"mediaUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	Duration int    `json:"duration,omitempty"`

	ReplyTo       string `json:"replyTo,omitempty"`
	ForwardedFrom string `json:"forwardedFrom,omitempty"`

	Reactions []ReactionRespond `json:"reactions,omitempty"`

	IsDeleted bool   `json:"isDeleted,omitempty"`
	CreatedAt string `json:"createdAt"`
	EditedAt  string `json:"editedAt,omitempty"`
}

// MessagePageRespond is one page of a conversation, oldest-first.
type MessagePageRespond struct {
	Messages []MessageRespond `json:"messages"`
	HasMore  bool             `json:"hasMore"`
}
