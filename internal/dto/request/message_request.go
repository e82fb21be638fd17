package request

// SendMessageRequest appends a message to a conversation.
type SendMessageRequest struct {
	ConversationId string `json:"conversationId" binding:"required"`
	Type           string `json:"type"`
	Content        string `json:"content"`
	MediaUrl       string `json:"mediaUrl"`
	FileName       string `json:"fileName"`
	FileSize       int64  `json:"fileSize"`
	Duration       int    `json:"duration"`
	ReplyTo        string `json:"replyTo"`
}

// GetMessageListRequest pages through a conversation's history.
type GetMessageListRequest struct {
	ConversationId string `json:"conversationId" form:"conversationId" binding:"required"`
	Page           int    `json:"page" form:"page"`
	PageSize       int    `json:"pageSize" form:"pageSize"`
}

// ReactRequest toggles the caller's reaction on a message.
type ReactRequest struct {
	MessageId string `json:"messageId" binding:"required"`
	Emoji     string `json:"emoji"`
}

// ForwardMessageRequest copies a message into other conversations.
type ForwardMessageRequest struct {
	MessageId       string   `json:"messageId" binding:"required"`
	ConversationIds []string `json:"conversationIds" binding:"required,min=1"`
}

// MarkSeenRequest acknowledges one message.
type MarkSeenRequest struct {
	MessageId string `json:"messageId" binding:"required"`
}
