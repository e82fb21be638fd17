// Package handler provides the HTTP request handlers.
// This file handles the conversation surface.
package handler

import (
	"ripple_chat_server/internal/dto/request"
	"ripple_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// OpenDirectHandler returns the direct conversation with a peer, creating
// it on first contact.
// POST /conversations/direct
func OpenDirectHandler(c *gin.Context) {
	var req request.OpenDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	conv, err := service.Svc.Conversation.GetOrCreateDirect(c.Request.Context(), c.GetString("user_id"), req.PeerId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"conversationId": conv.Uuid})
}

// CreateGroupHandler creates a group conversation.
// POST /conversations/group
func CreateGroupHandler(c *gin.Context) {
	var req request.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	conv, err := service.Svc.Conversation.CreateGroup(c.Request.Context(), c.GetString("user_id"), req.MemberIds, req.Name, req.Avatar)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"conversationId": conv.Uuid})
}

// GetConversationListHandler returns the caller's conversation list.
// GET /conversations
func GetConversationListHandler(c *gin.Context) {
	data, err := service.Svc.Conversation.ListForUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateConversationHandler changes theme, emoji or mute state.
// PUT /conversations/:id
func UpdateConversationHandler(c *gin.Context) {
	var req request.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	err := service.Svc.Conversation.UpdateSettings(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.Theme, req.Emoji, req.IsMuted)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// MarkConversationReadHandler zeroes the caller's unread counter and
// seen-marks the backlog.
// POST /conversations/read
func MarkConversationReadHandler(c *gin.Context) {
	var req request.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := service.Svc.Conversation.MarkRead(c.Request.Context(), req.ConversationId, c.GetString("user_id")); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// DeleteConversationHandler deletes a group or archives a direct
// conversation.
// DELETE /conversations/:id
func DeleteConversationHandler(c *gin.Context) {
	if err := service.Svc.Conversation.DeleteOrArchive(c.Request.Context(), c.Param("id"), c.GetString("user_id")); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// TypingHandler signals typing state over HTTP.
// POST /conversations/typing
func TypingHandler(c *gin.Context) {
	var req request.TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := service.Svc.Conversation.SetTyping(c.Request.Context(), req.ConversationId, c.GetString("user_id"), req.IsTyping); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
