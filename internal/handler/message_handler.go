// Package handler provides the HTTP request handlers.
// This file handles the message surface.
package handler

import (
	"ripple_chat_server/internal/dto/request"
	"ripple_chat_server/internal/service"
	"ripple_chat_server/internal/service/message"

	"github.com/gin-gonic/gin"
)

// SendMessageHandler appends a message to a conversation.
// POST /messages
func SendMessageHandler(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := service.Svc.Message.Append(c.Request.Context(), req.ConversationId, c.GetString("user_id"), message.SendParams{
		Type:     req.Type,
		Content:  req.Content,
		MediaUrl: req.MediaUrl,
		FileName: req.FileName,
		FileSize: req.FileSize,
		Duration: req.Duration,
		ReplyTo:  req.ReplyTo,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetMessageListHandler pages through a conversation's history,
// oldest-first within the page.
// GET /messages
func GetMessageListHandler(c *gin.Context) {
	var req request.GetMessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := service.Svc.Message.ListPage(c.Request.Context(), req.ConversationId, c.GetString("user_id"), req.Page, req.PageSize)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// MarkSeenHandler acknowledges one message.
// POST /messages/seen
func MarkSeenHandler(c *gin.Context) {
	var req request.MarkSeenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := service.Svc.Message.MarkSeen(c.Request.Context(), req.MessageId, c.GetString("user_id")); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// ReactHandler toggles the caller's reaction on a message.
// POST /messages/react
func ReactHandler(c *gin.Context) {
	var req request.ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := service.Svc.Message.ToggleReaction(c.Request.Context(), req.MessageId, c.GetString("user_id"), req.Emoji); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// DeleteMessageHandler soft-deletes the caller's own message.
// DELETE /messages/:id
func DeleteMessageHandler(c *gin.Context) {
	if err := service.Svc.Message.SoftDelete(c.Request.Context(), c.Param("id"), c.GetString("user_id")); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// ForwardMessageHandler copies a message into other conversations.
// POST /messages/forward
func ForwardMessageHandler(c *gin.Context) {
	var req request.ForwardMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := service.Svc.Message.Forward(c.Request.Context(), req.MessageId, c.GetString("user_id"), req.ConversationIds)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetReceiptsHandler lists per-user delivery and seen state.
// GET /messages/:id/receipts
func GetReceiptsHandler(c *gin.Context) {
	data, err := service.Svc.Message.Receipts(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
