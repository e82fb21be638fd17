// Package router registers the HTTP routes.
// This file defines the conversation routes.
package router

import (
	"ripple_chat_server/internal/handler"

	"github.com/gin-gonic/gin"
)

// RegisterConversationRoutes registers the conversation surface.
func RegisterConversationRoutes(rg *gin.RouterGroup) {
	convGroup := rg.Group("/conversations")
	{
		convGroup.GET("", handler.GetConversationListHandler)       // conversation list, most recent first
		convGroup.POST("/direct", handler.OpenDirectHandler)        // open or reuse the direct conversation
		convGroup.POST("/group", handler.CreateGroupHandler)        // create a group
		convGroup.PUT("/:id", handler.UpdateConversationHandler)    // theme, emoji, mute
		convGroup.DELETE("/:id", handler.DeleteConversationHandler) // delete group / archive direct
		convGroup.POST("/read", handler.MarkConversationReadHandler)
		convGroup.POST("/typing", handler.TypingHandler)
	}
}
