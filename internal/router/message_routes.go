// Package router registers the HTTP routes.
// This file defines the message routes.
package router

import (
	"ripple_chat_server/internal/handler"

	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes registers the message surface.
func RegisterMessageRoutes(rg *gin.RouterGroup) {
	msgGroup := rg.Group("/messages")
	{
		msgGroup.POST("", handler.SendMessageHandler)
		msgGroup.GET("", handler.GetMessageListHandler) // paged history
		msgGroup.POST("/seen", handler.MarkSeenHandler)
		msgGroup.POST("/react", handler.ReactHandler)
		msgGroup.POST("/forward", handler.ForwardMessageHandler)
		msgGroup.DELETE("/:id", handler.DeleteMessageHandler)
		msgGroup.GET("/:id/receipts", handler.GetReceiptsHandler)
	}
}
