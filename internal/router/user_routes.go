// Package router registers the HTTP routes.
// This file defines the user and media routes.
package router

import (
	"ripple_chat_server/internal/handler"

	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes registers the user surface.
func RegisterUserRoutes(rg *gin.RouterGroup) {
	userGroup := rg.Group("/users")
	{
		userGroup.GET("/search", handler.SearchUsersHandler)
		userGroup.GET("/:id", handler.GetUserHandler)
	}

	rg.POST("/media/upload", handler.UploadMediaHandler)
}
