// Package router registers the HTTP routes.
// This file is the entry point aggregating every route group.
package router

import (
	"ripple_chat_server/internal/gateway/websocket"
	"ripple_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all route groups. Everything sits behind JWT
// authentication; identity issuance lives outside this service.
func RegisterRoutes(r *gin.Engine, gateway *websocket.Gateway) {
	authed := r.Group("/", middleware.JWTAuth())

	RegisterConversationRoutes(authed)
	RegisterMessageRoutes(authed)
	RegisterUserRoutes(authed)
	RegisterWebSocketRoutes(authed, gateway)
}
