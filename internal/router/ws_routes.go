// Package router registers the HTTP routes.
// This file defines the websocket entry point.
package router

import (
	"ripple_chat_server/internal/gateway/websocket"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes registers the realtime connection entry.
// Clients connect with ws://host:port/wss?token=<access token>.
func RegisterWebSocketRoutes(rg *gin.RouterGroup, gateway *websocket.Gateway) {
	rg.GET("/wss", gateway.HandleConnection)
}
