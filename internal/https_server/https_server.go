// Package https_server builds the gin engine: middleware, static media
// and routes.
package https_server

import (
	"ripple_chat_server/internal/config"
	"ripple_chat_server/internal/gateway/websocket"
	"ripple_chat_server/internal/infrastructure/logger"
	"ripple_chat_server/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Init returns a configured engine. A blank engine is used instead of
// gin.Default so logging and recovery run through zap.
func Init(gateway *websocket.Gateway) *gin.Engine {
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// TLS redirect is optional; enable when not terminating at a proxy.
	// engine.Use(middleware.TlsHandler(config.GetConfig().MainConfig.Host, config.GetConfig().MainConfig.Port))

	engine.Static("/static/avatars", config.GetConfig().StaticAvatarPath)
	engine.Static("/static/files", config.GetConfig().StaticFilePath)

	router.RegisterRoutes(engine, gateway)

	return engine
}
