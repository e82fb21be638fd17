package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"ripple_chat_server/internal/config"
	dao "ripple_chat_server/internal/dao/mysql"
	myredis "ripple_chat_server/internal/dao/redis"
	"ripple_chat_server/internal/gateway/websocket"
	"ripple_chat_server/internal/handler"
	"ripple_chat_server/internal/https_server"
	"ripple_chat_server/internal/infrastructure/blob"
	"ripple_chat_server/internal/infrastructure/logger"
	"ripple_chat_server/internal/service"
	"ripple_chat_server/internal/service/event"
	"ripple_chat_server/internal/service/presence"
	"ripple_chat_server/pkg/util/jwt"
	"ripple_chat_server/pkg/util/snowflake"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	conf := config.GetConfig()

	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("logger ready")

	if conf.MainConfig.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	dao.Init()
	zap.L().Info("database ready")

	myredis.Init()
	zap.L().Info("redis ready")

	snowflake.Init(conf.SnowflakeConfig.MachineID)

	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)

	if err := handler.InitTrans("en"); err != nil {
		zap.L().Fatal("init validator translator failed", zap.Error(err))
	}

	blobs, err := blob.NewLocalStore(conf.StaticSrcConfig.StaticFilePath, "/static/files")
	if err != nil {
		zap.L().Fatal("init blob store failed", zap.Error(err))
	}

	// registry first; the event router is injected into it inside
	// service.InitServices once the broker exists
	registry := presence.NewRegistry(dao.Repos.Contact, dao.Repos.User)

	var broker event.Broker
	if conf.KafkaConfig.EventMode == "kafka" {
		broker = event.NewKafkaBroker(registry, strconv.FormatInt(conf.SnowflakeConfig.MachineID, 10))
	} else {
		broker = event.NewLocalBroker(registry)
	}
	go broker.Start()
	zap.L().Info("event broker ready", zap.String("mode", conf.KafkaConfig.EventMode))

	service.InitServices(dao.Repos, broker, registry, blobs)
	zap.L().Info("services ready")

	gateway := websocket.NewGateway(service.Svc)
	engine := https_server.Init(gateway)

	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		if err := engine.Run(addr); err != nil {
			zap.L().Fatal("server stopped", zap.Error(err))
		}
	}()
	zap.L().Info("server listening",
		zap.String("host", conf.MainConfig.Host), zap.Int("port", conf.MainConfig.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("shutting down...")
	broker.Close()
	zap.L().Info("server closed")
}
