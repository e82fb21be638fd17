// Package websocket is the realtime transport: it upgrades HTTP
// connections, binds them to presence sessions and pumps events out and
// client commands in.
package websocket

import (
	"net/http"
	"time"

	"ripple_chat_server/internal/service"
	"ripple_chat_server/internal/service/presence"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Gateway accepts websocket connections for authenticated users.
type Gateway struct {
	services *service.Services
}

// NewGateway creates the transport layer over the service graph.
func NewGateway(services *service.Services) *Gateway {
	return &Gateway{services: services}
}

// HandleConnection upgrades the request and runs the connection until the
// client goes away. The user id comes from the JWT middleware.
func (g *Gateway) HandleConnection(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing identity"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("websocket upgrade failed", zap.String("user", userID), zap.Error(err))
		return
	}

	session := g.services.Registry.Connect(userID)
	zap.L().Info("websocket connected",
		zap.String("user", userID), zap.String("session", session.ID))

	go g.writePump(conn, session)
	go g.readPump(conn, session)
}

// writePump drains the session's outbound channel onto the wire and keeps
// the connection alive with pings. It exits when the session is closed.
func (g *Gateway) writePump(conn *websocket.Conn, session *presence.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-session.Outbound():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				zap.L().Warn("websocket write failed",
					zap.String("session", session.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump parses client commands until the connection drops, then tears
// the session down. Malformed commands are logged and skipped, never
// fatal to the connection.
func (g *Gateway) readPump(conn *websocket.Conn, session *presence.Session) {
	defer func() {
		g.services.Registry.Disconnect(session.ID)
		conn.Close()
		zap.L().Info("websocket disconnected",
			zap.String("user", session.UserID), zap.String("session", session.ID))
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("websocket read failed",
					zap.String("session", session.ID), zap.Error(err))
			}
			return
		}
		g.dispatch(session, data)
	}
}
