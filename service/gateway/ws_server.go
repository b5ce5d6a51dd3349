package gateway

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"GateLink/logger"
	"GateLink/tools/errs"
	"GateLink/tools/ids"
	"GateLink/tools/safe"
)

// origin filtering happens in the middleware layer, before the upgrade
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const maxFrameBytes = 64 * 1024

// HandleWS authenticates, upgrades and serves one client connection. The
// token is verified before the upgrade; a failed connection attempt leaves
// no state behind.
func (s *Server) HandleWS(c *gin.Context) {
	token := bearerToken(c)
	ident, err := s.verifier.Verify(token)
	if err != nil {
		ce, ok := errs.Unwrap(err)
		if !ok {
			ce = errs.ErrAuthentication
		}
		logger.Infof("[ws] auth rejected remote=%s: %v", c.ClientIP(), err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, ce)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed remote=%s: %v", c.ClientIP(), err)
		return
	}

	conn := NewWsConn("c-"+ids.GenerateString(), ident.UserID, ident.Email, ident.Role, ws, s.sendQueueSize)
	first := s.mgr.Register(conn)

	// personal and role rooms come from verified claims, not the external
	// store, so they skip the access check
	s.mgr.JoinRoom(conn.ConnID, UserRoom(conn.UserID))
	s.mgr.JoinRoom(conn.ConnID, RoleRoom(conn.Role))

	logger.Infof("[ws] connected user=%s conn=%s role=%s remote=%v", conn.UserID, conn.ConnID, conn.Role, conn.Remote)

	safe.Go("ws-writer-"+conn.ConnID, conn.WritePump)

	if ack, err := BuildConnectedAck(conn.ConnID, conn.UserID); err == nil {
		conn.Deliver(ack)
	}
	if first {
		s.presence.UserOnline(conn.UserID)
	}

	s.readLoop(conn)
	s.teardown(conn)
}

func (s *Server) readLoop(conn *WsConn) {
	ws := conn.Conn
	ws.SetReadLimit(maxFrameBytes)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s user=%s", conn.ConnID, conn.UserID)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s user=%s", conn.ConnID, conn.UserID)
			} else {
				logger.Infof("[ws] read err conn=%s user=%s err=%v", conn.ConnID, conn.UserID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			if ce, ok := errs.Unwrap(perr); ok {
				s.SendError(conn, ce)
			} else {
				s.SendError(conn, errs.ErrValidation)
			}
			continue
		}

		s.HandleFrame(frame, conn)
	}
}

// teardown runs once per connection regardless of which path detected the
// disconnect; Deregister's exactly-once semantics carry that guarantee.
func (s *Server) teardown(conn *WsConn) {
	c, last := s.mgr.Deregister(conn.ConnID)
	conn.CloseQuiet()
	if c == nil {
		return
	}
	logger.Infof("[ws] disconnected user=%s conn=%s", c.UserID, c.ConnID)
	if last {
		s.presence.UserOffline(c.UserID)
	}
}

func bearerToken(c *gin.Context) string {
	if t := strings.TrimSpace(c.Query("token")); t != "" {
		return t
	}
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz != "" && strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}
