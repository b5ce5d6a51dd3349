package gateway

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"GateLink/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
)

// WsConn is one client device connection. A single user may have several,
// each maintained separately. All room/user bookkeeping lives in the
// ConnManager; the fields here are either immutable after registration or
// owned by the manager's lock (rooms, presence).
type WsConn struct {
	ConnID string
	UserID string
	Email  string
	Role   string

	Conn   *websocket.Conn
	Remote net.Addr

	// Outbound queue consumed by the single writer goroutine. Writers must
	// never call Conn.WriteMessage directly; gorilla conns do not allow
	// concurrent writes.
	SendChan chan []byte

	CreatedAt time.Time

	presence  string // guarded by the manager
	rooms     map[string]bool
	closeOnce sync.Once
	done      chan struct{}
}

func NewWsConn(connID, userID, email, role string, ws *websocket.Conn, queue int) *WsConn {
	if queue <= 0 {
		queue = 256
	}
	c := &WsConn{
		ConnID:    connID,
		UserID:    userID,
		Email:     email,
		Role:      role,
		Conn:      ws,
		SendChan:  make(chan []byte, queue),
		CreatedAt: time.Now(),
		presence:  "online",
		rooms:     make(map[string]bool),
		done:      make(chan struct{}),
	}
	if ws != nil {
		if ra := ws.RemoteAddr(); ra != nil {
			c.Remote = ra
		}
	}
	return c
}

// Deliver enqueues a payload without blocking. A full queue means a slow
// client; the frame is dropped rather than stalling the fan-out path.
func (c *WsConn) Deliver(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.SendChan <- payload:
		return true
	default:
		logger.Warnf("[ws] send queue full, drop frame conn=%s user=%s", c.ConnID, c.UserID)
		return false
	}
}

// CloseQuiet stops delivery and closes the socket; safe to call from
// multiple paths (read loop exit, writer failure, shutdown).
func (c *WsConn) CloseQuiet() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}

func (c *WsConn) Done() <-chan struct{} { return c.done }

// WritePump is the connection's only writer: drains SendChan and keeps the
// ping/pong heartbeat. Returns when the connection dies or CloseQuiet runs.
func (c *WsConn) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.CloseQuiet()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.SendChan:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debugf("[ws] write err conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Debugf("[ws] ping err conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
				return
			}
		}
	}
}
