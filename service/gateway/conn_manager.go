package gateway

import (
	"sync"
)

// ConnManager owns the three shared tables: connection index, user session
// index, and per-room subscriber sets. One mutex guards all of them so every
// cross-cutting mutation (register, join+subscribe, disconnect+cleanup) is a
// single critical section; there is no window where a socket is half-removed
// and still reachable by a broadcast.
type ConnManager struct {
	mu     sync.RWMutex
	byConn map[string]*WsConn            // connID -> conn
	byUser map[string]map[string]*WsConn // userID -> (connID -> conn)
	rooms  map[string]map[string]*WsConn // roomID -> (connID -> conn)
}

func NewConnManager() *ConnManager {
	return &ConnManager{
		byConn: make(map[string]*WsConn),
		byUser: make(map[string]map[string]*WsConn),
		rooms:  make(map[string]map[string]*WsConn),
	}
}

// Register inserts the connection. first reports whether this is the user's
// first live socket (the Offline -> Online transition). Concurrent registers
// for the same user both succeed; only one observes first=true.
func (m *ConnManager) Register(c *WsConn) (first bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byConn[c.ConnID] = c
	mm := m.byUser[c.UserID]
	if mm == nil {
		mm = make(map[string]*WsConn)
		m.byUser[c.UserID] = mm
	}
	first = len(mm) == 0
	mm[c.ConnID] = c
	return first
}

// Deregister removes the socket from the connection index, the user index,
// and every subscriber set it belonged to, atomically. last reports whether
// the user's socket set became empty (the Online -> Offline transition).
// A second call for the same connID is a no-op returning (nil, false), which
// is what makes disconnect handling exactly-once even when the timeout path
// and the explicit-close path race.
func (m *ConnManager) Deregister(connID string) (c *WsConn, last bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byConn[connID]
	if !ok {
		return nil, false
	}
	delete(m.byConn, connID)

	if mm := m.byUser[c.UserID]; mm != nil {
		delete(mm, connID)
		if len(mm) == 0 {
			delete(m.byUser, c.UserID)
			last = true
		}
	}

	for roomID := range c.rooms {
		if rm := m.rooms[roomID]; rm != nil {
			delete(rm, connID)
			if len(rm) == 0 {
				delete(m.rooms, roomID)
			}
		}
	}
	c.rooms = make(map[string]bool)
	return c, last
}

// JoinRoom subscribes the socket to a room. Joining twice is a no-op
// success. The caller performs the authorization check first; this method
// only mutates local state.
func (m *ConnManager) JoinRoom(connID, roomID string) (already bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, found := m.byConn[connID]
	if !found {
		return false, false
	}
	if c.rooms[roomID] {
		return true, true
	}
	c.rooms[roomID] = true
	rm := m.rooms[roomID]
	if rm == nil {
		rm = make(map[string]*WsConn)
		m.rooms[roomID] = rm
	}
	rm[connID] = c
	return false, true
}

// LeaveRoom always succeeds; leaving a room the socket never joined is a
// no-op.
func (m *ConnManager) LeaveRoom(connID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, found := m.byConn[connID]
	if !found {
		return
	}
	delete(c.rooms, roomID)
	if rm := m.rooms[roomID]; rm != nil {
		delete(rm, connID)
		if len(rm) == 0 {
			delete(m.rooms, roomID)
		}
	}
}

// IsMember reports whether the socket is currently subscribed to the room.
func (m *ConnManager) IsMember(connID, roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, found := m.byConn[connID]
	return found && c.rooms[roomID]
}

// SetPresence updates the connection's presence attribute.
func (m *ConnManager) SetPresence(connID, status string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, found := m.byConn[connID]
	if !found {
		return false
	}
	c.presence = status
	return true
}

func (m *ConnManager) Presence(connID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, found := m.byConn[connID]
	if !found {
		return "", false
	}
	return c.presence, true
}

// RoomConns snapshots the subscriber set for a room, optionally excluding
// one connection (the sender). The slice is safe to use outside the lock.
func (m *ConnManager) RoomConns(roomID, except string) []*WsConn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rm := m.rooms[roomID]
	if len(rm) == 0 {
		return nil
	}
	out := make([]*WsConn, 0, len(rm))
	for id, c := range rm {
		if id == except {
			continue
		}
		out = append(out, c)
	}
	return out
}

// AllConns snapshots every live connection on this node.
func (m *ConnManager) AllConns() []*WsConn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*WsConn, 0, len(m.byConn))
	for _, c := range m.byConn {
		out = append(out, c)
	}
	return out
}

// UserConns snapshots one user's connections.
func (m *ConnManager) UserConns(userID string) []*WsConn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mm := m.byUser[userID]
	if len(mm) == 0 {
		return nil
	}
	out := make([]*WsConn, 0, len(mm))
	for _, c := range mm {
		out = append(out, c)
	}
	return out
}

// Counts returns (connections, users, rooms) for the ops endpoints.
func (m *ConnManager) Counts() (conns, users, rooms int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byConn), len(m.byUser), len(m.rooms)
}

// CloseAll force-closes every connection; used on shutdown.
func (m *ConnManager) CloseAll() {
	m.mu.Lock()
	conns := make([]*WsConn, 0, len(m.byConn))
	for _, c := range m.byConn {
		conns = append(conns, c)
	}
	m.byConn = make(map[string]*WsConn)
	m.byUser = make(map[string]map[string]*WsConn)
	m.rooms = make(map[string]map[string]*WsConn)
	m.mu.Unlock()

	// close outside the lock
	for _, c := range conns {
		c.CloseQuiet()
	}
}
