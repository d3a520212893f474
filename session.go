package main

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// --- Session Lifecycle ---

// Session owns one live websocket. At most one session exists per
// player identity; a newer connection for the same identity evicts
// the older one.
type Session struct {
	ID          string
	PlayerID    string
	conn        *websocket.Conn
	connectedAt time.Time

	writeMu sync.Mutex

	mu        sync.Mutex
	connected bool
	lastPing  time.Time
	lastPong  time.Time
	done      chan struct{}
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// touchPong refreshes the liveness deadline; called for any inbound
// ping or pong frame, whatever state the keepalive loop is in.
func (s *Session) touchPong() {
	s.mu.Lock()
	s.lastPong = time.Now()
	s.mu.Unlock()
}

func (s *Session) lastPongAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPong
}

// send writes one envelope to the transport. Failures are Transient:
// the caller logs and moves on, and the registry tears the session
// down so the keepalive loop stops pinging a dead socket.
func (s *Session) send(msgType string, payload interface{}) *GameError {
	if !s.Connected() || s.conn == nil {
		return errTransient("session for %s is not connected", s.PlayerID)
	}

	env := Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return errTransient("marshal %s: %v", msgType, err)
		}
		env.Payload = raw
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := s.conn.WriteJSON(env); err != nil {
		ErrorLog.Printf("Send %s to %s failed: %v", msgType, s.PlayerID, err)
		go disconnectSession(s)
		return errTransient("send %s: %v", msgType, err)
	}
	return nil
}

// connectSession admits a websocket under a caller-supplied identity.
// The identity is an opaque token, deliberately decoupled from the
// transport address: reconnects through NATs keep the same player.
func connectSession(conn *websocket.Conn, playerID string) *Session {
	sessionLock.Lock()
	old := sessions[playerID]
	delete(sessions, playerID)
	sessionLock.Unlock()
	if old != nil {
		InfoLog.Printf("Evicting existing session for %s", playerID)
		disconnectSession(old)
	}

	// Settle window against rapid reconnect storms.
	time.Sleep(ReconnectSettle)

	now := time.Now()
	s := &Session{
		ID:          uuid.NewString(),
		PlayerID:    playerID,
		conn:        conn,
		connectedAt: now,
		connected:   true,
		lastPong:    now,
		done:        make(chan struct{}),
	}

	sessionLock.Lock()
	displaced := sessions[playerID] // concurrent connect won the settle window
	sessions[playerID] = s
	total := len(sessions)
	sessionLock.Unlock()
	if displaced != nil {
		disconnectSession(displaced)
	}
	InfoLog.Printf("Session %s connected for %s (total: %d)", s.ID, playerID, total)

	sessionWG.Add(1)
	go keepAlive(s)

	// First-time identities get a character, starter territories and a
	// home planet before the first broadcast.
	worldLock.Lock()
	_, known := characters[playerID]
	if !known {
		provisionPlayer(playerID)
	}
	worldLock.Unlock()

	s.send("connection_status", map[string]interface{}{
		"status":    "connected",
		"client_id": playerID,
	})
	pushState(s)
	if !known {
		scheduleSave()
	}
	return s
}

// disconnectSession is idempotent: the keepalive loop, the read loop
// and an eviction may all race to call it.
func disconnectSession(s *Session) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	s.connected = false
	close(s.done)
	s.mu.Unlock()

	if s.conn != nil {
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
			time.Now().Add(time.Second))
		s.conn.Close()
	}

	sessionLock.Lock()
	// Only remove ourselves; an evicting replacement may already be
	// registered under the same player.
	if sessions[s.PlayerID] == s {
		delete(sessions, s.PlayerID)
	}
	remaining := len(sessions)
	sessionLock.Unlock()

	InfoLog.Printf("Session %s disconnected for %s (remaining: %d)", s.ID, s.PlayerID, remaining)
}

func sessionFor(playerID string) *Session {
	sessionLock.RLock()
	defer sessionLock.RUnlock()
	return sessions[playerID]
}

// closeAllSessions disconnects every registered session; used during
// shutdown before the final snapshot.
func closeAllSessions() {
	sessionLock.RLock()
	live := make([]*Session, 0, len(sessions))
	for _, s := range sessions {
		live = append(live, s)
	}
	sessionLock.RUnlock()
	for _, s := range live {
		disconnectSession(s)
	}
}

// awaitSessions blocks until every serve loop and keepalive goroutine
// has returned.
func awaitSessions() {
	sessionWG.Wait()
}

// keepAlive drives the ping/pong state machine: every PingInterval
// send a ping envelope and arm the PingTimeout deadline; a session
// that produces no pong before the deadline is torn down.
func keepAlive(s *Session) {
	defer sessionWG.Done()
	ticker := time.NewTicker(Config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		s.lastPing = time.Now()
		s.mu.Unlock()
		if err := s.send("ping", nil); err != nil {
			// send already tore the session down
			return
		}

		select {
		case <-s.done:
			return
		case <-time.After(Config.PingTimeout):
		}

		if time.Since(s.lastPongAt()) > Config.PingTimeout {
			ErrorLog.Printf("Ping timeout for %s", s.PlayerID)
			disconnectSession(s)
			return
		}
	}
}
