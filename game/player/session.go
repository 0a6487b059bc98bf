// Package player holds the connected player's WebSocket session and the
// session registry.
package player

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aokumo/nightwarden/geo"
)

const (
	sendChanBuf   = 256
	writeDeadline = 10 * time.Second
	readDeadlineS = 60 * time.Second
	pingInterval  = 30 * time.Second
)

// Packet is the unified WS message envelope.
type Packet struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Session is one connected player.
type Session struct {
	SessionID string
	AccountID int64
	Name      string

	Conn *websocket.Conn

	SendChan chan []byte
	Done     chan struct{}
	TraceID  string
	LastSeq  uint64

	pos    geo.Vec2
	facing float64
	intent geo.Vec2 // desired move direction, unit-ish, applied by the room
	dirty  bool
	dying  bool

	mu        sync.Mutex
	closeOnce sync.Once
	logger    *zap.Logger
}

// NewSession creates a Session and starts its write pump.
func NewSession(accountID int64, name string, conn *websocket.Conn, logger *zap.Logger) *Session {
	s := &Session{
		SessionID: uuid.NewString(),
		AccountID: accountID,
		Name:      name,
		Conn:      conn,
		SendChan:  make(chan []byte, sendChanBuf),
		Done:      make(chan struct{}),
		logger:    logger,
	}
	go s.writePump()
	return s
}

// writePump drains SendChan and writes to the connection, with periodic
// pings to detect dead connections quickly.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.Conn.Close()
	for {
		select {
		case data, ok := <-s.SendChan:
			if !ok {
				return
			}
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("ws write error",
					zap.Int64("account_id", s.AccountID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.Done:
			_ = s.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send encodes pkt and sends it non-blocking; drops when full or closed.
func (s *Session) Send(pkt *Packet) {
	if s.IsClosed() {
		return
	}
	data, err := json.Marshal(pkt)
	if err != nil {
		return
	}
	s.SendRaw(data)
}

// SendRaw sends raw bytes non-blocking; drops when full or closed.
func (s *Session) SendRaw(data []byte) {
	if s.IsClosed() {
		return
	}
	select {
	case s.SendChan <- data:
	case <-s.Done:
	default:
		s.logger.Warn("send channel full, dropping packet",
			zap.Int64("account_id", s.AccountID))
	}
}

// Close signals the write pump to shut the connection down.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.Done) })
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	select {
	case <-s.Done:
		return true
	default:
		return false
	}
}

// SetReadDeadline refreshes the read deadline after traffic or pongs.
func (s *Session) SetReadDeadline() {
	_ = s.Conn.SetReadDeadline(time.Now().Add(readDeadlineS))
}

// SetPosition moves the player and marks the session dirty for sync.
func (s *Session) SetPosition(p geo.Vec2, facing float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p != s.pos || facing != s.facing {
		s.dirty = true
	}
	s.pos = p
	s.facing = facing
}

// Position returns the player's position and facing.
func (s *Session) Position() (geo.Vec2, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, s.facing
}

// SetMoveIntent records the client's desired move direction; the room
// validates and applies it on the next tick.
func (s *Session) SetMoveIntent(v geo.Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent = v
}

// MoveIntent returns the pending move direction.
func (s *Session) MoveIntent() geo.Vec2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intent
}

// ResetDirty returns whether the session was dirty and clears the flag.
func (s *Session) ResetDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dirty
	s.dirty = false
	return d
}

// MarkDying freezes player input for the death sequence.
func (s *Session) MarkDying() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dying = true
	s.intent = geo.Vec2{}
}

// IsDying reports whether the death sequence is running.
func (s *Session) IsDying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dying
}
