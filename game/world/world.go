package world

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aokumo/nightwarden/cache"
	"github.com/aokumo/nightwarden/game/ai"
	"github.com/aokumo/nightwarden/resource"
)

// Manager creates and tracks level rooms. One room per run; spectators and
// the admin surface look rooms up by ID, players are routed by account.
type Manager struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	byAcct  map[int64]string
	levels  *resource.Loader
	roomCfg RoomConfig
	aiCfg   ai.Config

	pubsub   cache.PubSub
	recorder Recorder
	logger   *zap.Logger
}

// NewManager creates a Manager over the loaded levels.
func NewManager(
	levels *resource.Loader,
	roomCfg RoomConfig,
	aiCfg ai.Config,
	pubsub cache.PubSub,
	recorder Recorder,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		byAcct:   make(map[int64]string),
		levels:   levels,
		roomCfg:  roomCfg,
		aiCfg:    aiCfg,
		pubsub:   pubsub,
		recorder: recorder,
		logger:   logger,
	}
}

// CreateRoom spins up a room for the level and registers it for the account.
// An existing room for the same account is stopped first.
func (m *Manager) CreateRoom(levelID string, accountID int64) (*Room, error) {
	lv := m.levels.Get(levelID)
	if lv == nil {
		return nil, fmt.Errorf("create room: unknown level %q", levelID)
	}

	m.mu.Lock()
	if oldID, ok := m.byAcct[accountID]; ok {
		if old := m.rooms[oldID]; old != nil {
			delete(m.rooms, oldID)
			m.mu.Unlock()
			old.Stop()
			m.mu.Lock()
		}
	}
	id := uuid.NewString()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	room := NewRoom(id, lv, m.roomCfg, m.aiCfg, m.pubsub, m.recorder, rng, m.logger)
	m.rooms[id] = room
	m.byAcct[accountID] = id
	m.mu.Unlock()

	m.logger.Info("room created",
		zap.String("room_id", id), zap.String("level", levelID),
		zap.Int64("account_id", accountID))
	return room, nil
}

// Get returns the room with the given ID, or nil.
func (m *Manager) Get(roomID string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[roomID]
}

// ByAccount returns the account's active room, or nil.
func (m *Manager) ByAccount(accountID int64) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byAcct[accountID]; ok {
		return m.rooms[id]
	}
	return nil
}

// Destroy stops and removes a room.
func (m *Manager) Destroy(roomID string) bool {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if ok {
		delete(m.rooms, roomID)
		for acct, id := range m.byAcct {
			if id == roomID {
				delete(m.byAcct, acct)
			}
		}
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	room.Stop()
	m.logger.Info("room destroyed", zap.String("room_id", roomID))
	return true
}

// List returns a snapshot of the active rooms.
func (m *Manager) List() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}

// Count returns the number of active rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// StopAll stops every room (server shutdown).
func (m *Manager) StopAll() {
	for _, r := range m.List() {
		r.Stop()
	}
	m.mu.Lock()
	m.rooms = make(map[string]*Room)
	m.byAcct = make(map[int64]string)
	m.mu.Unlock()
}
