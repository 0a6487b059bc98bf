package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/aokumo/nightwarden/game/player"
	"github.com/aokumo/nightwarden/game/world"
	"github.com/aokumo/nightwarden/geo"
)

// GameHandlers wires the in-level message handlers onto a Router.
type GameHandlers struct {
	wm     *world.Manager
	logger *zap.Logger
}

// NewGameHandlers creates the handler set.
func NewGameHandlers(wm *world.Manager, logger *zap.Logger) *GameHandlers {
	return &GameHandlers{wm: wm, logger: logger}
}

// RegisterAll binds every game message type.
func (g *GameHandlers) RegisterAll(r *Router) {
	r.On("join", g.HandleJoin)
	r.On("move", g.HandleMove)
	r.On("door", g.HandleDoor)
	r.On("ping", g.HandlePing)
}

type joinReq struct {
	LevelID string `json:"level_id"`
}

// HandleJoin creates (or replaces) the player's level room and joins it.
func (g *GameHandlers) HandleJoin(_ context.Context, s *player.Session, payload json.RawMessage) error {
	var req joinReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	room, err := g.wm.CreateRoom(req.LevelID, s.AccountID)
	if err != nil {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		s.Send(&player.Packet{Type: "join_failed", Payload: data})
		return err
	}
	room.Join(s)
	return nil
}

type moveReq struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// HandleMove records the client's move intent; the room validates and
// applies it on the next simulation tick.
func (g *GameHandlers) HandleMove(_ context.Context, s *player.Session, payload json.RawMessage) error {
	var req moveReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("move: %w", err)
	}
	s.SetMoveIntent(geo.Vec2{X: req.DX, Y: req.DY})
	return nil
}

type doorReq struct {
	DoorID string `json:"door_id"`
	Open   bool   `json:"open"`
}

// HandleDoor forwards a door open/close command to the room.
func (g *GameHandlers) HandleDoor(_ context.Context, s *player.Session, payload json.RawMessage) error {
	var req doorReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("door: %w", err)
	}
	room := g.wm.ByAccount(s.AccountID)
	if room == nil {
		return fmt.Errorf("door: account %d not in a room", s.AccountID)
	}
	room.HandleDoor(req.DoorID, req.Open)
	return nil
}

// HandlePing answers the client heartbeat.
func (g *GameHandlers) HandlePing(_ context.Context, s *player.Session, _ json.RawMessage) error {
	s.Send(&player.Packet{Type: "pong"})
	return nil
}
