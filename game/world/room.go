// Package world runs the per-level simulation: walkability, doors,
// occlusion, the warden, and the single hunted player.
package world

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/aokumo/nightwarden/cache"
	"github.com/aokumo/nightwarden/game/ai"
	"github.com/aokumo/nightwarden/game/player"
	"github.com/aokumo/nightwarden/geo"
	"github.com/aokumo/nightwarden/nav"
	"github.com/aokumo/nightwarden/resource"
)

// TickInterval is the fixed simulation step (20 TPS).
const TickInterval = 50 * time.Millisecond

const opChanBuf = 64

// RunEntry is the recorded outcome of one level run.
type RunEntry struct {
	RoomID    string
	LevelID   string
	AccountID *int64
	Outcome   string
	Duration  time.Duration
	Detail    map[string]interface{}
}

// Recorder persists run outcomes. Implemented by the audit service.
type Recorder interface {
	RecordRun(entry RunEntry)
}

// RoomConfig holds the per-room simulation knobs outside the warden's own
// behavior config.
type RoomConfig struct {
	PlayerSpeed   float64 `mapstructure:"player_speed"`
	ContactRadius float64 `mapstructure:"contact_radius"`
}

// DefaultRoomConfig returns the baseline room tuning.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		PlayerSpeed:   3.0,
		ContactRadius: 0.8,
	}
}

// Room simulates one level instance: a single warden and at most one
// player. All mutable state is owned by the run loop goroutine; outside
// callers post operations through the op channel.
type Room struct {
	ID    string
	level *resource.Level

	cfg    RoomConfig
	grid   *nav.Grid
	doors  []*Door
	occ    *Occlusion
	warden *WardenRuntime

	sess      *player.Session
	accountID *int64

	// Death sequence countdown, seconds. Negative means not running.
	deathLeft float64
	killerTag string
	finished  bool
	outcome   string
	startedAt time.Time

	ops    chan func()
	stopCh chan struct{}
	doneCh chan struct{}

	pubsub   cache.PubSub
	recorder Recorder
	logger   *zap.Logger
}

// NewRoom assembles a Room for the level and starts its run loop.
func NewRoom(
	id string,
	lv *resource.Level,
	roomCfg RoomConfig,
	aiCfg ai.Config,
	pubsub cache.PubSub,
	recorder Recorder,
	rng *rand.Rand,
	logger *zap.Logger,
) *Room {
	r := &Room{
		ID:        id,
		level:     lv,
		cfg:       roomCfg,
		deathLeft: -1,
		startedAt: time.Now(),
		ops:       make(chan func(), opChanBuf),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		pubsub:    pubsub,
		recorder:  recorder,
		logger:    logger.With(zap.String("room_id", id), zap.String("level", lv.ID)),
	}

	r.grid = nav.NewGrid(lv)
	for _, spec := range lv.Doors {
		r.doors = append(r.doors, NewDoor(spec, r.grid, r.logger))
	}
	r.occ = NewOcclusion(lv.Occluders, r.doors)
	r.warden = NewWardenRuntime(aiCfg, lv, r.grid, r.doors, r.occ, r, r, rng, r.logger)

	go r.run()
	return r
}

// Level returns the authored level data.
func (r *Room) Level() *resource.Level { return r.level }

// Stop shuts the run loop down and waits for it to exit.
func (r *Room) Stop() {
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
	<-r.doneCh
}

// post schedules fn onto the run loop. Drops when the room is stopping.
func (r *Room) post(fn func()) {
	select {
	case r.ops <- fn:
	case <-r.stopCh:
	}
}

// call runs fn on the loop and waits for it to finish.
func (r *Room) call(fn func()) {
	done := make(chan struct{})
	r.post(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
	case <-r.stopCh:
	}
}

func (r *Room) run() {
	defer close(r.doneCh)
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case fn := <-r.ops:
			fn()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			r.tick(dt)
		case <-r.stopCh:
			if r.sess != nil {
				// Torn down mid-run with a player still connected.
				r.finish("abandoned", nil)
				r.sess.Close()
			}
			return
		}
	}
}

// ---- external operations (thread-safe) ----

// Join attaches the player session and sends the initial level state.
func (r *Room) Join(s *player.Session) {
	r.post(func() {
		if r.sess != nil && r.sess != s {
			r.sess.Close()
		}
		r.sess = s
		acct := s.AccountID
		r.accountID = &acct
		s.SetPosition(r.level.PlayerSpawn, 0)
		r.sendInit(s)
		r.logger.Info("player joined",
			zap.Int64("account_id", s.AccountID), zap.String("name", s.Name))
	})
}

// Leave detaches the session if it is the current one.
func (r *Room) Leave(s *player.Session) {
	r.post(func() {
		if r.sess == s {
			r.sess = nil
			r.logger.Info("player left", zap.Int64("account_id", s.AccountID))
		}
	})
}

// HandleDoor applies a player door command on the next loop iteration.
func (r *Room) HandleDoor(doorID string, open bool) {
	r.post(func() {
		d := r.doorByID(doorID)
		if d == nil {
			r.logger.Warn("door command for unknown door", zap.String("door", doorID))
			return
		}
		if r.sess == nil || r.sess.IsDying() {
			return
		}
		var ok bool
		if open {
			ok = d.PlayerOpen()
		} else {
			ok = d.PlayerClose()
		}
		if !ok {
			r.sendToPlayer("door_denied", map[string]interface{}{"door_id": doorID})
		}
	})
}

// ForceChase points the warden at the player's current position (admin).
func (r *Room) ForceChase() {
	r.post(func() {
		r.warden.Core().SetChaseTarget()
	})
}

// EnableFinalChase switches the warden into the endgame pursuit (admin).
func (r *Room) EnableFinalChase(speed float64) {
	r.post(func() {
		r.warden.Core().EnableFinalChaseMode(speed)
		r.broadcast("final_chase", map[string]interface{}{"speed": speed})
	})
}

// Snapshot returns the admin view of the room, synchronously.
func (r *Room) Snapshot() map[string]interface{} {
	var out map[string]interface{}
	r.call(func() {
		out = map[string]interface{}{
			"room_id":  r.ID,
			"level_id": r.level.ID,
			"warden":   r.warden.Snapshot(),
			"doors":    r.doorStates(),
			"finished": r.finished,
			"outcome":  r.outcome,
			"uptime_s": time.Since(r.startedAt).Seconds(),
		}
		if r.sess != nil {
			pos, facing := r.sess.Position()
			out["player"] = map[string]interface{}{
				"name": r.sess.Name, "x": pos.X, "y": pos.Y, "facing": facing,
			}
		}
	})
	return out
}

// ---- tick ----

func (r *Room) tick(dt float64) {
	r.tickPlayer(dt)

	wardenPos := r.warden.Pos()
	for _, d := range r.doors {
		d.Tick(dt, wardenPos)
	}

	playerPos := r.playerPos()
	if !r.finished {
		r.warden.Tick(dt, playerPos)
		r.tickContact(playerPos)
		r.tickDeath(dt)
	}

	r.sync()
}

// playerPos returns the hunted position, or a sentinel far outside the
// level when nobody is connected so the warden just patrols.
func (r *Room) playerPos() geo.Vec2 {
	if r.sess == nil {
		return geo.Vec2{X: 1e9, Y: 1e9}
	}
	pos, _ := r.sess.Position()
	return pos
}

func (r *Room) tickPlayer(dt float64) {
	if r.sess == nil || r.sess.IsDying() {
		return
	}
	intent := r.sess.MoveIntent()
	if intent.Len() < 1e-6 {
		return
	}
	dir := intent.Normalized()
	pos, facing := r.sess.Position()
	step := dir.Scale(r.cfg.PlayerSpeed * dt)

	next := pos.Add(step)
	if !r.walkableAt(next) {
		// Slide along whichever axis stays clear.
		next = pos.Add(geo.Vec2{X: step.X})
		if !r.walkableAt(next) {
			next = pos.Add(geo.Vec2{Y: step.Y})
			if !r.walkableAt(next) {
				return
			}
		}
	}
	if dir.Len() > 1e-6 {
		facing = dir.Heading()
	}
	r.sess.SetPosition(next, facing)
}

func (r *Room) walkableAt(p geo.Vec2) bool {
	c := r.grid.CellAt(p)
	return r.grid.Walkable(c.X, c.Y)
}

func (r *Room) tickContact(playerPos geo.Vec2) {
	if r.sess == nil || r.sess.IsDying() {
		return
	}
	if r.warden.Pos().Dist(playerPos) <= r.cfg.ContactRadius {
		r.warden.Core().OnContact()
	}
}

func (r *Room) tickDeath(dt float64) {
	if r.deathLeft < 0 {
		return
	}
	r.deathLeft -= dt
	if r.deathLeft > 0 {
		return
	}
	r.deathLeft = -1
	r.finish("killed", map[string]interface{}{"killer": r.killerTag})
	r.broadcast("player_death", map[string]interface{}{"killer": r.killerTag})
	if r.sess != nil {
		r.sess.Close()
	}
}

func (r *Room) finish(outcome string, detail map[string]interface{}) {
	if r.finished {
		return
	}
	r.finished = true
	r.outcome = outcome
	r.logger.Info("level finished", zap.String("outcome", outcome))
	if r.recorder != nil {
		r.recorder.RecordRun(RunEntry{
			RoomID:    r.ID,
			LevelID:   r.level.ID,
			AccountID: r.accountID,
			Outcome:   outcome,
			Duration:  time.Since(r.startedAt),
			Detail:    detail,
		})
	}
}

// ---- ai.Victim ----

// Die starts the player death sequence. The player freezes immediately;
// the death broadcast fires once the whole sequence has elapsed.
func (r *Room) Die(killer string, totalSequence time.Duration) {
	r.killerTag = killer
	r.deathLeft = totalSequence.Seconds()
	if r.sess != nil {
		r.sess.MarkDying()
	}
	r.broadcast("player_caught", map[string]interface{}{
		"killer":     killer,
		"sequence_s": totalSequence.Seconds(),
	})
}

// ---- ai.Events ----

// WardenReveal fires the mid-sequence reveal cue.
func (r *Room) WardenReveal() {
	r.broadcast("warden_reveal", map[string]interface{}{
		"x": r.warden.Pos().X, "y": r.warden.Pos().Y,
	})
}

// LevelSuccess fires when the endgame pursuit makes contact.
func (r *Room) LevelSuccess() {
	r.finish("final_contact", nil)
	r.broadcast("level_success", map[string]interface{}{})
}

// StateChanged mirrors warden state transitions to clients and spectators.
func (r *Room) StateChanged(from, to ai.State) {
	r.broadcast("warden_state", map[string]interface{}{
		"from": from.String(), "to": to.String(),
	})
}

// ---- sync & messaging ----

// sync pushes dirty state. Warden and player deltas go out every tick they
// change; door changes are rarer and carry the full door state.
func (r *Room) sync() {
	if r.warden.ResetDirty() {
		r.broadcast("warden_sync", r.warden.Snapshot())
	}
	if r.sess != nil && r.sess.ResetDirty() {
		pos, facing := r.sess.Position()
		r.broadcast("player_sync", map[string]interface{}{
			"name": r.sess.Name, "x": pos.X, "y": pos.Y, "facing": facing,
		})
	}
	for _, d := range r.doors {
		if d.ResetDirty() {
			r.broadcast("door_sync", r.doorState(d))
		}
	}
}

func (r *Room) sendInit(s *player.Session) {
	payload := map[string]interface{}{
		"room_id": r.ID,
		"level": map[string]interface{}{
			"id":        r.level.ID,
			"name":      r.level.Name,
			"width":     r.level.Width,
			"height":    r.level.Height,
			"cell_size": r.level.CellSize,
		},
		"spawn":  map[string]interface{}{"x": r.level.PlayerSpawn.X, "y": r.level.PlayerSpawn.Y},
		"warden": r.warden.Snapshot(),
		"doors":  r.doorStates(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.Send(&player.Packet{Type: "level_init", Payload: data})
}

func (r *Room) sendToPlayer(msgType string, payload map[string]interface{}) {
	if r.sess == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	r.sess.Send(&player.Packet{Type: msgType, Payload: data})
}

// broadcast sends to the player and publishes for SSE spectators.
func (r *Room) broadcast(msgType string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	pkt := player.Packet{Type: msgType, Payload: data}
	raw, err := json.Marshal(&pkt)
	if err != nil {
		return
	}
	if r.sess != nil {
		r.sess.SendRaw(raw)
	}
	if r.pubsub != nil {
		if err := r.pubsub.Publish(context.Background(), SpectatorChannel(r.ID), string(raw)); err != nil {
			r.logger.Warn("spectator publish failed", zap.Error(err))
		}
	}
}

// SpectatorChannel is the pub/sub channel carrying a room's event stream.
func SpectatorChannel(roomID string) string {
	return "room:" + roomID + ":events"
}

func (r *Room) doorByID(id string) *Door {
	for _, d := range r.doors {
		if d.ID() == id {
			return d
		}
	}
	return nil
}

func (r *Room) doorState(d *Door) map[string]interface{} {
	return map[string]interface{}{
		"door_id": d.ID(),
		"open":    d.IsOpen(),
		"locked":  d.IsLocked(),
	}
}

func (r *Room) doorStates() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(r.doors))
	for _, d := range r.doors {
		out = append(out, r.doorState(d))
	}
	return out
}
