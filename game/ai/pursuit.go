package ai

import (
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/aokumo/nightwarden/geo"
	"github.com/aokumo/nightwarden/resource"
)

// Deps are the collaborators the warden consumes. Doors are an explicit
// registry supplied at initialization, not discovered at runtime.
type Deps struct {
	Nav    Navigator
	Route  []*resource.Waypoint
	Doors  []Openable
	Ray    Raycaster
	Victim Victim
	Events Events
	Rand   *rand.Rand
}

// Warden is the top-level pursuit state machine. It owns the sensing
// results, delegates to the room-entry sequence while one is active, and
// hands terminal contact to the kill resolver (or, in final chase, to the
// success path). All state advances on Tick; nothing blocks.
type Warden struct {
	cfg    Config
	nav    Navigator
	route  []*resource.Waypoint
	doors  []Openable
	ray    Raycaster
	events Events
	rng    *rand.Rand
	logger *zap.Logger

	sensor *Sensor
	kill   *KillResolver

	state    State
	degraded bool // missing dependencies at startup; permanent Idle

	// Patrol
	patrolIdx       int
	patrolTargetSet bool

	// Room entry (nil when inactive)
	room *roomEntrySession

	// Chase / search
	lastKnown     geo.Vec2
	haveLastKnown bool
	loseTimer     float64
	searchWander  bool
	lastDet       DetectionResult

	// Final chase
	finalChase     bool
	finalSpeed     float64
	successLatched bool
}

// NewWarden constructs the state machine. A missing navigator or an empty
// patrol route degrades the warden to a permanent Idle instead of failing:
// the level keeps running, the antagonist just never moves.
func NewWarden(cfg Config, deps Deps, logger *zap.Logger) *Warden {
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	w := &Warden{
		cfg:    cfg,
		nav:    deps.Nav,
		route:  deps.Route,
		doors:  deps.Doors,
		ray:    deps.Ray,
		events: deps.Events,
		rng:    rng,
		logger: logger,
		sensor: NewSensor(cfg),
		kill:   NewKillResolver(cfg, "warden", deps.Victim, deps.Events, logger),
		state:  StatePatrol,
	}
	if deps.Nav == nil || len(deps.Route) == 0 {
		w.logger.Error("warden misconfigured, degrading to idle",
			zap.Bool("nav", deps.Nav != nil),
			zap.Int("route_len", len(deps.Route)))
		w.degraded = true
		w.state = StateIdle
		return w
	}
	w.nav.SetMaxSpeed(cfg.PatrolSpeed)
	return w
}

// State returns the current top-level state.
func (w *Warden) State() State { return w.state }

// LastDetection returns the sensing result of the most recent tick.
func (w *Warden) LastDetection() DetectionResult { return w.lastDet }

// LastKnownPlayerPosition returns the last position the player was seen at.
func (w *Warden) LastKnownPlayerPosition() (geo.Vec2, bool) {
	return w.lastKnown, w.haveLastKnown
}

// KillLatched reports whether the kill sequence has started.
func (w *Warden) KillLatched() bool { return w.kill.Latched() }

// SuccessLatched reports whether final-chase contact has been signalled.
func (w *Warden) SuccessLatched() bool { return w.successLatched }

// SetChaseTarget forces the Chase state and clears the lose timer. Used by
// scripted sequences; the target itself is the player fed into Tick.
func (w *Warden) SetChaseTarget() {
	if w.degraded || w.kill.Latched() {
		return
	}
	w.enterChase()
}

// EnableFinalChaseMode arms success-on-contact semantics and overrides the
// chase speed. The kill resolver stops running entirely.
func (w *Warden) EnableFinalChaseMode(speed float64) {
	w.finalChase = true
	w.finalSpeed = speed
	if w.state == StateChase {
		w.nav.SetMaxSpeed(speed)
	}
	w.logger.Info("final chase armed", zap.Float64("speed", speed))
}

// OnContact is invoked by collision detection on warden/player contact.
// Outside final chase it is a no-op — the kill resolver owns normal contact.
func (w *Warden) OnContact() {
	if !w.finalChase || w.successLatched {
		return
	}
	w.successLatched = true
	w.nav.Halt()
	w.logger.Info("final chase contact, level success")
	if w.events != nil {
		w.events.LevelSuccess()
	}
}

// Tick advances the behavior by dt seconds. self is the warden's pose as
// simulated by the level; player is the player's current position.
func (w *Warden) Tick(dt float64, self Pose, player geo.Vec2) {
	if w.degraded || w.successLatched {
		return
	}
	if w.kill.Latched() {
		// Frozen; only the reveal timer still runs.
		w.kill.Tick(dt, self, player)
		return
	}

	det := w.sensor.Sense(self, player, w.ray)
	w.lastDet = det
	if det.Visible {
		w.lastKnown = player
		w.haveLastKnown = true
	}

	// Sighting pre-empts everything, including any room-entry phase.
	if det.Visible && w.state != StateChase {
		w.enterChase()
	}

	switch w.state {
	case StateChase:
		w.tickChase(dt, self, player, det)
	case StatePatrol:
		if w.room != nil {
			w.tickRoomEntry(dt, self)
		} else {
			w.tickPatrol(self)
		}
	case StateIdle:
		// Idle is either degraded (unreachable here) or the exploring
		// sub-phase of a room entry.
		if w.room != nil {
			w.tickRoomEntry(dt, self)
		}
	case StateSearch:
		w.tickSearch(dt, self)
	}
}

// ---- Transitions ----

func (w *Warden) setState(to State) {
	if w.state == to {
		return
	}
	from := w.state
	w.state = to
	w.logger.Debug("state transition",
		zap.String("from", from.String()), zap.String("to", to.String()))
	if w.events != nil {
		w.events.StateChanged(from, to)
	}
}

func (w *Warden) enterChase() {
	w.abortRoomEntry()
	w.patrolTargetSet = false
	w.loseTimer = 0
	w.setState(StateChase)
	if w.finalChase {
		w.nav.SetMaxSpeed(w.finalSpeed)
	} else {
		w.nav.SetMaxSpeed(w.cfg.ChaseSpeed)
	}
}

func (w *Warden) enterSearch() {
	w.loseTimer = 0
	w.searchWander = false
	w.setState(StateSearch)
	w.nav.SetMaxSpeed(w.cfg.PatrolSpeed)
	if w.haveLastKnown {
		w.nav.SetDestination(w.lastKnown)
	}
}

// enterPatrol retargets the nearest waypoint rather than the one the warden
// was last heading to, avoiding long back-tracks after a failed search.
func (w *Warden) enterPatrol(from geo.Vec2) {
	w.setState(StatePatrol)
	w.nav.SetMaxSpeed(w.cfg.PatrolSpeed)
	w.patrolIdx = w.nearestWaypoint(from)
	w.patrolTargetSet = false
}

// ---- Per-state ticks ----

func (w *Warden) tickChase(dt float64, self Pose, player geo.Vec2, det DetectionResult) {
	// Superseding destination write each tick; no explicit path cancel.
	w.nav.SetDestination(player)

	if det.Visible {
		w.loseTimer = 0
	} else {
		w.loseTimer += dt
		if w.loseTimer >= w.cfg.LosePlayerTime.Seconds() {
			w.enterSearch()
			return
		}
	}

	if !w.finalChase {
		if w.kill.Tick(dt, self, player) {
			// Movement authority is revoked on the same tick the kill
			// latches; the reveal cue follows on its own timer.
			w.nav.Halt()
		}
	}
}

func (w *Warden) tickPatrol(self Pose) {
	if len(w.route) == 0 {
		return
	}
	if !w.patrolTargetSet {
		w.nav.SetDestination(w.route[w.patrolIdx].Pos)
		w.patrolTargetSet = true
		return
	}
	if !w.nav.HasReachedEnd() || w.nav.IsPathPending() {
		return
	}

	// Arrived. First close anything we may have opened on the way here.
	w.closeOpenedDoors()

	wp := w.route[w.patrolIdx]
	if wp.EntryChance > 0 && w.rng.Float64() < wp.EntryChance {
		if entry := w.pickRoomEntry(wp); entry != nil {
			w.startRoomEntry(entry)
			return
		}
	}
	w.advancePatrolIndex()
	w.nav.SetDestination(w.route[w.patrolIdx].Pos)
}

func (w *Warden) tickSearch(dt float64, self Pose) {
	w.loseTimer += dt
	if w.loseTimer >= w.cfg.LosePlayerTime.Seconds() {
		w.enterPatrol(self.Pos)
		return
	}

	if !w.searchWander {
		if self.Pos.Dist(w.lastKnown) <= w.cfg.SearchNearRadius {
			w.searchWander = true
		} else {
			return
		}
	}
	// Wander: a fresh randomized point near the last sighting each time the
	// current leg completes. Unreachable picks simply stall until the timer
	// sends us back to patrol.
	if w.nav.HasReachedEnd() && !w.nav.IsPathPending() {
		w.nav.SetDestination(w.randomSearchPoint())
	}
}

// ---- Helpers ----

func (w *Warden) advancePatrolIndex() {
	if len(w.route) == 0 {
		return
	}
	if w.cfg.RandomPatrol && len(w.route) > 1 {
		// Uniform over the other waypoints.
		next := w.rng.Intn(len(w.route) - 1)
		if next >= w.patrolIdx {
			next++
		}
		w.patrolIdx = next
		return
	}
	w.patrolIdx = (w.patrolIdx + 1) % len(w.route)
}

func (w *Warden) nearestWaypoint(from geo.Vec2) int {
	best := 0
	bestDist := math.Inf(1)
	for i, wp := range w.route {
		if d := from.Dist(wp.Pos); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// arrivedAt requires both a consumed path and physical proximity.
func (w *Warden) arrivedAt(target geo.Vec2, self Pose) bool {
	return w.nav.HasReachedEnd() && !w.nav.IsPathPending() &&
		self.Pos.Dist(target) <= w.cfg.ReachRadius
}

// closeOpenedDoors issues close requests to the whole registry. Doors the
// warden does not own, or that the player has touched, ignore the request.
func (w *Warden) closeOpenedDoors() {
	for _, d := range w.doors {
		d.RequestClose()
	}
}

func (w *Warden) randomSearchPoint() geo.Vec2 {
	angle := w.rng.Float64() * 2 * math.Pi
	radius := w.rng.Float64() * w.cfg.SearchWanderRadius
	return geo.Vec2{
		X: w.lastKnown.X + math.Cos(angle)*radius,
		Y: w.lastKnown.Y + math.Sin(angle)*radius,
	}
}
