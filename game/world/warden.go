package world

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/aokumo/nightwarden/game/ai"
	"github.com/aokumo/nightwarden/geo"
	"github.com/aokumo/nightwarden/nav"
	"github.com/aokumo/nightwarden/resource"
)

// WardenRuntime owns the antagonist's simulated pose and wires the ai core
// to the level's navigation, doors, and occlusion geometry. Position and
// heading advance from the navigation service's velocity each tick.
type WardenRuntime struct {
	core    *ai.Warden
	navsvc  *nav.Service
	heading float64
	dirty   bool
}

// NewWardenRuntime assembles the warden for a level. victim and events are
// supplied by the room, which forwards them to the connected player.
func NewWardenRuntime(
	cfg ai.Config,
	lv *resource.Level,
	grid *nav.Grid,
	doors []*Door,
	occ *Occlusion,
	victim ai.Victim,
	events ai.Events,
	rng *rand.Rand,
	logger *zap.Logger,
) *WardenRuntime {
	svc := nav.New(grid, lv.WardenSpawn, cfg.PatrolSpeed, logger)
	for _, d := range doors {
		d.Bind(svc)
	}

	openables := make([]ai.Openable, len(doors))
	for i, d := range doors {
		openables[i] = d
	}

	core := ai.NewWarden(cfg, ai.Deps{
		Nav:    svc,
		Route:  lv.Route,
		Doors:  openables,
		Ray:    occ,
		Victim: victim,
		Events: events,
		Rand:   rng,
	}, logger)

	return &WardenRuntime{core: core, navsvc: svc}
}

// Core exposes the behavior state machine (admin surface, tests).
func (w *WardenRuntime) Core() *ai.Warden { return w.core }

// Pos returns the warden's current position.
func (w *WardenRuntime) Pos() geo.Vec2 { return w.navsvc.Position() }

// Heading returns the warden's facing in radians.
func (w *WardenRuntime) Heading() float64 { return w.heading }

// Tick advances behavior then locomotion by dt seconds.
func (w *WardenRuntime) Tick(dt float64, playerPos geo.Vec2) {
	before := w.navsvc.Position()
	pose := ai.Pose{Pos: before, Heading: w.heading}
	w.core.Tick(dt, pose, playerPos)
	w.navsvc.Tick(dt)

	if v := w.navsvc.CurrentVelocity(); v.Len() > 1e-9 {
		w.heading = v.Heading()
		w.dirty = true
	}
	if w.navsvc.Position() != before {
		w.dirty = true
	}
}

// ResetDirty returns whether the pose changed and clears the flag.
func (w *WardenRuntime) ResetDirty() bool {
	d := w.dirty
	w.dirty = false
	return d
}

// Snapshot returns the client-visible warden state.
func (w *WardenRuntime) Snapshot() map[string]interface{} {
	pos := w.Pos()
	return map[string]interface{}{
		"x":       pos.X,
		"y":       pos.Y,
		"heading": w.heading,
		"state":   w.core.State().String(),
	}
}
