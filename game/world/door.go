package world

import (
	"math"

	"go.uber.org/zap"

	"github.com/aokumo/nightwarden/geo"
	"github.com/aokumo/nightwarden/nav"
	"github.com/aokumo/nightwarden/resource"
)

// walkabilityMargin pads the region handed to the navigation service when a
// door finishes animating, so neighboring cells are re-evaluated too.
const walkabilityMargin = 1.0

// Door is the per-door controller: open/closed state, lock, ownership, and
// the animation timer. A closed door blocks both walkability and sight.
//
// Ownership is per open episode and exclusive-or-neither: the warden owns a
// door only if it opened it and the player has not touched it since. Once
// the player touches it, the warden can never auto-close it; the episode
// resets when the door finishes closing.
type Door struct {
	spec   *resource.DoorSpec
	cells  []nav.Cell
	bounds geo.Rect
	navsvc *nav.Service
	logger *zap.Logger

	isOpen         bool
	locked         bool
	openedByPlayer bool
	openedByWarden bool

	animating  bool
	animTarget bool // state to adopt when the animation finishes
	animLeft   float64
	dirty      bool // state changed since last sync
}

// NewDoor builds a Door from its authored spec, rasterizing the door
// segment onto the walkability grid.
func NewDoor(spec *resource.DoorSpec, grid *nav.Grid, logger *zap.Logger) *Door {
	d := &Door{
		spec:   spec,
		locked: spec.Locked,
		logger: logger,
	}
	d.cells = rasterize(spec.Seg, grid)
	d.bounds = segmentBounds(spec.Seg).Expand(walkabilityMargin)
	return d
}

// Bind attaches the navigation service used for walkability notifications.
// Registration order: the grid must know the door before the first path.
func (d *Door) Bind(svc *nav.Service) {
	d.navsvc = svc
	svc.Grid().Register(d)
}

// ---- nav.Obstacle ----

// Blocking implements nav.Obstacle: the door blocks while not fully open.
func (d *Door) Blocking() bool { return !d.isOpen }

// Cells implements nav.Obstacle.
func (d *Door) Cells() []nav.Cell { return d.cells }

// Bounds implements nav.Obstacle.
func (d *Door) Bounds() geo.Rect { return d.bounds }

// ---- ai.Openable / player-facing operations ----

// ID returns the authored door ID.
func (d *Door) ID() string { return d.spec.ID }

// IsOpen reports whether the door is fully open.
func (d *Door) IsOpen() bool { return d.isOpen }

// IsLocked reports the lock state. Opening with bypass does not clear it.
func (d *Door) IsLocked() bool { return d.locked }

// Seg returns the door segment, used for occlusion while closed.
func (d *Door) Seg() geo.Segment { return d.spec.Seg }

// RequestOpen asks the door to open on the warden's behalf. A locked door
// opens only under bypass, and the lock itself is preserved. The request is
// idempotent; an open or opening door ignores it.
func (d *Door) RequestOpen(bypassLock bool) {
	if d.isOpen || (d.animating && d.animTarget) {
		return
	}
	if d.locked && !bypassLock {
		return
	}
	// Warden ownership only if the player hasn't claimed this episode.
	if !d.openedByPlayer {
		d.openedByWarden = true
	}
	d.startAnim(true)
}

// RequestClose asks the door to close after a patrol stop. Honored only for
// a warden-owned, player-untouched door; everything else is a silent no-op.
func (d *Door) RequestClose() {
	if !d.isOpen && !(d.animating && d.animTarget) {
		return
	}
	if d.openedByPlayer || !d.openedByWarden {
		return
	}
	d.startAnim(false)
}

// PlayerOpen opens the door for the player. Locked doors refuse (key logic
// lives outside this core); the open episode becomes player-owned.
func (d *Door) PlayerOpen() bool {
	if d.locked {
		return false
	}
	d.touchByPlayer()
	if d.isOpen || (d.animating && d.animTarget) {
		return true
	}
	d.startAnim(true)
	return true
}

// PlayerClose closes an open door on the player's request.
func (d *Door) PlayerClose() bool {
	if !d.isOpen {
		return false
	}
	d.touchByPlayer()
	d.startAnim(false)
	return true
}

// touchByPlayer transfers episode ownership to the player. The player's
// action always wins for auto-close purposes.
func (d *Door) touchByPlayer() {
	d.openedByPlayer = true
	d.openedByWarden = false
}

// Tick advances the animation and the proximity sensor. The sensor opens
// the door (bypassing the lock) whenever the warden is inside the
// detection radius — this is how patrol room entries get their door.
func (d *Door) Tick(dt float64, wardenPos geo.Vec2) {
	if !d.isOpen && !d.animating && d.spec.DetectRadius > 0 {
		if distToSegment(wardenPos, d.spec.Seg) <= d.spec.DetectRadius {
			d.RequestOpen(true)
		}
	}

	if !d.animating {
		return
	}
	d.animLeft -= dt
	if d.animLeft > 0 {
		return
	}
	d.animating = false
	d.isOpen = d.animTarget
	d.dirty = true
	if !d.isOpen {
		// Episode over; next open starts with clean ownership.
		d.openedByPlayer = false
		d.openedByWarden = false
	}
	d.logger.Debug("door animated",
		zap.String("door", d.spec.ID), zap.Bool("open", d.isOpen))
	// Walkability flips only after the animation completes.
	if d.navsvc != nil {
		d.navsvc.RequestWalkabilityUpdate(d.bounds)
	}
}

func (d *Door) startAnim(open bool) {
	d.animTarget = open
	if d.spec.AnimSecs <= 0 {
		d.animating = true
		d.animLeft = 0
		return
	}
	d.animating = true
	d.animLeft = d.spec.AnimSecs
}

// ResetDirty returns whether the door state changed and clears the flag.
func (d *Door) ResetDirty() bool {
	changed := d.dirty
	d.dirty = false
	return changed
}

// ---- geometry helpers ----

// rasterize walks the door segment and collects the cells it crosses.
func rasterize(seg geo.Segment, grid *nav.Grid) []nav.Cell {
	steps := int(seg.A.Dist(seg.B)/(grid.CellSize/2)) + 1
	seen := map[nav.Cell]bool{}
	var cells []nav.Cell
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := geo.Vec2{
			X: seg.A.X + (seg.B.X-seg.A.X)*t,
			Y: seg.A.Y + (seg.B.Y-seg.A.Y)*t,
		}
		c := grid.CellAt(p)
		if !seen[c] {
			seen[c] = true
			cells = append(cells, c)
		}
	}
	return cells
}

func segmentBounds(seg geo.Segment) geo.Rect {
	return geo.Rect{
		Min: geo.Vec2{X: math.Min(seg.A.X, seg.B.X), Y: math.Min(seg.A.Y, seg.B.Y)},
		Max: geo.Vec2{X: math.Max(seg.A.X, seg.B.X), Y: math.Max(seg.A.Y, seg.B.Y)},
	}
}

// distToSegment returns the distance from p to the closest point of seg.
func distToSegment(p geo.Vec2, seg geo.Segment) float64 {
	ab := seg.B.Sub(seg.A)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 < 1e-12 {
		return p.Dist(seg.A)
	}
	t := ((p.X-seg.A.X)*ab.X + (p.Y-seg.A.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(seg.A.Add(ab.Scale(t)))
}
