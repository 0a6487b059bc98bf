// Package nav provides grid-based navigation for level entities: A*
// pathfinding over static geometry plus dynamic obstacles, and a mover that
// follows computed paths at a configurable speed.
//
// Requests are accepted or rejected immediately; completion is polled via
// HasReachedEnd / IsPathPending. A new SetDestination supersedes any path in
// flight — there is no explicit cancel.
package nav

import (
	"go.uber.org/zap"

	"github.com/aokumo/nightwarden/geo"
)

const defaultReachEps = 0.15 // meters

// Service moves a single entity through the grid.
type Service struct {
	grid   *Grid
	logger *zap.Logger

	pos      geo.Vec2
	maxSpeed float64
	reach    float64

	dest    geo.Vec2
	hasDest bool
	pending bool // destination accepted, path not yet computed
	repath  bool // walkability changed under an active destination
	path    []geo.Vec2
	idx     int
	vel     geo.Vec2
}

// New creates a Service positioned at start.
func New(grid *Grid, start geo.Vec2, maxSpeed float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		grid:     grid,
		logger:   logger,
		pos:      start,
		maxSpeed: maxSpeed,
		reach:    defaultReachEps,
	}
}

// Grid exposes the underlying walkability grid.
func (s *Service) Grid() *Grid { return s.grid }

// Position returns the entity's current position.
func (s *Service) Position() geo.Vec2 { return s.pos }

// Warp teleports the entity, dropping any active path.
func (s *Service) Warp(p geo.Vec2) {
	s.pos = p
	s.Halt()
}

// SetMaxSpeed changes the movement speed, effective next tick.
func (s *Service) SetMaxSpeed(v float64) { s.maxSpeed = v }

// MaxSpeed returns the current movement speed.
func (s *Service) MaxSpeed() float64 { return s.maxSpeed }

// CurrentVelocity returns the velocity applied on the last tick.
func (s *Service) CurrentVelocity() geo.Vec2 { return s.vel }

// SetDestination accepts a new destination, superseding any active path.
// The path itself is computed on the next tick.
func (s *Service) SetDestination(p geo.Vec2) {
	s.dest = p
	s.hasDest = true
	s.pending = true
	s.path = nil
	s.idx = 0
}

// Halt drops the active destination and stops movement immediately.
func (s *Service) Halt() {
	s.hasDest = false
	s.pending = false
	s.path = nil
	s.idx = 0
	s.vel = geo.Vec2{}
}

// IsPathPending reports whether a requested path has not been computed yet.
func (s *Service) IsPathPending() bool { return s.pending }

// HasReachedEnd reports whether the entity has consumed its whole path.
// True when idle. An unreachable destination keeps this false indefinitely;
// callers that care must time out themselves.
func (s *Service) HasReachedEnd() bool {
	if s.pending {
		return false
	}
	if !s.hasDest {
		return true
	}
	return s.path != nil && s.idx >= len(s.path)
}

// RequestWalkabilityUpdate re-evaluates dynamic obstacles within the region
// and schedules a repath if anything changed while a destination is active.
func (s *Service) RequestWalkabilityUpdate(region geo.Rect) {
	if s.grid.UpdateRegion(region) && s.hasDest {
		s.repath = true
	}
}

// Tick advances the mover by dt seconds.
func (s *Service) Tick(dt float64) {
	if s.pending || (s.repath && s.hasDest && !s.HasReachedEnd()) {
		s.computePath()
	}
	s.repath = false

	s.vel = geo.Vec2{}
	if s.path == nil || s.idx >= len(s.path) {
		return
	}

	remaining := s.maxSpeed * dt
	var dir geo.Vec2
	for remaining > 0 && s.idx < len(s.path) {
		wp := s.path[s.idx]
		d := s.pos.Dist(wp)
		if d <= s.reach || d <= remaining {
			s.pos = wp
			s.idx++
			remaining -= d
			continue
		}
		dir = wp.Sub(s.pos).Normalized()
		s.pos = s.pos.Add(dir.Scale(remaining))
		remaining = 0
	}
	if s.idx < len(s.path) || dir.Len() > 0 {
		if dir.Len() == 0 && s.idx < len(s.path) {
			dir = s.path[s.idx].Sub(s.pos).Normalized()
		}
		s.vel = dir.Scale(s.maxSpeed)
	}
}

// computePath resolves the pending destination into a world-space waypoint
// list. An unreachable destination leaves the path nil; the mover stalls
// rather than erroring, and a later walkability update retries.
func (s *Service) computePath() {
	s.pending = false
	from := s.grid.CellAt(s.pos)
	to := s.grid.CellAt(s.dest)

	if from == to {
		s.path = []geo.Vec2{s.dest}
		s.idx = 0
		return
	}

	cells := AStar(s.grid, from, to, 0)
	if cells == nil {
		s.path = nil
		s.idx = 0
		s.logger.Debug("nav: destination unreachable",
			zap.Float64("x", s.dest.X), zap.Float64("y", s.dest.Y))
		return
	}
	path := make([]geo.Vec2, 0, len(cells)+1)
	for _, c := range cells {
		path = append(path, s.grid.Center(c))
	}
	// Land on the exact destination point rather than the last cell center.
	if len(path) > 0 {
		path[len(path)-1] = s.dest
	}
	s.path = path
	s.idx = 0
}
