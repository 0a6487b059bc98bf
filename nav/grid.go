package nav

import (
	"github.com/aokumo/nightwarden/geo"
	"github.com/aokumo/nightwarden/resource"
)

// Cell is a walkability grid coordinate.
type Cell struct {
	X, Y int
}

// Obstacle is a dynamic walkability blocker (doors, mainly). Obstacles are
// registered once; their current blocking state is re-read whenever a
// walkability update is requested for a region that covers them.
type Obstacle interface {
	// Blocking reports whether the obstacle currently blocks movement.
	Blocking() bool
	// Cells returns the grid cells the obstacle occupies while blocking.
	// The cell set is fixed at registration time (doors do not move).
	Cells() []Cell
	// Bounds returns the world-space region the obstacle affects.
	Bounds() geo.Rect
}

type obstacleEntry struct {
	o       Obstacle
	applied bool // contribution currently counted in the overlay
}

// Grid is the walkability view of a level: static blocked cells from the
// authored geometry plus a dynamic overlay maintained from obstacles.
type Grid struct {
	Width, Height int
	CellSize      float64

	static  []bool // authored geometry, never changes
	overlay []int  // count of obstacles blocking each cell

	obstacles []*obstacleEntry
}

// NewGrid builds a Grid from level data.
func NewGrid(lv *resource.Level) *Grid {
	g := &Grid{
		Width:    lv.Width,
		Height:   lv.Height,
		CellSize: lv.CellSize,
		static:   make([]bool, lv.Width*lv.Height),
		overlay:  make([]int, lv.Width*lv.Height),
	}
	for y := 0; y < lv.Height; y++ {
		for x := 0; x < lv.Width; x++ {
			g.static[y*lv.Width+x] = lv.BlockedAt(x, y)
		}
	}
	return g
}

// Register adds an obstacle and applies its current state to the overlay.
func (g *Grid) Register(o Obstacle) {
	e := &obstacleEntry{o: o}
	if o.Blocking() {
		g.addOverlay(o.Cells(), 1)
		e.applied = true
	}
	g.obstacles = append(g.obstacles, e)
}

// Walkable reports whether cell (x, y) can be entered.
func (g *Grid) Walkable(x, y int) bool {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return false
	}
	idx := y*g.Width + x
	return !g.static[idx] && g.overlay[idx] == 0
}

// CellAt converts a world position to its containing cell.
func (g *Grid) CellAt(p geo.Vec2) Cell {
	return Cell{X: int(p.X / g.CellSize), Y: int(p.Y / g.CellSize)}
}

// Center returns the world-space center of a cell.
func (g *Grid) Center(c Cell) geo.Vec2 {
	return geo.Vec2{
		X: (float64(c.X) + 0.5) * g.CellSize,
		Y: (float64(c.Y) + 0.5) * g.CellSize,
	}
}

// UpdateRegion re-reads the blocking state of every obstacle whose bounds
// intersect the region and updates the overlay accordingly. Returns true
// if any obstacle contribution changed.
func (g *Grid) UpdateRegion(region geo.Rect) bool {
	changed := false
	for _, e := range g.obstacles {
		if !rectsOverlap(e.o.Bounds(), region) {
			continue
		}
		blocking := e.o.Blocking()
		if blocking == e.applied {
			continue
		}
		if blocking {
			g.addOverlay(e.o.Cells(), 1)
		} else {
			g.addOverlay(e.o.Cells(), -1)
		}
		e.applied = blocking
		changed = true
	}
	return changed
}

func (g *Grid) addOverlay(cells []Cell, delta int) {
	for _, c := range cells {
		if c.X < 0 || c.Y < 0 || c.X >= g.Width || c.Y >= g.Height {
			continue
		}
		idx := c.Y*g.Width + c.X
		g.overlay[idx] += delta
		if g.overlay[idx] < 0 {
			g.overlay[idx] = 0
		}
	}
}

func rectsOverlap(a, b geo.Rect) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y
}
