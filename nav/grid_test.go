package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aokumo/nightwarden/geo"
	"github.com/aokumo/nightwarden/resource"
)

func testLevel(w, h int, blocked ...int) *resource.Level {
	return &resource.Level{
		ID:       "test",
		Width:    w,
		Height:   h,
		CellSize: 1,
		Blocked:  blocked,
	}
}

type fakeObstacle struct {
	blocking bool
	cells    []Cell
	bounds   geo.Rect
}

func (o *fakeObstacle) Blocking() bool   { return o.blocking }
func (o *fakeObstacle) Cells() []Cell    { return o.cells }
func (o *fakeObstacle) Bounds() geo.Rect { return o.bounds }

func blockerAt(c Cell) *fakeObstacle {
	return &fakeObstacle{
		blocking: true,
		cells:    []Cell{c},
		bounds:   geo.RectAround(geo.Vec2{X: float64(c.X) + 0.5, Y: float64(c.Y) + 0.5}, 0.5),
	}
}

func TestGridStaticGeometry(t *testing.T) {
	g := NewGrid(testLevel(3, 2,
		0, 1, 0,
		0, 0, 0,
	))

	assert.True(t, g.Walkable(0, 0))
	assert.False(t, g.Walkable(1, 0))
	assert.True(t, g.Walkable(1, 1))
}

func TestGridOutOfBounds(t *testing.T) {
	g := NewGrid(testLevel(2, 2))

	assert.False(t, g.Walkable(-1, 0))
	assert.False(t, g.Walkable(0, -1))
	assert.False(t, g.Walkable(2, 0))
	assert.False(t, g.Walkable(0, 2))
}

func TestGridEmptyBlockedMeansOpen(t *testing.T) {
	// Levels may omit the blocked grid entirely for fully open arenas.
	g := NewGrid(testLevel(3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			assert.True(t, g.Walkable(x, y))
		}
	}
}

func TestGridObstacleLifecycle(t *testing.T) {
	g := NewGrid(testLevel(3, 1))
	o := blockerAt(Cell{X: 1, Y: 0})
	g.Register(o)
	assert.False(t, g.Walkable(1, 0), "registered blocking obstacle applies immediately")

	// State flips are invisible until a region update covers the obstacle.
	o.blocking = false
	assert.False(t, g.Walkable(1, 0))

	changed := g.UpdateRegion(o.bounds)
	assert.True(t, changed)
	assert.True(t, g.Walkable(1, 0))

	// Re-running the same update is a no-op.
	assert.False(t, g.UpdateRegion(o.bounds))
}

func TestGridUpdateRegionIgnoresDistantObstacles(t *testing.T) {
	g := NewGrid(testLevel(10, 1))
	o := blockerAt(Cell{X: 8, Y: 0})
	g.Register(o)
	o.blocking = false

	far := geo.RectAround(geo.Vec2{X: 1, Y: 0.5}, 1)
	assert.False(t, g.UpdateRegion(far))
	assert.False(t, g.Walkable(8, 0), "distant obstacle stays applied")
}

func TestGridOverlappingObstacles(t *testing.T) {
	// Two obstacles covering the same cell: the cell opens only when both
	// stop blocking.
	g := NewGrid(testLevel(3, 1))
	a := blockerAt(Cell{X: 1, Y: 0})
	b := blockerAt(Cell{X: 1, Y: 0})
	g.Register(a)
	g.Register(b)

	a.blocking = false
	g.UpdateRegion(a.bounds)
	assert.False(t, g.Walkable(1, 0))

	b.blocking = false
	g.UpdateRegion(b.bounds)
	assert.True(t, g.Walkable(1, 0))
}

func TestGridCellConversion(t *testing.T) {
	lv := testLevel(4, 4)
	lv.CellSize = 2
	g := NewGrid(lv)

	assert.Equal(t, Cell{X: 1, Y: 0}, g.CellAt(geo.Vec2{X: 3.9, Y: 0.1}))
	assert.Equal(t, geo.Vec2{X: 3, Y: 5}, g.Center(Cell{X: 1, Y: 2}))
}
