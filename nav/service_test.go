package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aokumo/nightwarden/geo"
)

func corridorService(speed float64) *Service {
	g := NewGrid(testLevel(5, 1))
	return New(g, geo.Vec2{X: 0.5, Y: 0.5}, speed, nil)
}

func TestServiceWalksToDestination(t *testing.T) {
	s := corridorService(1)
	s.SetDestination(geo.Vec2{X: 4.5, Y: 0.5})

	assert.True(t, s.IsPathPending())
	assert.False(t, s.HasReachedEnd())

	s.Tick(1)
	assert.False(t, s.IsPathPending())
	assert.Equal(t, geo.Vec2{X: 1.5, Y: 0.5}, s.Position())
	assert.InDelta(t, 1, s.CurrentVelocity().X, 1e-9)

	for i := 0; i < 3; i++ {
		s.Tick(1)
	}
	assert.Equal(t, geo.Vec2{X: 4.5, Y: 0.5}, s.Position(), "lands on the exact point")
	assert.True(t, s.HasReachedEnd())

	s.Tick(1)
	assert.Equal(t, geo.Vec2{}, s.CurrentVelocity())
}

func TestServicePartialTickMovesAtSpeed(t *testing.T) {
	s := corridorService(1)
	s.SetDestination(geo.Vec2{X: 4.5, Y: 0.5})
	s.Tick(0.3)
	assert.InDelta(t, 0.8, s.Position().X, 1e-9)

	s.SetMaxSpeed(2)
	s.Tick(0.5)
	assert.InDelta(t, 1.8, s.Position().X, 1e-9)
}

func TestServiceSameCellDestination(t *testing.T) {
	s := corridorService(1)
	s.SetDestination(geo.Vec2{X: 0.9, Y: 0.5})
	s.Tick(1)
	assert.Equal(t, geo.Vec2{X: 0.9, Y: 0.5}, s.Position())
	assert.True(t, s.HasReachedEnd())
}

func TestServiceHalt(t *testing.T) {
	s := corridorService(1)
	s.SetDestination(geo.Vec2{X: 4.5, Y: 0.5})
	s.Tick(1)

	s.Halt()
	assert.True(t, s.HasReachedEnd(), "idle counts as reached")
	assert.Equal(t, geo.Vec2{}, s.CurrentVelocity())

	pos := s.Position()
	s.Tick(1)
	assert.Equal(t, pos, s.Position())
}

func TestServiceSupersede(t *testing.T) {
	s := corridorService(1)
	s.SetDestination(geo.Vec2{X: 4.5, Y: 0.5})
	s.Tick(1)

	s.SetDestination(geo.Vec2{X: 0.5, Y: 0.5})
	assert.True(t, s.IsPathPending())
	s.Tick(1)
	assert.Equal(t, geo.Vec2{X: 0.5, Y: 0.5}, s.Position())
	assert.True(t, s.HasReachedEnd())
}

func TestServiceUnreachableStalls(t *testing.T) {
	g := NewGrid(testLevel(5, 1,
		0, 0, 1, 0, 0,
	))
	s := New(g, geo.Vec2{X: 0.5, Y: 0.5}, 1, nil)
	s.SetDestination(geo.Vec2{X: 4.5, Y: 0.5})

	for i := 0; i < 5; i++ {
		s.Tick(1)
	}
	assert.False(t, s.IsPathPending())
	assert.False(t, s.HasReachedEnd(), "never pretends to arrive")
	assert.Equal(t, geo.Vec2{X: 0.5, Y: 0.5}, s.Position())
	assert.Equal(t, geo.Vec2{}, s.CurrentVelocity())
}

func TestServiceRepathsWhenDoorOpens(t *testing.T) {
	g := NewGrid(testLevel(5, 1))
	door := blockerAt(Cell{X: 2, Y: 0})
	g.Register(door)
	s := New(g, geo.Vec2{X: 0.5, Y: 0.5}, 1, nil)

	s.SetDestination(geo.Vec2{X: 4.5, Y: 0.5})
	s.Tick(1)
	require.False(t, s.HasReachedEnd(), "stalled behind the closed door")

	door.blocking = false
	s.RequestWalkabilityUpdate(door.bounds)
	for i := 0; i < 4; i++ {
		s.Tick(1)
	}
	assert.Equal(t, geo.Vec2{X: 4.5, Y: 0.5}, s.Position())
	assert.True(t, s.HasReachedEnd())
}

func TestServiceStallsWhenDoorSlamsMidRoute(t *testing.T) {
	g := NewGrid(testLevel(5, 1))
	door := &fakeObstacle{
		cells:  []Cell{{X: 3, Y: 0}},
		bounds: geo.RectAround(geo.Vec2{X: 3.5, Y: 0.5}, 0.5),
	}
	g.Register(door)
	s := New(g, geo.Vec2{X: 0.5, Y: 0.5}, 1, nil)

	s.SetDestination(geo.Vec2{X: 4.5, Y: 0.5})
	s.Tick(1)

	door.blocking = true
	s.RequestWalkabilityUpdate(door.bounds)
	for i := 0; i < 5; i++ {
		s.Tick(1)
	}
	assert.False(t, s.HasReachedEnd())
	assert.Less(t, s.Position().X, 3.0, "cannot pass the closed door")
}

func TestServiceWarp(t *testing.T) {
	s := corridorService(1)
	s.SetDestination(geo.Vec2{X: 4.5, Y: 0.5})
	s.Tick(1)

	s.Warp(geo.Vec2{X: 2.5, Y: 0.5})
	assert.Equal(t, geo.Vec2{X: 2.5, Y: 0.5}, s.Position())
	assert.True(t, s.HasReachedEnd())
	assert.Equal(t, geo.Vec2{}, s.CurrentVelocity())
}
