package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVecBasics(t *testing.T) {
	v := Vec2{X: 3, Y: 4}
	assert.InDelta(t, 5, v.Len(), 1e-9)
	assert.InDelta(t, 5, Vec2{}.Dist(v), 1e-9)
	assert.Equal(t, Vec2{X: 6, Y: 8}, v.Scale(2))
	assert.Equal(t, Vec2{X: 4, Y: 6}, v.Add(Vec2{X: 1, Y: 2}))

	n := v.Normalized()
	assert.InDelta(t, 1, n.Len(), 1e-9)
	assert.Equal(t, Vec2{}, Vec2{}.Normalized())
}

func TestHeading(t *testing.T) {
	assert.InDelta(t, 0, Vec2{X: 1}.Heading(), 1e-9)
	assert.InDelta(t, math.Pi/2, Vec2{Y: 1}.Heading(), 1e-9)
	assert.InDelta(t, math.Pi, Vec2{X: -1}.Heading(), 1e-9)
}

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, 0, NormalizeAngle(2*math.Pi), 1e-9)
	assert.InDelta(t, -math.Pi/2, NormalizeAngle(3*math.Pi/2), 1e-9)
	assert.InDelta(t, math.Pi/2, NormalizeAngle(-3*math.Pi/2), 1e-9)
}

func TestAngleBetween(t *testing.T) {
	// Facing +X, target up-left at 135 degrees.
	a := AngleBetween(0, Vec2{}, Vec2{X: -1, Y: 1})
	assert.InDelta(t, 3*math.Pi/4, a, 1e-9)

	// Wrap-around: facing just below -pi, target just above +pi.
	b := AngleBetween(-math.Pi+0.1, Vec2{}, Vec2{X: -1, Y: -0.001})
	assert.Less(t, b, 0.2)
}

func TestSegmentIntersects(t *testing.T) {
	wall := Segment{A: Vec2{X: 0, Y: -1}, B: Vec2{X: 0, Y: 1}}

	assert.True(t, wall.Intersects(Vec2{X: -1}, Vec2{X: 1}), "crossing ray")
	assert.False(t, wall.Intersects(Vec2{X: 1}, Vec2{X: 2}), "ray entirely right of wall")
	assert.False(t, wall.Intersects(Vec2{X: -1, Y: 2}, Vec2{X: 1, Y: 2}), "ray above wall")
	assert.True(t, wall.Intersects(Vec2{X: -1, Y: 1}, Vec2{X: 1, Y: 1}), "touching endpoint")
}

func TestSegmentColinear(t *testing.T) {
	wall := Segment{A: Vec2{X: 0}, B: Vec2{X: 2}}
	assert.True(t, wall.Intersects(Vec2{X: 1}, Vec2{X: 3}), "overlapping colinear")
	assert.False(t, wall.Intersects(Vec2{X: 3}, Vec2{X: 4}), "disjoint colinear")
}

func TestRect(t *testing.T) {
	r := Rect{Min: Vec2{X: 0, Y: 0}, Max: Vec2{X: 2, Y: 2}}
	assert.True(t, r.Contains(Vec2{X: 1, Y: 1}))
	assert.True(t, r.Contains(Vec2{X: 2, Y: 2}), "inclusive edge")
	assert.False(t, r.Contains(Vec2{X: 2.1, Y: 1}))

	e := r.Expand(1)
	assert.Equal(t, Vec2{X: -1, Y: -1}, e.Min)
	assert.Equal(t, Vec2{X: 3, Y: 3}, e.Max)

	a := RectAround(Vec2{X: 5, Y: 5}, 2)
	assert.Equal(t, Vec2{X: 3, Y: 3}, a.Min)
	assert.Equal(t, Vec2{X: 7, Y: 7}, a.Max)
}
