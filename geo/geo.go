// Package geo holds the small amount of 2D vector and segment math the
// level simulation needs. Coordinates are in meters, angles in radians.
package geo

import "math"

// Vec2 is a 2D point or direction.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the vector length.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

// Heading returns the angle of v in radians (0 = +X axis).
func (v Vec2) Heading() float64 { return math.Atan2(v.Y, v.X) }

// Normalized returns v scaled to unit length, or the zero vector.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l < 1e-9 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// NormalizeAngle wraps an angle to [-pi, pi].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AngleBetween returns the absolute angular difference between a heading
// and the direction from `from` toward `to`, in [0, pi].
func AngleBetween(heading float64, from, to Vec2) float64 {
	return math.Abs(NormalizeAngle(to.Sub(from).Heading() - heading))
}

// Segment is a wall-like line segment.
type Segment struct {
	A Vec2 `json:"a"`
	B Vec2 `json:"b"`
}

// Intersects reports whether segment s crosses the segment from p to q.
// Colinear touching counts as an intersection.
func (s Segment) Intersects(p, q Vec2) bool {
	d1 := cross(q.Sub(p), s.A.Sub(p))
	d2 := cross(q.Sub(p), s.B.Sub(p))
	d3 := cross(s.B.Sub(s.A), p.Sub(s.A))
	d4 := cross(s.B.Sub(s.A), q.Sub(s.A))
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return onSegment(p, q, s.A) || onSegment(p, q, s.B) ||
		onSegment(s.A, s.B, p) || onSegment(s.A, s.B, q)
}

func cross(a, b Vec2) float64 { return a.X*b.Y - a.Y*b.X }

// onSegment reports whether pt lies on the segment a-b.
func onSegment(a, b, pt Vec2) bool {
	if math.Abs(cross(b.Sub(a), pt.Sub(a))) > 1e-9 {
		return false
	}
	return pt.X >= math.Min(a.X, b.X)-1e-9 && pt.X <= math.Max(a.X, b.X)+1e-9 &&
		pt.Y >= math.Min(a.Y, b.Y)-1e-9 && pt.Y <= math.Max(a.Y, b.Y)+1e-9
}

// Rect is an axis-aligned bounding region.
type Rect struct {
	Min Vec2 `json:"min"`
	Max Vec2 `json:"max"`
}

// Contains reports whether p lies inside r (inclusive).
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Expand returns r grown by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{
		Min: Vec2{r.Min.X - m, r.Min.Y - m},
		Max: Vec2{r.Max.X + m, r.Max.Y + m},
	}
}

// RectAround returns a square region of half-extent m centered on p.
func RectAround(p Vec2, m float64) Rect {
	return Rect{Min: Vec2{p.X - m, p.Y - m}, Max: Vec2{p.X + m, p.Y + m}}
}
