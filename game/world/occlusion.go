package world

import (
	"github.com/aokumo/nightwarden/geo"
	"github.com/aokumo/nightwarden/resource"
)

// Occlusion answers line-of-sight queries against the level's wall segments
// and the current door states. Implements ai.Raycaster.
type Occlusion struct {
	walls []*resource.Occluder
	doors []*Door
}

// NewOcclusion builds the occlusion index for a level.
func NewOcclusion(walls []*resource.Occluder, doors []*Door) *Occlusion {
	return &Occlusion{walls: walls, doors: doors}
}

// Occluded reports whether any opaque geometry interrupts the ray between
// from and to. Walls block only if tall enough to reach the ray height;
// closed doors always block.
func (o *Occlusion) Occluded(from, to geo.Vec2, rayHeight float64) bool {
	for _, w := range o.walls {
		if w.Height < rayHeight {
			continue
		}
		if w.Seg.Intersects(from, to) {
			return true
		}
	}
	for _, d := range o.doors {
		if d.IsOpen() {
			continue
		}
		if d.Seg().Intersects(from, to) {
			return true
		}
	}
	return false
}
