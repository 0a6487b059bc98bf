package ai

import (
	"math"

	"github.com/aokumo/nightwarden/geo"
)

// Sensor computes player visibility with two OR-combined detection shapes:
// a long, narrow vision cone for forward awareness and a short proximity
// sphere with no angle constraint for close-quarters awareness. Either
// positive candidate must still pass the occlusion check.
type Sensor struct {
	visionRange    float64
	visionHalfRad  float64
	detectionRange float64
	rayHeight      float64
}

// NewSensor builds a Sensor from the behavior config.
func NewSensor(cfg Config) *Sensor {
	// The sight ray runs from agent eye height to player head height; in
	// the 2D level model an occluder interrupts it if it reaches the lower
	// of the two endpoints.
	return &Sensor{
		visionRange:    cfg.VisionRange,
		visionHalfRad:  cfg.VisionAngleDeg * math.Pi / 360,
		detectionRange: cfg.DetectionRange,
		rayHeight:      math.Min(cfg.EyeHeight, cfg.HeadHeight),
	}
}

// Sense runs one sensing pass. The returned distance and angle are valid
// whether or not the player is visible; downstream consumers (the kill gate
// uses its own thresholds) read them independently.
func (s *Sensor) Sense(self Pose, player geo.Vec2, ray Raycaster) DetectionResult {
	dist := self.Pos.Dist(player)
	var angle float64
	if dist > 1e-9 {
		angle = geo.AngleBetween(self.Heading, self.Pos, player)
	}

	inCone := dist <= s.visionRange && angle <= s.visionHalfRad
	inSphere := dist <= s.detectionRange
	visible := inCone || inSphere
	if visible && ray != nil && ray.Occluded(self.Pos, player, s.rayHeight) {
		visible = false
	}
	return DetectionResult{Visible: visible, Distance: dist, Angle: angle}
}
