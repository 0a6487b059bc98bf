package ai

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aokumo/nightwarden/geo"
)

func sensorCfg() Config {
	cfg := DefaultConfig()
	cfg.VisionRange = 15
	cfg.VisionAngleDeg = 60
	cfg.DetectionRange = 5
	return cfg
}

func at(dist, angleDeg float64) geo.Vec2 {
	rad := angleDeg * math.Pi / 180
	return geo.Vec2{X: dist * math.Cos(rad), Y: dist * math.Sin(rad)}
}

func TestSenseConeEdges(t *testing.T) {
	s := NewSensor(sensorCfg())
	self := pose(0, 0, 0)

	cases := []struct {
		name    string
		player  geo.Vec2
		visible bool
	}{
		{"dead ahead in range", at(10, 0), true},
		{"inside half angle", at(10, 25), true},
		{"outside half angle", at(10, 35), false},
		{"ahead but beyond range", at(16, 0), false},
		{"cone edge at max range", at(14.9, 29), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			det := s.Sense(self, tc.player, nil)
			assert.Equal(t, tc.visible, det.Visible)
		})
	}
}

func TestSenseProximitySphereIgnoresAngle(t *testing.T) {
	s := NewSensor(sensorCfg())
	self := pose(0, 0, 0)

	for _, deg := range []float64{0, 90, 135, 180} {
		det := s.Sense(self, at(3, deg), nil)
		assert.True(t, det.Visible, "angle %v", deg)
	}
	det := s.Sense(self, at(5.5, 180), nil)
	assert.False(t, det.Visible)
}

func TestSenseOcclusionBlocksBothShapes(t *testing.T) {
	s := NewSensor(sensorCfg())
	self := pose(0, 0, 0)
	ray := &fakeRay{blocked: true}

	assert.False(t, s.Sense(self, at(10, 0), ray).Visible, "cone candidate")
	assert.False(t, s.Sense(self, at(3, 180), ray).Visible, "sphere candidate")
}

func TestSenseMeasuresEvenWhenInvisible(t *testing.T) {
	s := NewSensor(sensorCfg())
	det := s.Sense(pose(0, 0, 0), at(10, 35), nil)
	assert.False(t, det.Visible)
	assert.InDelta(t, 10, det.Distance, 1e-9)
	assert.InDelta(t, 35*math.Pi/180, det.Angle, 1e-9)
}

func TestSenseRayHeightIsLowerEndpoint(t *testing.T) {
	cfg := sensorCfg()
	cfg.EyeHeight = 1.7
	cfg.HeadHeight = 1.6
	s := NewSensor(cfg)

	var gotHeight float64
	ray := raycastFunc(func(_, _ geo.Vec2, h float64) bool {
		gotHeight = h
		return false
	})
	s.Sense(pose(0, 0, 0), at(10, 0), ray)
	assert.InDelta(t, 1.6, gotHeight, 1e-9)
}

type raycastFunc func(from, to geo.Vec2, h float64) bool

func (f raycastFunc) Occluded(from, to geo.Vec2, h float64) bool { return f(from, to, h) }
