// Package ai implements the warden's pursuit/evasion behavior: sensing,
// the top-level state machine, room-entry detours, and the kill sequence.
// The package is engine-agnostic — navigation, doors, occlusion and the
// player are consumed through interfaces supplied at construction.
package ai

import (
	"math"
	"time"

	"github.com/aokumo/nightwarden/geo"
)

const degToRad = math.Pi / 180

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// State enumerates the warden's top-level behavior states.
type State int

const (
	StateIdle State = iota
	StatePatrol
	StateChase
	StateSearch
)

// String returns the lowercase state name used in logs and sync payloads.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePatrol:
		return "patrol"
	case StateChase:
		return "chase"
	case StateSearch:
		return "search"
	}
	return "unknown"
}

// Pose is the warden's position and facing for one tick.
type Pose struct {
	Pos     geo.Vec2
	Heading float64 // radians
}

// DetectionResult is the transient outcome of one sensing pass. It is never
// persisted beyond the tick except into the last-known player position when
// Visible is true.
type DetectionResult struct {
	Visible  bool
	Distance float64
	Angle    float64 // radians off the forward axis
}

// Navigator is the pathfinding/locomotion service the warden steers.
// Requests are accepted immediately; completion is polled.
type Navigator interface {
	SetDestination(p geo.Vec2)
	Halt()
	HasReachedEnd() bool
	IsPathPending() bool
	SetMaxSpeed(v float64)
	CurrentVelocity() geo.Vec2
}

// Openable is the capability view of a door the warden can operate.
// Close requests are ownership-gated on the door side; the warden issues
// them blindly and the losing side is a silent no-op.
type Openable interface {
	RequestOpen(bypassLock bool)
	RequestClose()
	IsOpen() bool
}

// Raycaster answers occlusion queries against level geometry.
// A ray at rayHeight is blocked only by occluders at least that tall.
type Raycaster interface {
	Occluded(from, to geo.Vec2, rayHeight float64) bool
}

// Victim is the hunted player, notified when the kill latches.
// Die is fire-and-forget; no result is awaited.
type Victim interface {
	Die(killer string, totalSequence time.Duration)
}

// Events receives the warden's one-shot outcome cues.
type Events interface {
	// WardenReveal fires once, pre-reveal delay after a kill latches.
	WardenReveal()
	// LevelSuccess fires once on warden contact while final chase is armed.
	LevelSuccess()
	// StateChanged is informational, for sync/telemetry.
	StateChanged(from, to State)
}

// Config carries every behavior tunable. Sensing thresholds and the kill
// gate are deliberately independent (eye-level glance vs full-body lunge).
type Config struct {
	// Sensing
	VisionRange    float64 `mapstructure:"vision_range"`
	VisionAngleDeg float64 `mapstructure:"vision_angle_deg"`
	DetectionRange float64 `mapstructure:"detection_range"`
	EyeHeight      float64 `mapstructure:"eye_height"`
	HeadHeight     float64 `mapstructure:"head_height"` // player head

	// Locomotion
	PatrolSpeed float64 `mapstructure:"patrol_speed"` // also used in Search
	ChaseSpeed  float64 `mapstructure:"chase_speed"`
	ReachRadius float64 `mapstructure:"reach_radius"`

	// Patrol / room entry
	RandomPatrol bool          `mapstructure:"random_patrol"`
	DoorWait     time.Duration `mapstructure:"door_wait"`

	// Search
	LosePlayerTime     time.Duration `mapstructure:"lose_player_time"`
	SearchNearRadius   float64       `mapstructure:"search_near_radius"`
	SearchWanderRadius float64       `mapstructure:"search_wander_radius"`

	// Kill
	KillInterval   time.Duration `mapstructure:"kill_interval"`
	KillRadius     float64       `mapstructure:"kill_radius"`
	KillAngleDeg   float64       `mapstructure:"kill_angle_deg"`
	PreRevealDelay time.Duration `mapstructure:"pre_reveal_delay"`
	RevealDuration time.Duration `mapstructure:"reveal_duration"`
}

// DefaultConfig returns the tuning used when the config file is silent.
func DefaultConfig() Config {
	return Config{
		VisionRange:        15,
		VisionAngleDeg:     60,
		DetectionRange:     5,
		EyeHeight:          1.7,
		HeadHeight:         1.6,
		PatrolSpeed:        1.6,
		ChaseSpeed:         3.2,
		ReachRadius:        0.6,
		DoorWait:           1500 * time.Millisecond,
		LosePlayerTime:     5 * time.Second,
		SearchNearRadius:   1.5,
		SearchWanderRadius: 6,
		KillInterval:       200 * time.Millisecond,
		KillRadius:         2,
		KillAngleDeg:       90,
		PreRevealDelay:     600 * time.Millisecond,
		RevealDuration:     2 * time.Second,
	}
}
