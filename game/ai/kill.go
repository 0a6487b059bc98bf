package ai

import (
	"go.uber.org/zap"

	"github.com/aokumo/nightwarden/geo"
)

// KillResolver gates the kill sequence. It runs on a fixed cadence rather
// than every tick, measures distance and forward angle at the warden's base
// position (no occlusion check — the sighting path owns that), and latches
// on the first success. Latching freezes nothing by itself; the caller owns
// the locomotion halt. The reveal cue fires once, pre-reveal delay later.
type KillResolver struct {
	interval   float64 // seconds between gate evaluations
	radius     float64
	halfRad    float64
	preReveal  float64
	revealDur  float64
	killerName string

	victim Victim
	events Events
	logger *zap.Logger

	cadence       float64
	latched       bool
	revealElapsed float64
	revealFired   bool
}

// NewKillResolver builds a resolver from the behavior config.
func NewKillResolver(cfg Config, killerName string, victim Victim, events Events, logger *zap.Logger) *KillResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KillResolver{
		interval:   cfg.KillInterval.Seconds(),
		radius:     cfg.KillRadius,
		halfRad:    cfg.KillAngleDeg * degToRad / 2,
		preReveal:  cfg.PreRevealDelay.Seconds(),
		revealDur:  cfg.RevealDuration.Seconds(),
		killerName: killerName,
		victim:     victim,
		events:     events,
		logger:     logger,
	}
}

// Latched reports whether the kill has fired.
func (k *KillResolver) Latched() bool { return k.latched }

// Tick advances the resolver by dt seconds. Before the latch it evaluates
// the gate on its cadence; after the latch it only drives the reveal timer.
// Returns true on the tick the kill latches.
func (k *KillResolver) Tick(dt float64, self Pose, player geo.Vec2) bool {
	if k.latched {
		k.tickReveal(dt)
		return false
	}

	k.cadence += dt
	if k.cadence < k.interval {
		return false
	}
	k.cadence = 0

	if !k.gate(self, player) {
		return false
	}

	k.latched = true
	total := durationFromSeconds(k.preReveal + k.revealDur)
	k.logger.Info("kill latched",
		zap.Float64("distance", self.Pos.Dist(player)),
		zap.Duration("sequence", total))
	if k.victim != nil {
		k.victim.Die(k.killerName, total)
	}
	return true
}

// gate checks the proximity+angle condition at base height.
func (k *KillResolver) gate(self Pose, player geo.Vec2) bool {
	dist := self.Pos.Dist(player)
	if dist > k.radius {
		return false
	}
	if dist < 1e-9 {
		return true
	}
	return geo.AngleBetween(self.Heading, self.Pos, player) <= k.halfRad
}

func (k *KillResolver) tickReveal(dt float64) {
	if k.revealFired {
		return
	}
	k.revealElapsed += dt
	if k.revealElapsed >= k.preReveal {
		k.revealFired = true
		if k.events != nil {
			k.events.WardenReveal()
		}
	}
}
