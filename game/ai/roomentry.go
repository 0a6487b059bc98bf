package ai

import (
	"github.com/aokumo/nightwarden/resource"
)

// roomEntryPhase sequences a patrol detour through a doored room.
type roomEntryPhase int

const (
	phaseMovingToOuter roomEntryPhase = iota
	phaseWaitingForDoor
	phaseMovingToInner
	phaseExploring
	phaseReturnToOuter
)

func (p roomEntryPhase) String() string {
	switch p {
	case phaseMovingToOuter:
		return "moving_to_outer"
	case phaseWaitingForDoor:
		return "waiting_for_door"
	case phaseMovingToInner:
		return "moving_to_inner"
	case phaseExploring:
		return "exploring"
	case phaseReturnToOuter:
		return "return_to_outer"
	}
	return "unknown"
}

// roomEntrySession is the transient state of one active detour. It exists
// only between a successful waypoint roll and either the return-to-outer
// completion or a player sighting; sighting discards it wholesale.
type roomEntrySession struct {
	entry *resource.RoomEntry
	phase roomEntryPhase
	wait  float64 // door-wait elapsed, seconds
	dwell float64 // exploring elapsed, seconds
	saved State   // top-level state to restore at session end
}

// startRoomEntry opens a session and issues the outer-point destination.
// The navigation never has to path through the closed door: the outer point
// is on the near side, and the door's own proximity sensor opens it while
// the warden waits there.
func (w *Warden) startRoomEntry(entry *resource.RoomEntry) {
	w.room = &roomEntrySession{
		entry: entry,
		phase: phaseMovingToOuter,
		saved: w.state,
	}
	w.nav.SetDestination(*entry.Outer)
}

// abortRoomEntry discards the session with no residual state. Used on
// player sighting; the chase transition owns everything that follows.
func (w *Warden) abortRoomEntry() {
	w.room = nil
}

// tickRoomEntry advances the five-phase detour. Arrival at either point
// requires both a completed path and physical proximity, so a long path
// that merely finished computing cannot advance the phase early.
func (w *Warden) tickRoomEntry(dt float64, self Pose) {
	s := w.room
	switch s.phase {
	case phaseMovingToOuter:
		if w.arrivedAt(*s.entry.Outer, self) {
			s.phase = phaseWaitingForDoor
			s.wait = 0
		}

	case phaseWaitingForDoor:
		// Fixed dwell, independent of the door's animation signal. The
		// door's proximity sensor has already seen the warden by now.
		s.wait += dt
		if s.wait >= w.cfg.DoorWait.Seconds() {
			s.phase = phaseMovingToInner
			w.nav.SetDestination(*s.entry.Inner)
		}

	case phaseMovingToInner:
		if w.arrivedAt(*s.entry.Inner, self) {
			s.phase = phaseExploring
			s.dwell = 0
			// Decouple the dwell from patrol tick logic entirely.
			w.setState(StateIdle)
			w.nav.Halt()
		}

	case phaseExploring:
		s.dwell += dt
		if s.dwell >= s.entry.Dwell().Seconds() {
			s.phase = phaseReturnToOuter
			w.nav.SetDestination(*s.entry.Outer)
		}

	case phaseReturnToOuter:
		if w.arrivedAt(*s.entry.Outer, self) {
			w.room = nil
			w.setState(s.saved)
			// The roll already happened at this waypoint; resume normal
			// advancement on the next patrol tick.
			w.advancePatrolIndex()
			w.patrolTargetSet = false
		}
	}
}

// pickRoomEntry selects a random valid entry from the waypoint, or nil.
// Entries with missing points are authoring mistakes, recovered locally by
// treating the roll as "no entry".
func (w *Warden) pickRoomEntry(wp *resource.Waypoint) *resource.RoomEntry {
	valid := make([]*resource.RoomEntry, 0, len(wp.Entries))
	for _, e := range wp.Entries {
		if e.Valid() {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	return valid[w.rng.Intn(len(valid))]
}
