package world

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aokumo/nightwarden/game/ai"
	"github.com/aokumo/nightwarden/geo"
	"github.com/aokumo/nightwarden/nav"
	"github.com/aokumo/nightwarden/resource"
)

type stubVictim struct{ deaths int }

func (v *stubVictim) Die(string, time.Duration) { v.deaths++ }

type stubEvents struct{ reveals, successes, transitions int }

func (e *stubEvents) WardenReveal()              { e.reveals++ }
func (e *stubEvents) LevelSuccess()              { e.successes++ }
func (e *stubEvents) StateChanged(_, _ ai.State) { e.transitions++ }

// arenaLevel is an open 8x8 floor with a two-stop patrol route.
func arenaLevel() *resource.Level {
	return &resource.Level{
		ID:          "arena",
		Width:       8,
		Height:      8,
		CellSize:    1,
		PlayerSpawn: geo.Vec2{X: 6.5, Y: 6.5},
		WardenSpawn: geo.Vec2{X: 0.5, Y: 0.5},
		Route: []*resource.Waypoint{
			{Pos: geo.Vec2{X: 4.5, Y: 0.5}},
			{Pos: geo.Vec2{X: 4.5, Y: 4.5}},
		},
	}
}

func newArenaWarden(t *testing.T) (*WardenRuntime, *stubEvents) {
	t.Helper()
	lv := arenaLevel()
	grid := nav.NewGrid(lv)
	events := &stubEvents{}
	w := NewWardenRuntime(ai.DefaultConfig(), lv, grid, nil, NewOcclusion(nil, nil),
		&stubVictim{}, events, rand.New(rand.NewSource(1)), zap.NewNop())
	return w, events
}

func TestWardenRuntimePatrols(t *testing.T) {
	w, _ := newArenaWarden(t)
	far := geo.Vec2{X: 1e9, Y: 1e9}

	require.Equal(t, geo.Vec2{X: 0.5, Y: 0.5}, w.Pos())

	w.Tick(0.05, far)
	w.Tick(0.5, far)
	assert.Greater(t, w.Pos().X, 0.5, "moving toward the first waypoint")
	assert.Equal(t, ai.StatePatrol, w.Core().State())
	assert.InDelta(t, 0, w.Heading(), 1e-9, "facing along +X")
	assert.True(t, w.ResetDirty())
	assert.False(t, w.ResetDirty())
}

func TestWardenRuntimeReachesWaypointAndTurns(t *testing.T) {
	w, _ := newArenaWarden(t)
	far := geo.Vec2{X: 1e9, Y: 1e9}

	for i := 0; i < 70; i++ {
		w.Tick(0.05, far)
	}
	// By now the first leg is done and the second (along +Y) is underway.
	assert.Greater(t, w.Pos().Y, 1.0)
	assert.InDelta(t, geo.Vec2{Y: 1}.Heading(), w.Heading(), 1e-6)
}

func TestWardenRuntimeChasesVisiblePlayer(t *testing.T) {
	w, events := newArenaWarden(t)

	// Player dead ahead, well inside the vision cone.
	w.Tick(0.05, geo.Vec2{X: 6.5, Y: 0.5})
	assert.Equal(t, ai.StateChase, w.Core().State())
	assert.Positive(t, events.transitions)
}

func TestWardenSnapshotFields(t *testing.T) {
	w, _ := newArenaWarden(t)
	snap := w.Snapshot()
	assert.Equal(t, 0.5, snap["x"])
	assert.Equal(t, 0.5, snap["y"])
	assert.Contains(t, snap, "heading")
	assert.Equal(t, "patrol", snap["state"])
}
