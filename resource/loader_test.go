package resource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aokumo/nightwarden/geo"
)

func writeLevel(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalLevel = `{
	"name": "Cell Block A",
	"width": 4,
	"height": 2,
	"cell_size": 1.5,
	"blocked": [0, 0, 0, 1, 0, 0, 0, 0],
	"player_spawn": {"x": 0.5, "y": 0.5},
	"warden_spawn": {"x": 5.5, "y": 2.5},
	"route": [
		{"pos": {"x": 1, "y": 1}, "entry_chance": 0.3,
		 "entries": [{"outer": {"x": 2, "y": 1}, "inner": {"x": 2, "y": 3}, "dwell_secs": 2.5}]},
		{"pos": {"x": 5, "y": 1}}
	],
	"doors": [
		{"id": "cell-a", "seg": {"a": {"x": 2, "y": 0}, "b": {"x": 2, "y": 1.5}},
		 "locked": true, "detect_radius": 2, "anim_secs": 0.8}
	],
	"occluders": [
		{"seg": {"a": {"x": 0, "y": 3}, "b": {"x": 6, "y": 3}}, "height": 2.4}
	]
}`

func TestLoadLevel(t *testing.T) {
	dir := t.TempDir()
	path := writeLevel(t, dir, "block-a.level.json", minimalLevel)

	lv, err := LoadLevel(path)
	require.NoError(t, err)

	assert.Equal(t, "block-a", lv.ID, "id defaults to the file name")
	assert.Equal(t, "Cell Block A", lv.Name)
	assert.Equal(t, 1.5, lv.CellSize)
	require.Len(t, lv.Route, 2)
	assert.Equal(t, 0.3, lv.Route[0].EntryChance)
	require.Len(t, lv.Route[0].Entries, 1)
	assert.Equal(t, 2500*time.Millisecond, lv.Route[0].Entries[0].Dwell())
	require.Len(t, lv.Doors, 1)
	assert.True(t, lv.Doors[0].Locked)
	require.Len(t, lv.Occluders, 1)
	assert.Equal(t, 2.4, lv.Occluders[0].Height)
}

func TestLoadLevelExplicitID(t *testing.T) {
	dir := t.TempDir()
	path := writeLevel(t, dir, "whatever.level.json",
		`{"id": "wing-b", "width": 2, "height": 2, "cell_size": 1}`)

	lv, err := LoadLevel(path)
	require.NoError(t, err)
	assert.Equal(t, "wing-b", lv.ID)
}

func TestLoadLevelRejectsBadData(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero dimensions", `{"width": 0, "height": 2, "cell_size": 1}`},
		{"zero cell size", `{"width": 2, "height": 2, "cell_size": 0}`},
		{"short blocked grid", `{"width": 2, "height": 2, "cell_size": 1, "blocked": [0, 1]}`},
		{"empty door id", `{"width": 2, "height": 2, "cell_size": 1, "doors": [{"id": ""}]}`},
		{"duplicate door id", `{"width": 2, "height": 2, "cell_size": 1,
			"doors": [{"id": "d"}, {"id": "d"}]}`},
		{"not json", `{`},
	}
	dir := t.TempDir()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeLevel(t, dir, "bad.level.json", tc.body)
			_, err := LoadLevel(path)
			assert.Error(t, err)
		})
	}
}

func TestLoaderGlobsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeLevel(t, dir, "a.level.json", `{"width": 2, "height": 2, "cell_size": 1}`)
	writeLevel(t, dir, "b.level.json", `{"width": 3, "height": 3, "cell_size": 1}`)
	writeLevel(t, dir, "notes.txt", "ignored")

	ld := NewLoader(dir)
	require.NoError(t, ld.Load())
	assert.Len(t, ld.Levels, 2)
	require.NotNil(t, ld.Get("a"))
	assert.Equal(t, 3, ld.Get("b").Width)
	assert.Nil(t, ld.Get("missing"))
}

func TestLoaderFailsOnEmptyDirectory(t *testing.T) {
	ld := NewLoader(t.TempDir())
	assert.Error(t, ld.Load())
}

func TestBlockedAt(t *testing.T) {
	lv := &Level{Width: 2, Height: 2, CellSize: 1, Blocked: []int{0, 1, 0, 0}}

	assert.False(t, lv.BlockedAt(0, 0))
	assert.True(t, lv.BlockedAt(1, 0))
	assert.True(t, lv.BlockedAt(-1, 0), "out of bounds is blocked")
	assert.True(t, lv.BlockedAt(0, 2), "out of bounds is blocked")

	open := &Level{Width: 2, Height: 2, CellSize: 1}
	assert.False(t, open.BlockedAt(1, 1), "missing grid means open floor")
}

func TestRoomEntryValid(t *testing.T) {
	p := geo.Vec2{X: 1, Y: 1}
	assert.True(t, (&RoomEntry{Outer: &p, Inner: &p}).Valid())
	assert.False(t, (&RoomEntry{Inner: &p}).Valid())
	assert.False(t, (&RoomEntry{Outer: &p}).Valid())
	assert.False(t, (*RoomEntry)(nil).Valid())
}
