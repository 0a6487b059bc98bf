// Package resource loads authored level data from JSON files. Level data is
// read-only after Load; the world layer builds its runtime state from it.
package resource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aokumo/nightwarden/geo"
)

// RoomEntry describes an optional patrol detour into a room: walk to the
// outer point, wait for the door, walk to the inner point, dwell, walk back.
// Outer or Inner may be nil in hand-authored data; such entries are invalid
// and are skipped at roll time.
type RoomEntry struct {
	Outer     *geo.Vec2 `json:"outer"`
	Inner     *geo.Vec2 `json:"inner"`
	DwellSecs float64   `json:"dwell_secs"`
}

// Dwell returns the authored dwell duration.
func (e *RoomEntry) Dwell() time.Duration {
	return time.Duration(e.DwellSecs * float64(time.Second))
}

// Valid reports whether both detour points are present.
func (e *RoomEntry) Valid() bool {
	return e != nil && e.Outer != nil && e.Inner != nil
}

// Waypoint is one authored patrol stop.
type Waypoint struct {
	Pos         geo.Vec2     `json:"pos"`
	Entries     []*RoomEntry `json:"entries,omitempty"`
	EntryChance float64      `json:"entry_chance"` // [0,1]
}

// DoorSpec is the authored description of a door.
type DoorSpec struct {
	ID           string      `json:"id"`
	Seg          geo.Segment `json:"seg"`           // occludes sight while closed
	Locked       bool        `json:"locked"`
	DetectRadius float64     `json:"detect_radius"` // proximity auto-open range
	AnimSecs     float64     `json:"anim_secs"`     // open/close animation time
}

// Occluder is a sight-blocking wall segment. Height gates which rays it
// blocks: a ray cast at height h is blocked only if Height >= h, so low
// furniture hides nothing at eye level.
type Occluder struct {
	Seg    geo.Segment `json:"seg"`
	Height float64     `json:"height"`
}

// Level is a fully loaded level definition.
type Level struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Width       int         `json:"width"`  // grid cells
	Height      int         `json:"height"` // grid cells
	CellSize    float64     `json:"cell_size"`
	Blocked     []int       `json:"blocked"` // row-major, 1 = unwalkable
	PlayerSpawn geo.Vec2    `json:"player_spawn"`
	WardenSpawn geo.Vec2    `json:"warden_spawn"`
	Route       []*Waypoint `json:"route"`
	Doors       []*DoorSpec `json:"doors"`
	Occluders   []*Occluder `json:"occluders"`
}

// BlockedAt reports whether the static level geometry blocks cell (cx, cy).
// Out-of-bounds cells are blocked.
func (l *Level) BlockedAt(cx, cy int) bool {
	if cx < 0 || cy < 0 || cx >= l.Width || cy >= l.Height {
		return true
	}
	idx := cy*l.Width + cx
	if idx >= len(l.Blocked) {
		return false
	}
	return l.Blocked[idx] != 0
}

// Validate checks the structural invariants the runtime relies on.
func (l *Level) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("level %s: bad dimensions %dx%d", l.ID, l.Width, l.Height)
	}
	if l.CellSize <= 0 {
		return fmt.Errorf("level %s: cell_size must be positive", l.ID)
	}
	if len(l.Blocked) != 0 && len(l.Blocked) != l.Width*l.Height {
		return fmt.Errorf("level %s: blocked grid is %d cells, want %d",
			l.ID, len(l.Blocked), l.Width*l.Height)
	}
	seen := map[string]bool{}
	for _, d := range l.Doors {
		if d.ID == "" {
			return fmt.Errorf("level %s: door with empty id", l.ID)
		}
		if seen[d.ID] {
			return fmt.Errorf("level %s: duplicate door id %q", l.ID, d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}

// Loader reads level files from a data directory.
type Loader struct {
	dataPath string
	Levels   map[string]*Level
}

// NewLoader creates a Loader rooted at dataPath.
func NewLoader(dataPath string) *Loader {
	return &Loader{
		dataPath: dataPath,
		Levels:   make(map[string]*Level),
	}
}

// Load reads every *.level.json file under the data path.
func (ld *Loader) Load() error {
	matches, err := filepath.Glob(filepath.Join(ld.dataPath, "*.level.json"))
	if err != nil {
		return fmt.Errorf("resource: glob: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("resource: no level files under %s", ld.dataPath)
	}
	for _, path := range matches {
		lv, err := LoadLevel(path)
		if err != nil {
			return err
		}
		ld.Levels[lv.ID] = lv
	}
	return nil
}

// LoadLevel reads and validates a single level file.
func LoadLevel(path string) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", path, err)
	}
	lv := &Level{}
	if err := json.Unmarshal(raw, lv); err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", path, err)
	}
	if lv.ID == "" {
		lv.ID = strings.TrimSuffix(filepath.Base(path), ".level.json")
	}
	if err := lv.Validate(); err != nil {
		return nil, err
	}
	return lv, nil
}

// Get returns the level with the given ID, or nil.
func (ld *Loader) Get(id string) *Level {
	return ld.Levels[id]
}
