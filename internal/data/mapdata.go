package data

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// InteractObject is one authored object from a map's interact-layer. Portal
// descriptors carry the target map/tile; malformed entries are skipped at
// trigger-build time, not here.
type InteractObject struct {
	Type      string `yaml:"type"` // portal, stair, teleport
	X         int    `yaml:"x"`    // source tile
	Y         int    `yaml:"y"`
	TargetMap string `yaml:"target_map"`
	TargetX   *int   `yaml:"target_x"` // nil = authoring omission, fallback applies
	TargetY   *int   `yaml:"target_y"`
	Direction string `yaml:"direction"`
	Message   string `yaml:"message"`
}

// SpawnPoint places count monsters of one template on map load.
type SpawnPoint struct {
	MonsterID  int32 `yaml:"monster_id"`
	X          int   `yaml:"x"`
	Y          int   `yaml:"y"`
	Count      int   `yaml:"count"`
	RespawnSec int   `yaml:"respawn_sec"` // 0 = no respawn
}

// MapInfo holds authoring metadata for a single map, loaded from maps.yaml.
type MapInfo struct {
	Key            string           `yaml:"key"`
	Name           string           `yaml:"name"`
	TileSize       float64          `yaml:"tile_size"`
	ChunkX         int              `yaml:"chunk_x"` // origin offset applied in world conversion
	ChunkY         int              `yaml:"chunk_y"`
	GridX          int              `yaml:"grid_x"` // tile coordinate of the collision grid's first column
	GridY          int              `yaml:"grid_y"`
	Width          int              `yaml:"width"`
	Height         int              `yaml:"height"`
	GroundLayer    string           `yaml:"ground_layer"`
	CollisionLayer string           `yaml:"collision_layer"`
	ChestLayer     string           `yaml:"chest_layer"`
	SpawnX         int              `yaml:"spawn_x"` // default player arrival tile
	SpawnY         int              `yaml:"spawn_y"`
	InteractLayer  []InteractObject `yaml:"interact_layer"`
	Spawns         []SpawnPoint     `yaml:"spawns"`
}

// MapEntry is loaded metadata plus the static collision grid for one map.
type MapEntry struct {
	Info    MapInfo
	blocked []bool // flat [row*width + col], row = ty - GridY
}

// Blocks reports whether the static collision layer blocks the given tile.
// Tiles outside the authored grid block movement.
func (e *MapEntry) Blocks(tx, ty int) bool {
	col := tx - e.Info.GridX
	row := ty - e.Info.GridY
	if col < 0 || col >= e.Info.Width || row < 0 || row >= e.Info.Height {
		return true
	}
	return e.blocked[row*e.Info.Width+col]
}

// MapTable provides map metadata and collision lookups by map key.
type MapTable struct {
	maps map[string]*MapEntry
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// LoadMapTable loads map metadata from YAML and collision grids from text
// files. yamlPath: maps.yaml. tileDir: directory containing {key}.txt grids.
// A missing grid file is non-fatal: the map loads with an all-open grid so a
// partially authored map still runs.
func LoadMapTable(yamlPath, tileDir string) (*MapTable, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", yamlPath, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	table := &MapTable{maps: make(map[string]*MapEntry, len(file.Maps))}
	for _, info := range file.Maps {
		if info.Key == "" || info.Width <= 0 || info.Height <= 0 {
			continue
		}
		if info.TileSize <= 0 {
			info.TileSize = DefaultTileSize
		}
		blocked, err := loadCollisionGrid(tileDir, info.Key, info.Width, info.Height)
		if err != nil {
			blocked = make([]bool, info.Width*info.Height)
		}
		table.maps[info.Key] = &MapEntry{Info: info, blocked: blocked}
	}
	return table, nil
}

// NewMapTable builds a table from already-parsed entries. Test seam.
func NewMapTable(entries ...*MapEntry) *MapTable {
	t := &MapTable{maps: make(map[string]*MapEntry, len(entries))}
	for _, e := range entries {
		t.maps[e.Info.Key] = e
	}
	return t
}

// NewMapEntry builds an entry with an explicit blocked grid (row-major,
// row = ty - GridY). A nil grid means all tiles open.
func NewMapEntry(info MapInfo, blocked []bool) *MapEntry {
	if info.TileSize <= 0 {
		info.TileSize = DefaultTileSize
	}
	if blocked == nil {
		blocked = make([]bool, info.Width*info.Height)
	}
	return &MapEntry{Info: info, blocked: blocked}
}

// Get returns the entry for a map key, or nil if unknown.
func (t *MapTable) Get(key string) *MapEntry {
	return t.maps[key]
}

func (t *MapTable) Count() int {
	return len(t.maps)
}

// DefaultTileSize is the fallback tile size used when a map omits it and by
// best-effort coordinate math while the table is mid-swap.
const DefaultTileSize = 32.0

// loadCollisionGrid reads a CSV grid file: one line per row, comma-separated
// cells, non-zero = blocks movement.
func loadCollisionGrid(dir, key string, width, height int) ([]bool, error) {
	path := filepath.Join(dir, key+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	blocked := make([]bool, width*height)
	scanner := bufio.NewScanner(f)
	row := 0
	for scanner.Scan() && row < height {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cells := strings.Split(line, ",")
		for col := 0; col < width && col < len(cells); col++ {
			v, err := strconv.Atoi(strings.TrimSpace(cells[col]))
			if err != nil {
				return nil, fmt.Errorf("grid %s row %d col %d: %w", key, row, col, err)
			}
			blocked[row*width+col] = v != 0
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read grid %s: %w", key, err)
	}
	return blocked, nil
}
