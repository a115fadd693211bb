// Package grid converts between continuous world coordinates and discrete
// tile-grid coordinates. Conversion is a pure function of the per-map
// configuration (tile size, chunk offset); no other state affects the result.
package grid

import (
	"errors"
	"math"

	"github.com/embervale/client/internal/data"
)

// ErrUnknownMap is returned for map keys missing from the table. Callers that
// must stay live mid-transition use the Fallback variants instead.
var ErrUnknownMap = errors.New("grid: unknown map key")

// Service resolves coordinates against the loaded map table.
type Service struct {
	maps *data.MapTable
}

func NewService(maps *data.MapTable) *Service {
	return &Service{maps: maps}
}

// WorldToTile maps a world position to the tile containing it.
func (s *Service) WorldToTile(mapKey string, x, y float64) (int, int, error) {
	entry := s.lookup(mapKey)
	if entry == nil {
		return 0, 0, ErrUnknownMap
	}
	size := entry.Info.TileSize
	tx := int(math.Floor(x/size)) - entry.Info.ChunkX
	ty := int(math.Floor(y/size)) - entry.Info.ChunkY
	return tx, ty, nil
}

// TileToWorld maps a tile coordinate to the world position of its center.
func (s *Service) TileToWorld(mapKey string, tx, ty int) (float64, float64, error) {
	entry := s.lookup(mapKey)
	if entry == nil {
		return 0, 0, ErrUnknownMap
	}
	size := entry.Info.TileSize
	x := float64(tx+entry.Info.ChunkX)*size + size/2
	y := float64(ty+entry.Info.ChunkY)*size + size/2
	return x, y, nil
}

// WorldToTileFallback degrades to identity math on the default tile size when
// the map is unknown or the table is mid-swap, so AI movement keeps working
// through a transition instead of crashing.
func (s *Service) WorldToTileFallback(mapKey string, x, y float64) (int, int) {
	if tx, ty, err := s.WorldToTile(mapKey, x, y); err == nil {
		return tx, ty
	}
	return int(math.Floor(x / data.DefaultTileSize)), int(math.Floor(y / data.DefaultTileSize))
}

// TileToWorldFallback is the inverse best-effort conversion.
func (s *Service) TileToWorldFallback(mapKey string, tx, ty int) (float64, float64) {
	if x, y, err := s.TileToWorld(mapKey, tx, ty); err == nil {
		return x, y
	}
	return float64(tx)*data.DefaultTileSize + data.DefaultTileSize/2,
		float64(ty)*data.DefaultTileSize + data.DefaultTileSize/2
}

// MapEntry exposes the underlying table entry for a key, or nil when the map
// is unknown or the table is unavailable.
func (s *Service) MapEntry(mapKey string) *data.MapEntry {
	return s.lookup(mapKey)
}

// TileSize returns the configured tile size, or the default for unknown maps.
func (s *Service) TileSize(mapKey string) float64 {
	if entry := s.lookup(mapKey); entry != nil {
		return entry.Info.TileSize
	}
	return data.DefaultTileSize
}

func (s *Service) lookup(mapKey string) *data.MapEntry {
	if s == nil || s.maps == nil {
		return nil
	}
	return s.maps.Get(mapKey)
}
