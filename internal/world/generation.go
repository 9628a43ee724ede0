// Terrain generation using layered simplex noise.
// Two independent noise fields (elevation and climate) are sampled per
// coordinate and thresholded into terrain bands.
package world

import (
	"errors"
	"sync"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// ErrInvalidCoordinate is returned for coordinates outside the map bounds.
var ErrInvalidCoordinate = errors.New("coordinate outside map bounds")

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Width       int     // Grid width in cells
	Height      int     // Grid height in cells
	Seed        int64   // Noise seed — same seed reproduces the same map
	Scale       float64 // Noise sample scale (larger = smoother features)
	WaterLevel  float64 // Elevation below this is shallow water
	DeepLevel   float64 // Elevation below this is deep ocean
	MountainLvl float64 // Elevation above this is mountains
}

// DefaultGenConfig returns the standard 64x64 campaign map parameters.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:       64,
		Height:      64,
		Seed:        1,
		Scale:       20.0,
		WaterLevel:  0.30,
		DeepLevel:   0.20,
		MountainLvl: 0.75,
	}
}

// Generator produces hex cells deterministically from (coordinate, seed).
// Cells are immutable once generated; the cache only saves resampling.
type Generator struct {
	cfg GenConfig

	elevNoise    opensimplex.Noise
	climateNoise opensimplex.Noise

	mu    sync.Mutex
	cache map[Coord]HexCell
}

// NewGenerator creates a terrain generator for the given configuration.
func NewGenerator(cfg GenConfig) *Generator {
	return &Generator{
		cfg:          cfg,
		elevNoise:    opensimplex.NewNormalized(cfg.Seed),
		climateNoise: opensimplex.NewNormalized(cfg.Seed + 1),
		cache:        make(map[Coord]HexCell),
	}
}

// Width returns the map width in cells.
func (g *Generator) Width() int { return g.cfg.Width }

// Height returns the map height in cells.
func (g *Generator) Height() int { return g.cfg.Height }

// InBounds reports whether the coordinate lies on the map.
func (g *Generator) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.cfg.Width && c.Y >= 0 && c.Y < g.cfg.Height
}

// CellAt returns the cell at (x, y). Deterministic: the same coordinate
// and seed always yield the same terrain type and movement cost.
func (g *Generator) CellAt(x, y int) (HexCell, error) {
	coord := Coord{X: x, Y: y}
	if !g.InBounds(coord) {
		return HexCell{}, ErrInvalidCoordinate
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if cell, ok := g.cache[coord]; ok {
		return cell, nil
	}

	nx := float64(x) / g.cfg.Scale
	ny := float64(y) / g.cfg.Scale

	// Elevation uses four octaves for ridged detail; climate varies at
	// half frequency so biome regions span multiple cells.
	elev := octaveNoise(g.elevNoise, nx, ny, 4, 1.0, 0.5)
	climate := octaveNoise(g.climateNoise, nx*0.5, ny*0.5, 2, 1.0, 0.5)

	cell := HexCell{
		Coord:     coord,
		Terrain:   deriveTerrain(elev, climate, g.cfg),
		Elevation: elev,
		Climate:   climate,
	}
	g.cache[coord] = cell
	return cell, nil
}

// deriveTerrain thresholds elevation and climate into one of the six
// terrain types. Bands are tuned so Plains/Forest dominate, Mountains
// and Water are less frequent, and DeepOcean is rare.
func deriveTerrain(elev, climate float64, cfg GenConfig) Terrain {
	if elev < cfg.DeepLevel {
		return TerrainDeepOcean
	}
	if elev < cfg.WaterLevel {
		return TerrainWater
	}
	if elev >= cfg.MountainLvl {
		return TerrainMountains
	}

	// Quantize climate into five bands for distinct biome regions:
	// the lowest band is desert, two bands of plains, two of forest.
	band := int(climate * 5)
	if band > 4 {
		band = 4
	}
	switch {
	case band == 0:
		return TerrainDesert
	case band <= 2:
		return TerrainPlains
	default:
		return TerrainForest
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// BulkMap generates every cell on the grid, row-major. Used by the map
// renderer endpoint.
func (g *Generator) BulkMap() [][]HexCell {
	rows := make([][]HexCell, g.cfg.Height)
	for y := 0; y < g.cfg.Height; y++ {
		row := make([]HexCell, g.cfg.Width)
		for x := 0; x < g.cfg.Width; x++ {
			cell, _ := g.CellAt(x, y) // in bounds by construction
			row[x] = cell
		}
		rows[y] = row
	}
	return rows
}

// TerrainCounts returns a summary of terrain type distribution.
func (g *Generator) TerrainCounts() map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, row := range g.BulkMap() {
		for _, cell := range row {
			counts[cell.Terrain]++
		}
	}
	return counts
}
