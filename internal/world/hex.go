// Package world provides the hex grid and procedural terrain generation.
// Cells are addressed by offset coordinates (x, y) on a bounded grid.
package world

import "math"

// Coord represents a position on the hex grid using offset coordinates.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Terrain types for hex cells.
type Terrain uint8

const (
	TerrainPlains    Terrain = iota // Open ground — cheapest to cross
	TerrainForest                   // Dense cover, ambush country
	TerrainMountains                // Slow going, thin encounter traffic
	TerrainDesert                   // Harsh but traversable
	TerrainWater                    // Shallow water — fordable at cost
	TerrainDeepOcean                // Impassable
)

// HexCell is one tile of the map. Immutable once generated: a cell is a
// deterministic function of its coordinate and the generator seed.
type HexCell struct {
	Coord     Coord   `json:"coord"`
	Terrain   Terrain `json:"terrain"`
	Elevation float64 `json:"elevation"` // 0.0 (sea floor) to 1.0 (peak)
	Climate   float64 `json:"climate"`   // 0.0 (frozen) to 1.0 (tropical)
}

// movementCosts is the fixed movement policy. DeepOcean is impassable
// and carries an infinite cost.
var movementCosts = map[Terrain]float64{
	TerrainPlains:    1.0,
	TerrainDesert:    1.5,
	TerrainForest:    2.0,
	TerrainMountains: 3.0,
	TerrainWater:     4.0,
	TerrainDeepOcean: math.Inf(1),
}

// encounterWeights is the fixed encounter-chance policy per terrain.
// Forest is the most dangerous; deep ocean is unreachable and gets zero.
var encounterWeights = map[Terrain]float64{
	TerrainPlains:    0.30,
	TerrainDesert:    0.30,
	TerrainForest:    0.40,
	TerrainMountains: 0.25,
	TerrainWater:     0.10,
	TerrainDeepOcean: 0.0,
}

// MovementCost returns the cost to enter this cell.
func (c HexCell) MovementCost() float64 {
	return movementCosts[c.Terrain]
}

// EncounterWeight returns the chance in [0, 1] that entering this cell
// triggers an encounter.
func (c HexCell) EncounterWeight() float64 {
	return encounterWeights[c.Terrain]
}

// Passable reports whether a unit can enter this cell at all.
func (c HexCell) Passable() bool {
	return c.Terrain != TerrainDeepOcean
}

// neighborDirections defines the six hex neighbor offsets for even and
// odd columns (offset coordinates shift the diagonals by column parity).
var neighborDirections = [2][6]Coord{
	{{1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {0, 1}}, // even column
	{{1, 1}, {1, 0}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1}},   // odd column
}

// Neighbors returns the six adjacent coordinates.
func (c Coord) Neighbors() [6]Coord {
	parity := c.X & 1
	var result [6]Coord
	for i, dir := range neighborDirections[parity] {
		result[i] = Coord{X: c.X + dir.X, Y: c.Y + dir.Y}
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b Coord) int {
	// Offset → axial, then cube distance.
	aq, ar := a.X, a.Y-(a.X-(a.X&1))/2
	bq, br := b.X, b.Y-(b.X-(b.X&1))/2
	dq := aq - bq
	dr := ar - br
	ds := -dq - dr
	if dq < 0 {
		dq = -dq
	}
	if dr < 0 {
		dr = -dr
	}
	if ds < 0 {
		ds = -ds
	}
	max := dq
	if dr > max {
		max = dr
	}
	if ds > max {
		max = ds
	}
	return max
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainPlains:
		return "Plains"
	case TerrainForest:
		return "Forest"
	case TerrainMountains:
		return "Mountains"
	case TerrainDesert:
		return "Desert"
	case TerrainWater:
		return "Water"
	case TerrainDeepOcean:
		return "Deep Ocean"
	default:
		return "Unknown"
	}
}
