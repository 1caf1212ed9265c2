package world

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

const (
	// MaxAgents is the number of agent names ('0'..'9').
	MaxAgents = 10
	// MaxBoxes is the number of box letters ('A'..'Z').
	MaxBoxes = 26
)

// ErrInvalidGrid is returned when a wall mask cannot form a grid.
var ErrInvalidGrid = errors.New("invalid grid")

// Position is a grid cell indexed from the top-left corner, row-major.
type Position struct {
	Row int
	Col int
}

// Add returns p shifted by delta.
func (p Position) Add(delta Position) Position {
	return Position{Row: p.Row + delta.Row, Col: p.Col + delta.Col}
}

// Sub returns p shifted by -delta.
func (p Position) Sub(delta Position) Position {
	return Position{Row: p.Row - delta.Row, Col: p.Col - delta.Col}
}

// Manhattan returns the 4-connected distance between p and other, ignoring walls.
func (p Position) Manhattan(other Position) int {
	dr := p.Row - other.Row
	if dr < 0 {
		dr = -dr
	}
	dc := p.Col - other.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// GridWorld is the static part of a level: dimensions, walls and colours.
// It is shared by every State of a run and never mutated after construction.
type GridWorld struct {
	rows        int
	cols        int
	walls       []bool
	agentColors [MaxAgents]Color
	boxColors   [MaxBoxes]Color
	fingerprint uint64
}

// NewGridWorld builds a GridWorld from a rectangular wall mask.
func NewGridWorld(walls [][]bool, agentColors [MaxAgents]Color, boxColors [MaxBoxes]Color) (*GridWorld, error) {
	if len(walls) == 0 || len(walls[0]) == 0 {
		return nil, fmt.Errorf("%w: empty wall mask", ErrInvalidGrid)
	}
	rows, cols := len(walls), len(walls[0])
	flat := make([]bool, 0, rows*cols)
	for r, row := range walls {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidGrid, r, len(row), cols)
		}
		flat = append(flat, row...)
	}

	g := &GridWorld{
		rows:        rows,
		cols:        cols,
		walls:       flat,
		agentColors: agentColors,
		boxColors:   boxColors,
	}
	g.fingerprint = g.computeFingerprint()
	return g, nil
}

func (g *GridWorld) computeFingerprint() uint64 {
	digest := xxhash.New()
	buf := make([]byte, 0, 16+len(g.walls)+MaxAgents+MaxBoxes)
	buf = binary.AppendUvarint(buf, uint64(g.rows))
	buf = binary.AppendUvarint(buf, uint64(g.cols))
	for _, wall := range g.walls {
		if wall {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	for _, c := range g.agentColors {
		buf = append(buf, byte(c))
	}
	for _, c := range g.boxColors {
		buf = append(buf, byte(c))
	}
	_, _ = digest.Write(buf)
	return digest.Sum64()
}

// Rows returns the number of rows.
func (g *GridWorld) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *GridWorld) Cols() int { return g.cols }

// Size returns rows*cols.
func (g *GridWorld) Size() int { return g.rows * g.cols }

// InBounds reports whether p lies inside the grid.
func (g *GridWorld) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// IsWall reports whether p is a wall. Cells outside the grid count as walls.
func (g *GridWorld) IsWall(p Position) bool {
	if !g.InBounds(p) {
		return true
	}
	return g.walls[g.Index(p)]
}

// Index maps an in-bounds position to its row-major offset.
func (g *GridWorld) Index(p Position) int {
	return p.Row*g.cols + p.Col
}

// PositionOf is the inverse of Index.
func (g *GridWorld) PositionOf(index int) Position {
	return Position{Row: index / g.cols, Col: index % g.cols}
}

// AgentColor returns the colour of agent id, or ColorNone if unknown.
func (g *GridWorld) AgentColor(id AgentID) Color {
	if id < 0 || int(id) >= MaxAgents {
		return ColorNone
	}
	return g.agentColors[id]
}

// BoxColor returns the colour of a box letter, or ColorNone if unknown.
func (g *GridWorld) BoxColor(box byte) Color {
	if !IsBoxLetter(box) {
		return ColorNone
	}
	return g.boxColors[box-'A']
}

// Fingerprint is a hash of the walls and colour tables.
func (g *GridWorld) Fingerprint() uint64 { return g.fingerprint }

// Equal reports whether both worlds share the same layout and colours.
func (g *GridWorld) Equal(other *GridWorld) bool {
	if g == other {
		return true
	}
	if g == nil || other == nil {
		return false
	}
	if g.fingerprint != other.fingerprint || g.rows != other.rows || g.cols != other.cols {
		return false
	}
	if g.agentColors != other.agentColors || g.boxColors != other.boxColors {
		return false
	}
	for i := range g.walls {
		if g.walls[i] != other.walls[i] {
			return false
		}
	}
	return true
}

// IsBoxLetter reports whether b names a box.
func IsBoxLetter(b byte) bool { return b >= 'A' && b <= 'Z' }

// IsAgentDigit reports whether b names an agent.
func IsAgentDigit(b byte) bool { return b >= '0' && b <= '9' }
