package world

import (
	"encoding/binary"
	"strings"
)

// AtomKind tells agent facts from box facts.
type AtomKind uint8

const (
	AgentAt AtomKind = iota
	BoxAt
)

// Atom is a single fact of a state: an agent or a box at a position.
type Atom struct {
	Kind AtomKind
	Name byte
	Pos  Position
}

// Label renders the fact name, e.g. "AgentAt0" or "BoxAtA".
func (a Atom) Label() string {
	if a.Kind == AgentAt {
		return "AgentAt" + string(a.Name)
	}
	return "BoxAt" + string(a.Name)
}

func (a Atom) String() string {
	return a.Label() + a.Pos.String()
}

// Atoms is the canonical fact set of a state: the agent atom first, then
// box atoms in row-major order. It must not be modified.
type Atoms []Atom

// AgentPosition returns the position of the agent atom.
func (a Atoms) AgentPosition() Position {
	if len(a) == 0 || a[0].Kind != AgentAt {
		panic("world: atom set without agent")
	}
	return a[0].Pos
}

// Agent returns the agent atom.
func (a Atoms) Agent() Atom {
	if len(a) == 0 || a[0].Kind != AgentAt {
		panic("world: atom set without agent")
	}
	return a[0]
}

// Boxes returns the box atoms.
func (a Atoms) Boxes() []Atom {
	if len(a) <= 1 {
		return nil
	}
	return a[1:]
}

// Equal reports whether both sets hold the same facts.
func (a Atoms) Equal(other Atoms) bool {
	if len(a) != len(other) {
		return false
	}
	for i := range a {
		if a[i] != other[i] {
			return false
		}
	}
	return true
}

// Key is a compact string identifying the fact set, usable as a map key.
func (a Atoms) Key() string {
	buf := make([]byte, 0, len(a)*6)
	for _, atom := range a {
		buf = append(buf, byte(atom.Kind), atom.Name)
		buf = binary.AppendVarint(buf, int64(atom.Pos.Row))
		buf = binary.AppendVarint(buf, int64(atom.Pos.Col))
	}
	return string(buf)
}

func (a Atoms) String() string {
	parts := make([]string, len(a))
	for i, atom := range a {
		parts[i] = atom.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}
