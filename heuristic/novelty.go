package heuristic

import "github.com/pdrpinto/mapf/world"

// History counts the atom sets a search has seen. It is owned by a single
// search and is not safe for concurrent use.
type History map[string]int

// NewHistory returns an empty history.
func NewHistory() History { return make(History) }

// Record stores atoms and returns the count seen before this call.
func (h History) Record(atoms world.Atoms) int {
	key := atoms.Key()
	seen := h[key]
	h[key] = seen + 1
	return seen
}

// Seen returns how many times atoms were recorded.
func (h History) Seen(atoms world.Atoms) int {
	return h[atoms.Key()]
}
