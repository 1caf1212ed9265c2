package world

import (
	"cmp"
	"fmt"
	"slices"
)

// ConstraintKind tells the constraint variants apart.
type ConstraintKind uint8

const (
	KindPosition ConstraintKind = iota
	KindBox
	KindEdge
)

func (k ConstraintKind) String() string {
	return [...]string{"position", "box", "edge"}[k]
}

// ConstraintKey identifies a constraint. Two constraints with the same key
// are the same constraint.
type ConstraintKey struct {
	Kind     ConstraintKind
	Agent    AgentID
	Box      byte
	From     Position
	To       Position
	Timestep int
}

func (k ConstraintKey) compare(other ConstraintKey) int {
	return cmp.Or(
		cmp.Compare(k.Timestep, other.Timestep),
		cmp.Compare(k.Agent, other.Agent),
		cmp.Compare(k.Kind, other.Kind),
		cmp.Compare(k.Box, other.Box),
		cmp.Compare(k.To.Row, other.To.Row),
		cmp.Compare(k.To.Col, other.To.Col),
		cmp.Compare(k.From.Row, other.From.Row),
		cmp.Compare(k.From.Col, other.From.Col),
	)
}

// Constraint is a temporal exclusion for one agent. The set of variants is
// closed: PositionConstraint, BoxConstraint and EdgeConstraint.
type Constraint interface {
	// AgentID is the agent the constraint binds.
	AgentID() AgentID
	// Time is the timestep (state depth) at which the constraint applies.
	Time() int
	Key() ConstraintKey
	// Forbids reports whether the transition parent -> child breaks the
	// constraint. Only called when child.Depth() == Time().
	Forbids(parent, child *State) bool
	String() string

	constraint()
}

// PositionConstraint forbids Agent from occupying Location at Timestep.
type PositionConstraint struct {
	Agent    AgentID
	Location Position
	Timestep int
}

func (c PositionConstraint) AgentID() AgentID { return c.Agent }
func (c PositionConstraint) Time() int        { return c.Timestep }
func (c PositionConstraint) Key() ConstraintKey {
	return ConstraintKey{Kind: KindPosition, Agent: c.Agent, To: c.Location, Timestep: c.Timestep}
}

func (c PositionConstraint) Forbids(_, child *State) bool {
	return child.agentPos == c.Location
}

func (c PositionConstraint) String() string {
	return fmt.Sprintf("agent %d not at %s at t=%d", c.Agent, c.Location, c.Timestep)
}

func (PositionConstraint) constraint() {}

// BoxConstraint forbids any box labelled Box controlled by Agent from
// occupying Location at Timestep.
type BoxConstraint struct {
	Agent    AgentID
	Box      byte
	Location Position
	Timestep int
}

func (c BoxConstraint) AgentID() AgentID { return c.Agent }
func (c BoxConstraint) Time() int        { return c.Timestep }
func (c BoxConstraint) Key() ConstraintKey {
	return ConstraintKey{Kind: KindBox, Agent: c.Agent, Box: c.Box, To: c.Location, Timestep: c.Timestep}
}

func (c BoxConstraint) Forbids(_, child *State) bool {
	return child.BoxAt(c.Location) == c.Box
}

func (c BoxConstraint) String() string {
	return fmt.Sprintf("agent %d box %c not at %s at t=%d", c.Agent, c.Box, c.Location, c.Timestep)
}

func (BoxConstraint) constraint() {}

// EdgeConstraint forbids Agent from moving From -> To arriving at Timestep.
type EdgeConstraint struct {
	Agent    AgentID
	From     Position
	To       Position
	Timestep int
}

func (c EdgeConstraint) AgentID() AgentID { return c.Agent }
func (c EdgeConstraint) Time() int        { return c.Timestep }
func (c EdgeConstraint) Key() ConstraintKey {
	return ConstraintKey{Kind: KindEdge, Agent: c.Agent, From: c.From, To: c.To, Timestep: c.Timestep}
}

func (c EdgeConstraint) Forbids(parent, child *State) bool {
	return parent != nil && parent.agentPos == c.From && child.agentPos == c.To
}

func (c EdgeConstraint) String() string {
	return fmt.Sprintf("agent %d not %s->%s at t=%d", c.Agent, c.From, c.To, c.Timestep)
}

func (EdgeConstraint) constraint() {}

// ConstraintSet is an immutable set of constraints ordered by key.
// The zero value is the empty set.
type ConstraintSet struct {
	items []Constraint
}

// NewConstraintSet builds a set, dropping duplicates.
func NewConstraintSet(constraints ...Constraint) ConstraintSet {
	var set ConstraintSet
	for _, c := range constraints {
		set, _ = set.With(c)
	}
	return set
}

func (s ConstraintSet) search(key ConstraintKey) (int, bool) {
	return slices.BinarySearchFunc(s.items, key, func(c Constraint, k ConstraintKey) int {
		return c.Key().compare(k)
	})
}

// With returns a set that also holds c. The bool is false when c was
// already present, in which case s is returned unchanged.
func (s ConstraintSet) With(c Constraint) (ConstraintSet, bool) {
	index, found := s.search(c.Key())
	if found {
		return s, false
	}
	items := make([]Constraint, 0, len(s.items)+1)
	items = append(items, s.items[:index]...)
	items = append(items, c)
	items = append(items, s.items[index:]...)
	return ConstraintSet{items: items}, true
}

// Contains reports whether a constraint with the same key is in the set.
func (s ConstraintSet) Contains(c Constraint) bool {
	_, found := s.search(c.Key())
	return found
}

// Len returns the number of constraints.
func (s ConstraintSet) Len() int { return len(s.items) }

// Items returns the constraints in key order. The slice must not be modified.
func (s ConstraintSet) Items() []Constraint { return s.items }

// Keys returns the keys in order.
func (s ConstraintSet) Keys() []ConstraintKey {
	keys := make([]ConstraintKey, len(s.items))
	for i, c := range s.items {
		keys[i] = c.Key()
	}
	return keys
}

// ForAgent returns the subset binding agent.
func (s ConstraintSet) ForAgent(agent AgentID) ConstraintSet {
	var items []Constraint
	for _, c := range s.items {
		if c.AgentID() == agent {
			items = append(items, c)
		}
	}
	return ConstraintSet{items: items}
}

// LatestTime returns the largest timestep in the set, or -1 when empty.
func (s ConstraintSet) LatestTime() int {
	if len(s.items) == 0 {
		return -1
	}
	return s.items[len(s.items)-1].Time()
}

// Equal reports whether both sets hold the same keys.
func (s ConstraintSet) Equal(other ConstraintSet) bool {
	if len(s.items) != len(other.items) {
		return false
	}
	for i := range s.items {
		if s.items[i].Key() != other.items[i].Key() {
			return false
		}
	}
	return true
}

// constraintIndex groups a constraint set by timestep for expansion.
type constraintIndex struct {
	set    ConstraintSet
	byTime map[int][]Constraint
	latest int
}

func newConstraintIndex(set ConstraintSet) *constraintIndex {
	index := &constraintIndex{
		set:    set,
		byTime: make(map[int][]Constraint, set.Len()),
		latest: set.LatestTime(),
	}
	for _, c := range set.items {
		index.byTime[c.Time()] = append(index.byTime[c.Time()], c)
	}
	return index
}

func (ci *constraintIndex) forbids(parent, child *State) bool {
	for _, c := range ci.byTime[child.depth] {
		if c.Forbids(parent, child) {
			return true
		}
	}
	return false
}
