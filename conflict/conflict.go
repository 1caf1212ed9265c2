// Package conflict detects spatio-temporal clashes between single-agent
// paths and turns them into constraints.
package conflict

import (
	"fmt"

	"github.com/pdrpinto/mapf/world"
)

// Kind names a conflict variant.
type Kind int

const (
	KindVertex Kind = iota
	KindEdge
	KindFollow
	KindBoxBox
	KindMixed
)

func (k Kind) String() string {
	return [...]string{"vertex", "edge", "follow", "box_box", "mixed"}[k]
}

// Conflict is a clash between two agents at a timestep t >= 1. The set of
// variants is closed.
type Conflict interface {
	Kind() Kind
	Agents() [2]world.AgentID
	Locations() []world.Position
	Time() int
	// ConstraintFor returns the constraint that resolves the conflict on
	// agent's side. The bool is false when the constraint would fall before
	// timestep 1, which leaves that branch without a resolution. It panics
	// for an agent not involved in the conflict.
	ConstraintFor(agent world.AgentID) (world.Constraint, bool)
	String() string

	conflict()
}

func uninvolved(c Conflict, agent world.AgentID) string {
	return fmt.Sprintf("conflict: agent %d is not part of %s", agent, c)
}

// earlier moves a leader's constraint one step back. Constraints before
// timestep 1 cannot be honoured.
func earlier(t int) (int, bool) {
	return t - 1, t-1 >= 1
}

// VertexConflict: both agents occupy Location at Timestep.
type VertexConflict struct {
	A, B     world.AgentID
	Location world.Position
	Timestep int
}

func (c VertexConflict) Kind() Kind                  { return KindVertex }
func (c VertexConflict) Agents() [2]world.AgentID    { return [2]world.AgentID{c.A, c.B} }
func (c VertexConflict) Locations() []world.Position { return []world.Position{c.Location} }
func (c VertexConflict) Time() int                   { return c.Timestep }

func (c VertexConflict) ConstraintFor(agent world.AgentID) (world.Constraint, bool) {
	if agent != c.A && agent != c.B {
		panic(uninvolved(c, agent))
	}
	return world.PositionConstraint{Agent: agent, Location: c.Location, Timestep: c.Timestep}, true
}

func (c VertexConflict) String() string {
	return fmt.Sprintf("vertex conflict: agents %d and %d at %s, t=%d", c.A, c.B, c.Location, c.Timestep)
}

func (VertexConflict) conflict() {}

// EdgeConflict: A moves CellA -> CellB while B moves CellB -> CellA.
type EdgeConflict struct {
	A, B         world.AgentID
	CellA, CellB world.Position
	Timestep     int
}

func (c EdgeConflict) Kind() Kind                  { return KindEdge }
func (c EdgeConflict) Agents() [2]world.AgentID    { return [2]world.AgentID{c.A, c.B} }
func (c EdgeConflict) Locations() []world.Position { return []world.Position{c.CellA, c.CellB} }
func (c EdgeConflict) Time() int                   { return c.Timestep }

func (c EdgeConflict) ConstraintFor(agent world.AgentID) (world.Constraint, bool) {
	switch agent {
	case c.A:
		return world.EdgeConstraint{Agent: agent, From: c.CellA, To: c.CellB, Timestep: c.Timestep}, true
	case c.B:
		return world.EdgeConstraint{Agent: agent, From: c.CellB, To: c.CellA, Timestep: c.Timestep}, true
	}
	panic(uninvolved(c, agent))
}

func (c EdgeConflict) String() string {
	return fmt.Sprintf("edge conflict: agents %d and %d swap %s<->%s, t=%d", c.A, c.B, c.CellA, c.CellB, c.Timestep)
}

func (EdgeConflict) conflict() {}

// FollowConflict: Follower enters Location at Timestep, the cell Leader
// left at Timestep-1.
type FollowConflict struct {
	Follower, Leader world.AgentID
	Location         world.Position
	Timestep         int
}

func (c FollowConflict) Kind() Kind                  { return KindFollow }
func (c FollowConflict) Agents() [2]world.AgentID    { return [2]world.AgentID{c.Follower, c.Leader} }
func (c FollowConflict) Locations() []world.Position { return []world.Position{c.Location} }
func (c FollowConflict) Time() int                   { return c.Timestep }

func (c FollowConflict) ConstraintFor(agent world.AgentID) (world.Constraint, bool) {
	switch agent {
	case c.Follower:
		return world.PositionConstraint{Agent: agent, Location: c.Location, Timestep: c.Timestep}, true
	case c.Leader:
		t, ok := earlier(c.Timestep)
		if !ok {
			return nil, false
		}
		return world.PositionConstraint{Agent: agent, Location: c.Location, Timestep: t}, true
	}
	panic(uninvolved(c, agent))
}

func (c FollowConflict) String() string {
	return fmt.Sprintf("follow conflict: agent %d follows agent %d into %s, t=%d", c.Follower, c.Leader, c.Location, c.Timestep)
}

func (FollowConflict) conflict() {}

// BoxBoxConflict: box BoxA of agent A and box BoxB of agent B clash at
// Location. With Follow set, BoxA enters the cell BoxB held at Timestep-1.
type BoxBoxConflict struct {
	A, B       world.AgentID
	BoxA, BoxB byte
	Location   world.Position
	Timestep   int
	Follow     bool
}

func (c BoxBoxConflict) Kind() Kind                  { return KindBoxBox }
func (c BoxBoxConflict) Agents() [2]world.AgentID    { return [2]world.AgentID{c.A, c.B} }
func (c BoxBoxConflict) Locations() []world.Position { return []world.Position{c.Location} }
func (c BoxBoxConflict) Time() int                   { return c.Timestep }

func (c BoxBoxConflict) ConstraintFor(agent world.AgentID) (world.Constraint, bool) {
	switch agent {
	case c.A:
		return world.BoxConstraint{Agent: agent, Box: c.BoxA, Location: c.Location, Timestep: c.Timestep}, true
	case c.B:
		t := c.Timestep
		if c.Follow {
			var ok bool
			if t, ok = earlier(c.Timestep); !ok {
				return nil, false
			}
		}
		return world.BoxConstraint{Agent: agent, Box: c.BoxB, Location: c.Location, Timestep: t}, true
	}
	panic(uninvolved(c, agent))
}

func (c BoxBoxConflict) String() string {
	verb := "collides with"
	if c.Follow {
		verb = "follows"
	}
	return fmt.Sprintf("box conflict: box %c of agent %d %s box %c of agent %d at %s, t=%d",
		c.BoxA, c.A, verb, c.BoxB, c.B, c.Location, c.Timestep)
}

func (BoxBoxConflict) conflict() {}

// Leader says which party of a MixedConflict held Location first.
type Leader int

const (
	// LeaderNone: agent and box are in Location at the same time.
	LeaderNone Leader = iota
	// LeaderAgent: the box enters the cell the agent left.
	LeaderAgent
	// LeaderBox: the agent enters the cell the box left.
	LeaderBox
)

// MixedConflict: Agent's body and box Box of BoxOwner clash at Location.
type MixedConflict struct {
	Agent    world.AgentID
	BoxOwner world.AgentID
	Box      byte
	Location world.Position
	Timestep int
	Leader   Leader
}

func (c MixedConflict) Kind() Kind                  { return KindMixed }
func (c MixedConflict) Agents() [2]world.AgentID    { return [2]world.AgentID{c.Agent, c.BoxOwner} }
func (c MixedConflict) Locations() []world.Position { return []world.Position{c.Location} }
func (c MixedConflict) Time() int                   { return c.Timestep }

func (c MixedConflict) ConstraintFor(agent world.AgentID) (world.Constraint, bool) {
	t := c.Timestep
	switch agent {
	case c.Agent:
		if c.Leader == LeaderAgent {
			var ok bool
			if t, ok = earlier(c.Timestep); !ok {
				return nil, false
			}
		}
		return world.PositionConstraint{Agent: agent, Location: c.Location, Timestep: t}, true
	case c.BoxOwner:
		if c.Leader == LeaderBox {
			var ok bool
			if t, ok = earlier(c.Timestep); !ok {
				return nil, false
			}
		}
		return world.BoxConstraint{Agent: agent, Box: c.Box, Location: c.Location, Timestep: t}, true
	}
	panic(uninvolved(c, agent))
}

func (c MixedConflict) String() string {
	relation := "meets"
	switch c.Leader {
	case LeaderAgent:
		relation = "is followed by"
	case LeaderBox:
		relation = "follows"
	}
	return fmt.Sprintf("mixed conflict: agent %d %s box %c of agent %d at %s, t=%d",
		c.Agent, relation, c.Box, c.BoxOwner, c.Location, c.Timestep)
}

func (MixedConflict) conflict() {}
