package cbs

import (
	"slices"

	"github.com/google/uuid"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/pdrpinto/mapf/conflict"
	"github.com/pdrpinto/mapf/world"
)

// Node is a joint plan under a set of constraints. Per-agent slices are
// indexed by the agent's position in the solver's agent list, and their
// elements are shared with the parent: a child only replaces the entries
// of the agent it replanned.
type Node struct {
	// ID labels the node in logs and traces. It takes no part in equality.
	ID          uuid.UUID
	Plans       [][]world.Action
	Paths       []conflict.Path
	Constraints []world.ConstraintSet
	Cost        Cost
	// Trigger is the index of the agent replanned to build this node, -1 at the root.
	Trigger int
	// Replans counts, per agent, the replans on the way from the root.
	Replans []int
	// GoalConflicts counts, per agent, the resolved conflicts that sat on a goal cell.
	GoalConflicts []int
	Depth         int

	digest uint64
}

// branch returns a child sharing every per-agent entry with n.
func (n *Node) branch(agent int) *Node {
	return &Node{
		ID:            uuid.New(),
		Plans:         slices.Clone(n.Plans),
		Paths:         slices.Clone(n.Paths),
		Constraints:   slices.Clone(n.Constraints),
		Trigger:       agent,
		Replans:       slices.Clone(n.Replans),
		GoalConflicts: slices.Clone(n.GoalConflicts),
		Depth:         n.Depth + 1,
	}
}

type nodeIdentity struct {
	Trigger     int
	Constraints [][]world.ConstraintKey
	Plans       [][]world.Action
}

// seal computes the digest used by the closed set.
func (n *Node) seal() error {
	identity := nodeIdentity{Trigger: n.Trigger, Plans: n.Plans}
	identity.Constraints = make([][]world.ConstraintKey, len(n.Constraints))
	for i, set := range n.Constraints {
		identity.Constraints[i] = set.Keys()
	}
	digest, err := hashstructure.Hash(identity, hashstructure.FormatV2, nil)
	if err != nil {
		return err
	}
	n.digest = digest
	return nil
}

// equivalent reports whether both nodes have the same trigger, constraint
// sets and plans.
func (n *Node) equivalent(other *Node) bool {
	if n.digest != other.digest || n.Trigger != other.Trigger || len(n.Plans) != len(other.Plans) {
		return false
	}
	for i := range n.Plans {
		if !n.Constraints[i].Equal(other.Constraints[i]) || !slices.Equal(n.Plans[i], other.Plans[i]) {
			return false
		}
	}
	return true
}

// closedSet holds expanded nodes keyed by digest.
type closedSet map[uint64][]*Node

func (c closedSet) contains(n *Node) bool {
	for _, other := range c[n.digest] {
		if other.equivalent(n) {
			return true
		}
	}
	return false
}

func (c closedSet) add(n *Node) {
	c[n.digest] = append(c[n.digest], n)
}

func (c closedSet) size() int {
	total := 0
	for _, bucket := range c {
		total += len(bucket)
	}
	return total
}
