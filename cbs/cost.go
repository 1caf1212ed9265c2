package cbs

import (
	"fmt"
	"strings"
)

// Cost orders CBS nodes lexicographically. Unused trailing keys are zero.
type Cost [5]int

// Less compares lexicographically.
func (c Cost) Less(other Cost) bool {
	for i := range c {
		if c[i] != other[i] {
			return c[i] < other[i]
		}
	}
	return false
}

// CostModel selects how a node's Cost is computed.
type CostModel int

const (
	// CostTieBreak is (replan penalty, goal conflict rank, makespan,
	// sum of costs, constraint count). The first two keys are read for the
	// agent replanned to produce the node.
	CostTieBreak CostModel = iota
	// CostSumOfCosts is the sum of plan lengths alone.
	CostSumOfCosts
)

var costModelNames = [...]string{
	CostTieBreak:   "tiebreak",
	CostSumOfCosts: "sum-of-costs",
}

func (m CostModel) String() string {
	if m < 0 || int(m) >= len(costModelNames) {
		return fmt.Sprintf("CostModel(%d)", int(m))
	}
	return costModelNames[m]
}

// ParseCostModel maps a name printed by String back to a CostModel.
func ParseCostModel(name string) (CostModel, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range costModelNames {
		if candidate == name {
			return CostModel(i), nil
		}
	}
	return CostTieBreak, fmt.Errorf("unknown cost model %q", name)
}

func (m CostModel) cost(n *Node) Cost {
	makespan, sumOfCosts, constraints := 0, 0, 0
	for i, plan := range n.Plans {
		makespan = max(makespan, len(plan))
		sumOfCosts += len(plan)
		constraints += n.Constraints[i].Len()
	}
	if m == CostSumOfCosts {
		return Cost{sumOfCosts}
	}

	replanPenalty, goalRank := 0, 0
	if n.Trigger >= 0 {
		replanPenalty = n.Replans[n.Trigger]
		goalRank = n.GoalConflicts[n.Trigger]
	}
	return Cost{replanPenalty, goalRank, makespan, sumOfCosts, constraints}
}
