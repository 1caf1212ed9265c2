package heuristic

import (
	"fmt"

	"github.com/pdrpinto/mapf/world"
)

// Priority orders frontier states, Primary first. Lower is better.
type Priority struct {
	Primary   int
	Secondary int
}

// Less compares lexicographically.
func (p Priority) Less(other Priority) bool {
	if p.Primary != other.Primary {
		return p.Primary < other.Primary
	}
	return p.Secondary < other.Secondary
}

// Evaluator assigns a priority to a state as it enters the frontier.
type Evaluator interface {
	Evaluate(s *world.State) Priority
	Name() string
}

// AStar orders by g+h, then h.
type AStar struct{ Engine *Engine }

func (a AStar) Evaluate(s *world.State) Priority {
	h := a.Engine.H(s)
	return Priority{Primary: s.Depth() + h, Secondary: h}
}

func (AStar) Name() string { return "A*" }

// WeightedAStar orders by g+w*h, then h.
type WeightedAStar struct {
	Engine *Engine
	Weight int
}

func (a WeightedAStar) Evaluate(s *world.State) Priority {
	h := a.Engine.H(s)
	return Priority{Primary: s.Depth() + a.Weight*h, Secondary: h}
}

func (a WeightedAStar) Name() string { return fmt.Sprintf("WA*(%d)", a.Weight) }

// Greedy orders by h alone.
type Greedy struct{ Engine *Engine }

func (g Greedy) Evaluate(s *world.State) Priority {
	return Priority{Primary: g.Engine.H(s)}
}

func (Greedy) Name() string { return "greedy" }

// Width orders by novelty w, then h. Evaluating only reads History.
type Width struct {
	Engine  *Engine
	History History
}

func (b Width) Evaluate(s *world.State) Priority {
	return Priority{Primary: b.Engine.W(b.History, s), Secondary: b.Engine.H(s)}
}

func (Width) Name() string { return "best-first width" }
