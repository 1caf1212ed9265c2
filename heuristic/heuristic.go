// Package heuristic maps states to search priorities: goal distance fields,
// the box/agent estimate h and the novelty rank w.
package heuristic

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdrpinto/mapf/world"
)

// Engine holds the distance fields of one agent's goal cells. It only reads
// the immutable grid and goal layout, so one Engine may serve many
// searches concurrently.
type Engine struct {
	world     *world.GridWorld
	fields    map[world.Position]DistanceField
	boxGoals  []world.GoalCell
	agentGoal world.GoalCell
	hasAgent  bool
}

// New precomputes a distance field for every goal cell of initial.
func New(initial *world.State) *Engine {
	engine := &Engine{
		world:  initial.World(),
		fields: make(map[world.Position]DistanceField, len(initial.Goals())),
	}
	for _, goal := range initial.Goals() {
		if world.IsAgentDigit(goal.Letter) {
			engine.agentGoal = goal
			engine.hasAgent = true
		} else {
			engine.boxGoals = append(engine.boxGoals, goal)
		}
	}

	var (
		group errgroup.Group
		mutex sync.Mutex
	)
	group.SetLimit(runtime.NumCPU())
	for _, goal := range initial.Goals() {
		group.Go(func() error {
			field := Flood(engine.world, goal.Pos)
			mutex.Lock()
			engine.fields[goal.Pos] = field
			mutex.Unlock()
			return nil
		})
	}
	_ = group.Wait()
	return engine
}

// Distance returns the precomputed distance from p to goal.
func (e *Engine) Distance(goal, p world.Position) int {
	field, ok := e.fields[goal]
	if !ok {
		return Unreachable
	}
	return field.At(e.world, p)
}

// H estimates the remaining cost of s. With box goals it sums the distance
// of each goal's matched box and adds the Manhattan distance from the agent
// to the nearest misplaced box; once every box is placed the agent's own
// goal distance is added. Goal states score 0.
func (e *Engine) H(s *world.State) int {
	agentPos := s.AgentPosition()
	boxes := s.Atoms().Boxes()
	used := make([]bool, len(boxes))
	matched := make([]int, len(e.boxGoals))

	// boxes already on a goal of their letter stay matched to it
	for g, goal := range e.boxGoals {
		matched[g] = -1
		for b, box := range boxes {
			if !used[b] && box.Pos == goal.Pos && box.Name == goal.Letter {
				matched[g] = b
				used[b] = true
				break
			}
		}
	}

	total := 0
	nearest := Unreachable
	for g, goal := range e.boxGoals {
		if matched[g] >= 0 {
			continue
		}
		best, bestDistance := -1, Unreachable+1
		for b, box := range boxes {
			if used[b] || box.Name != goal.Letter {
				continue
			}
			if d := e.Distance(goal.Pos, box.Pos); d < bestDistance {
				best, bestDistance = b, d
			}
		}
		if best < 0 {
			total += Unreachable
			continue
		}
		used[best] = true
		total += bestDistance
		if d := agentPos.Manhattan(boxes[best].Pos) - 1; d < nearest {
			nearest = d
		}
	}

	if nearest != Unreachable {
		return total + max(nearest, 0)
	}
	if e.hasAgent {
		total += e.Distance(e.agentGoal.Pos, agentPos)
	}
	return total
}

// W returns how often the atom set of s was recorded in history. Novel
// states score 0. The search records a state when it expands it.
func (e *Engine) W(history History, s *world.State) int {
	return history.Seen(s.Atoms())
}
