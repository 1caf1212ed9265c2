package search

import (
	"fmt"
	"strings"

	"github.com/pdrpinto/mapf/frontier"
	"github.com/pdrpinto/mapf/heuristic"
	"github.com/pdrpinto/mapf/world"
)

// Strategy selects the frontier of a low-level search.
type Strategy int

const (
	BFS Strategy = iota
	DFS
	AStar
	WeightedAStar
	Greedy
	BestFirstWidth
)

// DefaultWeight is the weight of WeightedAStar when none is configured.
const DefaultWeight = 5

var strategyNames = [...]string{
	BFS:            "bfs",
	DFS:            "dfs",
	AStar:          "astar",
	WeightedAStar:  "wastar",
	Greedy:         "greedy",
	BestFirstWidth: "bfws",
}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// ParseStrategy accepts the names printed by String, with or without
// leading dashes ("-bfws" and "bfws" both work).
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimLeft(strings.TrimSpace(name), "-"))
	for i, candidate := range strategyNames {
		if candidate == name {
			return Strategy(i), nil
		}
	}
	return BFS, fmt.Errorf("unknown strategy %q (want one of %s)", name, strings.Join(strategyNames[:], ", "))
}

// newFrontier builds the frontier for strategy. The novelty history is
// returned for best-first width and is nil otherwise.
func newFrontier(strategy Strategy, weight int, initial *world.State) (frontier.Frontier, heuristic.History, error) {
	switch strategy {
	case BFS:
		return frontier.NewBFS(), nil, nil
	case DFS:
		return frontier.NewDFS(), nil, nil
	case AStar:
		return frontier.NewBestFirst(heuristic.AStar{Engine: heuristic.New(initial)}), nil, nil
	case WeightedAStar:
		if weight <= 0 {
			weight = DefaultWeight
		}
		return frontier.NewBestFirst(heuristic.WeightedAStar{Engine: heuristic.New(initial), Weight: weight}), nil, nil
	case Greedy:
		return frontier.NewBestFirst(heuristic.Greedy{Engine: heuristic.New(initial)}), nil, nil
	case BestFirstWidth:
		history := heuristic.NewHistory()
		return frontier.NewBestFirstWidth(heuristic.New(initial), history), history, nil
	default:
		return nil, nil, fmt.Errorf("unknown strategy %d", int(strategy))
	}
}
