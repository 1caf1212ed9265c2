package frontier

import (
	"container/heap"

	"github.com/pdrpinto/mapf/heuristic"
	"github.com/pdrpinto/mapf/world"
)

// BestFirst pops the state with the lowest evaluator priority. Each state
// is evaluated once, when added.
type BestFirst struct {
	evaluator heuristic.Evaluator
	openSet   PriorityQueue
	members   *world.StateSet
	sequence  uint64
}

// NewBestFirst returns an empty frontier ordered by evaluator.
func NewBestFirst(evaluator heuristic.Evaluator) *BestFirst {
	f := &BestFirst{
		evaluator: evaluator,
		openSet:   make(PriorityQueue, 0),
		members:   world.NewStateSet(),
	}
	heap.Init(&f.openSet)
	return f
}

// NewBestFirstWidth returns a frontier ordered by (novelty, h). history is
// updated every time a state is added.
func NewBestFirstWidth(engine *heuristic.Engine, history heuristic.History) *BestFirst {
	return NewBestFirst(heuristic.Width{Engine: engine, History: history})
}

func (f *BestFirst) Add(s *world.State) {
	heap.Push(&f.openSet, &PriorityQueueItem{
		State:    s,
		Priority: f.evaluator.Evaluate(s),
		Sequence: f.sequence,
	})
	f.sequence++
	f.members.Add(s)
}

func (f *BestFirst) Pop() (*world.State, error) {
	if f.openSet.Len() == 0 {
		return nil, ErrEmptyFrontier
	}
	item := heap.Pop(&f.openSet).(*PriorityQueueItem)
	f.members.Remove(item.State)
	return item.State, nil
}

func (f *BestFirst) Contains(s *world.State) bool { return f.members.Contains(s) }
func (f *BestFirst) Size() int                    { return f.openSet.Len() }
func (f *BestFirst) Name() string                 { return "best-first search using " + f.evaluator.Name() }
