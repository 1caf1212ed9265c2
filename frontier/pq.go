package frontier

import (
	"github.com/pdrpinto/mapf/heuristic"
	"github.com/pdrpinto/mapf/world"
)

type PriorityQueueItem struct {
	State    *world.State
	Priority heuristic.Priority
	Sequence uint64
}

// PriorityQueue is a container/heap over frontier items. Equal priorities
// pop in insertion order.
type PriorityQueue []*PriorityQueueItem

func (queue PriorityQueue) Len() int { return len(queue) }
func (queue PriorityQueue) Less(i, j int) bool {
	if queue[i].Priority != queue[j].Priority {
		return queue[i].Priority.Less(queue[j].Priority)
	}
	return queue[i].Sequence < queue[j].Sequence
}
func (queue PriorityQueue) Swap(i, j int) {
	queue[i], queue[j] = queue[j], queue[i]
}

func (queue *PriorityQueue) Push(x any) {
	*queue = append(*queue, x.(*PriorityQueueItem))
}

func (queue *PriorityQueue) Pop() any {
	oldQueue := *queue
	n := len(oldQueue)
	item := oldQueue[n-1]
	oldQueue[n-1] = nil
	*queue = oldQueue[:n-1]
	return item
}
