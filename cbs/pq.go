package cbs

type openItem struct {
	Node     *Node
	Sequence uint64
}

// openQueue is a container/heap of CBS nodes ordered by (Cost, Sequence).
type openQueue []*openItem

func (queue openQueue) Len() int { return len(queue) }
func (queue openQueue) Less(i, j int) bool {
	if queue[i].Node.Cost != queue[j].Node.Cost {
		return queue[i].Node.Cost.Less(queue[j].Node.Cost)
	}
	return queue[i].Sequence < queue[j].Sequence
}
func (queue openQueue) Swap(i, j int) {
	queue[i], queue[j] = queue[j], queue[i]
}

func (queue *openQueue) Push(x any) {
	*queue = append(*queue, x.(*openItem))
}

func (queue *openQueue) Pop() any {
	oldQueue := *queue
	n := len(oldQueue)
	item := oldQueue[n-1]
	oldQueue[n-1] = nil
	*queue = oldQueue[:n-1]
	return item
}
