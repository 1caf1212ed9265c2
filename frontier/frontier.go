// Package frontier holds the open lists of the low-level search.
package frontier

import (
	"errors"

	"github.com/pdrpinto/mapf/world"
)

// ErrEmptyFrontier is returned by Pop on an empty frontier.
var ErrEmptyFrontier = errors.New("frontier is empty")

// Frontier is an open list of states. Membership follows State equality.
type Frontier interface {
	Add(s *world.State)
	Pop() (*world.State, error)
	Contains(s *world.State) bool
	Size() int
	Name() string
}

// BFS is a first-in first-out frontier.
type BFS struct {
	queue   []*world.State
	head    int
	members *world.StateSet
}

// NewBFS returns an empty breadth-first frontier.
func NewBFS() *BFS { return &BFS{members: world.NewStateSet()} }

func (f *BFS) Add(s *world.State) {
	f.queue = append(f.queue, s)
	f.members.Add(s)
}

func (f *BFS) Pop() (*world.State, error) {
	if f.head == len(f.queue) {
		return nil, ErrEmptyFrontier
	}
	s := f.queue[f.head]
	f.queue[f.head] = nil
	f.head++
	if f.head > 1024 && f.head*2 > len(f.queue) {
		f.queue = append([]*world.State(nil), f.queue[f.head:]...)
		f.head = 0
	}
	f.members.Remove(s)
	return s, nil
}

func (f *BFS) Contains(s *world.State) bool { return f.members.Contains(s) }
func (f *BFS) Size() int                    { return len(f.queue) - f.head }
func (f *BFS) Name() string                 { return "breadth-first search" }

// DFS is a last-in first-out frontier.
type DFS struct {
	stack   []*world.State
	members *world.StateSet
}

// NewDFS returns an empty depth-first frontier.
func NewDFS() *DFS { return &DFS{members: world.NewStateSet()} }

func (f *DFS) Add(s *world.State) {
	f.stack = append(f.stack, s)
	f.members.Add(s)
}

func (f *DFS) Pop() (*world.State, error) {
	if len(f.stack) == 0 {
		return nil, ErrEmptyFrontier
	}
	s := f.stack[len(f.stack)-1]
	f.stack[len(f.stack)-1] = nil
	f.stack = f.stack[:len(f.stack)-1]
	f.members.Remove(s)
	return s, nil
}

func (f *DFS) Contains(s *world.State) bool { return f.members.Contains(s) }
func (f *DFS) Size() int                    { return len(f.stack) }
func (f *DFS) Name() string                 { return "depth-first search" }
