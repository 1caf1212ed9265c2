package frontier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdrpinto/mapf/heuristic"
	"github.com/pdrpinto/mapf/world"
)

func corridor(t *testing.T, length int) *world.State {
	t.Helper()
	w, err := world.NewGridWorld([][]bool{make([]bool, length)}, [world.MaxAgents]world.Color{}, [world.MaxBoxes]world.Color{})
	require.NoError(t, err)
	s, err := world.NewState(w, 0, world.Position{}, nil, map[world.Position]byte{{Row: 0, Col: length - 1}: '0'})
	require.NoError(t, err)
	return s
}

func TestEmptyFrontiers(t *testing.T) {
	engine := heuristic.New(corridor(t, 2))
	for _, f := range []Frontier{NewBFS(), NewDFS(), NewBestFirst(heuristic.Greedy{Engine: engine})} {
		t.Run(f.Name(), func(t *testing.T) {
			_, err := f.Pop()
			assert.ErrorIs(t, err, ErrEmptyFrontier)
			assert.Zero(t, f.Size())
		})
	}
}

func TestBFSAndDFSOrder(t *testing.T) {
	root := corridor(t, 4)
	a := root.Transition(world.Move(world.East))
	b := a.Transition(world.Move(world.East))

	bfs, dfs := NewBFS(), NewDFS()
	for _, s := range []*world.State{root, a, b} {
		bfs.Add(s)
		dfs.Add(s)
	}
	assert.True(t, bfs.Contains(root.Transition(world.NoOp)), "membership by equality")

	for _, want := range []*world.State{root, a, b} {
		got, err := bfs.Pop()
		require.NoError(t, err)
		assert.Same(t, want, got)
	}
	for _, want := range []*world.State{b, a, root} {
		got, err := dfs.Pop()
		require.NoError(t, err)
		assert.Same(t, want, got)
	}
	assert.False(t, bfs.Contains(root))
}

type flatEvaluator struct{}

func (flatEvaluator) Evaluate(*world.State) heuristic.Priority { return heuristic.Priority{} }
func (flatEvaluator) Name() string                             { return "flat" }

func TestBestFirstOrder(t *testing.T) {
	root := corridor(t, 5)
	near := root.Transition(world.Move(world.East))
	far := near.Transition(world.Move(world.East))

	f := NewBestFirst(heuristic.AStar{Engine: heuristic.New(root)})
	f.Add(root)
	f.Add(near)
	f.Add(far)
	require.Equal(t, 3, f.Size())

	// equal g+h along the corridor, so lower h wins
	for _, want := range []*world.State{far, near, root} {
		got, err := f.Pop()
		require.NoError(t, err)
		assert.Same(t, want, got)
	}
}

func TestBestFirstTieBreakIsInsertionOrder(t *testing.T) {
	root := corridor(t, 5)
	near := root.Transition(world.Move(world.East))
	far := near.Transition(world.Move(world.East))

	f := NewBestFirst(flatEvaluator{})
	f.Add(far)
	f.Add(root)
	f.Add(near)
	for _, want := range []*world.State{far, root, near} {
		got, err := f.Pop()
		require.NoError(t, err)
		assert.Same(t, want, got)
	}
}

func TestBestFirstWidthPrefersNovelty(t *testing.T) {
	root := corridor(t, 5)
	engine := heuristic.New(root)
	history := heuristic.NewHistory()
	f := NewBestFirstWidth(engine, history)

	history.Record(root.Atoms())
	closer := root.Transition(world.Move(world.East))
	f.Add(root.Transition(world.NoOp))
	f.Add(closer)

	got, err := f.Pop()
	require.NoError(t, err)
	assert.Same(t, closer, got, "novel state first")
	assert.Contains(t, f.Name(), "width")
}
