package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdrpinto/mapf/world"
)

// gridFrom builds a world from rows where '+' marks a wall.
func gridFrom(t *testing.T, rows ...string) *world.GridWorld {
	t.Helper()
	walls := make([][]bool, len(rows))
	for r, row := range rows {
		walls[r] = make([]bool, len(row))
		for c := range row {
			walls[r][c] = row[c] == '+'
		}
	}
	w, err := world.NewGridWorld(walls, [world.MaxAgents]world.Color{}, [world.MaxBoxes]world.Color{})
	require.NoError(t, err)
	return w
}

func TestFloodGoesAroundWalls(t *testing.T) {
	w := gridFrom(t,
		"   ",
		"++ ",
		"   ",
	)
	field := Flood(w, world.Position{Row: 2, Col: 0})

	assert.Equal(t, 0, field.At(w, world.Position{Row: 2, Col: 0}))
	assert.Equal(t, 2, field.At(w, world.Position{Row: 2, Col: 2}))
	assert.Equal(t, 6, field.At(w, world.Position{Row: 0, Col: 0}))
	assert.Equal(t, Unreachable, field.At(w, world.Position{Row: 1, Col: 0}))
	assert.Equal(t, Unreachable, field.At(w, world.Position{Row: 5, Col: 5}))
}

func TestHPathfinding(t *testing.T) {
	w := gridFrom(t, "   ", "   ", "   ")
	s, err := world.NewState(w, 0, world.Position{}, nil, map[world.Position]byte{{Row: 2, Col: 2}: '0'})
	require.NoError(t, err)
	engine := New(s)

	assert.Equal(t, 4, engine.H(s))
	assert.Equal(t, 3, engine.H(s.Transition(world.Move(world.East))))

	end := s.Transition(world.Move(world.East)).Transition(world.Move(world.East)).
		Transition(world.Move(world.South)).Transition(world.Move(world.South))
	require.True(t, end.IsGoal())
	assert.Equal(t, 0, engine.H(end))
}

func TestHWithBoxes(t *testing.T) {
	w := gridFrom(t, "     ")
	s, err := world.NewState(w, 0, world.Position{Row: 0, Col: 0},
		map[world.Position]byte{{Row: 0, Col: 2}: 'A'},
		map[world.Position]byte{{Row: 0, Col: 4}: 'A'})
	require.NoError(t, err)
	engine := New(s)

	// box is 2 from its goal, agent 1 step from being adjacent
	assert.Equal(t, 3, engine.H(s))

	pushed := s.Transition(world.Move(world.East)).Transition(world.Push(world.East, world.East))
	assert.Equal(t, 1, engine.H(pushed))

	done := pushed.Transition(world.Push(world.East, world.East))
	require.True(t, done.IsGoal())
	assert.Equal(t, 0, engine.H(done))
}

func TestHMissingBoxIsUnreachable(t *testing.T) {
	w := gridFrom(t, "   ")
	s, err := world.NewState(w, 0, world.Position{}, nil, map[world.Position]byte{{Row: 0, Col: 2}: 'B'})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, New(s).H(s), Unreachable)
}

func TestNovelty(t *testing.T) {
	w := gridFrom(t, "  ")
	s, err := world.NewState(w, 0, world.Position{}, nil, nil)
	require.NoError(t, err)
	engine := New(s)
	history := NewHistory()

	assert.Equal(t, 0, engine.W(history, s))
	assert.Equal(t, 0, engine.W(history, s), "evaluating does not record")

	assert.Equal(t, 0, history.Record(s.Atoms()))
	assert.Equal(t, 1, engine.W(history, s.Transition(world.NoOp)))
	assert.Equal(t, 0, engine.W(history, s.Transition(world.Move(world.East))))
	assert.Equal(t, 1, history.Seen(s.Atoms()))
}

func TestEvaluators(t *testing.T) {
	w := gridFrom(t, "    ")
	s, err := world.NewState(w, 0, world.Position{}, nil, map[world.Position]byte{{Row: 0, Col: 3}: '0'})
	require.NoError(t, err)
	engine := New(s)
	child := s.Transition(world.Move(world.East))

	assert.Equal(t, Priority{Primary: 3, Secondary: 2}, AStar{Engine: engine}.Evaluate(child))
	assert.Equal(t, Priority{Primary: 11, Secondary: 2}, WeightedAStar{Engine: engine, Weight: 5}.Evaluate(child))
	assert.Equal(t, Priority{Primary: 2}, Greedy{Engine: engine}.Evaluate(child))

	width := Width{Engine: engine, History: NewHistory()}
	assert.Equal(t, Priority{Primary: 0, Secondary: 2}, width.Evaluate(child))
	assert.Equal(t, Priority{Primary: 0, Secondary: 2}, width.Evaluate(child))
	width.History.Record(child.Atoms())
	assert.Equal(t, Priority{Primary: 1, Secondary: 2}, width.Evaluate(child))

	assert.True(t, Priority{Primary: 1, Secondary: 9}.Less(Priority{Primary: 2}))
	assert.True(t, Priority{Primary: 1, Secondary: 1}.Less(Priority{Primary: 1, Secondary: 2}))
	assert.False(t, Priority{Primary: 1}.Less(Priority{Primary: 1}))
}
