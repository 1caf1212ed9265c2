package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdrpinto/mapf/internal/memory"
	"github.com/pdrpinto/mapf/world"
)

// layout builds agent 0's initial state from an initial and a goal picture.
// '+' is a wall, '0' the agent, letters are boxes (initial) or box goals.
func layout(t *testing.T, initial, goal []string) *world.State {
	t.Helper()
	walls := make([][]bool, len(initial))
	boxes := make(map[world.Position]byte)
	goals := make(map[world.Position]byte)
	var start world.Position
	for r, row := range initial {
		walls[r] = make([]bool, len(row))
		for c := range row {
			p := world.Position{Row: r, Col: c}
			switch ch := row[c]; {
			case ch == '+':
				walls[r][c] = true
			case ch == '0':
				start = p
			case world.IsBoxLetter(ch):
				boxes[p] = ch
			}
		}
	}
	for r, row := range goal {
		for c := range row {
			if ch := row[c]; ch == '0' || world.IsBoxLetter(ch) {
				goals[world.Position{Row: r, Col: c}] = ch
			}
		}
	}
	w, err := world.NewGridWorld(walls, [world.MaxAgents]world.Color{}, [world.MaxBoxes]world.Color{})
	require.NoError(t, err)
	s, err := world.NewState(w, 0, start, boxes, goals)
	require.NoError(t, err)
	return s
}

// replay applies plan from initial and returns the end state.
func replay(t *testing.T, initial *world.State, plan []world.Action) *world.State {
	t.Helper()
	s := initial
	for i, action := range plan {
		require.True(t, s.IsApplicable(action), "step %d: %s", i, action)
		s = s.Transition(action)
	}
	return s
}

var allStrategies = []Strategy{BFS, DFS, AStar, WeightedAStar, Greedy, BestFirstWidth}

func TestOpenRoomShortestPlan(t *testing.T) {
	initial := layout(t,
		[]string{"0  ", "   ", "   "},
		[]string{"   ", "   ", "  0"},
	)
	result, err := Run(context.Background(), initial, Config{Strategy: BFS})
	require.NoError(t, err)

	require.Len(t, result.Plan, 4)
	south, east := 0, 0
	for _, action := range result.Plan {
		switch action {
		case world.Move(world.South):
			south++
		case world.Move(world.East):
			east++
		}
	}
	assert.Equal(t, 2, south)
	assert.Equal(t, 2, east)
	assert.True(t, replay(t, initial, result.Plan).IsGoal())
	assert.Len(t, result.Path, 5)
	assert.Equal(t, world.Position{Row: 2, Col: 2}, result.Path[4].AgentPosition())
}

func TestPushBoxAlongCorridor(t *testing.T) {
	initial := layout(t,
		[]string{
			"+++++",
			"0A   ",
		},
		[]string{
			"+++++",
			"   A ",
		},
	)
	for _, strategy := range []Strategy{BFS, AStar} {
		t.Run(strategy.String(), func(t *testing.T) {
			result, err := Run(context.Background(), initial, Config{Strategy: strategy})
			require.NoError(t, err)
			assert.Equal(t, []world.Action{
				world.Push(world.East, world.East),
				world.Push(world.East, world.East),
			}, result.Plan)
			assert.True(t, replay(t, initial, result.Plan).IsGoal())
		})
	}
}

func TestEveryStrategyReachesTheGoal(t *testing.T) {
	initial := layout(t,
		[]string{
			"+++++++",
			"+0    +",
			"+ ++A +",
			"+     +",
			"+++++++",
		},
		[]string{
			"+++++++",
			"+     +",
			"+ ++  +",
			"+A   0+",
			"+++++++",
		},
	)
	for _, strategy := range allStrategies {
		t.Run(strategy.String(), func(t *testing.T) {
			result, err := Run(context.Background(), initial, Config{Strategy: strategy})
			require.NoError(t, err)
			assert.True(t, replay(t, initial, result.Plan).IsGoal())
			assert.Len(t, result.Path, len(result.Plan)+1)
		})
	}
}

func TestDeterministic(t *testing.T) {
	initial := layout(t,
		[]string{"0    ", " A   ", "     "},
		[]string{"     ", "     ", "  A 0"},
	)
	for _, strategy := range allStrategies {
		t.Run(strategy.String(), func(t *testing.T) {
			first, err := Run(context.Background(), initial, Config{Strategy: strategy})
			require.NoError(t, err)
			second, err := Run(context.Background(), initial, Config{Strategy: strategy})
			require.NoError(t, err)
			assert.Equal(t, first.Plan, second.Plan)
			assert.Equal(t, first.Expanded, second.Expanded)
		})
	}
}

func TestConstraintsAreRespected(t *testing.T) {
	initial := layout(t, []string{"0  "}, []string{"  0"})
	constraints := world.NewConstraintSet(
		world.PositionConstraint{Agent: 0, Location: world.Position{Row: 0, Col: 1}, Timestep: 1},
		world.PositionConstraint{Agent: 0, Location: world.Position{Row: 0, Col: 2}, Timestep: 3},
		world.PositionConstraint{Agent: 1, Location: world.Position{Row: 0, Col: 1}, Timestep: 2},
	)
	for _, strategy := range allStrategies {
		t.Run(strategy.String(), func(t *testing.T) {
			result, err := Run(context.Background(), initial.WithConstraints(constraints), Config{Strategy: strategy})
			require.NoError(t, err)

			require.Greater(t, len(result.Path), 3)
			assert.NotEqual(t, world.Position{Row: 0, Col: 1}, result.Path[1].AgentPosition())
			assert.NotEqual(t, world.Position{Row: 0, Col: 2}, result.Path[3].AgentPosition())
			assert.True(t, replay(t, initial, result.Plan).GoalsSatisfied())
		})
	}
}

func TestBoxConstraintIsRespected(t *testing.T) {
	initial := layout(t, []string{"0A  "}, []string{"  A "})
	constraints := world.NewConstraintSet(
		world.BoxConstraint{Agent: 0, Box: 'A', Location: world.Position{Row: 0, Col: 2}, Timestep: 1},
	)
	result, err := Run(context.Background(), initial.WithConstraints(constraints), Config{Strategy: BFS})
	require.NoError(t, err)
	assert.Equal(t, []world.Action{world.NoOp, world.Push(world.East, world.East)}, result.Plan, "the push has to wait one step")
	for _, box := range result.Path[1].Boxes() {
		assert.NotEqual(t, world.Position{Row: 0, Col: 2}, box.Pos)
	}
}

func TestExhausted(t *testing.T) {
	initial := layout(t, []string{"0+ "}, []string{"  0"})
	for _, strategy := range allStrategies {
		t.Run(strategy.String(), func(t *testing.T) {
			_, err := Run(context.Background(), initial, Config{Strategy: strategy})
			require.ErrorIs(t, err, ErrExhausted)

			var failure *Failure
			require.True(t, errors.As(err, &failure))
			assert.Equal(t, world.AgentID(0), failure.Agent)
			assert.Equal(t, strategy, failure.Strategy)
		})
	}
}

func TestMemoryExceeded(t *testing.T) {
	initial := layout(t, []string{"0  ", "   "}, []string{"   ", "  0"})
	limit, err := memory.NewLimit(1e-9, nil)
	require.NoError(t, err)

	result, err := Run(context.Background(), initial, Config{Strategy: BFS, Memory: limit})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrMemoryExceeded)
	assert.NotErrorIs(t, err, ErrExhausted)
}

func TestCanceledContext(t *testing.T) {
	initial := layout(t, []string{"0  "}, []string{"  0"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, initial, Config{Strategy: AStar})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseStrategy(t *testing.T) {
	for _, strategy := range allStrategies {
		parsed, err := ParseStrategy("-" + strategy.String())
		require.NoError(t, err)
		assert.Equal(t, strategy, parsed)
	}
	_, err := ParseStrategy("dijkstra")
	assert.Error(t, err)
}

func TestWidthFrontierRecordsOnlyOnExpansion(t *testing.T) {
	initial := layout(t, []string{"0  "}, []string{"  0"})
	f, history, err := newFrontier(BestFirstWidth, 0, initial)
	require.NoError(t, err)
	require.NotNil(t, history)

	f.Add(initial)
	assert.Zero(t, history.Seen(initial.Atoms()), "adding to the frontier does not record")

	// what Run does when it pops and expands the initial state
	popped, err := f.Pop()
	require.NoError(t, err)
	history.Record(popped.Atoms())

	wait := initial.Transition(world.NoOp)
	step := initial.Transition(world.Move(world.East))
	f.Add(wait)
	f.Add(step)
	assert.Equal(t, 1, history.Seen(initial.Atoms()))
	assert.Zero(t, history.Seen(step.Atoms()))

	first, err := f.Pop()
	require.NoError(t, err)
	assert.Same(t, step, first)
}
