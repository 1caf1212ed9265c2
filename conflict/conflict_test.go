package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdrpinto/mapf/world"
)

func pos(r, c int) world.Position { return world.Position{Row: r, Col: c} }

func box(name byte, r, c int) world.Atom {
	return world.Atom{Kind: world.BoxAt, Name: name, Pos: pos(r, c)}
}

func at(agent world.AgentID, r, c int, boxes ...world.Atom) world.Atoms {
	return append(world.Atoms{{Kind: world.AgentAt, Name: agent.Name(), Pos: pos(r, c)}}, boxes...)
}

func path(agent world.AgentID, steps ...world.Atoms) Path {
	return Path{Agent: agent, Steps: steps}
}

// normalized returns the agent pair in ascending order with the timestep.
func normalized(c Conflict) (world.AgentID, world.AgentID, int) {
	agents := c.Agents()
	if agents[0] > agents[1] {
		agents[0], agents[1] = agents[1], agents[0]
	}
	return agents[0], agents[1], c.Time()
}

func TestValidateTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		p, q Path
		want Conflict
	}{
		{
			name: "vertex",
			p:    path(0, at(0, 0, 0), at(0, 0, 1)),
			q:    path(1, at(1, 0, 2), at(1, 0, 1)),
			want: VertexConflict{A: 0, B: 1, Location: pos(0, 1), Timestep: 1},
		},
		{
			name: "edge",
			p:    path(0, at(0, 0, 0), at(0, 0, 1)),
			q:    path(1, at(1, 0, 1), at(1, 0, 0)),
			want: EdgeConflict{A: 0, B: 1, CellA: pos(0, 0), CellB: pos(0, 1), Timestep: 1},
		},
		{
			name: "follow",
			p:    path(0, at(0, 0, 0), at(0, 0, 0), at(0, 0, 1)),
			q:    path(1, at(1, 0, 2), at(1, 0, 1), at(1, 0, 2)),
			want: FollowConflict{Follower: 0, Leader: 1, Location: pos(0, 1), Timestep: 2},
		},
		{
			name: "box box",
			p:    path(0, at(0, 0, 0, box('A', 0, 1)), at(0, 0, 1, box('A', 0, 2))),
			q:    path(1, at(1, 0, 4, box('B', 0, 3)), at(1, 0, 3, box('B', 0, 2))),
			want: BoxBoxConflict{A: 0, B: 1, BoxA: 'A', BoxB: 'B', Location: pos(0, 2), Timestep: 1},
		},
		{
			name: "agent into box",
			p:    path(0, at(0, 0, 0), at(0, 1, 0)),
			q:    path(1, at(1, 2, 2, box('B', 1, 0)), at(1, 2, 2, box('B', 1, 0))),
			want: MixedConflict{Agent: 0, BoxOwner: 1, Box: 'B', Location: pos(1, 0), Timestep: 1},
		},
		{
			name: "agent follows box",
			p:    path(0, at(0, 0, 0), at(0, 0, 1)),
			q:    path(1, at(1, 1, 1, box('B', 0, 1)), at(1, 2, 1, box('B', 1, 1))),
			want: MixedConflict{Agent: 0, BoxOwner: 1, Box: 'B', Location: pos(0, 1), Timestep: 1, Leader: LeaderBox},
		},
		{
			name: "box follows agent",
			p:    path(0, at(0, 0, 1, box('A', 0, 2)), at(0, 0, 2, box('A', 0, 3))),
			q:    path(1, at(1, 0, 3), at(1, 1, 3)),
			want: MixedConflict{Agent: 1, BoxOwner: 0, Box: 'A', Location: pos(0, 3), Timestep: 1, Leader: LeaderAgent},
		},
		{
			name: "box follows box",
			p:    path(0, at(0, 0, 0, box('A', 0, 1)), at(0, 0, 1, box('A', 0, 2))),
			q:    path(1, at(1, 1, 2, box('B', 0, 2)), at(1, 2, 2, box('B', 1, 2))),
			want: BoxBoxConflict{A: 0, B: 1, BoxA: 'A', BoxB: 'B', Location: pos(0, 2), Timestep: 1, Follow: true},
		},
		{
			name: "disjoint",
			p:    path(0, at(0, 0, 0), at(0, 0, 1)),
			q:    path(1, at(1, 2, 0), at(1, 2, 1)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.p, []Path{tt.p, tt.q})
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)

			swapped := Validate(tt.q, []Path{tt.p, tt.q})
			require.NotNil(t, swapped, "validation is symmetric")
			assert.Equal(t, got.Kind(), swapped.Kind())
			a1, b1, t1 := normalized(got)
			a2, b2, t2 := normalized(swapped)
			assert.Equal(t, []any{a1, b1, t1}, []any{a2, b2, t2})
		})
	}
}

func TestValidatePadsShorterPaths(t *testing.T) {
	// agent 1 finished at (0,1) and waits there
	p := path(0, at(0, 0, 3), at(0, 0, 2), at(0, 0, 1))
	q := path(1, at(1, 0, 0), at(1, 0, 1))

	got := Validate(p, []Path{p, q})
	require.NotNil(t, got)
	assert.Equal(t, VertexConflict{A: 0, B: 1, Location: pos(0, 1), Timestep: 2}, got)
}

func TestFirstConflictPrefersEarliestTimestep(t *testing.T) {
	paths := []Path{
		path(0, at(0, 0, 0), at(0, 0, 0), at(0, 0, 1)),
		path(1, at(1, 5, 5), at(1, 5, 5), at(1, 0, 1)),
		path(2, at(2, 4, 5), at(2, 5, 5), at(2, 5, 5)),
	}
	got := FirstConflict(paths)
	require.NotNil(t, got)
	assert.Equal(t, VertexConflict{A: 1, B: 2, Location: pos(5, 5), Timestep: 1}, got)

	fromFirst := Validate(paths[0], paths)
	require.NotNil(t, fromFirst)
	assert.Equal(t, VertexConflict{A: 0, B: 1, Location: pos(0, 1), Timestep: 2}, fromFirst)

	assert.Nil(t, FirstConflict(paths[:1]))
}

func TestConstraintSynthesis(t *testing.T) {
	vertex := VertexConflict{A: 0, B: 1, Location: pos(1, 1), Timestep: 3}
	c, ok := vertex.ConstraintFor(1)
	require.True(t, ok)
	assert.Equal(t, world.PositionConstraint{Agent: 1, Location: pos(1, 1), Timestep: 3}, c)

	edge := EdgeConflict{A: 0, B: 1, CellA: pos(0, 0), CellB: pos(0, 1), Timestep: 2}
	c, _ = edge.ConstraintFor(1)
	assert.Equal(t, world.EdgeConstraint{Agent: 1, From: pos(0, 1), To: pos(0, 0), Timestep: 2}, c)

	follow := FollowConflict{Follower: 0, Leader: 1, Location: pos(0, 1), Timestep: 2}
	c, _ = follow.ConstraintFor(0)
	assert.Equal(t, world.PositionConstraint{Agent: 0, Location: pos(0, 1), Timestep: 2}, c)
	c, ok = follow.ConstraintFor(1)
	require.True(t, ok)
	assert.Equal(t, world.PositionConstraint{Agent: 1, Location: pos(0, 1), Timestep: 1}, c)

	mixed := MixedConflict{Agent: 0, BoxOwner: 1, Box: 'B', Location: pos(2, 2), Timestep: 4, Leader: LeaderBox}
	c, _ = mixed.ConstraintFor(0)
	assert.Equal(t, world.PositionConstraint{Agent: 0, Location: pos(2, 2), Timestep: 4}, c)
	c, _ = mixed.ConstraintFor(1)
	assert.Equal(t, world.BoxConstraint{Agent: 1, Box: 'B', Location: pos(2, 2), Timestep: 3}, c)

	boxes := BoxBoxConflict{A: 0, B: 1, BoxA: 'A', BoxB: 'B', Location: pos(0, 2), Timestep: 5, Follow: true}
	c, _ = boxes.ConstraintFor(0)
	assert.Equal(t, world.BoxConstraint{Agent: 0, Box: 'A', Location: pos(0, 2), Timestep: 5}, c)
	c, _ = boxes.ConstraintFor(1)
	assert.Equal(t, world.BoxConstraint{Agent: 1, Box: 'B', Location: pos(0, 2), Timestep: 4}, c)
}

func TestLeaderConstraintAtFirstStepIsDropped(t *testing.T) {
	conflicts := []Conflict{
		FollowConflict{Follower: 0, Leader: 1, Location: pos(0, 1), Timestep: 1},
		MixedConflict{Agent: 0, BoxOwner: 1, Box: 'B', Location: pos(0, 1), Timestep: 1, Leader: LeaderBox},
		BoxBoxConflict{A: 0, B: 1, BoxA: 'A', BoxB: 'B', Location: pos(0, 1), Timestep: 1, Follow: true},
	}
	for _, c := range conflicts {
		t.Run(c.Kind().String(), func(t *testing.T) {
			_, ok := c.ConstraintFor(1)
			assert.False(t, ok)
			_, ok = c.ConstraintFor(0)
			assert.True(t, ok)
		})
	}
}

func TestConstraintForUninvolvedAgentPanics(t *testing.T) {
	assert.Panics(t, func() {
		VertexConflict{A: 0, B: 1, Location: pos(0, 0), Timestep: 1}.ConstraintFor(2)
	})
	assert.Panics(t, func() {
		MixedConflict{Agent: 0, BoxOwner: 1, Box: 'A', Timestep: 2}.ConstraintFor(3)
	})
}
