package conflict

import "github.com/pdrpinto/mapf/world"

// Path is the atom set of one agent at every timestep, index 0 being the
// initial state.
type Path struct {
	Agent world.AgentID
	Steps []world.Atoms
}

// Len returns the number of timesteps.
func (p Path) Len() int { return len(p.Steps) }

// At returns the atom set at t. Past the end the agent waits at its last
// snapshot.
func (p Path) At(t int) world.Atoms {
	if t >= len(p.Steps) {
		return p.Steps[len(p.Steps)-1]
	}
	return p.Steps[t]
}

// Validate returns the first conflict between path and any other path of
// all, or nil. Timesteps are scanned in increasing order and, within a
// timestep, other paths in slice order. Entries of all belonging to
// path's agent are skipped, as are empty paths.
func Validate(path Path, all []Path) Conflict {
	if path.Len() == 0 {
		return nil
	}
	horizon := path.Len()
	for _, other := range all {
		horizon = max(horizon, other.Len())
	}
	for t := 1; t < horizon; t++ {
		for _, other := range all {
			if other.Agent == path.Agent || other.Len() == 0 {
				continue
			}
			if c := check(path, other, t); c != nil {
				return c
			}
		}
	}
	return nil
}

// FirstConflict returns the earliest conflict among all pairs of paths, or
// nil when the paths are jointly consistent. Pairs are visited in (i, j)
// order with i < j.
func FirstConflict(paths []Path) Conflict {
	horizon := 0
	for _, path := range paths {
		horizon = max(horizon, path.Len())
	}
	for t := 1; t < horizon; t++ {
		for i := range paths {
			if paths[i].Len() == 0 {
				continue
			}
			for j := i + 1; j < len(paths); j++ {
				if paths[j].Len() == 0 {
					continue
				}
				if c := check(paths[i], paths[j], t); c != nil {
					return c
				}
			}
		}
	}
	return nil
}

// check looks for a conflict between p and q entering timestep t. Every
// test runs in both directions so the result does not depend on argument
// order beyond labelling.
func check(p, q Path, t int) Conflict {
	pNow, pBefore := p.At(t), p.At(t-1)
	qNow, qBefore := q.At(t), q.At(t-1)
	pAgent, pAgentBefore := pNow.AgentPosition(), pBefore.AgentPosition()
	qAgent, qAgentBefore := qNow.AgentPosition(), qBefore.AgentPosition()

	if pAgent == qAgent {
		return VertexConflict{A: p.Agent, B: q.Agent, Location: pAgent, Timestep: t}
	}

	pFollows, qFollows := pAgent == qAgentBefore, qAgent == pAgentBefore
	switch {
	case pFollows && qFollows:
		return EdgeConflict{A: p.Agent, B: q.Agent, CellA: pAgentBefore, CellB: pAgent, Timestep: t}
	case pFollows:
		return FollowConflict{Follower: p.Agent, Leader: q.Agent, Location: pAgent, Timestep: t}
	case qFollows:
		return FollowConflict{Follower: q.Agent, Leader: p.Agent, Location: qAgent, Timestep: t}
	}

	pBoxes, qBoxes := pNow.Boxes(), qNow.Boxes()
	for _, pBox := range pBoxes {
		for _, qBox := range qBoxes {
			if pBox.Pos == qBox.Pos {
				return BoxBoxConflict{A: p.Agent, B: q.Agent, BoxA: pBox.Name, BoxB: qBox.Name, Location: pBox.Pos, Timestep: t}
			}
		}
	}

	if box, ok := boxAt(qBoxes, pAgent); ok {
		return MixedConflict{Agent: p.Agent, BoxOwner: q.Agent, Box: box, Location: pAgent, Timestep: t}
	}
	if box, ok := boxAt(pBoxes, qAgent); ok {
		return MixedConflict{Agent: q.Agent, BoxOwner: p.Agent, Box: box, Location: qAgent, Timestep: t}
	}
	if box, ok := boxAt(qBefore.Boxes(), pAgent); ok {
		return MixedConflict{Agent: p.Agent, BoxOwner: q.Agent, Box: box, Location: pAgent, Timestep: t, Leader: LeaderBox}
	}
	if box, ok := boxAt(pBefore.Boxes(), qAgent); ok {
		return MixedConflict{Agent: q.Agent, BoxOwner: p.Agent, Box: box, Location: qAgent, Timestep: t, Leader: LeaderBox}
	}
	for _, pBox := range pBoxes {
		if pBox.Pos == qAgentBefore {
			return MixedConflict{Agent: q.Agent, BoxOwner: p.Agent, Box: pBox.Name, Location: pBox.Pos, Timestep: t, Leader: LeaderAgent}
		}
	}
	for _, qBox := range qBoxes {
		if qBox.Pos == pAgentBefore {
			return MixedConflict{Agent: p.Agent, BoxOwner: q.Agent, Box: qBox.Name, Location: qBox.Pos, Timestep: t, Leader: LeaderAgent}
		}
	}

	for _, pBox := range pBoxes {
		if box, ok := boxAt(qBefore.Boxes(), pBox.Pos); ok {
			return BoxBoxConflict{A: p.Agent, B: q.Agent, BoxA: pBox.Name, BoxB: box, Location: pBox.Pos, Timestep: t, Follow: true}
		}
	}
	for _, qBox := range qBoxes {
		if box, ok := boxAt(pBefore.Boxes(), qBox.Pos); ok {
			return BoxBoxConflict{A: q.Agent, B: p.Agent, BoxA: qBox.Name, BoxB: box, Location: qBox.Pos, Timestep: t, Follow: true}
		}
	}
	return nil
}

func boxAt(boxes []world.Atom, p world.Position) (byte, bool) {
	for _, box := range boxes {
		if box.Pos == p {
			return box.Name, true
		}
	}
	return 0, false
}
