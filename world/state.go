package world

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/pdrpinto/mapf/internal"
)

// ErrInvalidState is returned when an initial state is inconsistent with its world.
var ErrInvalidState = errors.New("invalid state")

// AgentID is the number of an agent, 0..9.
type AgentID int

// Name returns the agent's level character.
func (id AgentID) Name() byte { return byte('0' + id) }

// GoalCell is a cell that must hold the named agent or box.
type GoalCell struct {
	Pos    Position
	Letter byte
}

// problem is the part of a state shared by every state of one search.
type problem struct {
	world       *GridWorld
	agent       AgentID
	goals       []byte
	goalCells   []GoalCell
	goalsHash   uint64
	constraints *constraintIndex
}

// State is one agent's configuration at a point in time. States are
// immutable; Transition builds a new one.
type State struct {
	problem        *problem
	agentPos       Position
	boxes          []byte
	parent         *State
	action         Action
	depth          int
	constraintStep bool
	atoms          Atoms
	hash           uint64
}

// NewState builds an initial state (depth 0, no constraints) for agent.
// boxes maps cells to box letters and goals maps cells to goal letters or
// to the agent's own digit.
func NewState(world *GridWorld, agent AgentID, start Position, boxes, goals map[Position]byte) (*State, error) {
	if world == nil {
		return nil, fmt.Errorf("%w: nil world", ErrInvalidState)
	}
	if agent < 0 || int(agent) >= MaxAgents {
		return nil, fmt.Errorf("%w: agent id %d out of range", ErrInvalidState, agent)
	}
	if world.IsWall(start) {
		return nil, fmt.Errorf("%w: agent %d starts on a wall or outside the grid at %s", ErrInvalidState, agent, start)
	}

	boxGrid := make([]byte, world.Size())
	for pos, box := range boxes {
		switch {
		case !IsBoxLetter(box):
			return nil, fmt.Errorf("%w: %q is not a box letter", ErrInvalidState, box)
		case world.IsWall(pos):
			return nil, fmt.Errorf("%w: box %c on a wall at %s", ErrInvalidState, box, pos)
		case pos == start:
			return nil, fmt.Errorf("%w: box %c under agent %d at %s", ErrInvalidState, box, agent, pos)
		}
		boxGrid[world.Index(pos)] = box
	}

	goalGrid := make([]byte, world.Size())
	for pos, goal := range goals {
		switch {
		case IsAgentDigit(goal) && goal != agent.Name():
			return nil, fmt.Errorf("%w: goal %c belongs to another agent", ErrInvalidState, goal)
		case !IsAgentDigit(goal) && !IsBoxLetter(goal):
			return nil, fmt.Errorf("%w: %q is not a goal letter", ErrInvalidState, goal)
		case world.IsWall(pos):
			return nil, fmt.Errorf("%w: goal %c on a wall at %s", ErrInvalidState, goal, pos)
		}
		goalGrid[world.Index(pos)] = goal
	}

	p := &problem{
		world:       world,
		agent:       agent,
		goals:       goalGrid,
		goalsHash:   xxhash.Sum64(goalGrid),
		constraints: newConstraintIndex(ConstraintSet{}),
	}
	for i, goal := range goalGrid {
		if goal != 0 {
			p.goalCells = append(p.goalCells, GoalCell{Pos: world.PositionOf(i), Letter: goal})
		}
	}

	s := &State{problem: p, agentPos: start, boxes: boxGrid}
	s.atoms = s.computeAtoms()
	s.hash = s.computeHash()
	return s, nil
}

// WithConstraints returns an initial state with the same layout as s whose
// search is bound by the constraints in set that concern this agent.
func (s *State) WithConstraints(set ConstraintSet) *State {
	p := *s.problem
	p.constraints = newConstraintIndex(set.ForAgent(p.agent))
	root := &State{problem: &p, agentPos: s.agentPos, boxes: s.boxes, atoms: s.atoms}
	root.hash = root.computeHash()
	return root
}

func (s *State) World() *GridWorld          { return s.problem.world }
func (s *State) Agent() AgentID             { return s.problem.agent }
func (s *State) AgentPosition() Position    { return s.agentPos }
func (s *State) Depth() int                 { return s.depth }
func (s *State) Parent() *State             { return s.parent }
func (s *State) Atoms() Atoms               { return s.atoms }
func (s *State) Hash() uint64               { return s.hash }
func (s *State) ConstraintStep() bool       { return s.constraintStep }
func (s *State) Constraints() ConstraintSet { return s.problem.constraints.set }

// Goals returns the goal cells in row-major order. The slice must not be modified.
func (s *State) Goals() []GoalCell { return s.problem.goalCells }

// Action returns the action that produced s; false for an initial state.
func (s *State) Action() (Action, bool) {
	return s.action, s.parent != nil
}

// BoxAt returns the box letter at p, or 0.
func (s *State) BoxAt(p Position) byte {
	w := s.problem.world
	if !w.InBounds(p) {
		return 0
	}
	return s.boxes[w.Index(p)]
}

// GoalAt returns the goal letter at p, or 0.
func (s *State) GoalAt(p Position) byte {
	w := s.problem.world
	if !w.InBounds(p) {
		return 0
	}
	return s.problem.goals[w.Index(p)]
}

// TimeIndex is the depth clamped to one past the latest constraint. States
// beyond every constraint are interchangeable in time.
func (s *State) TimeIndex() int {
	horizon := s.problem.constraints.latest + 1
	if s.depth > horizon {
		return horizon
	}
	return s.depth
}

func (s *State) isFree(p Position) bool {
	return !s.problem.world.IsWall(p) && s.BoxAt(p) == 0 && p != s.agentPos
}

func (s *State) canMove(box byte) bool {
	w := s.problem.world
	agentColor, boxColor := w.AgentColor(s.problem.agent), w.BoxColor(box)
	return agentColor == ColorNone || boxColor == ColorNone || agentColor == boxColor
}

// IsApplicable reports whether the agent can physically perform action.
// Constraints are not consulted; see Expand.
func (s *State) IsApplicable(action Action) bool {
	switch action.Type {
	case ActionNoOp:
		return true
	case ActionMove:
		return s.isFree(s.agentPos.Add(action.AgentDelta))
	case ActionPush:
		boxPos := s.agentPos.Add(action.AgentDelta)
		box := s.BoxAt(boxPos)
		return box != 0 && s.canMove(box) && s.isFree(boxPos.Add(action.BoxDelta))
	case ActionPull:
		box := s.BoxAt(s.agentPos.Sub(action.BoxDelta))
		return box != 0 && s.canMove(box) && s.isFree(s.agentPos.Add(action.AgentDelta))
	default:
		return false
	}
}

// Transition applies action and returns the resulting state. It panics if
// the action is not applicable.
func (s *State) Transition(action Action) *State {
	if !s.IsApplicable(action) {
		panic(fmt.Sprintf("world: %s not applicable for agent %d at %s", action, s.problem.agent, s.agentPos))
	}
	return s.apply(action)
}

func (s *State) apply(action Action) *State {
	w := s.problem.world
	agentPos := s.agentPos
	boxes := s.boxes

	switch action.Type {
	case ActionMove:
		agentPos = agentPos.Add(action.AgentDelta)
	case ActionPush:
		agentPos = agentPos.Add(action.AgentDelta)
		boxes = slices.Clone(s.boxes)
		boxes[w.Index(agentPos.Add(action.BoxDelta))] = boxes[w.Index(agentPos)]
		boxes[w.Index(agentPos)] = 0
	case ActionPull:
		boxFrom := agentPos.Sub(action.BoxDelta)
		boxes = slices.Clone(s.boxes)
		boxes[w.Index(agentPos)] = boxes[w.Index(boxFrom)]
		boxes[w.Index(boxFrom)] = 0
		agentPos = agentPos.Add(action.AgentDelta)
	}

	child := &State{
		problem:  s.problem,
		agentPos: agentPos,
		boxes:    boxes,
		parent:   s,
		action:   action,
		depth:    s.depth + 1,
	}
	if action.Type == ActionNoOp || action.Type == ActionMove {
		child.atoms = slices.Clone(s.atoms)
		child.atoms[0].Pos = agentPos
	} else {
		child.atoms = child.computeAtoms()
	}
	child.hash = child.computeHash()
	child.constraintStep = s.problem.constraints.forbids(s, child)
	return child
}

// Expand returns one child per applicable action, in catalog order.
// Children that break a constraint are returned with ConstraintStep set.
func (s *State) Expand() []*State {
	children := make([]*State, 0, 8)
	for _, action := range Actions {
		if s.IsApplicable(action) {
			children = append(children, s.apply(action))
		}
	}
	return children
}

// GoalsSatisfied reports whether every goal cell holds its agent or box.
func (s *State) GoalsSatisfied() bool {
	for _, goal := range s.problem.goalCells {
		if IsAgentDigit(goal.Letter) {
			if s.agentPos != goal.Pos {
				return false
			}
		} else if s.BoxAt(goal.Pos) != goal.Letter {
			return false
		}
	}
	return true
}

// IsGoal reports whether s satisfies every goal and has outlived every
// constraint of its agent.
func (s *State) IsGoal() bool {
	return s.depth >= s.problem.constraints.latest && s.GoalsSatisfied()
}

// ExtractPlan walks the parent chain and returns the actions from the
// initial state to s together with the atom snapshot of every timestep
// (len(path) == len(plan)+1, path[0] is the initial state).
func (s *State) ExtractPlan() ([]Action, []Atoms) {
	chain := internal.ReconstructPath(s, func(state *State) (*State, bool) {
		return state.parent, state.parent != nil
	})
	plan := make([]Action, 0, len(chain)-1)
	path := make([]Atoms, 0, len(chain))
	for _, state := range chain {
		path = append(path, state.atoms)
		if state.parent != nil {
			plan = append(plan, state.action)
		}
	}
	return plan, path
}

func (s *State) computeAtoms() Atoms {
	w := s.problem.world
	atoms := Atoms{{Kind: AgentAt, Name: s.problem.agent.Name(), Pos: s.agentPos}}
	for i, box := range s.boxes {
		if box != 0 {
			atoms = append(atoms, Atom{Kind: BoxAt, Name: box, Pos: w.PositionOf(i)})
		}
	}
	return atoms
}

func (s *State) computeHash() uint64 {
	buf := make([]byte, 0, 40)
	buf = binary.LittleEndian.AppendUint64(buf, s.problem.world.Fingerprint())
	buf = binary.LittleEndian.AppendUint64(buf, s.problem.goalsHash)
	buf = binary.AppendVarint(buf, int64(s.agentPos.Row))
	buf = binary.AppendVarint(buf, int64(s.agentPos.Col))
	buf = binary.AppendVarint(buf, int64(s.TimeIndex()))

	digest := xxhash.New()
	_, _ = digest.Write(buf)
	_, _ = digest.Write(s.boxes)
	return digest.Sum64()
}

// Equal reports whether both states have the same agent position, box
// layout, goal layout, world and constraint time index. Depth beyond the
// latest constraint, the parent chain and the action taken are ignored.
func (s *State) Equal(other *State) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if s.hash != other.hash || s.agentPos != other.agentPos || s.TimeIndex() != other.TimeIndex() {
		return false
	}
	if !s.problem.world.Equal(other.problem.world) {
		return false
	}
	if s.problem != other.problem && !bytes.Equal(s.problem.goals, other.problem.goals) {
		return false
	}
	return bytes.Equal(s.boxes, other.boxes)
}

func (s *State) String() string {
	w := s.problem.world
	var sb strings.Builder
	for row := 0; row < w.Rows(); row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < w.Cols(); col++ {
			p := Position{Row: row, Col: col}
			switch {
			case s.BoxAt(p) != 0:
				sb.WriteByte(s.BoxAt(p))
			case w.IsWall(p):
				sb.WriteByte('+')
			case p == s.agentPos:
				sb.WriteByte(s.problem.agent.Name())
			default:
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}
