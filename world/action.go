package world

import "fmt"

// ActionType is the kind of primitive move an action performs.
type ActionType int

const (
	ActionNoOp ActionType = iota
	ActionMove
	ActionPush
	ActionPull
)

func (t ActionType) String() string {
	return [...]string{"NoOp", "Move", "Push", "Pull"}[t]
}

// Direction is one of the four compass moves.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

var directionDeltas = [...]Position{
	North: {Row: -1, Col: 0},
	South: {Row: 1, Col: 0},
	East:  {Row: 0, Col: 1},
	West:  {Row: 0, Col: -1},
}

// Delta returns the row/col displacement of d.
func (d Direction) Delta() Position { return directionDeltas[d] }

func (d Direction) String() string {
	return [...]string{"N", "S", "E", "W"}[d]
}

// Action is an immutable primitive move. AgentDelta displaces the agent;
// BoxDelta displaces the pushed or pulled box.
type Action struct {
	Name       string
	Type       ActionType
	AgentDelta Position
	BoxDelta   Position
}

func (a Action) String() string { return a.Name }

// NoOp leaves the agent in place.
var NoOp = Action{Name: "NoOp", Type: ActionNoOp}

// Actions is the full catalog in a fixed order: NoOp, the four moves, the
// twelve pushes and the twelve pulls. Expansion follows this order.
var Actions = buildCatalog()

var actionsByName = func() map[string]Action {
	byName := make(map[string]Action, len(Actions))
	for _, a := range Actions {
		byName[a.Name] = a
	}
	return byName
}()

// pushPullPairs lists (agent direction, box direction) pairs; the box never
// moves back into the cell the agent is about to occupy.
var pushPullPairs = [...][2]Direction{
	{North, North}, {North, East}, {North, West},
	{South, South}, {South, East}, {South, West},
	{East, East}, {East, South}, {East, North},
	{West, West}, {West, South}, {West, North},
}

func buildCatalog() []Action {
	catalog := []Action{NoOp}
	for _, d := range []Direction{North, South, East, West} {
		catalog = append(catalog, Move(d))
	}
	for _, pair := range pushPullPairs {
		catalog = append(catalog, Push(pair[0], pair[1]))
	}
	for _, pair := range pushPullPairs {
		catalog = append(catalog, Pull(pair[0], pair[1]))
	}
	return catalog
}

// Move returns the Move action in direction d.
func Move(d Direction) Action {
	return Action{
		Name:       fmt.Sprintf("Move(%s)", d),
		Type:       ActionMove,
		AgentDelta: d.Delta(),
	}
}

// Push returns the Push action where the agent walks agentDir into the box's
// cell and the box moves boxDir.
func Push(agentDir, boxDir Direction) Action {
	return Action{
		Name:       fmt.Sprintf("Push(%s,%s)", agentDir, boxDir),
		Type:       ActionPush,
		AgentDelta: agentDir.Delta(),
		BoxDelta:   boxDir.Delta(),
	}
}

// Pull returns the Pull action where the agent walks agentDir and the box
// behind it follows into the agent's former cell, moving boxDir.
func Pull(agentDir, boxDir Direction) Action {
	return Action{
		Name:       fmt.Sprintf("Pull(%s,%s)", agentDir, boxDir),
		Type:       ActionPull,
		AgentDelta: agentDir.Delta(),
		BoxDelta:   boxDir.Delta(),
	}
}

// actionByName looks an action up by its protocol name.
func actionByName(name string) (Action, bool) {
	a, ok := actionsByName[name]
	return a, ok
}
