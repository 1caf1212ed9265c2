// Package level parses levels in the server's text format and splits them
// into one initial state per agent.
//
// A level looks like:
//
//	#domain
//	hospital
//	#levelname
//	corridor
//	#colors
//	blue: 0, A
//	red: 1, B
//	#initial
//	+++++
//	+0A1+
//	+++++
//	#goal
//	...
//	#end
package level

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pdrpinto/mapf/world"
)

// ErrMalformedLevel is returned for input that is not a well-formed level.
var ErrMalformedLevel = errors.New("malformed level")

// Level is a parsed level.
type Level struct {
	Domain string
	Name   string
	World  *world.GridWorld
	// Agents holds one initial state per agent, ordered by agent id.
	Agents []*world.State
}

type cell struct {
	letter byte
	pos    world.Position
}

type parser struct {
	r    *bufio.Reader
	line int
}

func (p *parser) next() (string, error) {
	text, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		if err == io.EOF {
			return "", fmt.Errorf("%w: unexpected end of input after line %d", ErrMalformedLevel, p.line)
		}
		return "", err
	}
	p.line++
	return strings.TrimRight(text, "\r\n"), nil
}

func (p *parser) expect(header string) error {
	line, err := p.next()
	if err != nil {
		return err
	}
	if strings.TrimSpace(line) != header {
		return fmt.Errorf("%w: line %d: want %s, got %q", ErrMalformedLevel, p.line, header, line)
	}
	return nil
}

// section reads lines up to the next header and returns both.
func (p *parser) section() ([]string, string, error) {
	var lines []string
	for {
		line, err := p.next()
		if err != nil {
			return nil, "", err
		}
		if strings.HasPrefix(line, "#") {
			return lines, strings.TrimSpace(line), nil
		}
		lines = append(lines, line)
	}
}

// Parse reads one level, stopping right after #end. Pass a *bufio.Reader
// to keep reading from the same stream afterwards.
func Parse(r io.Reader) (*Level, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	p := &parser{r: br}

	if err := p.expect("#domain"); err != nil {
		return nil, err
	}
	domain, err := p.next()
	if err != nil {
		return nil, err
	}
	if err := p.expect("#levelname"); err != nil {
		return nil, err
	}
	name, err := p.next()
	if err != nil {
		return nil, err
	}
	if err := p.expect("#colors"); err != nil {
		return nil, err
	}

	colorLines, header, err := p.section()
	if err != nil {
		return nil, err
	}
	if header != "#initial" {
		return nil, fmt.Errorf("%w: line %d: want #initial, got %q", ErrMalformedLevel, p.line, header)
	}
	var agentColors [world.MaxAgents]world.Color
	var boxColors [world.MaxBoxes]world.Color
	if err := parseColors(colorLines, &agentColors, &boxColors); err != nil {
		return nil, err
	}

	initial, header, err := p.section()
	if err != nil {
		return nil, err
	}
	if header != "#goal" {
		return nil, fmt.Errorf("%w: line %d: want #goal, got %q", ErrMalformedLevel, p.line, header)
	}
	goal, header, err := p.section()
	if err != nil {
		return nil, err
	}
	if header != "#end" {
		return nil, fmt.Errorf("%w: line %d: want #end, got %q", ErrMalformedLevel, p.line, header)
	}

	lvl, err := build(initial, goal, agentColors, boxColors)
	if err != nil {
		return nil, err
	}
	lvl.Domain = strings.TrimSpace(domain)
	lvl.Name = strings.TrimSpace(name)
	return lvl, nil
}

func parseColors(lines []string, agentColors *[world.MaxAgents]world.Color, boxColors *[world.MaxBoxes]world.Color) error {
	for _, line := range lines {
		colorName, entities, found := strings.Cut(line, ":")
		if !found {
			return fmt.Errorf("%w: color line %q has no ':'", ErrMalformedLevel, line)
		}
		color, err := world.ParseColor(colorName)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedLevel, err)
		}
		for _, entity := range strings.Split(entities, ",") {
			entity = strings.TrimSpace(entity)
			switch {
			case len(entity) == 1 && world.IsAgentDigit(entity[0]):
				agentColors[entity[0]-'0'] = color
			case len(entity) == 1 && world.IsBoxLetter(entity[0]):
				boxColors[entity[0]-'A'] = color
			default:
				return fmt.Errorf("%w: unknown entity %q in color line", ErrMalformedLevel, entity)
			}
		}
	}
	return nil
}

func build(initial, goal []string, agentColors [world.MaxAgents]world.Color, boxColors [world.MaxBoxes]world.Color) (*Level, error) {
	if len(initial) == 0 {
		return nil, fmt.Errorf("%w: empty #initial section", ErrMalformedLevel)
	}
	if len(goal) > len(initial) {
		return nil, fmt.Errorf("%w: #goal has %d rows, #initial has %d", ErrMalformedLevel, len(goal), len(initial))
	}
	cols := 0
	for _, line := range initial {
		cols = max(cols, len(line))
	}

	// A colour can move a box only if some agent carries it.
	var movable [world.MaxBoxes]bool
	for _, c := range agentColors {
		if c == world.ColorNone {
			continue
		}
		for letter, bc := range boxColors {
			if bc == c {
				movable[letter] = true
			}
		}
	}

	walls := make([][]bool, len(initial))
	starts := make(map[world.AgentID]world.Position)
	var boxes []cell
	for r, line := range initial {
		walls[r] = make([]bool, cols)
		for c := 0; c < len(line); c++ {
			pos := world.Position{Row: r, Col: c}
			switch ch := line[c]; {
			case ch == '+':
				walls[r][c] = true
			case world.IsAgentDigit(ch):
				id := world.AgentID(ch - '0')
				if agentColors[id] == world.ColorNone {
					return nil, fmt.Errorf("%w: agent %c has no color", ErrMalformedLevel, ch)
				}
				if _, dup := starts[id]; dup {
					return nil, fmt.Errorf("%w: agent %c appears twice", ErrMalformedLevel, ch)
				}
				starts[id] = pos
			case world.IsBoxLetter(ch):
				if movable[ch-'A'] {
					boxes = append(boxes, cell{letter: ch, pos: pos})
				} else {
					walls[r][c] = true
				}
			case ch == ' ':
			default:
				return nil, fmt.Errorf("%w: unknown character %q at %s", ErrMalformedLevel, ch, pos)
			}
		}
	}
	for id, c := range agentColors {
		if _, ok := starts[world.AgentID(id)]; c != world.ColorNone && !ok {
			return nil, fmt.Errorf("%w: agent %d has a color but no cell", ErrMalformedLevel, id)
		}
	}
	if len(starts) == 0 {
		return nil, fmt.Errorf("%w: no agents", ErrMalformedLevel)
	}

	var goals []cell
	for r, line := range goal {
		for c := 0; c < len(line); c++ {
			if ch := line[c]; world.IsAgentDigit(ch) || world.IsBoxLetter(ch) {
				goals = append(goals, cell{letter: ch, pos: world.Position{Row: r, Col: c}})
			}
		}
	}

	w, err := world.NewGridWorld(walls, agentColors, boxColors)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLevel, err)
	}

	ids := make([]world.AgentID, 0, len(starts))
	for id := range starts {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	assigned, err := assign(w, ids, boxes, goals)
	if err != nil {
		return nil, err
	}

	lvl := &Level{World: w}
	for i, id := range ids {
		a := assigned[i]
		if len(a.goals) == 0 {
			a.goals[starts[id]] = id.Name()
		}
		s, err := world.NewState(w, id, starts[id], a.boxes, a.goals)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedLevel, err)
		}
		lvl.Agents = append(lvl.Agents, s)
	}
	return lvl, nil
}

type assignment struct {
	boxes map[world.Position]byte
	goals map[world.Position]byte
}

func owns(w *world.GridWorld, id world.AgentID, letter byte) bool {
	if world.IsAgentDigit(letter) {
		return letter == id.Name()
	}
	return w.AgentColor(id) == w.BoxColor(letter)
}

// assign deals goals round-robin, in row-major order, to agents able to
// satisfy them. A box goal takes the first unassigned box of its letter
// with it. Leftover boxes are dealt the same way.
func assign(w *world.GridWorld, ids []world.AgentID, boxes, goals []cell) ([]assignment, error) {
	out := make([]assignment, len(ids))
	for i := range out {
		out[i] = assignment{boxes: make(map[world.Position]byte), goals: make(map[world.Position]byte)}
	}
	taken := make([]bool, len(boxes))

	turn := -1
	pick := func(letter byte) (int, bool) {
		for range ids {
			turn = (turn + 1) % len(ids)
			if owns(w, ids[turn], letter) {
				return turn, true
			}
		}
		return 0, false
	}

	for _, g := range goals {
		agent, ok := pick(g.letter)
		if !ok {
			return nil, fmt.Errorf("%w: no agent can reach goal %c at %s", ErrMalformedLevel, g.letter, g.pos)
		}
		out[agent].goals[g.pos] = g.letter
		if world.IsAgentDigit(g.letter) {
			continue
		}
		box := -1
		for i, b := range boxes {
			if !taken[i] && b.letter == g.letter {
				box = i
				break
			}
		}
		if box < 0 {
			return nil, fmt.Errorf("%w: no box left for goal %c at %s", ErrMalformedLevel, g.letter, g.pos)
		}
		taken[box] = true
		out[agent].boxes[boxes[box].pos] = boxes[box].letter
	}

	turn = -1
	for i, b := range boxes {
		if taken[i] {
			continue
		}
		agent, _ := pick(b.letter)
		out[agent].boxes[b.pos] = b.letter
	}
	return out, nil
}
