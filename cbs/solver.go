// Package cbs is the high-level Conflict-Based Search: it validates joint
// plans, branches on the first conflict and replans only the agents the
// conflict implicates.
package cbs

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/pdrpinto/mapf/conflict"
	"github.com/pdrpinto/mapf/internal"
	"github.com/pdrpinto/mapf/internal/telemetry"
	"github.com/pdrpinto/mapf/search"
	"github.com/pdrpinto/mapf/world"
)

var (
	// ErrInfeasible means the open set ran empty: the instance has no
	// solution under the chosen search.
	ErrInfeasible = errors.New("no solution")
	// ErrInvalidInput is returned by NewSolver for unusable initial states.
	ErrInvalidInput = errors.New("invalid initial states")
)

// Config parameterises a solver.
type Config struct {
	// Search configures every low-level search, including the memory
	// ceiling the solver itself also enforces.
	Search    search.Config
	Workers   int
	CostModel CostModel
	// CacheSize is the number of replans memoised; 0 disables the memo.
	CacheSize int64
	Logger    *slog.Logger
}

// JointPlan holds one joint action per timestep, one entry per agent in
// agent order.
type JointPlan [][]world.Action

// Lines renders each joint action as its '|'-joined action names.
func (j JointPlan) Lines() []string {
	lines := make([]string, len(j))
	for t, joint := range j {
		names := make([]string, len(joint))
		for i, action := range joint {
			names[i] = action.Name
		}
		lines[t] = strings.Join(names, "|")
	}
	return lines
}

// Stats summarises a run.
type Stats struct {
	NodesExpanded  int
	NodesGenerated int
	Replans        int
	Duration       time.Duration
}

// Solution is a conflict-free joint plan. With a single agent, Single is
// set and Plan holds its plan; Joint is filled in both cases. Plans and
// Paths are padded to a common length.
type Solution struct {
	Single bool
	Plan   []world.Action
	Joint  JointPlan
	Agents []world.AgentID
	Plans  [][]world.Action
	Paths  []conflict.Path
	Stats  Stats
}

// StepSnapshot exposes one iteration of the solver.
type StepSnapshot struct {
	StepIndex int
	// Current is the node popped this step; the root on the first step.
	Current  *Node
	Conflict conflict.Conflict
	Children []*Node
	// Skipped is set when Current had already been expanded.
	Skipped    bool
	OpenSize   int
	ClosedSize int
	Done       bool
	Found      bool
	Solution   *Solution
}

// Solver runs CBS one node at a time. Sibling branches are replanned by a
// pool of workers; the open and closed sets belong to the goroutine calling
// Step.
type Solver struct {
	ctx       context.Context
	cancel    context.CancelFunc
	searchCtx context.Context
	cfg       Config
	logger    *slog.Logger
	runID     uuid.UUID

	agents    []*world.State
	indexOf   map[world.AgentID]int
	goalCells map[world.Position]bool
	cache     *replanCache

	openSet  openQueue
	sequence uint64
	closed   closedSet

	replanTasks   chan replanTask
	replanResults chan replanResult

	rootBuilt bool
	stepCount int
	generated int
	replans   int
	started   time.Time
	done      bool
	solution  *Solution
	err       error
}

// NewSolver validates the initial states (one per agent, all on the same
// world) and starts the worker pool. Close must be called to stop it.
func NewSolver(parent context.Context, initialStates []*world.State, cfg Config) (*Solver, error) {
	if len(initialStates) == 0 {
		return nil, fmt.Errorf("%w: no agents", ErrInvalidInput)
	}
	agents := slices.Clone(initialStates)
	for i, state := range agents {
		if state == nil {
			return nil, fmt.Errorf("%w: state %d is nil", ErrInvalidInput, i)
		}
		if !state.World().Equal(agents[0].World()) {
			return nil, fmt.Errorf("%w: agent %d is on a different world", ErrInvalidInput, state.Agent())
		}
	}
	slices.SortStableFunc(agents, func(a, b *world.State) int { return int(a.Agent()) - int(b.Agent()) })

	indexOf := make(map[world.AgentID]int, len(agents))
	goalCells := make(map[world.Position]bool)
	for i, state := range agents {
		if _, duplicate := indexOf[state.Agent()]; duplicate {
			return nil, fmt.Errorf("%w: agent %d appears twice", ErrInvalidInput, state.Agent())
		}
		indexOf[state.Agent()] = i
		for _, goal := range state.Goals() {
			goalCells[goal.Pos] = true
		}
	}

	cache, err := newReplanCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("replan cache: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Search.Logger == nil {
		cfg.Search.Logger = logger
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Solver{
		ctx:           ctx,
		cancel:        cancel,
		searchCtx:     ctx,
		cfg:           cfg,
		runID:         uuid.New(),
		agents:        agents,
		indexOf:       indexOf,
		goalCells:     goalCells,
		cache:         cache,
		openSet:       make(openQueue, 0),
		closed:        make(closedSet),
		replanTasks:   make(chan replanTask),
		replanResults: make(chan replanResult, 2),
	}
	s.logger = logger.With(slog.String("component", "cbs"), slog.String("run", s.runID.String()))
	heap.Init(&s.openSet)

	s.runWorkers(ctx, workers)
	return s, nil
}

// Close stops the workers and releases the replan memo.
func (s *Solver) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.cache.close()
}

// Agents returns the agent ids in joint-action order.
func (s *Solver) Agents() []world.AgentID {
	ids := make([]world.AgentID, len(s.agents))
	for i, state := range s.agents {
		ids[i] = state.Agent()
	}
	return ids
}

// Solve steps until a solution is found or the search fails.
func (s *Solver) Solve() (*Solution, error) {
	ctx, span := telemetry.Tracer().Start(s.ctx, "cbs.Solve", trace.WithAttributes(
		attribute.String("cbs.run", s.runID.String()),
		attribute.Int("cbs.agents", len(s.agents)),
		attribute.String("cbs.cost_model", s.cfg.CostModel.String()),
	))
	defer span.End()
	s.searchCtx = ctx
	defer func() { s.searchCtx = s.ctx }()

	for {
		snapshot, err := s.Step()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if snapshot.Done {
			span.SetAttributes(
				attribute.Int("cbs.nodes_expanded", snapshot.Solution.Stats.NodesExpanded),
				attribute.Int("cbs.makespan", len(snapshot.Solution.Joint)),
			)
			return snapshot.Solution, nil
		}
	}
}

// Step advances the search by one node: the first call builds the root,
// every later call pops, validates and branches one node.
func (s *Solver) Step() (StepSnapshot, error) {
	if s.done {
		return s.snapshot(StepSnapshot{}), s.err
	}
	if err := s.ctx.Err(); err != nil {
		return s.finish(err)
	}

	if !s.rootBuilt {
		s.rootBuilt = true
		s.started = time.Now()
		root, err := s.buildRoot()
		if err != nil {
			return s.finish(err)
		}
		s.push(root)
		return s.snapshot(StepSnapshot{Current: root, Children: []*Node{root}}), nil
	}

	if used, exceeded := s.cfg.Search.Memory.Exceeded(); exceeded {
		s.logger.Warn("maximum memory usage exceeded",
			slog.String("alloc", humanize.IBytes(used)),
			slog.String("max_alloc", s.cfg.Search.Memory.String()),
		)
		return s.finish(fmt.Errorf("cbs: %w", search.ErrMemoryExceeded))
	}
	if s.openSet.Len() == 0 {
		return s.finish(ErrInfeasible)
	}

	s.stepCount++
	node := heap.Pop(&s.openSet).(*openItem).Node
	telemetry.OpenSetSize.Set(float64(s.openSet.Len()))
	if s.closed.contains(node) {
		telemetry.BranchesPruned.WithLabelValues("closed").Inc()
		return s.snapshot(StepSnapshot{Current: node, Skipped: true}), nil
	}
	s.closed.add(node)
	telemetry.NodesExpanded.Inc()

	found := conflict.FirstConflict(node.Paths)
	if found == nil {
		s.done = true
		s.solution = s.buildSolution(node)
		s.logger.Info("solution found",
			slog.Int("makespan", len(s.solution.Joint)),
			slog.Int("nodes_expanded", s.solution.Stats.NodesExpanded),
			slog.Int("nodes_generated", s.solution.Stats.NodesGenerated),
			slog.Duration("elapsed", s.solution.Stats.Duration),
			slog.String("peak_alloc", humanize.IBytes(s.cfg.Search.Memory.Peak())),
		)
		return s.snapshot(StepSnapshot{Current: node}), nil
	}

	telemetry.ConflictsFound.WithLabelValues(found.Kind().String()).Inc()
	s.logger.Debug("expanding node",
		slog.String("node", node.ID.String()),
		slog.Int("depth", node.Depth),
		slog.Any("cost", node.Cost),
		slog.String("conflict", found.String()),
		slog.Int("open", s.openSet.Len()),
	)

	children, err := s.expand(node, found)
	if err != nil {
		return s.finish(err)
	}
	for _, child := range children {
		s.push(child)
	}
	return s.snapshot(StepSnapshot{Current: node, Conflict: found, Children: children}), nil
}

func (s *Solver) finish(err error) (StepSnapshot, error) {
	s.done = true
	s.err = err
	s.logger.Info("search stopped", slog.String("reason", err.Error()), slog.Int("nodes_expanded", s.stepCount))
	return s.snapshot(StepSnapshot{}), err
}

func (s *Solver) snapshot(snapshot StepSnapshot) StepSnapshot {
	snapshot.StepIndex = s.stepCount
	snapshot.OpenSize = s.openSet.Len()
	snapshot.ClosedSize = s.closed.size()
	snapshot.Done = s.done
	snapshot.Found = s.solution != nil
	snapshot.Solution = s.solution
	return snapshot
}

func (s *Solver) push(node *Node) {
	heap.Push(&s.openSet, &openItem{Node: node, Sequence: s.sequence})
	s.sequence++
	s.generated++
	telemetry.OpenSetSize.Set(float64(s.openSet.Len()))
}

// plan runs (or recalls) the low-level search of one agent.
func (s *Solver) plan(ctx context.Context, agent int, constraints world.ConstraintSet) (*search.Result, error) {
	initial := s.agents[agent].WithConstraints(constraints)
	key, keyErr := keyFor(initial.Agent(), s.cfg.Search, initial.Constraints())
	if keyErr == nil {
		if result, ok := s.cache.get(key, initial.Constraints()); ok {
			return result, nil
		}
	}
	result, err := search.Run(ctx, initial, s.cfg.Search)
	if err != nil {
		return nil, err
	}
	if keyErr == nil {
		s.cache.put(key, initial.Constraints(), result)
	}
	return result, nil
}

// buildRoot plans every agent without constraints, in parallel.
func (s *Solver) buildRoot() (*Node, error) {
	n := len(s.agents)
	root := &Node{
		ID:            uuid.New(),
		Plans:         make([][]world.Action, n),
		Paths:         make([]conflict.Path, n),
		Constraints:   make([]world.ConstraintSet, n),
		Trigger:       -1,
		Replans:       make([]int, n),
		GoalConflicts: make([]int, n),
	}

	group, groupCtx := errgroup.WithContext(s.searchCtx)
	for i := range s.agents {
		group.Go(func() error {
			result, err := s.plan(groupCtx, i, world.ConstraintSet{})
			if err != nil {
				return err
			}
			root.Plans[i] = result.Plan
			root.Paths[i] = conflict.Path{Agent: s.agents[i].Agent(), Steps: result.Path}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, search.ErrMemoryExceeded) {
			return nil, fmt.Errorf("cbs: root: %w", err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInfeasible, err)
	}

	root.Cost = s.cfg.CostModel.cost(root)
	if err := root.seal(); err != nil {
		return nil, err
	}
	return root, nil
}

// expand replans each implicated agent under the constraint resolving c.
// Children come back in the order of c.Agents() so selection stays
// deterministic whatever the worker scheduling.
func (s *Solver) expand(node *Node, c conflict.Conflict) ([]*Node, error) {
	goalHit := false
	for _, location := range c.Locations() {
		goalHit = goalHit || s.goalCells[location]
	}

	var tasks []replanTask
	for _, agentID := range c.Agents() {
		agent := s.indexOf[agentID]
		constraint, ok := c.ConstraintFor(agentID)
		if !ok {
			telemetry.BranchesPruned.WithLabelValues("dropped_constraint").Inc()
			continue
		}
		constraints, added := node.Constraints[agent].With(constraint)
		if !added {
			telemetry.BranchesPruned.WithLabelValues("duplicate_constraint").Inc()
			continue
		}
		tasks = append(tasks, replanTask{
			ctx:         s.searchCtx,
			order:       len(tasks),
			agent:       agent,
			parent:      node,
			constraints: constraints,
		})
	}

	for _, task := range tasks {
		select {
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		case s.replanTasks <- task:
		}
	}
	results := make([]replanResult, len(tasks))
	for range tasks {
		select {
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		case result := <-s.replanResults:
			results[result.order] = result
		}
	}
	s.replans += len(tasks)

	children := make([]*Node, 0, len(results))
	for _, result := range results {
		if result.err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			reason := "replan_failed"
			if errors.Is(result.err, search.ErrMemoryExceeded) {
				reason = "replan_memory"
			}
			telemetry.BranchesPruned.WithLabelValues(reason).Inc()
			s.logger.Debug("branch discarded",
				slog.String("cause", reason),
				slog.String("reason", result.err.Error()),
			)
			continue
		}
		child := result.child
		if goalHit {
			for _, agentID := range c.Agents() {
				child.GoalConflicts[s.indexOf[agentID]]++
			}
		}
		child.Cost = s.cfg.CostModel.cost(child)
		if err := child.seal(); err != nil {
			return nil, err
		}
		if s.closed.contains(child) {
			telemetry.BranchesPruned.WithLabelValues("closed").Inc()
			continue
		}
		children = append(children, child)
	}
	return children, nil
}

func (s *Solver) buildSolution(node *Node) *Solution {
	n := len(node.Plans)
	longest := 0
	for _, plan := range node.Plans {
		longest = max(longest, len(plan))
	}

	solution := &Solution{
		Single: n == 1,
		Agents: s.Agents(),
		Plans:  make([][]world.Action, n),
		Paths:  make([]conflict.Path, n),
		Joint:  make(JointPlan, longest),
		Stats: Stats{
			NodesExpanded:  s.stepCount,
			NodesGenerated: s.generated,
			Replans:        s.replans,
			Duration:       time.Since(s.started),
		},
	}
	if solution.Single {
		solution.Plan = node.Plans[0]
	}
	for i := range node.Plans {
		solution.Plans[i] = internal.PadWith(node.Plans[i], longest, world.NoOp)
		solution.Paths[i] = conflict.Path{
			Agent: node.Paths[i].Agent,
			Steps: internal.PadLast(node.Paths[i].Steps, longest+1),
		}
	}
	for t := range solution.Joint {
		solution.Joint[t] = make([]world.Action, n)
		for i := range solution.Plans {
			solution.Joint[t][i] = solution.Plans[i][t]
		}
	}
	return solution
}
