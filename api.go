package mapf

import (
	"context"

	"github.com/pdrpinto/mapf/cbs"
	"github.com/pdrpinto/mapf/search"
	"github.com/pdrpinto/mapf/world"
)

// LowLevelSearch plans a single agent from initial with strategy,
// honouring the constraints already attached to initial.
func LowLevelSearch(
	contextObject context.Context,
	initial *world.State,
	strategy search.Strategy,
	options ...Option,
) (*search.Result, error) {
	searchOptions, err := applyOptions(options)
	if err != nil {
		return nil, err
	}
	cfg, err := searchOptions.searchConfig(strategy)
	if err != nil {
		return nil, err
	}
	if searchOptions.Timeout > 0 {
		var cancel context.CancelFunc
		contextObject, cancel = context.WithTimeout(contextObject, searchOptions.Timeout)
		defer cancel()
	}
	return search.Run(contextObject, initial, cfg)
}

// ConflictBasedSearch plans every agent in initialStates jointly and
// returns a conflict-free solution.
func ConflictBasedSearch(
	contextObject context.Context,
	initialStates []*world.State,
	options ...Option,
) (*cbs.Solution, error) {
	searchOptions, err := applyOptions(options)
	if err != nil {
		return nil, err
	}
	if searchOptions.Timeout > 0 {
		var cancel context.CancelFunc
		contextObject, cancel = context.WithTimeout(contextObject, searchOptions.Timeout)
		defer cancel()
	}
	solver, err := newSolver(contextObject, initialStates, searchOptions)
	if err != nil {
		return nil, err
	}
	defer solver.Close()
	return solver.Solve()
}

// NewSolver returns a CBS solver to drive step by step. The timeout option
// is ignored; bound the run through ctx instead. Close must be called.
func NewSolver(contextObject context.Context, initialStates []*world.State, options ...Option) (*cbs.Solver, error) {
	searchOptions, err := applyOptions(options)
	if err != nil {
		return nil, err
	}
	return newSolver(contextObject, initialStates, searchOptions)
}

func newSolver(contextObject context.Context, initialStates []*world.State, searchOptions Options) (*cbs.Solver, error) {
	cfg, err := searchOptions.solverConfig()
	if err != nil {
		return nil, err
	}
	return cbs.NewSolver(contextObject, initialStates, cfg)
}
