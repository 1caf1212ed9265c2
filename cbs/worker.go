package cbs

import (
	"context"

	"github.com/pdrpinto/mapf/conflict"
	"github.com/pdrpinto/mapf/world"
)

// replanTask is a request from the solver to the workers: replan one agent
// of a parent node under an extended constraint set.
type replanTask struct {
	ctx         context.Context
	order       int
	agent       int
	parent      *Node
	constraints world.ConstraintSet
}

// replanResult is the worker's answer. Child is nil when the replan failed.
type replanResult struct {
	order int
	child *Node
	err   error
}

// runWorkers starts the worker pool. Workers stop when ctx is done.
func (s *Solver) runWorkers(ctx context.Context, numberOfWorkers int) {
	for i := 0; i < numberOfWorkers; i++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case task := <-s.replanTasks:
					child, err := s.replan(task)
					s.replanResults <- replanResult{order: task.order, child: child, err: err}
				}
			}
		}()
	}
}

// replan builds the child node for task. It only reads the parent.
func (s *Solver) replan(task replanTask) (*Node, error) {
	result, err := s.plan(task.ctx, task.agent, task.constraints)
	if err != nil {
		return nil, err
	}

	child := task.parent.branch(task.agent)
	child.Plans[task.agent] = result.Plan
	child.Paths[task.agent] = conflict.Path{Agent: s.agents[task.agent].Agent(), Steps: result.Path}
	child.Constraints[task.agent] = task.constraints
	child.Replans[task.agent]++
	return child, nil
}
