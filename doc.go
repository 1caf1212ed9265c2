// Package mapf plans conflict-free paths for several agents, each pushing
// and pulling its own boxes, on a shared grid.
//
// It exposes three entry points:
//
//   - LowLevelSearch: plan one agent under its constraints with a chosen
//     frontier (BFS, DFS, A*, weighted A*, greedy or best-first width).
//   - ConflictBasedSearch: plan all agents jointly and get a padded joint plan.
//   - NewSolver: drive the conflict-based search one node at a time to feed
//     UIs or debugging tools.
//
// The high level keeps a single orchestrator that owns the open and closed
// sets, while a worker pool replans the agents of sibling branches.
package mapf
