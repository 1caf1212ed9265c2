package heuristic

import "github.com/pdrpinto/mapf/world"

// Unreachable is the distance recorded for cells a goal cannot be reached from.
const Unreachable = 1 << 20

// DistanceField holds, per cell in row-major order, the number of moves to
// the source cell over non-wall cells. Boxes are ignored.
type DistanceField []int

// At returns the distance at p, or Unreachable outside the grid.
func (field DistanceField) At(w *world.GridWorld, p world.Position) int {
	if !w.InBounds(p) {
		return Unreachable
	}
	return field[w.Index(p)]
}

var floodDirections = [...]world.Direction{world.North, world.South, world.East, world.West}

// Flood runs a breadth-first fill from source.
func Flood(w *world.GridWorld, source world.Position) DistanceField {
	field := make(DistanceField, w.Size())
	for i := range field {
		field[i] = Unreachable
	}
	if w.IsWall(source) {
		return field
	}

	field[w.Index(source)] = 0
	queue := []world.Position{source}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		next := field[w.Index(current)] + 1
		for _, d := range floodDirections {
			neighbor := current.Add(d.Delta())
			if w.IsWall(neighbor) || field[w.Index(neighbor)] != Unreachable {
				continue
			}
			field[w.Index(neighbor)] = next
			queue = append(queue, neighbor)
		}
	}
	return field
}
