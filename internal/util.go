package internal

import "slices"

// ReconstructPath walks predecessor links back from current and returns the
// chain in start-to-current order.
func ReconstructPath[NodeType any](
	current NodeType,
	previous func(NodeType) (NodeType, bool),
) []NodeType {
	path := []NodeType{current}
	for {
		previousNode, exists := previous(current)
		if !exists {
			break
		}
		path = append(path, previousNode)
		current = previousNode
	}
	// reverse path
	slices.Reverse(path)
	return path
}

// PadWith returns items extended to length n with filler. Items already at
// least n long are returned as is.
func PadWith[T any](items []T, n int, filler T) []T {
	if len(items) >= n {
		return items
	}
	padded := make([]T, n)
	copy(padded, items)
	for i := len(items); i < n; i++ {
		padded[i] = filler
	}
	return padded
}

// PadLast extends a non-empty slice to length n by repeating its final element.
func PadLast[T any](items []T, n int) []T {
	if len(items) == 0 {
		return items
	}
	return PadWith(items, n, items[len(items)-1])
}
