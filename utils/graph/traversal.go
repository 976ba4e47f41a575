package graph

import W "github.com/cs-au-dk/p4absint/utils/worklist"

// traversalFunc is called with every visited node and its distance from
// the closest start node.
type traversalFunc[T any] func(node T, depth int) (stop bool)

// BFSV visits the nodes reachable from the start nodes in breadth-first
// order. The search stops once f returns true, in which case BFSV returns
// true.
func (G Graph[T]) BFSV(f traversalFunc[T], starts ...T) bool {
	depth := G.mapFactory()
	for _, start := range starts {
		depth.Set(start, 0)
	}

	done := false
	W.StartV(starts, func(node T, add func(T)) {
		d, _ := depth.Get(node)
		if done || f(node, d.(int)) {
			done = true
			return
		}

		for _, next := range G.Edges(node) {
			if _, found := depth.Get(next); !found {
				depth.Set(next, d.(int)+1)
				add(next)
			}
		}
	})

	return done
}

func (G Graph[T]) BFS(start T, f traversalFunc[T]) bool {
	return G.BFSV(f, start)
}

// Distances computes the length of the shortest path from start to every
// node reachable from it.
func (G Graph[T]) Distances(start T) Mapper[T] {
	res := G.mapFactory()
	G.BFS(start, func(node T, depth int) bool {
		res.Set(node, depth)
		return false
	})
	return res
}
