package nav

import "container/heap"

// AStar finds the shortest walkable path between two cells on the grid.
// Returns the path as cells excluding the start, including the goal, or nil
// when no path exists. Movement is 4-directional.
func AStar(g *Grid, from, to Cell, maxNodes int) []Cell {
	if g == nil || !g.Walkable(to.X, to.Y) {
		return nil
	}
	if from == to {
		return []Cell{}
	}
	if maxNodes <= 0 {
		maxNodes = g.Width * g.Height
	}

	heuristic := func(a, b Cell) int {
		dx := a.X - b.X
		if dx < 0 {
			dx = -dx
		}
		dy := a.Y - b.Y
		if dy < 0 {
			dy = -dy
		}
		return dx + dy
	}

	open := &nodeHeap{}
	heap.Init(open)
	closed := make(map[Cell]bool)
	gScore := map[Cell]int{from: 0}

	heap.Push(open, &pathNode{cell: from, f: heuristic(from, to)})

	dirs := [4]Cell{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	expanded := 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true
		expanded++
		if expanded > maxNodes {
			return nil
		}

		if cur.cell == to {
			var path []Cell
			for n := cur; n.parent != nil; n = n.parent {
				path = append(path, n.cell)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, d := range dirs {
			next := Cell{cur.cell.X + d.X, cur.cell.Y + d.Y}
			if closed[next] || !g.Walkable(next.X, next.Y) {
				continue
			}
			ng := cur.g + 1
			if prev, ok := gScore[next]; ok && ng >= prev {
				continue
			}
			gScore[next] = ng
			heap.Push(open, &pathNode{
				cell:   next,
				g:      ng,
				f:      ng + heuristic(next, to),
				parent: cur,
			})
		}
	}
	return nil
}

type pathNode struct {
	cell   Cell
	g, f   int
	parent *pathNode
}

type nodeHeap []*pathNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*pathNode)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
