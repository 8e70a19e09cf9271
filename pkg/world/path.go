package world

import (
	"container/heap"

	"github.com/StoreStation/minebot/pkg/geom"
)

// FindPath runs A* over the walkable block graph from start to end.
// Returns the node sequence including both endpoints, or ok=false
// when the search exhausts the reachable graph.
//
// The heuristic is Manhattan distance plus one, kept for parity with
// the behaviour this client replicates even though the +1 makes it
// inadmissible in theory.
func (m *Mirror) FindPath(start, end geom.BlockPos) ([]geom.BlockPos, bool) {
	open := &nodeQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{pos: start, heuristic: heuristic(start, end)})

	cameFrom := make(map[geom.BlockPos]geom.BlockPos)
	cost := map[geom.BlockPos]int32{start: 0}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		// The goal test uses the same +1-shifted metric as the
		// heuristic, so the search runs to the target block itself.
		if cur.heuristic < 2 {
			return reconstruct(cameFrom, cur.pos), true
		}
		for _, step := range m.neighbours(cur.pos) {
			next := cost[cur.pos] + step.cost
			if seen, ok := cost[step.pos]; ok && seen <= next {
				continue
			}
			cost[step.pos] = next
			cameFrom[step.pos] = cur.pos
			heap.Push(open, &pathNode{
				pos:       step.pos,
				cost:      next,
				heuristic: heuristic(step.pos, end),
			})
		}
	}
	return nil, false
}

func heuristic(p, end geom.BlockPos) int32 {
	return p.Manhattan(end) + 1
}

type pathStep struct {
	pos  geom.BlockPos
	cost int32
}

// neighbours emits the walkable moves from p for the four cardinal
// directions: a flat step, a one-block drop, or a one-block step-up.
func (m *Mirror) neighbours(p geom.BlockPos) []pathStep {
	steps := make([]pathStep, 0, 4)
	for _, d := range [4][2]int32{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		if step, ok := m.checkDirection(p, d[0], d[1]); ok {
			steps = append(steps, step)
		}
	}
	return steps
}

func (m *Mirror) checkDirection(p geom.BlockPos, dx, dz int32) (pathStep, bool) {
	feet := m.passableAt(p.Offset(dx, 0, dz))
	head := m.passableAt(p.Offset(dx, 1, dz))
	below := p.Offset(dx, -1, dz)

	switch {
	case feet && head && !m.passableAt(below):
		return pathStep{pos: p.Offset(dx, 0, dz), cost: 1}, true
	case feet && head && m.passableAt(below) && !m.passableAt(p.Offset(dx, -2, dz)):
		return pathStep{pos: below, cost: 2}, true
	case head && m.passableAt(p.Offset(dx, 2, dz)) && !feet:
		return pathStep{pos: p.Offset(dx, 1, dz), cost: 2}, true
	}
	return pathStep{}, false
}

// passableAt treats unloaded voxels as impassable for pathfinding:
// a route through unknown terrain is no route at all.
func (m *Mirror) passableAt(p geom.BlockPos) bool {
	state, ok := m.store.StateAt(p)
	return ok && state.Passable()
}

func reconstruct(cameFrom map[geom.BlockPos]geom.BlockPos, last geom.BlockPos) []geom.BlockPos {
	var rev []geom.BlockPos
	for cur, ok := last, true; ok; cur, ok = cameFrom[cur], hasPrev(cameFrom, cur) {
		rev = append(rev, cur)
	}
	path := make([]geom.BlockPos, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path
}

func hasPrev(cameFrom map[geom.BlockPos]geom.BlockPos, p geom.BlockPos) bool {
	_, ok := cameFrom[p]
	return ok
}

type pathNode struct {
	pos       geom.BlockPos
	cost      int32
	heuristic int32
}

type nodeQueue []*pathNode

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	return q[i].cost+q[i].heuristic < q[j].cost+q[j].heuristic
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(*pathNode)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	node := old[n-1]
	*q = old[:n-1]
	return node
}
