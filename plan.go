package taskgraph

import (
	"fmt"
	"strings"
)

// Plan is the compiled execution plan for a task graph: the transitively
// reduced dependency edges and the batches they level into.
//
// A plan is immutable once returned by [Graph.Compile]. The slices
// returned by its accessors are internal; callers must treat them as
// read-only.
//
// For every edge j→i the plan guarantees BatchIndex(i) > BatchIndex(j),
// and tasks within one batch carry no mutual ordering: the recording layer
// may record them concurrently, bridging batch boundaries with whatever
// synchronization its API requires.
type Plan struct {
	tasks   int
	succ    [][]int
	batches [][]int
	batchOf []int
}

// TaskCount returns the number of tasks the plan covers.
func (p *Plan) TaskCount() int { return p.tasks }

// Batches returns the execution batches in dependency order: every
// predecessor of a task lies in a strictly earlier batch. Each task index
// appears in exactly one batch.
func (p *Plan) Batches() [][]int { return p.batches }

// Successors returns the tasks that directly depend on task i after
// transitive reduction.
func (p *Plan) Successors(i int) []int { return p.succ[i] }

// BatchIndex returns the batch number task i was assigned to.
func (p *Plan) BatchIndex(i int) int { return p.batchOf[i] }

// EdgeCount returns the number of dependency edges after reduction.
func (p *Plan) EdgeCount() int { return countEdges(p.succ) }

// String returns a multi-line dump of the plan's edges and batches for
// debugging.
func (p *Plan) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Plan(%d tasks, %d edges, %d batches)\n", p.tasks, p.EdgeCount(), len(p.batches))
	for u, targets := range p.succ {
		if len(targets) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  %d -> %v\n", u, targets)
	}
	for b, batch := range p.batches {
		fmt.Fprintf(&sb, "  batch %d: %v\n", b, batch)
	}
	return sb.String()
}
