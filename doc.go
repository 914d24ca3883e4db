// Package taskgraph provides a generation-stamped GPU resource pool and a
// declarative task scheduler for the GoGPU ecosystem.
//
// # Overview
//
// Applications describe GPU work as discrete tasks, each declaring which
// pooled resources it reads and writes. The graph builder infers execution
// order from those declarations: it detects data hazards between every
// ordered pair of tasks, removes redundant edges by transitive reduction,
// and levels the result into batches of mutually independent tasks. The
// caller never hand-writes synchronization; crossing a batch boundary is
// where the recording layer inserts it.
//
// # Quick Start
//
//	import "github.com/gogpu/taskgraph"
//
//	buffers := taskgraph.NewPool[MyBuffer]()
//	vertex := taskgraph.BufferID(buffers.Add(MyBuffer{...}))
//
//	g := taskgraph.NewGraph()
//	g.Add(taskgraph.Task{
//	    Name:      "upload",
//	    Type:      taskgraph.TaskTransfer,
//	    Resources: []taskgraph.Resource{taskgraph.Buffer(vertex, taskgraph.Write)},
//	    Record:    uploadFn,
//	})
//	g.Add(taskgraph.Task{
//	    Name:      "draw",
//	    Type:      taskgraph.TaskGraphics,
//	    Resources: []taskgraph.Resource{taskgraph.Buffer(vertex, taskgraph.Read)},
//	    Record:    drawFn,
//	})
//
//	plan, err := g.Compile()
//	// plan.Batches() == [[0], [1]]
//
// # Handles
//
// Pool handles encode page, slot and generation in one opaque 64-bit
// value. Deleting a resource and reusing its slot bumps the generation, so
// a stale handle fails with a typed error instead of silently resolving to
// the slot's new occupant.
//
// # Architecture
//
// The module is organized into:
//   - Root package: Handle, Pool, Task, Graph, Plan, PlanCache
//   - device: pooled buffers/images/views/samplers over a gogpu/wgpu HAL device
//   - recording: walks compiled plans, recording each batch and waiting
//     for each submission to complete before the next batch begins
//
// The root package has no graphics-API dependency; pools are generic over
// the stored resource type.
package taskgraph
