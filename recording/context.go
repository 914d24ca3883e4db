package recording

import (
	"context"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/taskgraph"
)

// taskContext is the taskgraph.RecordContext handed to Record callbacks.
// Encoder returns the task's hal.CommandEncoder behind any; callbacks
// recover it with a type assertion:
//
//	enc := rc.Encoder().(hal.CommandEncoder)
type taskContext struct {
	ctx     context.Context
	index   int
	task    *taskgraph.Task
	encoder hal.CommandEncoder
}

var _ taskgraph.RecordContext = (*taskContext)(nil)

// Context returns the context of the surrounding Execute call.
func (c *taskContext) Context() context.Context { return c.ctx }

// TaskIndex returns the task's position in the compiled graph.
func (c *taskContext) TaskIndex() int { return c.index }

// Resources returns the task's declared accesses.
func (c *taskContext) Resources() []taskgraph.Resource { return c.task.Resources }

// Encoder returns the hal.CommandEncoder for the task.
func (c *taskContext) Encoder() any { return c.encoder }
