// Package recording walks a compiled task-graph plan and turns it into
// submitted GPU work.
//
// Each task's Record callback fills its own command encoder. Tasks within
// one batch have no mutual ordering and may be recorded concurrently; the
// batch's command buffers are then submitted together and the queue is
// polled until it reports the submission complete before the next batch
// begins. That wait is the synchronization implied by crossing a batch
// boundary; finer-grained barriers between individual resources are left
// to the callbacks.
package recording

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/taskgraph"
	"github.com/gogpu/taskgraph/device"
	"github.com/gogpu/taskgraph/internal/parallel"
)

// DefaultWaitTimeout bounds how long Execute waits for one batch to
// finish on the GPU before giving up.
const DefaultWaitTimeout = 5 * time.Second

// pollInterval is how long Execute sleeps between completion polls while
// waiting for a batch.
const pollInterval = 100 * time.Microsecond

// Option configures a Recorder during creation.
type Option func(*recorderOptions)

// recorderOptions holds optional configuration for Recorder creation.
type recorderOptions struct {
	workers     int
	label       string
	waitTimeout time.Duration
}

// defaultOptions returns the default recorder options.
func defaultOptions() recorderOptions {
	return recorderOptions{
		workers:     1,
		label:       "taskgraph",
		waitTimeout: DefaultWaitTimeout,
	}
}

// WithWorkers sets how many goroutines record tasks of one batch
// concurrently. The default of 1 records sequentially in task order;
// pass 0 to use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *recorderOptions) {
		o.workers = n
	}
}

// WithLabel sets the debug label prefix applied to command encoders.
func WithLabel(label string) Option {
	return func(o *recorderOptions) {
		o.label = label
	}
}

// WithWaitTimeout sets how long Execute waits for each batch's submission
// to complete on the GPU.
func WithWaitTimeout(d time.Duration) Option {
	return func(o *recorderOptions) {
		o.waitTimeout = d
	}
}

// Recorder executes compiled plans against a device.
//
// A Recorder is safe for sequential reuse across frames. Execute itself
// must not be called concurrently on the same Recorder: batches are
// ordered by data hazards, and interleaving two plans on one queue would
// break that ordering.
type Recorder struct {
	dev         *device.Device
	hal         hal.Device
	queue       hal.Queue
	pool        *parallel.WorkerPool
	label       string
	waitTimeout time.Duration
	closed      atomic.Bool
}

// New creates a Recorder for the given device.
func New(dev *device.Device, opts ...Option) (*Recorder, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Recorder{
		dev:         dev,
		hal:         dev.HAL(),
		queue:       dev.Queue(),
		label:       o.label,
		waitTimeout: o.waitTimeout,
	}
	if o.workers != 1 {
		r.pool = parallel.NewWorkerPool(o.workers)
	}
	return r, nil
}

// Device returns the device the recorder executes against.
func (r *Recorder) Device() *device.Device { return r.dev }

// Close releases the recorder's worker pool, if any. All further Execute
// calls fail with [ErrClosed].
func (r *Recorder) Close() {
	if r.closed.Swap(true) {
		return
	}
	if r.pool != nil {
		r.pool.Close()
	}
}

// Execute records and submits every task of the plan, batch by batch.
//
// Tasks inside a batch are recorded into separate command encoders
// (concurrently when the recorder has workers) and their command buffers
// are submitted in task-index order. The submission index the queue
// returns is polled to completion before the next batch starts, so every
// dependency crosses a completed submission. Context cancellation is
// honored between batches and while waiting for a batch.
func (r *Recorder) Execute(ctx context.Context, g *taskgraph.Graph, plan *taskgraph.Plan) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if plan == nil {
		return ErrNilPlan
	}
	if plan.TaskCount() != g.Len() {
		return fmt.Errorf("%w: plan has %d tasks, graph has %d", ErrPlanMismatch, plan.TaskCount(), g.Len())
	}

	log := taskgraph.Logger()
	for batchIdx, batch := range plan.Batches() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("execute canceled before batch %d: %w", batchIdx, err)
		}

		cmdBufs, err := r.recordBatch(ctx, g, batchIdx, batch)
		if err != nil {
			r.freeAll(cmdBufs)
			return err
		}

		if err := r.submitBatch(ctx, batchIdx, cmdBufs); err != nil {
			return err
		}

		log.Debug("batch executed", "batch", batchIdx, "tasks", len(batch))
	}
	return nil
}

// recordBatch records every task of one batch into its own command
// buffer. The returned slice is parallel to batch; on error it may hold
// nils and already-recorded buffers for the caller to free.
func (r *Recorder) recordBatch(ctx context.Context, g *taskgraph.Graph, batchIdx int, batch []int) ([]hal.CommandBuffer, error) {
	cmdBufs := make([]hal.CommandBuffer, len(batch))
	errs := make([]error, len(batch))

	record := func(slot, taskIdx int) {
		cmdBufs[slot], errs[slot] = r.recordTask(ctx, g, batchIdx, taskIdx)
	}

	if r.pool == nil || len(batch) == 1 {
		for slot, taskIdx := range batch {
			record(slot, taskIdx)
		}
	} else {
		work := make([]func(), len(batch))
		for slot, taskIdx := range batch {
			work[slot] = func() { record(slot, taskIdx) }
		}
		r.pool.ExecuteAll(work)
	}

	for slot, err := range errs {
		if err != nil {
			return cmdBufs, fmt.Errorf("record task %d (%q): %w", batch[slot], g.Task(batch[slot]).Name, err)
		}
	}
	return cmdBufs, nil
}

// recordTask runs one task's callback inside a fresh command encoder.
// An encoder abandoned on any error path is discarded so the backend can
// reclaim it.
func (r *Recorder) recordTask(ctx context.Context, g *taskgraph.Graph, batchIdx, taskIdx int) (hal.CommandBuffer, error) {
	task := g.Task(taskIdx)
	label := fmt.Sprintf("%s/batch%d/%s", r.label, batchIdx, task.Name)

	encoder, err := r.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	if task.Record != nil {
		tctx := &taskContext{
			ctx:     ctx,
			index:   taskIdx,
			task:    task,
			encoder: encoder,
		}
		if err := task.Record(tctx); err != nil {
			encoder.DiscardEncoding()
			return nil, err
		}
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	return cmdBuf, nil
}

// submitBatch submits one batch's command buffers and waits for the queue
// to report the submission complete, then frees the buffers.
func (r *Recorder) submitBatch(ctx context.Context, batchIdx int, cmdBufs []hal.CommandBuffer) error {
	defer r.freeAll(cmdBufs)

	idx, err := r.queue.Submit(cmdBufs)
	if err != nil {
		return fmt.Errorf("submit batch %d: %w", batchIdx, err)
	}

	deadline := time.Now().Add(r.waitTimeout)
	for r.queue.PollCompleted() < idx {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("execute canceled during batch %d: %w", batchIdx, err)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: batch %d after %v", ErrBatchTimeout, batchIdx, r.waitTimeout)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// freeAll returns command buffers to the device, skipping nil slots left
// by recording failures.
func (r *Recorder) freeAll(cmdBufs []hal.CommandBuffer) {
	for _, cb := range cmdBufs {
		if cb != nil {
			r.hal.FreeCommandBuffer(cb)
		}
	}
}
