package taskgraph

import (
	"context"
	"fmt"
)

// Access describes how a task touches a declared resource.
type Access uint8

const (
	// Read declares that the task only reads the resource. Two tasks that
	// both read a resource are independent.
	Read Access = iota

	// Write declares that the task writes the resource.
	Write

	// ReadWrite declares that the task both reads and writes the resource.
	// It hazards against every other access mode, including Read.
	ReadWrite
)

// String returns the string representation of the access mode.
func (a Access) String() string {
	switch a {
	case Read:
		return "Read"
	case Write:
		return "Write"
	case ReadWrite:
		return "ReadWrite"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// hazardsWith reports whether two accesses to the same resource require an
// ordering edge. Only a Read/Read pair is hazard-free.
func (a Access) hazardsWith(b Access) bool {
	return a != Read || b != Read
}

// TaskType classifies the queue a task's work belongs on. The scheduler
// itself does not branch on it; the recording layer uses it to pick a
// queue and pipeline-stage scope.
type TaskType uint8

const (
	// TaskGraphics is work recorded into a render pass.
	TaskGraphics TaskType = iota
	// TaskCompute is a compute dispatch.
	TaskCompute
	// TaskTransfer is a copy/blit operation.
	TaskTransfer
)

// String returns the string representation of the task type.
func (t TaskType) String() string {
	switch t {
	case TaskGraphics:
		return "Graphics"
	case TaskCompute:
		return "Compute"
	case TaskTransfer:
		return "Transfer"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// ResourceKind identifies which resource class a declaration names.
// Handles of different kinds never compare equal even when their bit
// patterns coincide.
type ResourceKind uint8

const (
	// KindBuffer is a GPU buffer.
	KindBuffer ResourceKind = iota
	// KindImage is a GPU image (texture).
	KindImage
	// KindImageView is a view onto a GPU image.
	KindImageView
	// KindSampler is a GPU sampler.
	KindSampler
)

// String returns the string representation of the resource kind.
func (k ResourceKind) String() string {
	switch k {
	case KindBuffer:
		return "Buffer"
	case KindImage:
		return "Image"
	case KindImageView:
		return "ImageView"
	case KindSampler:
		return "Sampler"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Resource is one declared access within a task: which resource, and how
// it is touched. Declarations are the only input to dependency detection;
// the builder never dereferences the underlying resource.
type Resource struct {
	// Kind is the resource class the handle belongs to.
	Kind ResourceKind

	// Handle identifies the resource within its class's pool.
	Handle Handle

	// Access is how the task touches the resource.
	Access Access
}

// String returns a human-readable description of the declaration.
func (r Resource) String() string {
	return fmt.Sprintf("%v(%v, %v)", r.Kind, r.Handle, r.Access)
}

// Buffer declares an access to a pooled buffer.
func Buffer(id BufferID, a Access) Resource {
	return Resource{Kind: KindBuffer, Handle: Handle(id), Access: a}
}

// Image declares an access to a pooled image.
func Image(id ImageID, a Access) Resource {
	return Resource{Kind: KindImage, Handle: Handle(id), Access: a}
}

// ImageView declares an access to a pooled image view.
func ImageView(id ImageViewID, a Access) Resource {
	return Resource{Kind: KindImageView, Handle: Handle(id), Access: a}
}

// Sampler declares an access to a pooled sampler.
func Sampler(id SamplerID, a Access) Resource {
	return Resource{Kind: KindSampler, Handle: Handle(id), Access: a}
}

// RecordContext is the per-task surface the recording layer hands to a
// task's Record callback when the task's batch is reached.
//
// Encoder returns the command encoder the task should record into. It is
// typed any so this package carries no graphics-API dependency; callbacks
// assert it to the concrete encoder of the recording layer in use (for
// the recording package in this module, a hal.CommandEncoder). This is the
// same decoupling gpucontext uses for its HalDevice() any provider methods.
type RecordContext interface {
	// Context returns the context of the surrounding Execute call.
	Context() context.Context

	// TaskIndex returns the task's position in the compiled graph.
	TaskIndex() int

	// Resources returns the task's declared accesses.
	Resources() []Resource

	// Encoder returns the command encoder for the task.
	Encoder() any
}

// RecordFunc records a task's GPU work. It runs when the recording layer
// reaches the task's batch; returning an error aborts the execute pass.
type RecordFunc func(RecordContext) error

// Task is a unit of declared GPU work: the resources it reads and writes,
// and a deferred callback that records the actual commands.
//
// Tasks are identified throughout the graph algorithms by their index in
// the order they were added, which is also the precedence baseline when
// hazards force an ordering.
type Task struct {
	// Name is a debug label carried into logs and error messages.
	Name string

	// Type classifies the work for queue selection by the recording layer.
	Type TaskType

	// Resources are the task's declared accesses.
	Resources []Resource

	// Record is invoked by the recording layer. May be nil for tasks that
	// exist only to express ordering.
	Record RecordFunc
}

// validate rejects a task that declares the same resource more than once
// with conflicting access modes. Duplicate declarations with the same mode
// are tolerated.
func (t *Task) validate(index int) error {
	if len(t.Resources) < 2 {
		return nil
	}
	seen := make(map[Resource]Access, len(t.Resources))
	for _, r := range t.Resources {
		key := Resource{Kind: r.Kind, Handle: r.Handle}
		if prev, ok := seen[key]; ok && prev != r.Access {
			return fmt.Errorf("%w: task %d (%q) declares %v %v as both %v and %v",
				ErrConflictingAccess, index, t.Name, r.Kind, r.Handle, prev, r.Access)
		}
		seen[key] = r.Access
	}
	return nil
}
