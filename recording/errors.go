package recording

import "errors"

// Package errors for the recording layer.
var (
	// ErrNilDevice is returned when creating a Recorder without a device.
	ErrNilDevice = errors.New("recording: device is nil")

	// ErrNilPlan is returned when Execute is called without a compiled plan.
	ErrNilPlan = errors.New("recording: plan is nil")

	// ErrPlanMismatch is returned when a plan was compiled from a different
	// task list than the graph passed to Execute.
	ErrPlanMismatch = errors.New("recording: plan does not match graph")

	// ErrBatchTimeout is returned when the GPU does not report a batch's
	// submission complete within the configured timeout.
	ErrBatchTimeout = errors.New("recording: timed out waiting for batch completion")

	// ErrClosed is returned by Execute after the Recorder has been closed.
	ErrClosed = errors.New("recording: recorder is closed")
)
