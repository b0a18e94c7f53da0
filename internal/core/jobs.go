package core

import "context"

// JobDispatcher defines the contract for a system that can accept and queue
// background jobs for asynchronous processing. This interface decouples the
// request source (e.g., an HTTP handler) from the job execution mechanism.
type JobDispatcher interface {
	// Dispatch accepts a ReviewRequest and queues it for processing.
	// It returns an error if the job cannot be queued, for example, if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, req *ReviewRequest) error

	// Stop waits for queued jobs to drain and shuts the workers down.
	Stop()
}

// Job represents a single, executable unit of work that can be processed by
// the application's job dispatcher.
type Job interface {
	// Run executes the job's logic. It receives a context for managing its
	// lifecycle and the review request containing the data needed to perform
	// its task.
	Run(ctx context.Context, req *ReviewRequest) error
}
