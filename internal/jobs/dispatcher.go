// Package jobs defines background tasks such as automated code reviews.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reviewloop/reviewloop/internal/core"
)

// dispatcher implements core.JobDispatcher and manages a pool of worker
// goroutines for processing queued review requests.
type dispatcher struct {
	reviewJob  core.Job
	jobQueue   chan *core.ReviewRequest
	maxWorkers int
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If maxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(reviewJob core.Job, maxWorkers int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	d := &dispatcher{
		reviewJob:  reviewJob,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan *core.ReviewRequest, 100),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes requests from the queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting review worker", "id", workerID)

	for req := range d.jobQueue {
		d.processRequest(workerID, req)
	}

	d.logger.Info("shutting down review worker", "id", workerID)
}

func (d *dispatcher) processRequest(workerID int, req *core.ReviewRequest) {
	d.logger.Info("worker processing review",
		"worker_id", workerID,
		"repo", req.RepoFullName,
		"pr", req.PRNumber,
	)

	if err := d.reviewJob.Run(context.Background(), req); err != nil {
		d.logger.Error("code review job failed",
			"repo", req.RepoFullName,
			"pr", req.PRNumber,
			"error", err,
		)
	}
}

// Dispatch queues a review request for processing by a worker. A full queue
// rejects the request, giving callers backpressure instead of unbounded
// memory growth.
func (d *dispatcher) Dispatch(_ context.Context, req *core.ReviewRequest) error {
	d.logger.Info("queuing code review job", "repo", req.RepoFullName, "pr", req.PRNumber)

	select {
	case d.jobQueue <- req:
		return nil
	default:
		return fmt.Errorf("job queue is full, cannot accept new review job")
	}
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to finish.
func (d *dispatcher) Stop() {
	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	close(d.jobQueue)
	d.wg.Wait()
	d.logger.Info("all review jobs have finished")
}
