package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning reports a trigger on a scheduler that was
	// never started or has already stopped.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull reports that every worker slot is busy and the
	// dispatch queue has no room for another job.
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidConfig reports a scheduler configuration that fails
	// validation.
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
