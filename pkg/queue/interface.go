package queue

import (
	"errors"

	"clasificador/pkg/batch"
)

var (
	ErrQueueFull    = errors.New("queue is full")
	ErrQueueStopped = errors.New("queue is stopped")
)

// Queue accepts registered jobs for background processing. Add returns a
// status stream, closed when the job ends, and an error channel that
// receives at most one error before being closed.
type Queue interface {
	Start()
	Stop()
	Add(job *batch.Job) (<-chan batch.Status, chan error, error)
}
