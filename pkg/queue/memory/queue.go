package memory

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"clasificador/pkg/batch"
	"clasificador/pkg/queue"
)

var _ queue.Queue = (*Queue)(nil)

// Queue runs jobs from a buffered channel on a fixed number of loops.
type Queue struct {
	registry *batch.Registry
	runner   *batch.Runner
	loops    int

	items chan *Item
	stop  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

type Item struct {
	Job   *batch.Job
	Error chan error
}

// New returns a queue holding up to size pending jobs, running loops jobs
// at a time.
func New(registry *batch.Registry, runner *batch.Runner, size, loops int) *Queue {
	if size <= 0 {
		size = 100
	}
	if loops <= 0 {
		loops = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		registry: registry,
		runner:   runner,
		loops:    loops,
		items:    make(chan *Item, size),
		stop:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (q *Queue) Start() {
	for i := range q.loops {
		q.wg.Go(func() { q.processLoop(i) })
	}
}

// Stop cancels running jobs and waits for the loops to exit. Jobs still
// pending are marked cancelled.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.mu.Unlock()

	close(q.stop)
	q.cancel()
	q.wg.Wait()

	for {
		select {
		case item := <-q.items:
			_ = q.registry.Cancel(item.Job.ID)
			close(item.Error)
		default:
			return
		}
	}
}

func (q *Queue) Add(job *batch.Job) (<-chan batch.Status, chan error, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return nil, nil, queue.ErrQueueStopped
	}

	statusCh, unsubscribe, err := q.registry.Subscribe(job.ID)
	if err != nil {
		return nil, nil, err
	}
	errCh := make(chan error, 1)

	select {
	case q.items <- &Item{Job: job, Error: errCh}:
		log.Info("job queued", "id", job.ID, "pending", len(q.items))
		return statusCh, errCh, nil
	default:
		unsubscribe()
		return nil, nil, queue.ErrQueueFull
	}
}

func (q *Queue) processLoop(n int) {
	log.Debug("job queue loop started", "loop", n)
	for {
		select {
		case <-q.stop:
			log.Debug("job queue loop stopped", "loop", n)
			return
		case item := <-q.items:
			q.processItem(item)
		}
	}
}

func (q *Queue) processItem(item *Item) {
	defer close(item.Error)
	if err := q.runner.Run(q.ctx, item.Job); err != nil {
		item.Error <- err
	}
}
