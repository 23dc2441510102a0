package batch

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"clasificador/pkg/utils"
)

type State string

const (
	StateUploaded   State = "SUBIDO"
	StateProcessing State = "PROCESANDO"
	StateCompleted  State = "COMPLETADO"
	StateCancelled  State = "CANCELADO"
	StateError      State = "ERROR"
)

// Terminal reports whether no further progress can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateError
}

// secondsPerRow is the per-row estimate used for the remaining time.
const secondsPerRow = 2

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrAlreadyProcessing = errors.New("job already processing")
	ErrJobActive         = errors.New("job is still processing")
)

// Status is a point-in-time view of a job.
type Status struct {
	ID         string         `json:"id"`
	State      State          `json:"state"`
	Total      int            `json:"total"`
	Processed  int            `json:"processed"`
	Strategies map[string]int `json:"strategies,omitempty"`
	Progress   float64        `json:"progress"`
	ETASeconds int            `json:"eta_seconds"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Job is a registered batch. Its status is only mutated through the
// registry and the runner.
type Job struct {
	ID   string
	Rows []Row

	cancelled atomic.Bool

	mu     sync.Mutex
	status Status
	subs   []chan Status
}

func (j *Job) Cancelled() bool {
	return j.cancelled.Load()
}

func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshot()
}

// snapshot must be called with j.mu held.
func (j *Job) snapshot() Status {
	s := j.status
	s.Strategies = maps.Clone(j.status.Strategies)
	if s.Total > 0 {
		s.Progress = float64(s.Processed) / float64(s.Total) * 100
	}
	if !s.State.Terminal() {
		s.ETASeconds = (s.Total - s.Processed) * secondsPerRow
	}
	return s
}

func (j *Job) begin() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.State == StateProcessing {
		return ErrAlreadyProcessing
	}
	if j.status.State.Terminal() {
		return fmt.Errorf("job %s already %s", j.ID, j.status.State)
	}
	now := time.Now()
	j.status.State = StateProcessing
	j.status.StartedAt = &now
	j.publish()
	return nil
}

// advance records a processed row and returns the processed count.
func (j *Job) advance(strategy string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.Processed++
	if j.status.Strategies == nil {
		j.status.Strategies = make(map[string]int)
	}
	j.status.Strategies[strategy]++
	j.publish()
	return j.status.Processed
}

func (j *Job) finish(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finishLocked(err)
}

func (j *Job) finishLocked(err error) {
	if j.status.State.Terminal() {
		return
	}
	now := time.Now()
	j.status.FinishedAt = &now
	switch {
	case j.Cancelled():
		j.status.State = StateCancelled
	case err != nil:
		j.status.State = StateError
		j.status.Error = err.Error()
	default:
		j.status.State = StateCompleted
	}
	j.publish()
}

// publish fans the current status out to subscribers without blocking.
// Subscribers are closed once the job reaches a terminal state.
// Must be called with j.mu held.
func (j *Job) publish() {
	s := j.snapshot()
	for _, ch := range j.subs {
		select {
		case ch <- s:
		default:
		}
	}
	if s.State.Terminal() {
		for _, ch := range j.subs {
			close(ch)
		}
		j.subs = nil
	}
}

// cancel returns the state the job was in when flagged.
func (j *Job) cancel() State {
	j.cancelled.Store(true)

	j.mu.Lock()
	defer j.mu.Unlock()
	state := j.status.State
	if state == StateUploaded {
		j.finishLocked(nil)
	}
	return state
}

func (j *Job) subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 16)

	j.mu.Lock()
	defer j.mu.Unlock()
	ch <- j.snapshot()
	if j.status.State.Terminal() {
		close(ch)
		return ch, func() {}
	}
	j.subs = append(j.subs, ch)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			j.mu.Lock()
			defer j.mu.Unlock()
			if i := slices.Index(j.subs, ch); i >= 0 {
				j.subs = slices.Delete(j.subs, i, i+1)
				close(ch)
			}
		})
	}
}

// Registry tracks every job by id.
type Registry struct {
	jobs *utils.SyncMap[map[string]*Job, string, *Job]
}

func NewRegistry() *Registry {
	return &Registry{jobs: utils.NewSyncMap[map[string]*Job]()}
}

// Register stores a new job in the uploaded state.
func (r *Registry) Register(rows []Row) *Job {
	job := &Job{
		ID:   ksuid.New().String(),
		Rows: rows,
		status: Status{
			State:     StateUploaded,
			Total:     len(rows),
			CreatedAt: time.Now(),
		},
	}
	job.status.ID = job.ID
	r.jobs.Store(job.ID, job)
	log.Info("job registered", "id", job.ID, "rows", len(rows))
	return job
}

func (r *Registry) Get(id string) (*Job, error) {
	job, ok := r.jobs.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// Cancel flags the job; the runner stops picking up rows. Cancelling a job
// that has not started marks it cancelled right away.
func (r *Registry) Cancel(id string) error {
	job, err := r.Get(id)
	if err != nil {
		return err
	}
	state := job.cancel()
	log.Info("job cancelled", "id", id, "state", state)
	return nil
}

func (r *Registry) Snapshot(id string) (Status, error) {
	job, err := r.Get(id)
	if err != nil {
		return Status{}, err
	}
	return job.Status(), nil
}

// List returns every job, newest first.
func (r *Registry) List() []Status {
	jobs := r.jobs.Values()
	out := make([]Status, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.Status())
	}
	slices.SortFunc(out, func(a, b Status) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return out
}

// Remove forgets a job that is not processing.
func (r *Registry) Remove(id string) error {
	job, err := r.Get(id)
	if err != nil {
		return err
	}
	if job.Status().State == StateProcessing {
		return ErrJobActive
	}
	r.jobs.Delete(id)
	return nil
}

// Subscribe streams status updates for a job. The channel is closed when
// the job ends or stop is called. Slow readers miss intermediate updates.
func (r *Registry) Subscribe(id string) (<-chan Status, func(), error) {
	job, err := r.Get(id)
	if err != nil {
		return nil, nil, err
	}
	ch, stop := job.subscribe()
	return ch, stop, nil
}

// Save persists job statuses to path.
func (r *Registry) Save(path string) error {
	return utils.Save(path, r.List())
}

// Restore loads statuses written by Save. Rows are not persisted, so jobs
// that were still running come back cancelled.
func (r *Registry) Restore(path string) error {
	if !utils.Exists(path) {
		return nil
	}
	statuses, err := utils.Load[[]Status](path)
	if err != nil {
		return fmt.Errorf("restore jobs: %w", err)
	}
	for _, s := range statuses {
		if !s.State.Terminal() {
			s.State = StateCancelled
		}
		s.ETASeconds = 0
		job := &Job{ID: s.ID, status: s}
		job.cancelled.Store(s.State == StateCancelled)
		r.jobs.Store(s.ID, job)
	}
	log.Info("jobs restored", "path", path, "count", len(statuses))
	return nil
}
