package batch

import (
	"context"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"clasificador/pkg/classify"
)

// Classifier is satisfied by *classify.Cascade.
type Classifier interface {
	Classify(ctx context.Context, narrative string, row int) classify.Outcome
}

// logEvery is the progress log cadence in rows.
const logEvery = 10

// Runner classifies the rows of a job on a bounded worker pool.
type Runner struct {
	classifier Classifier
	sink       Sink
	workers    int
}

// NewRunner returns a runner with at most workers rows in flight. A
// non-positive count uses GOMAXPROCS.
func NewRunner(classifier Classifier, sink Sink, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		classifier: classifier,
		sink:       sink,
		workers:    workers,
	}
}

// Run processes every row of job and records the terminal state. It stops
// picking up rows once the job is cancelled or ctx is done; rows already in
// flight finish. A done ctx leaves the job cancelled. The first sink error
// aborts the job.
func (r *Runner) Run(ctx context.Context, job *Job) error {
	if err := job.begin(); err != nil {
		return err
	}
	log.Info("job started", "id", job.ID, "rows", len(job.Rows), "workers", r.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, row := range job.Rows {
		if job.Cancelled() || gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if job.Cancelled() {
				return nil
			}
			if err := gctx.Err(); err != nil {
				return err
			}

			outcome := r.classifier.Classify(gctx, row.Text(), row.Index)
			if err := r.sink.Put(gctx, job.ID, outcome); err != nil {
				return fmt.Errorf("row %d: %w", row.Index, err)
			}

			if n := job.advance(outcome.Strategy); n%logEvery == 0 || n == len(job.Rows) {
				log.Info("job progress", "id", job.ID, "processed", n, "total", len(job.Rows), "last", outcome.Describe())
			}
			return nil
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		job.cancelled.Store(true)
	}
	job.finish(err)

	st := job.Status()
	if err != nil && !job.Cancelled() {
		log.Error("job failed", "id", job.ID, "processed", st.Processed, "error", err)
		return err
	}
	log.Info("job finished", "id", job.ID, "state", st.State, "processed", st.Processed, "strategies", st.Strategies)
	return nil
}
