package batch

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"clasificador/pkg/classify"
)

// Sink receives every classified row of a job. Implementations must be safe
// for concurrent use; rows arrive out of order.
type Sink interface {
	Put(ctx context.Context, jobID string, outcome classify.Outcome) error
}

// MemorySink keeps outcomes in memory, keyed by job.
type MemorySink struct {
	mu      sync.Mutex
	results map[string][]classify.Outcome
}

func NewMemorySink() *MemorySink {
	return &MemorySink{results: make(map[string][]classify.Outcome)}
}

func (s *MemorySink) Put(ctx context.Context, jobID string, outcome classify.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[jobID] = append(s.results[jobID], outcome)
	return nil
}

// Results returns a copy of the job's outcomes ordered by row.
func (s *MemorySink) Results(jobID string) []classify.Outcome {
	s.mu.Lock()
	out := slices.Clone(s.results[jobID])
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b classify.Outcome) int { return cmp.Compare(a.Row, b.Row) })
	return out
}

func (s *MemorySink) Drop(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, jobID)
}
