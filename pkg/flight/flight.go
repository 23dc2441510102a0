package flight

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
	"weak"
)

// Cache coalesces concurrent computations per key and remembers successful
// results. Work keeps the values of the starting caller's context but not its
// cancellation. Every caller waits under its own context and callers joining
// an in-flight job share its outcome.
type Cache[K comparable, V any] struct {
	// finished holds completed results. Each entry keeps a strong reference
	// until its deadline passes, after which only the weak pointer remains.
	finished map[K]*entry[V]
	fmu      *sync.RWMutex

	pending map[K]*job[V]
	pmu     *sync.Mutex

	work func(context.Context, K) (V, error)

	// ttl stores the strong-hold duration in nanoseconds.
	// <= 0 means infinite (never drop the strong reference).
	ttl *atomic.Int64

	hits   atomic.Int64
	misses atomic.Int64

	// nextSweep is the earliest unix-nano time of the next expiry sweep.
	nextSweep atomic.Int64
}

type entry[V any] struct {
	w        weak.Pointer[V]
	strong   *V        // non-nil while within the strong-hold window
	deadline time.Time // zero => infinite
}

type job[V any] struct {
	val  V
	err  error
	done chan struct{}
}

func NewCache[K comparable, V any](work func(context.Context, K) (V, error)) *Cache[K, V] {
	c := &Cache[K, V]{
		finished: make(map[K]*entry[V]),
		fmu:      new(sync.RWMutex),
		pending:  make(map[K]*job[V]),
		pmu:      new(sync.Mutex),
		work:     work,
		ttl:      new(atomic.Int64),
	}
	c.ttl.Store(int64(time.Hour))
	return c
}

// Expiry sets the strong-hold duration for future writes.
// d <= 0 keeps a permanent strong reference (infinite duration).
func (p *Cache[K, V]) Expiry(d time.Duration) {
	if d <= 0 {
		p.ttl.Store(0)
		return
	}
	p.ttl.Store(int64(d))
}

// Stats returns the number of lookups served from memory and computed.
func (p *Cache[K, V]) Stats() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}

func (p *Cache[K, V]) Get(ctx context.Context, k K) (V, error) {
	p.maybeSweep()
	p.pmu.Lock()

	// Fast path: check finished.
	if e, ok := p.loadEntry(k); ok {
		if v, ok := p.tryEntry(e); ok {
			p.pmu.Unlock()
			p.hits.Add(1)
			return v, nil
		}
		// If the weak value is gone, remove the entry so the miss below computes.
		p.fmu.Lock()
		if cur, ok := p.finished[k]; ok && cur == e && e.w.Value() == nil {
			delete(p.finished, k)
		}
		p.fmu.Unlock()
	}

	// Join existing in-flight job if any.
	j, joined := p.pending[k]
	if !joined {
		j = &job[V]{done: make(chan struct{})}
		p.pending[k] = j
		go p.run(context.WithoutCancel(ctx), k, j)
	}
	p.pmu.Unlock()

	if joined {
		p.hits.Add(1)
	} else {
		p.misses.Add(1)
	}

	select {
	case <-j.done:
		return j.val, j.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Len returns the number of remembered keys, including entries whose value
// is only weakly held.
func (p *Cache[K, V]) Len() int {
	p.fmu.RLock()
	defer p.fmu.RUnlock()
	return len(p.finished)
}

// --- internals ---

// run computes k detached from the cancellation of the caller that started
// it, so joiners never inherit a cancellation that is not theirs.
func (p *Cache[K, V]) run(ctx context.Context, k K, j *job[V]) {
	defer func() {
		p.pmu.Lock()
		close(j.done)
		delete(p.pending, k)
		p.pmu.Unlock()
	}()

	j.val, j.err = p.work(ctx, k)
	if j.err == nil {
		p.storeEntry(k, j.val)
	}
}

// maybeSweep runs sweep at most once per TTL.
func (p *Cache[K, V]) maybeSweep() {
	d := p.ttlDur()
	if d <= 0 {
		return
	}
	now := time.Now()
	if next := p.nextSweep.Load(); next != 0 && now.UnixNano() < next {
		return
	}
	p.nextSweep.Store(now.Add(d).UnixNano())
	p.sweep(now)
}

// sweep drops the strong reference of expired entries and deletes entries
// whose value has been collected.
func (p *Cache[K, V]) sweep(now time.Time) {
	p.fmu.Lock()
	defer p.fmu.Unlock()
	for k, e := range p.finished {
		if e.deadline.IsZero() || now.Before(e.deadline) {
			continue
		}
		e.strong = nil
		if e.w.Value() == nil {
			delete(p.finished, k)
		}
	}
}

func (p *Cache[K, V]) ttlDur() time.Duration {
	return time.Duration(p.ttl.Load())
}

func (p *Cache[K, V]) loadEntry(k K) (*entry[V], bool) {
	p.fmu.RLock()
	e, ok := p.finished[k]
	p.fmu.RUnlock()
	if !ok {
		return nil, false
	}

	// If the strong-hold window elapsed, drop the strong pointer.
	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		p.fmu.Lock()
		// Re-check under write lock to avoid racing another dropper.
		if cur, ok := p.finished[k]; ok && cur == e && e.strong != nil && time.Now().After(e.deadline) {
			e.strong = nil
		}
		p.fmu.Unlock()
	}
	return e, true
}

func (p *Cache[K, V]) tryEntry(e *entry[V]) (V, bool) {
	if vp := e.w.Value(); vp != nil {
		return *vp, true
	}
	var zero V
	return zero, false
}

func (p *Cache[K, V]) storeEntry(k K, val V) {
	// Allocate a dedicated heap cell so the weak pointer refers to a stable address.
	v := new(V)
	*v = val

	e := &entry[V]{w: weak.Make(v), strong: v}
	if d := p.ttlDur(); d > 0 {
		e.deadline = time.Now().Add(d)
	}

	p.fmu.Lock()
	p.finished[k] = e
	p.fmu.Unlock()
}
