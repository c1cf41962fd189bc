package freshness

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader computes a new value for an entry.
type Loader[T any] func(ctx context.Context) (T, error)

// Entry is one cache entry governed by a Policy. All methods are safe for
// concurrent use.
type Entry[T any] struct {
	key     string
	policy  Policy
	load    Loader[T]
	clock   Clock
	log     *zap.Logger
	timeout time.Duration

	mu           sync.Mutex // guards snap, revalidating, forcedStale, invalidations
	snap         *Snapshot[T]
	revalidating bool
	forcedStale  bool
	// invalidations counts Invalidate calls. A refresh only clears
	// forcedStale when none arrived while it was running.
	invalidations uint64

	fill singleflight.Group
	bg   sync.WaitGroup

	seq        *atomic.Uint64
	reads      *atomic.Int64
	recomputes *atomic.Int64
	failures   *atomic.Int64
	lastAccess *atomic.Time
}

func newEntry[T any](key string, policy Policy, load Loader[T], clock Clock, log *zap.Logger, timeout time.Duration) *Entry[T] {
	return &Entry[T]{
		key:        key,
		policy:     policy,
		load:       load,
		clock:      clock,
		log:        log.With(zap.String("entry", key), zap.Stringer("policy", policy)),
		timeout:    timeout,
		seq:        atomic.NewUint64(0),
		reads:      atomic.NewInt64(0),
		recomputes: atomic.NewInt64(0),
		failures:   atomic.NewInt64(0),
		lastAccess: atomic.NewTime(clock.Now()),
	}
}

// Key returns the entry's key in its Engine.
func (e *Entry[T]) Key() string { return e.key }

// Policy returns the entry's policy.
func (e *Entry[T]) Policy() Policy { return e.policy }

// Read returns a snapshot according to the entry's policy. Errors are only
// returned when there is nothing to serve: always-fresh failures, or a failed
// first fill. Background revalidation failures are logged and swallowed.
func (e *Entry[T]) Read(ctx context.Context) (Snapshot[T], error) {
	e.reads.Inc()
	now := e.clock.Now()
	e.lastAccess.Store(now)

	if e.policy.Kind == KindAlwaysFresh {
		return e.compute(ctx)
	}

	e.mu.Lock()
	snap := e.snap
	if snap == nil {
		e.mu.Unlock()
		return e.fillOnce(ctx)
	}
	if e.policy.Kind == KindRevalidate && e.staleLocked(now) && !e.revalidating {
		e.revalidating = true
		e.bg.Add(1)
		go e.revalidate(e.invalidations)
	}
	e.mu.Unlock()
	return *snap, nil
}

// Peek returns the current snapshot without triggering any computation.
func (e *Entry[T]) Peek() (Snapshot[T], bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap == nil {
		return Snapshot[T]{}, false
	}
	return *e.snap, true
}

// State reports where the entry is in its lifecycle. Always-fresh entries
// never hold a snapshot and report StateEmpty.
func (e *Entry[T]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked(e.clock.Now())
}

// Invalidate marks a revalidate entry stale so the next read refreshes it in
// the background. It reports false for policies that cannot revalidate.
func (e *Entry[T]) Invalidate() bool {
	if !e.policy.CanRevalidate() {
		return false
	}
	e.mu.Lock()
	if e.snap != nil {
		e.forcedStale = true
		e.invalidations++
	}
	e.mu.Unlock()
	return true
}

// Wait blocks until in-flight background work, revalidations and first fills
// whose callers gave up, has finished.
func (e *Entry[T]) Wait() { e.bg.Wait() }

// Stats returns counters and the current state.
func (e *Entry[T]) Stats() EntryStats {
	e.mu.Lock()
	st := EntryStats{
		Key:    e.key,
		Policy: e.policy.String(),
		State:  e.stateLocked(e.clock.Now()).String(),
	}
	if e.snap != nil {
		st.Version = e.snap.Version
		st.GeneratedAt = e.snap.GeneratedAt
	}
	e.mu.Unlock()
	st.Reads = e.reads.Load()
	st.Recomputes = e.recomputes.Load()
	st.Failures = e.failures.Load()
	st.LastAccess = e.lastAccess.Load()
	return st
}

func (e *Entry[T]) compute(ctx context.Context) (Snapshot[T], error) {
	e.recomputes.Inc()
	start := e.clock.Now()
	v, err := e.load(ctx)
	if err != nil {
		e.failures.Inc()
		return Snapshot[T]{}, err
	}
	s := Snapshot[T]{Value: v, GeneratedAt: e.clock.Now(), Version: e.seq.Inc()}
	e.log.Debug("snapshot computed",
		zap.Uint64("version", s.Version),
		zap.Duration("took", s.GeneratedAt.Sub(start)))
	return s, nil
}

// fillOnce computes the first snapshot. Concurrent callers share one
// computation; a caller whose ctx ends stops waiting but the fill goes on,
// and stays visible to Wait until it completes.
func (e *Entry[T]) fillOnce(ctx context.Context) (Snapshot[T], error) {
	e.bg.Add(1)
	ch := e.fill.DoChan("fill", func() (any, error) {
		if s, ok := e.Peek(); ok {
			return s, nil
		}
		fctx, cancel := e.detached(context.WithoutCancel(ctx))
		defer cancel()
		s, err := e.compute(fctx)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.storeLocked(s)
		e.mu.Unlock()
		return s, nil
	})
	select {
	case res := <-ch:
		e.bg.Done()
		if res.Err != nil {
			return Snapshot[T]{}, res.Err
		}
		return res.Val.(Snapshot[T]), nil
	case <-ctx.Done():
		go func() {
			defer e.bg.Done()
			<-ch
		}()
		return Snapshot[T]{}, ctx.Err()
	}
}

func (e *Entry[T]) revalidate(gen uint64) {
	defer e.bg.Done()
	ctx, cancel := e.detached(context.Background())
	defer cancel()

	s, err := e.compute(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.revalidating = false
	if err != nil {
		e.log.Warn("revalidation failed, serving stale snapshot", zap.Error(err))
		return
	}
	if e.invalidations == gen {
		e.forcedStale = false
	}
	e.storeLocked(s)
}

// storeLocked installs s unless it is older than the current snapshot, so no
// reader ever observes freshness going backwards.
func (e *Entry[T]) storeLocked(s Snapshot[T]) {
	if e.snap != nil && (s.Version <= e.snap.Version || s.GeneratedAt.Before(e.snap.GeneratedAt)) {
		return
	}
	e.snap = &s
}

func (e *Entry[T]) staleLocked(now time.Time) bool {
	return e.forcedStale || now.Sub(e.snap.GeneratedAt) >= e.policy.TTL
}

func (e *Entry[T]) stateLocked(now time.Time) State {
	switch {
	case e.snap == nil:
		return StateEmpty
	case e.revalidating:
		return StateRevalidating
	case e.policy.Kind == KindRevalidate && e.staleLocked(now):
		return StateStale
	default:
		return StateFresh
	}
}

func (e *Entry[T]) detached(parent context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(parent, e.timeout)
	}
	return context.WithCancel(parent)
}

// sweepable reports whether a sweep may drop the entry. Build-once entries
// live until restart.
func (e *Entry[T]) sweepable(cutoff time.Time) bool {
	if e.policy.Kind == KindBuildOnce {
		return false
	}
	e.mu.Lock()
	busy := e.revalidating
	e.mu.Unlock()
	return !busy && e.lastAccess.Load().Before(cutoff)
}
