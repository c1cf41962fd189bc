package freshness

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EntryStats is a point-in-time view of one entry.
type EntryStats struct {
	Key         string    `json:"key"`
	Policy      string    `json:"policy"`
	State       string    `json:"state"`
	Version     uint64    `json:"version"`
	GeneratedAt time.Time `json:"generatedAt,omitzero"`
	Reads       int64     `json:"reads"`
	Recomputes  int64     `json:"recomputes"`
	Failures    int64     `json:"failures"`
	LastAccess  time.Time `json:"lastAccess"`
}

// entry is the type-erased view the Engine keeps of an *Entry[T].
type entry interface {
	Stats() EntryStats
	Invalidate() bool
	Wait()
	sweepable(cutoff time.Time) bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger handed to every entry.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRevalidateTimeout bounds background and first-fill computations.
// Zero means no bound.
func WithRevalidateTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// Engine owns cache entries keyed by name.
type Engine struct {
	mu      sync.RWMutex
	entries map[string]entry

	clock   Clock
	log     *zap.Logger
	timeout time.Duration
}

// NewEngine returns an empty Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		entries: make(map[string]entry),
		clock:   RealClock{},
		log:     zap.NewNop(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lookup returns the entry stored under key, creating it with policy and load
// when absent. An existing entry keeps its original policy and loader. It is
// an error to look a key up with a different value type than it was created
// with.
func Lookup[T any](e *Engine, key string, policy Policy, load Loader[T]) (*Entry[T], error) {
	e.mu.RLock()
	existing, ok := e.entries[key]
	e.mu.RUnlock()
	if !ok {
		e.mu.Lock()
		// check whether another caller created it while we waited
		existing, ok = e.entries[key]
		if !ok {
			created := newEntry(key, policy, load, e.clock, e.log, e.timeout)
			e.entries[key] = created
			e.mu.Unlock()
			return created, nil
		}
		e.mu.Unlock()
	}
	typed, ok := existing.(*Entry[T])
	if !ok {
		return nil, fmt.Errorf("freshness: entry %q holds %T", key, existing)
	}
	return typed, nil
}

// Len returns the number of entries.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.entries)
}

// Delete drops the entry stored under key. Callers still holding the entry
// keep a working but detached copy.
func (e *Engine) Delete(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.entries[key]
	delete(e.entries, key)
	return ok
}

// Stats returns a snapshot of every entry, sorted by key.
func (e *Engine) Stats() []EntryStats {
	e.mu.RLock()
	out := make([]EntryStats, 0, len(e.entries))
	for _, en := range e.entries {
		out = append(out, en.Stats())
	}
	e.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// InvalidatePrefix marks every revalidating entry whose key starts with prefix
// as stale and returns how many were marked.
func (e *Engine) InvalidatePrefix(prefix string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := 0
	for key, en := range e.entries {
		if strings.HasPrefix(key, prefix) && en.Invalidate() {
			n++
		}
	}
	return n
}

// Sweep drops entries not read for longer than idle. Build-once entries and
// entries with a revalidation in flight are kept.
func (e *Engine) Sweep(idle time.Duration) int {
	cutoff := e.clock.Now().Add(-idle)
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for key, en := range e.entries {
		if en.sweepable(cutoff) {
			delete(e.entries, key)
			n++
		}
	}
	if n > 0 {
		e.log.Info("swept idle entries", zap.Int("removed", n), zap.Int("remaining", len(e.entries)))
	}
	return n
}

// Wait blocks until every in-flight background revalidation has finished.
func (e *Engine) Wait() {
	e.mu.RLock()
	all := make([]entry, 0, len(e.entries))
	for _, en := range e.entries {
		all = append(all, en)
	}
	e.mu.RUnlock()
	for _, en := range all {
		en.Wait()
	}
}
