// Package freshness decides, per cache entry, when a data snapshot is
// computed and how long it may be served before it is recomputed.
//
// Three policies are supported:
//
//	always-fresh              every read recomputes synchronously
//	build-once                the first read computes, the result is frozen
//	revalidate-after-ttl(d)   reads older than d get the stale snapshot while
//	                          one background recomputation replaces it
//
// An entry moves through EMPTY -> FRESH -> STALE -> REVALIDATING -> FRESH.
package freshness

import (
	"fmt"
	"time"
)

// Kind selects one of the consistency policies.
type Kind int

const (
	KindAlwaysFresh Kind = iota
	KindBuildOnce
	KindRevalidate
)

// Policy is a Kind plus the TTL used by KindRevalidate.
type Policy struct {
	Kind Kind
	TTL  time.Duration
}

// AlwaysFresh bypasses the cache on every read.
func AlwaysFresh() Policy { return Policy{Kind: KindAlwaysFresh} }

// BuildOnce computes on first read and never again.
func BuildOnce() Policy { return Policy{Kind: KindBuildOnce} }

// RevalidateAfter serves cached snapshots for ttl, then refreshes them in the
// background while the stale one keeps being served.
func RevalidateAfter(ttl time.Duration) Policy {
	return Policy{Kind: KindRevalidate, TTL: ttl}
}

// CanRevalidate reports whether the policy supports background refresh.
func (p Policy) CanRevalidate() bool { return p.Kind == KindRevalidate }

func (p Policy) String() string {
	switch p.Kind {
	case KindAlwaysFresh:
		return "always-fresh"
	case KindBuildOnce:
		return "build-once"
	case KindRevalidate:
		return fmt.Sprintf("revalidate-after-ttl(%s)", p.TTL)
	default:
		return fmt.Sprintf("policy(%d)", int(p.Kind))
	}
}

// State is the position of an entry in its lifecycle.
type State int

const (
	StateEmpty State = iota
	StateFresh
	StateStale
	StateRevalidating
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateFresh:
		return "FRESH"
	case StateStale:
		return "STALE"
	case StateRevalidating:
		return "REVALIDATING"
	default:
		return fmt.Sprintf("STATE(%d)", int(s))
	}
}

// Snapshot is an immutable point-in-time result.
type Snapshot[T any] struct {
	Value       T
	GeneratedAt time.Time
	// Version increases with every computation of the owning entry.
	Version uint64
}
