package client

import (
	"context"
	"sync"

	"go.uber.org/atomic"
)

// Status is the lifecycle position of a View.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// ViewState is what a view shows at one moment.
type ViewState[T any] struct {
	Status  Status
	Key     string
	Value   T
	Err     error
	Message string
}

// FetchFunc loads the data of a view for key.
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

// View drives a client-rendered component: Mount issues the request for a
// key, the state moves from loading to success or error, and Unmount abandons
// whatever is in flight. A mounted view fetches a given key once; it never
// retries.
type View[T any] struct {
	fetch FetchFunc[T]

	mu      sync.Mutex
	state   ViewState[T]
	mounted bool
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}

	requests *atomic.Int64
}

func NewView[T any](fetch FetchFunc[T]) *View[T] {
	return &View[T]{fetch: fetch, requests: atomic.NewInt64(0)}
}

// Mount shows key. Mounting the key already shown is a no-op; mounting a
// different key abandons the previous request.
func (v *View[T]) Mount(ctx context.Context, key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mounted && v.state.Key == key {
		return
	}
	v.abandonLocked()

	v.mounted = true
	v.gen++
	gen := v.gen
	fctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	v.cancel = cancel
	v.done = done
	v.state = ViewState[T]{Status: StatusLoading, Key: key}
	v.requests.Inc()

	go func() {
		defer close(done)
		defer cancel()
		val, err := v.fetch(fctx, key)

		v.mu.Lock()
		defer v.mu.Unlock()
		if gen != v.gen {
			return
		}
		if err != nil {
			v.state = ViewState[T]{Status: StatusError, Key: key, Err: err, Message: Message(err)}
			return
		}
		v.state = ViewState[T]{Status: StatusSuccess, Key: key, Value: val}
	}()
}

// Unmount cancels the in-flight request, if any, and resets the view. A
// result that arrives afterwards is discarded.
func (v *View[T]) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.abandonLocked()
	v.mounted = false
	v.state = ViewState[T]{}
}

func (v *View[T]) abandonLocked() {
	v.gen++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// State returns the current state.
func (v *View[T]) State() ViewState[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Wait blocks until the most recent request has finished, successfully or
// not.
func (v *View[T]) Wait() {
	v.mu.Lock()
	done := v.done
	v.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Requests reports how many requests the view has issued.
func (v *View[T]) Requests() int64 { return v.requests.Load() }
