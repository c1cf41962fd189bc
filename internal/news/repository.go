package news

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no article has the requested id.
	ErrNotFound = errors.New("news not found")
	// ErrUnavailable marks a failed data source read.
	ErrUnavailable = errors.New("news source unavailable")
)

// Source is the read side every rendering pipeline depends on.
type Source interface {
	Popular(ctx context.Context, limit int) ([]Article, error)
	Recent(ctx context.Context, limit int) ([]Article, error)
	ByID(ctx context.Context, id string) (Article, error)
}

// Repository serves a Store behind a simulated query latency.
type Repository struct {
	store *Store
	delay time.Duration
}

// NewRepository wraps store. Every query waits delay before answering.
func NewRepository(store *Store, delay time.Duration) *Repository {
	return &Repository{store: store, delay: delay}
}

// WithDelay returns a Repository over the same Store with another latency.
func (r *Repository) WithDelay(delay time.Duration) *Repository {
	return &Repository{store: r.store, delay: delay}
}

// Store returns the underlying dataset.
func (r *Repository) Store() *Store { return r.store }

func (r *Repository) Popular(ctx context.Context, limit int) ([]Article, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.store.Popular(limit), nil
}

func (r *Repository) Recent(ctx context.Context, limit int) ([]Article, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.store.Recent(limit), nil
}

func (r *Repository) ByID(ctx context.Context, id string) (Article, error) {
	if err := r.wait(ctx); err != nil {
		return Article{}, err
	}
	a, ok := r.store.ByID(id)
	if !ok {
		return Article{}, fmt.Errorf("article %q: %w", id, ErrNotFound)
	}
	return a, nil
}

func (r *Repository) wait(ctx context.Context) error {
	if r.delay <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil
	}
	t := time.NewTimer(r.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
}
