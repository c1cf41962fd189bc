package render

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rendermodes/internal/freshness"
	"rendermodes/internal/news"
)

var (
	// ErrUnknownMode is returned for mode names with no registered pipeline.
	ErrUnknownMode = errors.New("unknown rendering mode")
	// ErrNotRevalidating is returned when on-demand revalidation is asked of
	// a mode whose policy cannot revalidate.
	ErrNotRevalidating = errors.New("mode does not revalidate")
)

// Registry holds the registered pipelines in registration order.
type Registry struct {
	engine    *freshness.Engine
	order     []string
	pipelines map[string]*Pipeline
}

func NewRegistry(engine *freshness.Engine) *Registry {
	return &Registry{
		engine:    engine,
		pipelines: make(map[string]*Pipeline),
	}
}

// NewDefaultRegistry registers the built-in modes over repo. Each pipeline
// gets its own view of repo carrying the mode's render delay.
func NewDefaultRegistry(engine *freshness.Engine, repo *news.Repository, cfg ModeConfig, log *zap.Logger) *Registry {
	r := NewRegistry(engine)
	for _, m := range Modes(cfg) {
		r.Register(NewPipeline(m, engine, repo.WithDelay(m.Delay), log))
	}
	return r
}

// Register adds p, replacing any pipeline with the same mode name.
func (r *Registry) Register(p *Pipeline) {
	name := p.Mode().Name
	if _, ok := r.pipelines[name]; !ok {
		r.order = append(r.order, name)
	}
	r.pipelines[name] = p
}

// ForMode returns the pipeline registered for name.
func (r *Registry) ForMode(name string) (*Pipeline, error) {
	p, ok := r.pipelines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	return p, nil
}

// Modes lists registered modes in registration order.
func (r *Registry) Modes() []Mode {
	out := make([]Mode, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.pipelines[name].Mode())
	}
	return out
}

// Engine returns the engine every pipeline reads through.
func (r *Registry) Engine() *freshness.Engine { return r.engine }

// Revalidate marks every cached page of mode stale so the next read
// regenerates it in the background. It returns the number of entries marked.
func (r *Registry) Revalidate(mode string) (int, error) {
	p, err := r.ForMode(mode)
	if err != nil {
		return 0, err
	}
	if !p.Mode().Policy.CanRevalidate() {
		return 0, fmt.Errorf("%w: %s is %s", ErrNotRevalidating, mode, p.Mode().Policy)
	}
	return r.engine.InvalidatePrefix(mode + ":"), nil
}

// Warm builds the list page of every server-rendered build-once mode, the
// way a static build would before the first request.
func (r *Registry) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range r.order {
		p := r.pipelines[name]
		m := p.Mode()
		if m.Policy.Kind != freshness.KindBuildOnce || m.ClientSide {
			continue
		}
		g.Go(func() error {
			_, err := p.List(ctx)
			return err
		})
	}
	return g.Wait()
}
