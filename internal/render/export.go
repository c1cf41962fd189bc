package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Export writes the static-generation pages to dir: the list as
// ssg/index.html and one ssg/<id>.html per listed article. It returns the
// written paths.
func Export(ctx context.Context, reg *Registry, r *Renderer, dir string) ([]string, error) {
	p, err := reg.ForMode(SSG)
	if err != nil {
		return nil, err
	}
	out := filepath.Join(dir, SSG)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	list, err := p.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export list: %w", err)
	}
	paths := make([]string, len(list.Articles)+1)
	paths[0] = filepath.Join(out, "index.html")
	if err := writePage(r, paths[0], ListTemplate(p.Mode()), list); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, a := range list.Articles {
		a := a
		path := filepath.Join(out, a.ID+".html")
		paths[i+1] = path
		g.Go(func() error {
			page, err := p.Detail(gctx, a.ID)
			if err != nil {
				return fmt.Errorf("export %s: %w", a.ID, err)
			}
			return writePage(r, path, DetailTemplate(p.Mode()), page)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func writePage(r *Renderer, path, name string, data any) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
