package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rendermodes/internal/freshness"
	"rendermodes/internal/news"
)

// StateBypass labels pages served by always-fresh pipelines, which never
// hold a cached snapshot.
const StateBypass = "BYPASS"

// Page is the metadata every rendered page carries.
type Page struct {
	Mode        Mode
	GeneratedAt time.Time
	State       string
	Version     uint64
	ETag        string
}

// ListPage is a rendered article list.
type ListPage struct {
	Page
	Articles   []news.Article
	Categories []string
	Category   string
	Sort       string
}

// Filtered narrows the page to one category and reorders it. The cached
// article slice is left untouched.
func (p ListPage) Filtered(category, sortBy string) ListPage {
	if category == "" {
		category = news.AllCategories
	}
	if sortBy != news.SortByViews {
		sortBy = news.SortByDate
	}
	p.Articles = news.FilterAndSort(p.Articles, category, sortBy)
	p.Category = category
	p.Sort = sortBy
	return p
}

// DetailPage is one rendered article. For client-side modes only the ID is
// known on the server.
type DetailPage struct {
	Page
	Article news.Article
}

// Pipeline serves the list and detail pages of one Mode, reading through the
// freshness engine.
type Pipeline struct {
	mode   Mode
	engine *freshness.Engine
	source news.Source
	log    *zap.Logger
}

// NewPipeline binds mode to a data source. source is expected to already
// include the mode's render delay.
func NewPipeline(mode Mode, engine *freshness.Engine, source news.Source, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		mode:   mode,
		engine: engine,
		source: source,
		log:    log.With(zap.String("mode", mode.Name)),
	}
}

func (p *Pipeline) Mode() Mode { return p.mode }

// ListKey is the engine key of the list entry.
func (p *Pipeline) ListKey() string { return p.mode.Name + ":list" }

// DetailKey is the engine key of the detail entry for id.
func (p *Pipeline) DetailKey(id string) string { return p.mode.Name + ":" + id }

// ShellKey is the engine key shared by all client-side detail pages.
func (p *Pipeline) ShellKey() string { return p.mode.Name + ":detail" }

// List returns the mode's article list.
func (p *Pipeline) List(ctx context.Context) (ListPage, error) {
	key := p.ListKey()
	en, err := freshness.Lookup(p.engine, key, p.mode.Policy, p.loadList)
	if err != nil {
		return ListPage{}, err
	}
	snap, err := en.Read(ctx)
	if err != nil {
		return ListPage{}, fmt.Errorf("render %s: %w", key, err)
	}
	return ListPage{
		Page:       p.page(key, snap.GeneratedAt, snap.Version, en.State()),
		Articles:   snap.Value,
		Categories: news.CategoryOptions(snap.Value),
		Category:   news.AllCategories,
		Sort:       news.SortByDate,
	}, nil
}

// Detail returns the page of article id. A lookup that fails with
// news.ErrNotFound leaves no entry behind.
func (p *Pipeline) Detail(ctx context.Context, id string) (DetailPage, error) {
	if p.mode.ClientSide {
		return p.shellDetail(ctx, id)
	}
	key := p.DetailKey(id)
	en, err := freshness.Lookup(p.engine, key, p.mode.Policy, func(ctx context.Context) (news.Article, error) {
		return p.source.ByID(ctx, id)
	})
	if err != nil {
		return DetailPage{}, err
	}
	snap, err := en.Read(ctx)
	if err != nil {
		if errors.Is(err, news.ErrNotFound) {
			p.engine.Delete(key)
		}
		return DetailPage{}, fmt.Errorf("render %s: %w", key, err)
	}
	return DetailPage{
		Page:    p.page(key, snap.GeneratedAt, snap.Version, en.State()),
		Article: snap.Value,
	}, nil
}

// shellDetail serves every client-side detail page from one shared entry.
// The requested id is only stamped into the page, so arbitrary ids never
// create engine entries.
func (p *Pipeline) shellDetail(ctx context.Context, id string) (DetailPage, error) {
	key := p.ShellKey()
	en, err := freshness.Lookup(p.engine, key, p.mode.Policy, func(context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	if err != nil {
		return DetailPage{}, err
	}
	snap, err := en.Read(ctx)
	if err != nil {
		return DetailPage{}, fmt.Errorf("render %s: %w", key, err)
	}
	return DetailPage{
		Page:    p.page(p.DetailKey(id), snap.GeneratedAt, snap.Version, en.State()),
		Article: news.Article{ID: id},
	}, nil
}

func (p *Pipeline) loadList(ctx context.Context) ([]news.Article, error) {
	if p.mode.ClientSide {
		return nil, nil
	}
	start := time.Now()
	var (
		articles []news.Article
		err      error
	)
	switch p.mode.Query {
	case QueryRecent:
		articles, err = p.source.Recent(ctx, p.mode.Limit)
	default:
		articles, err = p.source.Popular(ctx, p.mode.Limit)
	}
	if err != nil {
		return nil, err
	}
	p.log.Debug("list rendered",
		zap.Int("articles", len(articles)),
		zap.Duration("took", time.Since(start)))
	return articles, nil
}

func (p *Pipeline) page(key string, at time.Time, version uint64, state freshness.State) Page {
	label := state.String()
	if p.mode.Policy.Kind == freshness.KindAlwaysFresh {
		label = StateBypass
	}
	return Page{
		Mode:        p.mode,
		GeneratedAt: at,
		State:       label,
		Version:     version,
		ETag:        ETag(key, version, at),
	}
}

// ETag derives a strong validator from an entry key and snapshot identity.
func ETag(key string, version uint64, generatedAt time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", key, version, generatedAt.UnixNano())))
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
