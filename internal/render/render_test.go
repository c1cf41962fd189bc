package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"rendermodes/internal/freshness"
	"rendermodes/internal/news"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() ModeConfig {
	cfg := DefaultModeConfig()
	cfg.SSRDelay = 0
	cfg.MixedDelay = 0
	return cfg
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	store := news.NewStore(news.Generate(100, news.GenerateOptions{Seed: 3, Now: testNow}))
	return NewDefaultRegistry(freshness.NewEngine(), news.NewRepository(store, 0), testConfig(), nil)
}

func mustPipeline(t *testing.T, r *Registry, mode string) *Pipeline {
	t.Helper()
	p, err := r.ForMode(mode)
	if err != nil {
		t.Fatalf("ForMode(%q): %v", mode, err)
	}
	return p
}

func mustRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestModes(t *testing.T) {
	tests := []struct {
		name   string
		kind   freshness.Kind
		query  Query
		limit  int
		client bool
	}{
		{CSR, freshness.KindBuildOnce, QueryPopular, 10, true},
		{SSR, freshness.KindAlwaysFresh, QueryPopular, 10, false},
		{SSG, freshness.KindBuildOnce, QueryPopular, 10, false},
		{ISR, freshness.KindRevalidate, QueryRecent, 10, false},
		{Mixed, freshness.KindAlwaysFresh, QueryPopular, 15, false},
	}
	modes := Modes(DefaultModeConfig())
	if len(modes) != len(tests) {
		t.Fatalf("got %d modes, want %d", len(modes), len(tests))
	}
	for i, tt := range tests {
		m := modes[i]
		if m.Name != tt.name || m.Policy.Kind != tt.kind || m.Query != tt.query || m.Limit != tt.limit || m.ClientSide != tt.client {
			t.Errorf("mode %d = %+v, want %+v", i, m, tt)
		}
	}
	if isr := modes[3]; isr.Policy.TTL != time.Minute || isr.CacheControl != "public, s-maxage=60, stale-while-revalidate" {
		t.Errorf("isr policy/cache-control = %v / %q", isr.Policy, isr.CacheControl)
	}
}

func TestRegistryUnknownMode(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.ForMode("amp"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
	var names []string
	for _, m := range r.Modes() {
		names = append(names, m.Name)
	}
	if want := []string{CSR, SSR, SSG, ISR, Mixed}; !slices.Equal(names, want) {
		t.Errorf("modes = %v, want %v", names, want)
	}
}

func TestSSRListRecomputesEveryRequest(t *testing.T) {
	p := mustPipeline(t, newTestRegistry(t), SSR)
	first, err := p.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second.Version <= first.Version {
		t.Errorf("ssr versions %d then %d, want increasing", first.Version, second.Version)
	}
	if first.ETag == second.ETag {
		t.Error("ssr pages should not share an ETag")
	}
	if first.State != StateBypass {
		t.Errorf("ssr state = %q, want %q", first.State, StateBypass)
	}
	if len(first.Articles) != 10 {
		t.Errorf("ssr articles = %d, want 10", len(first.Articles))
	}
	for i := 1; i < len(first.Articles); i++ {
		if first.Articles[i-1].Views < first.Articles[i].Views {
			t.Fatalf("ssr list not ordered by views at %d", i)
		}
	}
}

func TestSSGListIsFrozen(t *testing.T) {
	p := mustPipeline(t, newTestRegistry(t), SSG)
	first, err := p.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.ETag != second.ETag || !first.GeneratedAt.Equal(second.GeneratedAt) {
		t.Errorf("ssg pages differ: %s@%v vs %s@%v", first.ETag, first.GeneratedAt, second.ETag, second.GeneratedAt)
	}
	if first.State != "FRESH" {
		t.Errorf("ssg state = %q, want FRESH", first.State)
	}
}

func TestISRListUsesRecent(t *testing.T) {
	p := mustPipeline(t, newTestRegistry(t), ISR)
	page, err := p.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(page.Articles); i++ {
		if page.Articles[i-1].PublishedAt.Before(page.Articles[i].PublishedAt) {
			t.Fatalf("isr list not ordered newest first at %d", i)
		}
	}
}

func TestDetailNotFoundLeavesNoEntry(t *testing.T) {
	r := newTestRegistry(t)
	for _, mode := range []string{SSR, SSG, ISR} {
		p := mustPipeline(t, r, mode)
		_, err := p.Detail(context.Background(), "999")
		if !errors.Is(err, news.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", mode, err)
		}
	}
	if n := r.Engine().Len(); n != 0 {
		t.Errorf("engine holds %d entries after not-found lookups, want 0", n)
	}
}

func TestDetailFound(t *testing.T) {
	p := mustPipeline(t, newTestRegistry(t), ISR)
	page, err := p.Detail(context.Background(), "42")
	if err != nil {
		t.Fatal(err)
	}
	if page.Article.ID != "42" || page.Article.Title == "" {
		t.Errorf("detail article = %+v", page.Article)
	}
	if page.ETag == "" || page.Version == 0 {
		t.Errorf("detail page metadata missing: %+v", page.Page)
	}
}

func TestCSRServesShell(t *testing.T) {
	p := mustPipeline(t, newTestRegistry(t), CSR)
	list, err := p.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Articles) != 0 {
		t.Errorf("csr shell carries %d articles, want 0", len(list.Articles))
	}
	detail, err := p.Detail(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("csr detail shell should render for any id: %v", err)
	}
	if detail.Article.ID != "does-not-exist" {
		t.Errorf("csr detail id = %q", detail.Article.ID)
	}
}

func TestCSRDetailSharesOneEntry(t *testing.T) {
	reg := newTestRegistry(t)
	p := mustPipeline(t, reg, CSR)
	etags := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("bogus-%d", i)
		page, err := p.Detail(context.Background(), id)
		if err != nil {
			t.Fatalf("Detail(%q): %v", id, err)
		}
		if page.Article.ID != id {
			t.Errorf("Detail(%q) id = %q", id, page.Article.ID)
		}
		etags[page.ETag] = true
	}
	if n := reg.Engine().Len(); n != 1 {
		t.Errorf("engine holds %d entries after 200 csr ids, want 1", n)
	}
	if len(etags) != 200 {
		t.Errorf("got %d distinct etags, want one per id", len(etags))
	}
}

func TestRevalidate(t *testing.T) {
	r := newTestRegistry(t)
	isr := mustPipeline(t, r, ISR)
	if _, err := isr.List(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := isr.Detail(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}
	n, err := r.Revalidate(ISR)
	if err != nil || n != 2 {
		t.Errorf("Revalidate(isr) = %d, %v; want 2, nil", n, err)
	}
	if _, err := r.Revalidate(SSG); !errors.Is(err, ErrNotRevalidating) {
		t.Errorf("Revalidate(ssg) error = %v, want ErrNotRevalidating", err)
	}
	if _, err := r.Revalidate("nope"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Revalidate(nope) error = %v, want ErrUnknownMode", err)
	}
}

func TestWarmBuildsStaticPages(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Warm(context.Background()); err != nil {
		t.Fatal(err)
	}
	stats := r.Engine().Stats()
	if len(stats) != 1 || stats[0].Key != "ssg:list" || stats[0].State != "FRESH" {
		t.Errorf("after Warm entries = %+v, want only a fresh ssg:list", stats)
	}
}

func TestFilteredListPage(t *testing.T) {
	p := mustPipeline(t, newTestRegistry(t), Mixed)
	page, err := p.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Articles) != 15 {
		t.Fatalf("mixed articles = %d, want 15", len(page.Articles))
	}
	if page.Categories[0] != news.AllCategories {
		t.Errorf("categories = %v, want all first", page.Categories)
	}
	original := slices.Clone(page.Articles)
	tech := page.Filtered(string(news.CategoryTechnology), "views")
	for _, a := range tech.Articles {
		if a.Category != news.CategoryTechnology {
			t.Errorf("filtered list contains %s", a.Category)
		}
	}
	if tech.Sort != news.SortByViews || tech.Category != string(news.CategoryTechnology) {
		t.Errorf("filter state = %q/%q", tech.Category, tech.Sort)
	}
	if !slices.EqualFunc(original, page.Articles, func(a, b news.Article) bool { return a.ID == b.ID }) {
		t.Error("Filtered modified the source page")
	}
	if got := page.Filtered("", "bogus"); got.Sort != news.SortByDate || got.Category != news.AllCategories {
		t.Errorf("defaults = %q/%q, want all/date", got.Category, got.Sort)
	}
}

func TestETagDeterministic(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := ETag("ssg:list", 1, at)
	if a != ETag("ssg:list", 1, at) {
		t.Error("ETag is not deterministic")
	}
	if a == ETag("ssg:list", 2, at) || a == ETag("isr:list", 1, at) {
		t.Error("ETag ignores its inputs")
	}
	if !strings.HasPrefix(a, `"`) || !strings.HasSuffix(a, `"`) {
		t.Errorf("ETag %s is not quoted", a)
	}
}

func TestFormatDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t      time.Time
		format string
		want   string
	}{
		{time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), "date", "2025-03-04"},
		{time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), "datetime", "2025-03-04 05:06"},
		{time.Date(2025, 3, 4, 23, 30, 0, 0, time.FixedZone("X", -3*3600)), "date", "2025-03-05"},
		{time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), "unknown", "2025-03-04"},
		{now.Add(-30 * time.Second), "relative", "just now"},
		{now.Add(-time.Minute), "relative", "1 minute ago"},
		{now.Add(-5 * time.Minute), "relative", "5 minutes ago"},
		{now.Add(-3 * time.Hour), "relative", "3 hours ago"},
		{now.Add(-48 * time.Hour), "relative", "2 days ago"},
		{now.Add(-30 * 24 * time.Hour), "relative", "2025-05-02"},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.t, tt.format, now); got != tt.want {
			t.Errorf("FormatDate(%v, %q) = %q, want %q", tt.t, tt.format, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
		{-123456, "-123,456"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func renderDoc(t *testing.T, r *Renderer, name string, data any) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return doc
}

func TestRenderListPage(t *testing.T) {
	r := mustRenderer(t)
	p := mustPipeline(t, newTestRegistry(t), SSG)
	page, err := p.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	doc := renderDoc(t, r, ListTemplate(p.Mode()), page)
	if n := doc.Find("[data-article-id]").Length(); n != 10 {
		t.Errorf("rendered %d articles, want 10", n)
	}
	info := doc.Find("#render-info")
	if got, _ := info.Attr("data-cache-state"); got != "FRESH" {
		t.Errorf("data-cache-state = %q, want FRESH", got)
	}
	if got, _ := info.Attr("data-mode"); got != SSG {
		t.Errorf("data-mode = %q, want ssg", got)
	}
	href, _ := doc.Find("[data-article-id] a").First().Attr("href")
	if !strings.HasPrefix(href, "/render/ssg/") {
		t.Errorf("article link = %q", href)
	}
}

func TestRenderMixedPage(t *testing.T) {
	r := mustRenderer(t)
	p := mustPipeline(t, newTestRegistry(t), Mixed)
	page, err := p.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	category := string(page.Articles[0].Category)
	filtered := page.Filtered(category, news.SortByViews)
	doc := renderDoc(t, r, ListTemplate(p.Mode()), filtered)
	if n := doc.Find("[data-article-id]").Length(); n != len(filtered.Articles) {
		t.Errorf("rendered %d articles, want %d", n, len(filtered.Articles))
	}
	if got := doc.Find("select[name=category] option[selected]").AttrOr("value", ""); got != category {
		t.Errorf("selected category = %q", got)
	}
	if got := doc.Find("select[name=sort] option[selected]").AttrOr("value", ""); got != news.SortByViews {
		t.Errorf("selected sort = %q", got)
	}
}

func TestRenderCSRShell(t *testing.T) {
	r := mustRenderer(t)
	p := mustPipeline(t, newTestRegistry(t), CSR)
	page, err := p.Detail(context.Background(), "7")
	if err != nil {
		t.Fatal(err)
	}
	doc := renderDoc(t, r, DetailTemplate(p.Mode()), page)
	if n := doc.Find("[data-article-id]").Length(); n != 0 {
		t.Errorf("csr shell contains %d rendered articles", n)
	}
	if got := doc.Find("#article").AttrOr("data-requested-id", ""); got != "7" {
		t.Errorf("requested id = %q, want 7", got)
	}
	script := doc.Find("script").Text()
	for _, want := range []string{"/news/", "News not found", "Failed to fetch news"} {
		if !strings.Contains(script, want) {
			t.Errorf("csr script missing %q", want)
		}
	}
}

func TestRenderHomeAndError(t *testing.T) {
	r := mustRenderer(t)
	reg := newTestRegistry(t)
	doc := renderDoc(t, r, TemplateHome, HomeView{Modes: reg.Modes()})
	if n := doc.Find(".card[data-mode]").Length(); n != 5 {
		t.Errorf("home lists %d modes, want 5", n)
	}
	doc = renderDoc(t, r, TemplateError, ErrorView{Status: 404, Title: "Not found", Message: "News not found"})
	if got := doc.Find(".error").AttrOr("data-status", ""); got != "404" {
		t.Errorf("error status = %q", got)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	paths, err := Export(context.Background(), newTestRegistry(t), mustRenderer(t), dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 11 {
		t.Fatalf("exported %d files, want 11", len(paths))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
	f, err := os.Open(filepath.Join(dir, SSG, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		t.Fatal(err)
	}
	if n := doc.Find("[data-article-id]").Length(); n != 10 {
		t.Errorf("exported index lists %d articles, want 10", n)
	}
}
