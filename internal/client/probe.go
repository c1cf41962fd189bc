package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"rendermodes/internal/news"
)

// NewsListView returns a view over the /news list. The key is ignored.
func (c *Client) NewsListView() *View[[]news.Article] {
	return NewView[[]news.Article](func(ctx context.Context, _ string) ([]news.Article, error) {
		return c.News(ctx)
	})
}

// ArticleView returns a view over /news/{key}.
func (c *Client) ArticleView() *View[news.Article] {
	return NewView[news.Article](c.Article)
}

// ProbeResult describes one fetch of a rendered page.
type ProbeResult struct {
	Mode         string
	Status       int
	Articles     int
	GeneratedAt  time.Time
	CacheState   string
	CacheControl string
	ETag         string
	// PageTime is the time to receive and parse the HTML.
	PageTime time.Duration
	// ContentTime is the time until the articles are available. For
	// client-side modes it includes the follow-up API fetch.
	ContentTime time.Duration
	ClientSide  bool
}

// Probe fetches /render/{mode} and reports how its content arrived.
func (c *Client) Probe(ctx context.Context, mode string) (ProbeResult, error) {
	start := time.Now()
	resp, err := c.Get(ctx, "/render/"+url.PathEscape(mode), nil)
	if err != nil {
		return ProbeResult{}, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return ProbeResult{}, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ProbeResult{}, &CommunicationError{URL: resp.Request.URL.String(), Err: fmt.Errorf("parse html: %w", err)}
	}
	res := ProbeResult{
		Mode:         mode,
		Status:       resp.StatusCode,
		Articles:     doc.Find("[data-article-id]").Length(),
		CacheState:   resp.Header.Get("X-Cache-State"),
		CacheControl: resp.Header.Get("Cache-Control"),
		ETag:         resp.Header.Get("ETag"),
		PageTime:     time.Since(start),
	}
	info := doc.Find("#render-info")
	if at, ok := info.Attr("data-generated-at"); ok {
		res.GeneratedAt, _ = time.Parse(time.RFC3339Nano, at)
	}
	if res.CacheState == "" {
		res.CacheState = info.AttrOr("data-cache-state", "")
	}

	// an empty page that loads its data with a script is client-rendered
	if res.Articles == 0 && doc.Find("script").Length() > 0 {
		res.ClientSide = true
		list, err := c.News(ctx)
		if err != nil {
			return res, err
		}
		res.Articles = len(list)
	}
	res.ContentTime = time.Since(start)
	return res, nil
}

// Compare probes every mode concurrently. Results keep the order of modes.
func (c *Client) Compare(ctx context.Context, modes []string) ([]ProbeResult, error) {
	out := make([]ProbeResult, len(modes))
	g, ctx := errgroup.WithContext(ctx)
	for i, mode := range modes {
		i, mode := i, mode
		g.Go(func() error {
			res, err := c.Probe(ctx, mode)
			if err != nil {
				return fmt.Errorf("probe %s: %w", mode, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// StatusOf extracts the HTTP status from an error returned by the client, or
// 0 when there is none.
func StatusOf(err error) int {
	var ce *CommunicationError
	switch {
	case err == nil:
		return http.StatusOK
	case Message(err) == MessageNotFound:
		return http.StatusNotFound
	case errors.As(err, &ce):
		return ce.StatusCode
	default:
		return 0
	}
}
