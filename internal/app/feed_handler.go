package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
	"go.uber.org/zap"

	"rendermodes/internal/freshness"
	"rendermodes/internal/news"
	"rendermodes/internal/render"
)

const feedKey = "feed:recent"

// FeedHandler publishes the most recent articles as RSS, Atom and JSON
// Feed. The article list is cached with revalidate-after-ttl, like the isr
// pages it links to.
type FeedHandler struct {
	engine *freshness.Engine
	source news.Source
	policy freshness.Policy
	limit  int
	log    *zap.Logger
}

func NewFeedHandler(engine *freshness.Engine, source news.Source, ttl time.Duration, limit int, log *zap.Logger) *FeedHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedHandler{
		engine: engine,
		source: source,
		policy: freshness.RevalidateAfter(ttl),
		limit:  limit,
		log:    log,
	}
}

// Feed builds the feed with links rooted at baseURL.
func (h *FeedHandler) Feed(ctx context.Context, baseURL string) (*feeds.Feed, error) {
	en, err := freshness.Lookup(h.engine, feedKey, h.policy, func(ctx context.Context) ([]news.Article, error) {
		return h.source.Recent(ctx, h.limit)
	})
	if err != nil {
		return nil, err
	}
	snap, err := en.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}

	out := &feeds.Feed{
		Title:       "Rendering Modes News",
		Link:        &feeds.Link{Href: normalizeURL(baseURL, "/render/"+render.ISR)},
		Description: "Most recent articles of the rendering modes demo",
		Author:      &feeds.Author{Name: "Newsroom"},
		Created:     snap.GeneratedAt,
		Updated:     snap.GeneratedAt,
		Id:          render.ETag(feedKey, snap.Version, snap.GeneratedAt),
	}
	for _, a := range snap.Value {
		link := normalizeURL(baseURL, "/render/"+render.ISR+"/"+a.ID)
		out.Items = append(out.Items, &feeds.Item{
			Id:          link,
			Title:       a.Title,
			Link:        &feeds.Link{Href: link},
			Description: a.Summary,
			Content:     a.Content,
			Author:      &feeds.Author{Name: a.Author},
			Created:     a.PublishedAt,
		})
	}
	h.log.Debug("feed built", zap.Int("items", len(out.Items)), zap.Uint64("version", snap.Version))
	return out, nil
}

func (h *FeedHandler) ServeRSS(c *gin.Context) {
	h.serve(c, "application/rss+xml; charset=utf-8", (*feeds.Feed).ToRss)
}

func (h *FeedHandler) ServeAtom(c *gin.Context) {
	h.serve(c, "application/atom+xml; charset=utf-8", (*feeds.Feed).ToAtom)
}

func (h *FeedHandler) ServeJSON(c *gin.Context) {
	h.serve(c, "application/feed+json; charset=utf-8", (*feeds.Feed).ToJSON)
}

func (h *FeedHandler) serve(c *gin.Context, contentType string, encode func(*feeds.Feed) (string, error)) {
	f, err := h.Feed(c.Request.Context(), requestBaseURL(c.Request))
	if err != nil {
		h.log.Error("Failed to build feed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFetchFailed})
		return
	}
	body, err := encode(f)
	if err != nil {
		h.log.Error("Failed to encode feed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode feed"})
		return
	}
	c.Header("Cache-Control", fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate", int(h.policy.TTL.Seconds())))
	c.Data(http.StatusOK, contentType, []byte(body))
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}

// normalizeURL ensures URLs are absolute.
func normalizeURL(baseURL, href string) string {
	parsedBase, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	parsedHref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return parsedBase.ResolveReference(parsedHref).String()
}
