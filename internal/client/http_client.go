// Package client is the delivery-side view of the server: it fetches the JSON
// API the way a browser-rendered page would, probes rendered pages and reads
// the feeds.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"rendermodes/internal/news"
)

// Options for the fetch client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// RetryMax is the number of retries after the first attempt. The fetch
	// path of the demo never retries, so zero is the expected value.
	RetryMax int
	Logger   *zap.Logger
}

// Client is a small wrapper around retryablehttp to provide timeouts and UA.
type Client struct {
	base      *url.URL
	inner     *retryablehttp.Client
	userAgent string
	log       *zap.Logger
}

// New creates a new Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := retryablehttp.NewClient()
	r.RetryMax = opts.RetryMax
	r.HTTPClient.Timeout = opts.Timeout
	r.Logger = leveledLogger{log.Sugar()}
	// hand non-2xx responses back to the caller instead of an opaque error
	r.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{base: base, inner: r, userAgent: opts.UserAgent, log: log}, nil
}

// URL resolves path against the base URL.
func (c *Client) URL(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.base.String() + path
	}
	return c.base.ResolveReference(ref).String()
}

// Get issues one GET for path. The caller closes the body.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) (*http.Response, error) {
	target := c.URL(path)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &CommunicationError{URL: target, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.inner.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, &CommunicationError{URL: target, Err: err}
	}
	return resp, nil
}

// News fetches the popular list from /news.
func (c *Client) News(ctx context.Context) ([]news.Article, error) {
	var out []news.Article
	if err := c.getJSON(ctx, "/news", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Article fetches /news/{id}. A 404 yields ErrNotFound.
func (c *Client) Article(ctx context.Context, id string) (news.Article, error) {
	var out news.Article
	if err := c.getJSON(ctx, "/news/"+url.PathEscape(id), &out); err != nil {
		return news.Article{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Get(ctx, path, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		c.log.Debug("request failed", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &CommunicationError{URL: resp.Request.URL.String(), Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", resp.Request.URL, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return &CommunicationError{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode}
	}
	return nil
}

// leveledLogger routes retryablehttp's logs into zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
