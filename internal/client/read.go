package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

// Readable is the article text extracted from a rendered page.
type Readable struct {
	Title   string
	Excerpt string
	Text    string
	Length  int
}

// ReadPage fetches path and extracts its readable text. Client-rendered
// shells yield little more than their loading message, which is the point.
func (c *Client) ReadPage(ctx context.Context, path string) (Readable, error) {
	resp, err := c.Get(ctx, path, nil)
	if err != nil {
		return Readable{}, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return Readable{}, err
	}

	article, err := readability.FromReader(resp.Body, resp.Request.URL)
	if err != nil {
		return Readable{}, fmt.Errorf("readability %s: %w", path, err)
	}
	return Readable{
		Title:   article.Title,
		Excerpt: article.Excerpt,
		Text:    strings.TrimSpace(article.TextContent),
		Length:  article.Length,
	}, nil
}

// Feed fetches and parses the RSS feed.
func (c *Client) Feed(ctx context.Context) (*gofeed.Feed, error) {
	return c.FeedAt(ctx, "/feed.xml")
}

// FeedAt fetches and parses the RSS, Atom or JSON feed at path.
func (c *Client) FeedAt(ctx context.Context, path string) (*gofeed.Feed, error) {
	resp, err := c.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	f, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", path, err)
	}
	return f, nil
}
