package news

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

const (
	minViews      = 100
	viewsSpread   = 10000
	publishWindow = 30 * 24 * time.Hour
	authorCount   = 5
)

const contentBody = "This is the full report. It usually runs several paragraphs with the " +
	"details of the story. Lorem ipsum dolor sit amet, consectetur adipiscing elit. " +
	"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim " +
	"veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat."

// GenerateOptions controls the randomized parts of a generated dataset.
type GenerateOptions struct {
	// Seed makes view counts and timestamps reproducible.
	Seed int64
	// Now anchors the trailing publish window. Zero means time.Now().
	Now time.Time
}

// Generate returns count articles with sequential ids "1".."count",
// round-robin categories and pseudo-random views and publish times within the
// 30 days before opts.Now.
func Generate(count int, opts GenerateOptions) []Article {
	if count <= 0 {
		return []Article{}
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	out := make([]Article, 0, count)
	for i := 0; i < count; i++ {
		n := i + 1
		age := time.Duration(rng.Int63n(int64(publishWindow)))
		out = append(out, Article{
			ID:          strconv.Itoa(n),
			Title:       fmt.Sprintf("Headline %d", n),
			Content:     fmt.Sprintf("Story %d. %s", n, contentBody),
			Summary:     fmt.Sprintf("Key points of story %d at a glance...", n),
			Author:      fmt.Sprintf("Reporter %d", i%authorCount+1),
			PublishedAt: now.Add(-age).UTC().Truncate(time.Millisecond),
			Category:    Categories[i%len(Categories)],
			Views:       minViews + rng.Intn(viewsSpread),
		})
	}
	return out
}
