// Package render turns news queries into pages under one of five rendering
// modes. Each mode pairs a freshness policy with a data query; the Registry
// resolves mode names to the Pipeline that serves them.
package render

import (
	"fmt"
	"time"

	"rendermodes/internal/freshness"
)

// Mode names.
const (
	CSR   = "csr"
	SSR   = "ssr"
	SSG   = "ssg"
	ISR   = "isr"
	Mixed = "mixed"
)

// Query names a news read.
type Query string

const (
	QueryPopular Query = "popular"
	QueryRecent  Query = "recent"
)

// Mode describes how one rendering strategy obtains and caches its data.
type Mode struct {
	Name    string
	Label   string
	Summary string
	Traits  []string

	Policy freshness.Policy
	Query  Query
	Limit  int
	// Delay simulates render work before the query runs.
	Delay time.Duration

	CacheControl string
	// ClientSide modes serve a static shell that fetches data from the API.
	ClientSide bool
}

// Conditional reports whether responses may be answered with 304 when the
// client already holds the current ETag.
func (m Mode) Conditional() bool {
	return m.Policy.Kind != freshness.KindAlwaysFresh
}

// ModeConfig carries the tunables of the built-in modes.
type ModeConfig struct {
	SSRDelay   time.Duration
	MixedDelay time.Duration
	ISRTTL     time.Duration
	ListLimit  int
	MixedLimit int
}

// DefaultModeConfig mirrors the timings of the reference demo.
func DefaultModeConfig() ModeConfig {
	return ModeConfig{
		SSRDelay:   500 * time.Millisecond,
		MixedDelay: 200 * time.Millisecond,
		ISRTTL:     60 * time.Second,
		ListLimit:  10,
		MixedLimit: 15,
	}
}

// Modes returns the five built-in modes in display order.
func Modes(cfg ModeConfig) []Mode {
	return []Mode{
		{
			Name:    CSR,
			Label:   "Client-Side Rendering",
			Summary: "The server sends an empty shell; the browser fetches /news and renders it.",
			Traits: []string{
				"Data loads after the page arrives",
				"Loading and error states are visible",
				"Content is not in the initial HTML",
			},
			Policy:       freshness.BuildOnce(),
			Query:        QueryPopular,
			Limit:        cfg.ListLimit,
			CacheControl: "no-cache",
			ClientSide:   true,
		},
		{
			Name:    SSR,
			Label:   "Server-Side Rendering",
			Summary: "Every request queries the data source and renders fresh HTML.",
			Traits: []string{
				"Always current data",
				"Server work on every request",
				"Full content in the initial HTML",
			},
			Policy:       freshness.AlwaysFresh(),
			Query:        QueryPopular,
			Limit:        cfg.ListLimit,
			Delay:        cfg.SSRDelay,
			CacheControl: "no-store",
		},
		{
			Name:    SSG,
			Label:   "Static Site Generation",
			Summary: "Rendered once and frozen until the process restarts.",
			Traits: []string{
				"Fastest possible responses",
				"Data never changes after the build",
				"Can be exported to plain files",
			},
			Policy:       freshness.BuildOnce(),
			Query:        QueryPopular,
			Limit:        cfg.ListLimit,
			CacheControl: "public, max-age=31536000, immutable",
		},
		{
			Name:    ISR,
			Label:   "Incremental Static Regeneration",
			Summary: fmt.Sprintf("Served from cache, regenerated in the background once older than %s.", cfg.ISRTTL),
			Traits: []string{
				"Static speed",
				"Stale content is served while a refresh runs",
				"Can be revalidated on demand",
			},
			Policy:       freshness.RevalidateAfter(cfg.ISRTTL),
			Query:        QueryRecent,
			Limit:        cfg.ListLimit,
			CacheControl: fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate", int(cfg.ISRTTL.Seconds())),
		},
		{
			Name:    Mixed,
			Label:   "Server Rendering with Client Interaction",
			Summary: "Fresh server-rendered list with filtering and sorting on top.",
			Traits: []string{
				"Server data on every request",
				"Category filter and sort",
				"Works without JavaScript",
			},
			Policy:       freshness.AlwaysFresh(),
			Query:        QueryPopular,
			Limit:        cfg.MixedLimit,
			Delay:        cfg.MixedDelay,
			CacheControl: "no-store",
		},
	}
}
