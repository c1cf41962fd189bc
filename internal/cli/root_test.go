package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"rendermodes/internal/client"
	"rendermodes/internal/config"
)

func TestPagePath(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"ssg"}, "/render/ssg"},
		{[]string{"isr", "12"}, "/render/isr/12"},
	}
	for _, tt := range tests {
		if got := pagePath(tt.args); got != tt.want {
			t.Errorf("pagePath(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestAppConfigFromDefaults(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	got := appConfig(cfg)
	if got.APIListDelay != 800*time.Millisecond || got.APIDetailDelay != 600*time.Millisecond {
		t.Errorf("api delays = %v/%v", got.APIListDelay, got.APIDetailDelay)
	}
	if got.Modes.ISRTTL != time.Minute || got.FeedTTL != time.Minute {
		t.Errorf("ttl = %v, feed ttl = %v", got.Modes.ISRTTL, got.FeedTTL)
	}
	if got.Modes.SSRDelay != 500*time.Millisecond || got.Modes.MixedDelay != 200*time.Millisecond {
		t.Errorf("render delays = %v/%v", got.Modes.SSRDelay, got.Modes.MixedDelay)
	}
	if got.Modes.ListLimit != 10 || got.Modes.MixedLimit != 15 || got.APILimit != 10 {
		t.Errorf("limits = %+v", got.Modes)
	}
}

func TestRenderComparison(t *testing.T) {
	out := renderComparison([]client.ProbeResult{
		{Mode: "ssr", Articles: 10, CacheState: "BYPASS", CacheControl: "no-store", GeneratedAt: time.Now()},
		{Mode: "csr", Articles: 10, ClientSide: true, CacheState: "FRESH"},
	})
	for _, want := range []string{"MODE", "SSR", "CSR (client)", "BYPASS", "no-store", "just now"} {
		if !strings.Contains(out, want) {
			t.Errorf("comparison output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintFeed(t *testing.T) {
	published := time.Date(2025, 5, 4, 3, 2, 1, 0, time.UTC)
	var buf bytes.Buffer
	printFeed(&buf, &gofeed.Feed{
		Title: "Rendering Modes News",
		Items: []*gofeed.Item{{Title: "Headline 7", Link: "http://x/render/isr/7", PublishedParsed: &published}},
	})
	for _, want := range []string{"Rendering Modes News", "Headline 7", "2025-05-04", "/render/isr/7"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("feed output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc", "today")
	t.Cleanup(func() { SetVersionInfo("dev", "none", "unknown") })

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); !strings.Contains(got, "rendermodes 1.2.3 (commit: abc") {
		t.Errorf("version output = %q", got)
	}
}
