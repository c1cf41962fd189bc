package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mmcdole/gofeed"
	"github.com/spf13/cobra"

	"rendermodes/internal/client"
	"rendermodes/internal/render"
)

var flagBaseURL string

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#9A9A9A"}
	colorError  = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF6B6B"}

	titleStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func init() {
	for _, c := range []*cobra.Command{fetchCmd, compareCmd, readCmd, feedCmd} {
		c.Flags().StringVar(&flagBaseURL, "base-url", "", "server to talk to (default from config)")
	}
}

func newClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	base := cfg.Client.BaseURL
	if flagBaseURL != "" {
		base = flagBaseURL
	}
	return client.New(client.Options{
		BaseURL:   base,
		Timeout:   cfg.Client.Timeout.Duration,
		RetryMax:  cfg.Client.RetryMax,
		UserAgent: cfg.Client.UserAgent,
	})
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [id]",
	Short: "Fetch the news list, or one article, from the JSON API",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		var v any
		if len(args) == 1 {
			v, err = c.Article(cmd.Context(), args[0])
		} else {
			v, err = c.News(cmd.Context())
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(client.Message(err)))
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare [mode...]",
	Short: "Probe every rendering mode and compare how content arrives",
	RunE: func(cmd *cobra.Command, args []string) error {
		modes := args
		if len(modes) == 0 {
			modes = []string{render.CSR, render.SSR, render.SSG, render.ISR, render.Mixed}
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		results, err := c.Compare(cmd.Context(), modes)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(err.Error()))
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderComparison(results))
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read <mode> [id]",
	Short: "Print the readable text of a rendered page",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		page, err := c.ReadPage(cmd.Context(), pagePath(args))
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(client.Message(err)))
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(page.Title))
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d characters", page.Length)))
		fmt.Fprintln(out)
		fmt.Fprintln(out, page.Text)
		return nil
	},
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "List the items of the RSS feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		f, err := c.Feed(cmd.Context())
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(err.Error()))
			return err
		}
		printFeed(cmd.OutOrStdout(), f)
		return nil
	},
}

func pagePath(args []string) string {
	if len(args) == 2 {
		return "/render/" + args[0] + "/" + args[1]
	}
	return "/render/" + args[0]
}

func renderComparison(results []client.ProbeResult) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("MODE", "ARTICLES", "PAGE", "CONTENT", "CACHE", "GENERATED", "CACHE-CONTROL").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range results {
		generated := "-"
		if !r.GeneratedAt.IsZero() {
			generated = render.FormatDate(r.GeneratedAt, render.FormatRelative, time.Now())
		}
		mode := strings.ToUpper(r.Mode)
		if r.ClientSide {
			mode += " (client)"
		}
		t.Row(
			mode,
			fmt.Sprint(r.Articles),
			r.PageTime.Round(time.Millisecond).String(),
			r.ContentTime.Round(time.Millisecond).String(),
			r.CacheState,
			generated,
			r.CacheControl,
		)
	}
	return t.Render()
}

func printFeed(w io.Writer, f *gofeed.Feed) {
	fmt.Fprintln(w, titleStyle.Render(f.Title))
	for _, item := range f.Items {
		published := ""
		if item.PublishedParsed != nil {
			published = render.FormatDate(*item.PublishedParsed, render.FormatDateOnly, time.Now())
		}
		fmt.Fprintf(w, "%s  %s\n", mutedStyle.Render(published), item.Title)
		fmt.Fprintf(w, "            %s\n", mutedStyle.Render(item.Link))
	}
}
