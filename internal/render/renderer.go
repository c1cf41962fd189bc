package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"rendermodes/internal/freshness"
	"rendermodes/internal/news"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	TemplateHome      = "home"
	TemplateList      = "list"
	TemplateDetail    = "detail"
	TemplateMixed     = "mixed"
	TemplateCSRList   = "csr_list"
	TemplateCSRDetail = "csr_detail"
	TemplateError     = "error"
)

// HomeView is the data of the home page.
type HomeView struct {
	Modes   []Mode
	Entries []freshness.EntryStats
}

// ErrorView is the data of the error page.
type ErrorView struct {
	Status  int
	Title   string
	Message string
}

type cardView struct {
	Mode    string
	Article news.Article
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

// NewRenderer parses the embedded templates. now feeds relative dates and
// defaults to time.Now.
func NewRenderer(now func() time.Time) (*Renderer, error) {
	if now == nil {
		now = time.Now
	}
	r := &Renderer{now: now}
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"date":    func(t time.Time, format string) string { return FormatDate(t, format, r.now()) },
		"number":  FormatNumber,
		"upper":   strings.ToUpper,
		"rfc3339": func(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) },
		"card":    func(mode string, a news.Article) cardView { return cardView{Mode: mode, Article: a} },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Template returns the parsed set, ready for gin's SetHTMLTemplate.
func (r *Renderer) Template() *template.Template { return r.tmpl }

// Render executes the named template into w.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

// ListTemplate picks the list template for m.
func ListTemplate(m Mode) string {
	switch {
	case m.ClientSide:
		return TemplateCSRList
	case m.Name == Mixed:
		return TemplateMixed
	default:
		return TemplateList
	}
}

// DetailTemplate picks the detail template for m.
func DetailTemplate(m Mode) string {
	if m.ClientSide {
		return TemplateCSRDetail
	}
	return TemplateDetail
}
