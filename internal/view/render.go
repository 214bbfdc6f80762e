// Package view turns dashboard data and the preferences snapshot into HTML.
// View models are plain values built by pure functions; the Renderer wraps
// them in boundary components so a failure in any of them trips the page's
// error boundary.
package view

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"financetrack/internal/boundary"
	"financetrack/internal/core"
	appweb "financetrack/web"
)

// Component names, also used as metric labels for render faults.
const (
	ComponentHeader         = "header"
	ComponentSpendingChart  = "spending_chart"
	ComponentBudgetOverview = "budget_overview"
	ComponentSettings       = "settings"
)

// PageView is the document shell around the rendered components.
type PageView struct {
	Title string
	// Lang is the BCP 47 tag of the preferred formatting locale.
	Lang  string
	Theme core.Theme
	Body  template.HTML
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the templates embedded in the binary.
func NewRenderer() (*Renderer, error) {
	return NewRendererFS(appweb.TemplatesFS, "templates/*.html")
}

// NewRendererFS parses the templates matching patterns in fsys.
func NewRendererFS(fsys fs.FS, patterns ...string) (*Renderer, error) {
	t, err := template.New("view").Funcs(template.FuncMap{"num": num}).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// Page writes the document shell with body inside it.
func (r *Renderer) Page(w io.Writer, v PageView) error {
	if v.Title == "" {
		v.Title = AppTitle
	}
	if v.Lang == "" {
		v.Lang = "en-US"
	}
	return r.tmpl.ExecuteTemplate(w, "layout", v)
}

// Header renders the top bar.
func (r *Renderer) Header(p core.Preferences, theme core.Theme) boundary.Component {
	return r.component(ComponentHeader, "header", func() any { return NewHeader(p, theme) })
}

// SpendingChart renders the income and expense chart.
func (r *Renderer) SpendingChart(rows []core.MonthlyTrend, p core.Preferences) boundary.Component {
	return r.component(ComponentSpendingChart, "spending_chart", func() any { return NewSpendingChart(rows, p) })
}

// BudgetOverview renders the spending-by-category card.
func (r *Renderer) BudgetOverview(rows []core.SpendingByCategory, p core.Preferences) boundary.Component {
	return r.component(ComponentBudgetOverview, "budget_overview", func() any { return NewBudgetOverview(rows, p) })
}

// Settings renders the preferences form.
func (r *Renderer) Settings(v SettingsView) boundary.Component {
	return r.component(ComponentSettings, "settings", func() any { return v })
}

// component builds the view model inside Render so that a panic while
// building it is recovered by the boundary like a template failure. The
// context is ignored: rendering is in-memory, and a client that went away
// must not fault the boundary.
func (r *Renderer) component(name, tmpl string, build func() any) boundary.Component {
	return boundary.Component{
		Name: name,
		Render: func(_ context.Context, w io.Writer) error {
			return r.tmpl.ExecuteTemplate(w, tmpl, build())
		},
	}
}
