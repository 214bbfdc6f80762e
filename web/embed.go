// Package web holds the page templates and static assets compiled into the
// binary.
package web

import "embed"

// TemplatesFS holds the layout, the dashboard components and the settings form.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
