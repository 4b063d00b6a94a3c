// Package web holds the page templates and browser assets compiled into
// the budget server.
package web

import "embed"

var (
	// TemplatesFS holds the layout, partials and one file per page.
	//go:embed templates/*.html
	TemplatesFS embed.FS

	// StaticFS holds app.css and the budget and dashboard scripts.
	//go:embed static/css/*.css static/js/*.js
	StaticFS embed.FS
)
