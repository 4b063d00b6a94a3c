package http

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"budget/internal/core"
	"budget/internal/log"
	appweb "budget/web"
)

// layoutFiles are parsed into every page.
var layoutFiles = []string{"templates/base.html", "templates/partials.html"}

var pageFiles = []string{
	"budget.html",
	"dashboard.html",
	"expense_form.html",
	"expense_edit.html",
	"income_form.html",
	"paycheck_form.html",
	"error.html",
}

// pageMeta is embedded in every page's data.
type pageMeta struct {
	Title  string
	Active string
	Flash  string
	Error  string
	// Modal renders only the page's "form" block, for the budget page dialogs.
	Modal bool
	Today core.Date
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": func(d core.Date) string {
			if d.IsZero() {
				return ""
			}
			return d.Format("Jan 2, 2006")
		},
		"iso": func(d core.Date) string { return d.String() },
		"negative": func(m core.Money) bool {
			return m.Cents < 0
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		// partial is rebound per page once the set is parsed.
		"partial": func(string, any) (template.HTML, error) { return "", nil },
	}
}

func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, page := range pageFiles {
		files := append(append([]string{}, layoutFiles...), "templates/"+page)
		t, err := template.New(page).Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		t.Funcs(template.FuncMap{"partial": s.partialFunc(t)})
		pages[page] = t
	}
	return pages, nil
}

// partialFunc executes a named template if the page defines it. A missing
// partial is logged and renders as nothing.
func (s *Server) partialFunc(t *template.Template) func(string, any) (template.HTML, error) {
	return func(name string, data any) (template.HTML, error) {
		if t.Lookup(name) == nil {
			s.logger.Warn("Template partial not found",
				append(log.NewFields().WithOperation(log.OpRender).ToSlice(), "template", name)...)
			return "", nil
		}
		var buf bytes.Buffer
		if err := t.ExecuteTemplate(&buf, name, data); err != nil {
			return "", err
		}
		return template.HTML(buf.String()), nil
	}
}

// render executes a page into a buffer first so a failing template never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any, modal bool) {
	t, ok := s.pages[page]
	if !ok {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template not loaded", "template", page)
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	name := "base"
	if modal {
		name = "form"
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.NewFields().
				WithComponent(log.ComponentTemplate).
				WithOperation(log.OpRender).
				WithError(err).
				ToSlice()...)
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPage struct {
	pageMeta
	Status  int
	Message string
}

// renderError shows the error panel. Messages are written for users and
// never include internal error text.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error.html", errorPage{
		pageMeta: s.meta(http.StatusText(status), ""),
		Status:   status,
		Message:  message,
	}, false)
}

func (s *Server) meta(title, active string) pageMeta {
	return pageMeta{Title: title, Active: active, Today: core.DateOf(s.today())}
}
