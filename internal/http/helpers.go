package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"budget/internal/core"
)

// cookieMaxAge keeps UI preferences for a year.
const cookieMaxAge = 365 * 24 * 60 * 60

// sanitizeInput removes control characters (except tab and newlines) and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseDateOr parses a YYYY-MM-DD value, returning def when blank or invalid.
func parseDateOr(s string, def core.Date) core.Date {
	if d, err := core.ParseDate(s); err == nil {
		return d
	}
	return def
}

// idParam reads the {id} route parameter.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseBool accepts the values browsers and JSON clients send for checkboxes.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes", "y":
		return true
	}
	return false
}

// sendsJSON reports whether the request body is JSON.
func sendsJSON(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// wantsJSON reports whether the client asked for a JSON response rather
// than a page.
func wantsJSON(r *http.Request) bool {
	return sendsJSON(r) || strings.Contains(r.Header.Get("Accept"), "application/json")
}

// safeRedirect only allows local absolute paths.
func safeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	if u, err := url.Parse(target); err != nil || u.Host != "" {
		return fallback
	}
	return target
}

// tableQuery reads the search, filter and sort controls of the budget page.
func tableQuery(q url.Values) core.TableQuery {
	return core.TableQuery{
		Search:   sanitizeInput(q.Get("search")),
		Category: sanitizeInput(q.Get("category")),
		SortBy:   q.Get("sort"),
		SortDir:  q.Get("dir"),
	}.Normalize()
}

// encodeTableQuery is the inverse of tableQuery. Defaults are omitted.
func encodeTableQuery(q core.TableQuery) url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" && q.Category != core.CategoryAll {
		v.Set("category", q.Category)
	}
	if q.SortBy != core.SortByCategory {
		v.Set("sort", q.SortBy)
	}
	if q.SortDir != core.SortAsc {
		v.Set("dir", q.SortDir)
	}
	return v
}

func setPreferenceCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
}

// preferenceCookie returns the unescaped cookie value, or "".
func preferenceCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return v
}
