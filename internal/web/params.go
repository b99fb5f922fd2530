package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/harris/internal/matrix"
)

// parseList splits a comma separated query value into trimmed codes.
func parseList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseBoolParam parses a boolean query parameter with a default value.
func parseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseOpen returns the open facts named in the query. A missing parameter
// yields nil so the engine's own open set applies; "open=" yields an empty
// set, which shows every fact closed.
func parseOpen(r *http.Request) []string {
	q := r.URL.Query()
	if _, ok := q["open"]; !ok {
		return nil
	}
	return parseList(q.Get("open"))
}

// parseViewOptions reads the display options shared by the view endpoints.
func (s *Server) parseViewOptions(r *http.Request) matrix.ViewOptions {
	q := r.URL.Query()
	opts := matrix.ViewOptions{
		Redundancy: parseBoolParam(r, "redundancy", s.cfg.Engine.ShowRedundancy),
		Open:       parseOpen(r),
		Filter: matrix.Filter{
			Terms:              q.Get("filter"),
			CaseSensitive:      parseBoolParam(r, "case_sensitive", false),
			DiacriticSensitive: parseBoolParam(r, "diacritic_sensitive", false),
			FullWords:          parseBoolParam(r, "full_words", false),
		},
	}
	if cols := q.Get("columns"); cols != "" {
		opts.Filter.Columns = parseList(cols)
	}
	return opts
}
