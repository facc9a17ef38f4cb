package handler

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("path parameter %s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperr.Validation("query parameter %s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("query parameter %s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

// queryValues accepts both repeated and comma-separated values.
func queryValues(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryIDs(r *http.Request, name string) ([]int64, error) {
	values := queryValues(r, name)
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, apperr.Validation("query parameter %s must hold integers, got %q", name, v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("query parameter %s must be an integer, got %q", name, raw)
	}
	return n, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("query parameter %s must be a boolean, got %q", name, raw)
	}
	return &b, nil
}

func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := model.ParseDateTime(raw)
	if err != nil {
		return nil, apperr.Validation("query parameter %s: %v", name, err)
	}
	return &t, nil
}

func queryPage(r *http.Request) (filter.Page, error) {
	from, err := queryInt(r, "from", 0)
	if err != nil {
		return filter.Page{}, err
	}
	size, err := queryInt(r, "size", filter.DefaultPageSize)
	if err != nil {
		return filter.Page{}, err
	}
	return filter.NewPage(from, size)
}

// clientIP strips the port RemoteAddr carries when no proxy header was seen.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
