package handler

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// Route is one registered method and path pattern.
type Route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// RouteIndex serves GET /, a listing of every registered route.
//
// The router is walked on each request rather than at construction, so routes
// registered after the index itself still show up.
type RouteIndex struct {
	routes chi.Routes
	logger *slog.Logger
}

func NewRouteIndex(routes chi.Routes, logger *slog.Logger) *RouteIndex {
	return &RouteIndex{routes: routes, logger: logger}
}

// Routes walks the router and returns its routes sorted by path, then method.
func (h *RouteIndex) Routes() ([]Route, error) {
	var out []Route
	err := chi.Walk(h.routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, Route{Method: method, Path: route})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out, nil
}

func (h *RouteIndex) HandleIndex(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Routes()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": routes})
}
