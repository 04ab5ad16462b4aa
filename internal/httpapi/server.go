// Package httpapi exposes widgets over HTTP. GET serves a widget from the
// query string and refuses requests that name an action. POST also reads
// form values and is the only method that dispatches actions.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/request"
	"github.com/goliatone/go-admingrid/pkg/widget"
)

// Server routes requests to registered widgets.
type Server struct {
	widgets map[string]*widget.Widget
	order   []string
	logger  *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New registers widgets by id. Duplicate ids are rejected.
func New(widgets []*widget.Widget, options ...Option) (*Server, error) {
	s := &Server{
		widgets: make(map[string]*widget.Widget, len(widgets)),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	for _, w := range widgets {
		if w == nil {
			return nil, errors.New("httpapi: nil widget")
		}
		if _, exists := s.widgets[w.ID()]; exists {
			return nil, fmt.Errorf("httpapi: duplicate widget %q", w.ID())
		}
		s.widgets[w.ID()] = w
		s.order = append(s.order, w.ID())
	}
	sort.Strings(s.order)
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/widgets", func(r chi.Router) {
		r.Get("/", s.list)
		r.Get("/{id}", s.serve)
		r.Post("/{id}", s.serve)
	})
	return r
}

// Summary describes a registered widget.
type Summary struct {
	ID     string        `json:"id"`
	Kind   widget.Kind   `json:"kind"`
	Fields []model.Field `json:"fields"`
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		wd := s.widgets[id]
		out = append(out, Summary{ID: id, Kind: wd.Kind(), Fields: wd.Fields()})
	}
	writeJSON(w, s.logger, http.StatusOK, out)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wd, ok := s.widgets[id]
	if !ok {
		writeError(w, r, s.logger, http.StatusNotFound, "UNKNOWN_WIDGET", "unknown widget: "+id)
		return
	}
	params := r.URL.Query()
	if r.Method == http.MethodGet && pendingAction(wd.ID(), params) {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, s.logger, http.StatusMethodNotAllowed, "ACTION_REQUIRES_POST", "actions must be submitted with POST")
		return
	}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			writeError(w, r, s.logger, http.StatusBadRequest, "INVALID_FORM", err.Error())
			return
		}
		params = r.Form
	}
	resp, err := wd.Serve(r.Context(), params)
	if err != nil {
		serveErrorToHTTP(w, r, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, resp)
}

// pendingAction reports whether params ask widgetID to run an action.
func pendingAction(widgetID string, params url.Values) bool {
	for _, name := range []string{request.ParamAction, request.ParamBulk} {
		if strings.TrimSpace(params.Get(request.Key(widgetID, name))) != "" {
			return true
		}
	}
	return false
}
