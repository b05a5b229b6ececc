package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/helium-dev/helium/pkg/routepath"
	"github.com/helium-dev/helium/pkg/router"
)

// PageRenderer renders a resolved page route.
type PageRenderer interface {
	RenderPage(w http.ResponseWriter, r *http.Request, rr *router.ResolvedRoute) error
}

// PageRendererFunc adapts a function to PageRenderer.
type PageRendererFunc func(w http.ResponseWriter, r *http.Request, rr *router.ResolvedRoute) error

// RenderPage calls f.
func (f PageRendererFunc) RenderPage(w http.ResponseWriter, r *http.Request, rr *router.ResolvedRoute) error {
	return f(w, r, rr)
}

// NotFoundRenderer is implemented by renderers that draw their own 404 page.
type NotFoundRenderer interface {
	RenderNotFound(w http.ResponseWriter, r *http.Request) error
}

// PageResolution is the JSON body written by JSONRenderer.
type PageResolution struct {
	Path     string         `json:"path"`
	Template string         `json:"template"`
	Page     router.PageRef `json:"page"`
	Params   router.Params  `json:"params"`
}

// NewPageResolution describes rr for path.
func NewPageResolution(path string, rr *router.ResolvedRoute) PageResolution {
	params := rr.Params
	if params == nil {
		params = router.Params{}
	}
	return PageResolution{
		Path:     path,
		Template: rr.Template(),
		Page:     rr.Page(),
		Params:   params,
	}
}

// JSONRenderer answers page requests with the route resolution as JSON.
// It stands in for a real renderer during development.
type JSONRenderer struct{}

// RenderPage writes the PageResolution for rr.
func (JSONRenderer) RenderPage(w http.ResponseWriter, r *http.Request, rr *router.ResolvedRoute) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(NewPageResolution(r.URL.Path, rr))
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	c, err := routepath.Canonicalize(r.URL.EscapedPath())
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if c.Changed {
		target, err := routepath.LocalRedirect(c.Path + queryPart(r))
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
		return
	}

	if s.table == nil {
		s.notFound(w, r)
		return
	}
	rr, err := s.table.Resolve(c.Path)
	if err != nil {
		if errors.Is(err, router.ErrRouteNotFound) {
			s.notFound(w, r)
			return
		}
		s.logger.Error("resolve failed", "path", c.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := s.renderer.RenderPage(w, r, rr); err != nil {
		s.logger.Error("render failed",
			"path", c.Path,
			"page", string(rr.Page()),
			"error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if nf, ok := s.renderer.(NotFoundRenderer); ok {
		w.WriteHeader(http.StatusNotFound)
		if err := nf.RenderNotFound(w, r); err != nil {
			s.logger.Error("render not found failed", "path", r.URL.Path, "error", err)
		}
		return
	}
	http.NotFound(w, r)
}

func queryPart(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return ""
	}
	return "?" + r.URL.RawQuery
}
