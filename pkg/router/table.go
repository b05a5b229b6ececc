package router

import (
	"slices"

	"go.uber.org/multierr"

	"github.com/helium-dev/helium/pkg/routepath"
)

// PageRef identifies the page module a route renders, e.g. "posts/[id]".
type PageRef string

// Declaration pairs a route template with its page.
type Declaration struct {
	Template string  `json:"template"`
	Page     PageRef `json:"page"`

	// Source is the file the declaration came from, if any.
	Source string `json:"source,omitempty"`
}

// Route is one entry of a built table.
type Route struct {
	Pattern Pattern
	Page    PageRef
}

// Template returns the route's normalized template.
func (r *Route) Template() string {
	return r.Pattern.Template
}

// ResolvedRoute is the result of a successful Resolve.
type ResolvedRoute struct {
	Route  *Route
	Params Params
}

// Page returns the page the resolved route renders.
func (rr *ResolvedRoute) Page() PageRef {
	return rr.Route.Page
}

// Template returns the matched template.
func (rr *ResolvedRoute) Template() string {
	return rr.Route.Pattern.Template
}

// Builder accumulates routes before they are frozen into a Table.
// A Builder is not safe for concurrent use.
type Builder struct {
	root   *node
	routes []*Route
	shapes map[string]*Route
	built  bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		root:   newNode(),
		shapes: make(map[string]*Route),
	}
}

// AddRoute parses template and adds a route to page.
//
// It returns an *InvalidRoutePatternError for a malformed template and a
// *DuplicateRouteError when another route already accepts the same paths.
func (b *Builder) AddRoute(template string, page PageRef) error {
	if b.built {
		return ErrBuilderClosed
	}

	p, err := ParsePattern(template)
	if err != nil {
		return err
	}

	if prev, ok := b.shapes[p.shape()]; ok {
		return &DuplicateRouteError{Template: p.Template, Existing: prev.Pattern.Template, Page: page}
	}

	n, clash := b.root.insert(p)
	if n == nil {
		existing := ""
		if clash != nil {
			existing = clash.Pattern.Template
		}
		return &DuplicateRouteError{Template: p.Template, Existing: existing, Page: page}
	}

	r := &Route{Pattern: p, Page: page}
	n.route = r
	b.shapes[p.shape()] = r
	b.routes = append(b.routes, r)
	return nil
}

// Build freezes the accumulated routes into a Table. The Builder cannot be
// used afterwards.
func (b *Builder) Build() *Table {
	b.built = true

	routes := slices.Clone(b.routes)
	slices.SortStableFunc(routes, func(x, y *Route) int {
		return compareSpecificity(x.Pattern, y.Pattern)
	})

	t := &Table{root: b.root, routes: routes}
	b.root = nil
	b.shapes = nil
	b.routes = nil
	return t
}

// BuildTable builds a Table from declarations. Every invalid or conflicting
// declaration is reported; the returned error combines them.
func BuildTable(decls []Declaration) (*Table, error) {
	b := NewBuilder()
	var errs error
	for _, d := range decls {
		if err := b.AddRoute(d.Template, d.Page); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}
	return b.Build(), nil
}

// Table is an immutable route table.
type Table struct {
	root   *node
	routes []*Route
}

// Resolve maps a request path to a route and its bound parameters.
//
// The path is canonicalized and percent-decoded first; a query string is
// ignored. When nothing matches, or the path is malformed, the error is a
// *RouteNotFoundError.
func (t *Table) Resolve(path string) (*ResolvedRoute, error) {
	segs, err := routepath.Segments(path)
	if err != nil {
		return nil, &RouteNotFoundError{Path: path, Err: err}
	}

	r, caps := t.root.match(segs, nil)
	if r == nil {
		return nil, &RouteNotFoundError{Path: path}
	}
	return &ResolvedRoute{Route: r, Params: bind(r.Pattern, caps)}, nil
}

// Routes returns the table's routes. At each segment literals sort before
// dynamic captures, which sort before catch-alls.
func (t *Table) Routes() []*Route {
	return slices.Clone(t.routes)
}

// Declarations returns the routes as declarations, in Routes order.
func (t *Table) Declarations() []Declaration {
	out := make([]Declaration, len(t.routes))
	for i, r := range t.routes {
		out[i] = Declaration{Template: r.Pattern.Template, Page: r.Page}
	}
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}
