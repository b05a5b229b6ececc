// Package helium wires a procedure registry and a page route table into a
// single server.
//
//	app := helium.New(helium.WithCallTimeout(10 * time.Second))
//	app.MustRegister("users.get", procedure.Func(getUser))
//	app.Page("/posts/[id]", "posts/[id]")
//
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Registration happens before Build; Build seals the registry, freezes the
// route table and returns a server ready to listen.
package helium

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/router"
	"github.com/helium-dev/helium/pkg/server"
	"github.com/helium-dev/helium/pkg/transport"
)

// ErrAlreadyBuilt is returned when Build is called a second time.
var ErrAlreadyBuilt = errors.New("helium: app already built")

// App collects procedures, pages and middleware for one server.
type App struct {
	opts     options
	registry *procedure.Registry
	logger   *slog.Logger

	mu         sync.Mutex
	decls      []router.Declaration
	middleware []transport.Middleware
	built      bool
	table      *router.Table
}

// New creates an App.
func New(opts ...Option) *App {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &App{
		opts:     o,
		registry: procedure.NewRegistry(),
		logger:   o.logger.With("component", "helium"),
	}
}

// Register adds a procedure. It fails for a duplicate or invalid name, a
// nil handler, or after Build.
func (a *App) Register(name string, handler procedure.Handler) error {
	return a.registry.Register(name, handler)
}

// MustRegister is like Register but panics on error.
func (a *App) MustRegister(name string, handler procedure.Handler) {
	a.registry.MustRegister(name, handler)
}

// Page declares a page route. The template is checked immediately;
// conflicts between routes are reported by Build.
func (a *App) Page(template string, page router.PageRef) error {
	if _, err := router.ParsePattern(template); err != nil {
		return err
	}
	return a.addDecls([]router.Declaration{{Template: template, Page: page}})
}

// LoadPages declares every route in decls, typically from router.Scanner or
// a route manifest.
func (a *App) LoadPages(decls []router.Declaration) error {
	return a.addDecls(decls)
}

func (a *App) addDecls(decls []router.Declaration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.built {
		return ErrAlreadyBuilt
	}
	a.decls = append(a.decls, decls...)
	return nil
}

// Use appends call middleware. Middleware added first runs outermost, after
// the built-in tracing, metrics, rate limit and timeout layers.
func (a *App) Use(mw ...transport.Middleware) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.middleware = append(a.middleware, mw...)
}

// Registry returns the procedure registry.
func (a *App) Registry() *procedure.Registry {
	return a.registry
}

// Table returns the route table, or nil before Build.
func (a *App) Table() *router.Table {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table
}

// Build seals the registry, builds the route table and returns the server.
// Every route declaration error is reported together, combined with
// go.uber.org/multierr.
func (a *App) Build() (*server.Server, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.built {
		return nil, ErrAlreadyBuilt
	}

	table, err := router.BuildTable(a.decls)
	if err != nil {
		return nil, err
	}

	if a.opts.builtins {
		if err := registerBuiltins(a.registry, table); err != nil {
			return nil, err
		}
	}
	a.registry.Seal()
	a.built = true
	a.table = table

	d := transport.NewDispatcher(a.registry, a.dispatcherOptions()...)

	srvOpts := []server.Option{
		server.WithTable(table),
		server.WithLogger(a.opts.logger.With("component", "server")),
	}
	if a.opts.renderer != nil {
		srvOpts = append(srvOpts, server.WithRenderer(a.opts.renderer))
	}
	if a.opts.gatherer != nil {
		srvOpts = append(srvOpts, server.WithGatherer(a.opts.gatherer))
	}
	if len(a.opts.httpMiddleware) > 0 {
		srvOpts = append(srvOpts, server.WithHTTPMiddleware(a.opts.httpMiddleware...))
	}

	a.logger.Info("app built",
		"procedures", a.registry.Len(),
		"routes", table.Len())

	return server.New(a.opts.server, d, srvOpts...), nil
}

// Run builds the app and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	srv, err := a.Build()
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
