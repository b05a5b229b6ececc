package helium

import (
	"context"

	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/router"
	"github.com/helium-dev/helium/pkg/server"
)

// Built-in procedure names.
const (
	PingProcedure       = "helium.ping"
	ProceduresProcedure = "helium.procedures"
	ResolveProcedure    = "helium.resolve"
)

func registerBuiltins(reg *procedure.Registry, table *router.Table) error {
	if err := reg.Register(PingProcedure, procedure.NoArgs(func(ctx context.Context) (string, error) {
		return "pong", nil
	})); err != nil {
		return err
	}

	if err := reg.Register(ProceduresProcedure, procedure.NoArgs(func(ctx context.Context) ([]string, error) {
		return reg.Names(), nil
	})); err != nil {
		return err
	}

	return reg.Register(ResolveProcedure, procedure.Required(procedure.Func(func(ctx context.Context, path string) (server.PageResolution, error) {
		rr, err := table.Resolve(path)
		if err != nil {
			return server.PageResolution{}, err
		}
		return server.NewPageResolution(path, rr), nil
	})))
}
