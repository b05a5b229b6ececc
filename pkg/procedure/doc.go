// Package procedure implements the server-side procedure registry for helium.
//
// A procedure is a named server function that browser code can call through
// the invocation transport as if it were local. Procedures are registered
// explicitly at startup; the registry maps each unique name to a Handler.
//
// # Handlers
//
// Handlers are built from ordinary Go functions with one of the typed
// constructors. Argument decoding happens in Bind, before the function runs,
// so a malformed argument payload never reaches user code:
//
//	reg := procedure.NewRegistry()
//
//	reg.MustRegister("posts.get", procedure.Func(func(ctx context.Context, in GetPostArgs) (*Post, error) {
//	    return store.Post(ctx, in.ID)
//	}))
//
//	reg.MustRegister("math.add", procedure.Func2(func(ctx context.Context, a, b int) (int, error) {
//	    return a + b, nil
//	}))
//
// Func decodes the wire arguments into a single value (an argument bag).
// Func2 expects a JSON array with exactly two elements. NoArgs accepts an
// absent, null or empty-array payload. Raw hands the undecoded JSON to the
// function.
//
// # Lifecycle
//
// Registration belongs to the startup phase. Register fails immediately with
// a DuplicateProcedureError when a name is taken; the original handler stays
// resolvable. Seal ends the registration phase; afterwards the registry is a
// read-only lookup table that is safe for concurrent Resolve calls.
package procedure
