// Package client is the calling side of helium procedure calls.
//
// A Client turns a procedure name and an argument value into a request
// envelope, sends it over a Transport and waits for the response that carries
// the same correlation identifier:
//
//	c := client.New(client.NewHTTPTransport("http://localhost:3000/_helium/rpc"),
//	    client.WithTimeout(5*time.Second),
//	)
//
//	post, err := client.Invoke[Post](ctx, c, "posts.get", GetPostArgs{ID: 42})
//	var callErr *client.CallError
//	if errors.As(err, &callErr) && callErr.Kind == client.KindUnknownProcedure {
//	    // the server has no such procedure
//	}
//
// Every failure is a *CallError whose Kind tells application failures
// (UnknownProcedure, InvalidArguments, HandlerError) apart from delivery
// failures (NetworkError, TimeoutError).
//
// WSTransport multiplexes concurrent calls over one WebSocket connection.
// Responses can arrive in any order; they are routed to the waiting call by
// correlation identifier.
package client
