// Package errors provides structured, actionable error messages for the
// helium CLI.
//
// Every HeliumError carries a code (H001…) that maps to a short message,
// an explanation, a hint and a documentation URL. FromError maps the
// domain errors of the procedure, router, client and manifest packages to
// their codes:
//
//	if _, err := router.BuildTable(decls); err != nil {
//	    fmt.Print(errors.FromError(err).Format())
//	}
//	// ERROR H011: Duplicate route
//	//
//	//   - route "/posts/[slug]" conflicts with "/posts/[id]" (page posts/[slug])
//	//   - invalid route pattern "/docs/[...a]/b": catch-all must be the last segment
//	//
//	//   Hint: Remove or rename one of the conflicting pages
//	//
//	//   Learn more: https://helium.dev/docs/errors/H011
package errors
