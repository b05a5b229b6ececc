// Package router maps request paths to page modules.
//
// Routes are declared with bracketed templates, usually derived from a pages
// directory by Scanner:
//
//	pages/
//	├── index.tsx            → /
//	├── posts/
//	│   ├── latest.tsx       → /posts/latest
//	│   └── [id].tsx         → /posts/[id]
//	├── docs/
//	│   └── [...slug].tsx    → /docs/[...slug]
//	└── blog/
//	    └── [[...path]].tsx  → /blog/[[...path]]
//
// # Segments
//
//	name         literal, matched exactly (case-sensitive)
//	[name]       dynamic, binds one segment
//	[...name]    catch-all, binds one or more trailing segments
//	[[...name]]  optional catch-all, binds zero or more trailing segments
//
// # Matching
//
// Resolution walks the table one segment at a time. At every depth a literal
// child is tried before the dynamic child, which is tried before the
// catch-all. When a branch fails deeper down the walk backtracks to the next
// alternative, so /posts/latest resolves to the literal page even though
// /posts/[id] also matches, and /posts/latest/edit may still reach
// /posts/[id]/edit.
//
// # Usage
//
//	decls, err := router.NewScanner(os.DirFS("pages")).Scan()
//	table, err := router.BuildTable(decls)
//
//	rr, err := table.Resolve("/docs/a/b/c")
//	// rr.Page() == "docs/[...slug]"
//	// rr.Params.Strings("slug") == []string{"a", "b", "c"}
//
// A Table is immutable and safe for concurrent use.
package router
