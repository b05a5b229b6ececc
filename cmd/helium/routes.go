package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/helium-dev/helium/internal/errors"
	"github.com/helium-dev/helium/internal/manifest"
	"github.com/helium-dev/helium/pkg/router"
	"github.com/helium-dev/helium/pkg/server"
)

// DefaultManifestFile is where 'routes build' writes when no location is
// configured.
const DefaultManifestFile = "routes.json"

func routesCmd(g *globalFlags) *cobra.Command {
	var (
		resolve  string
		manifest string
		pages    string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the page route table",
		Long: `List the page routes, most specific first, or resolve one path.

Examples:
  helium routes
  helium routes --resolve /posts/42
  helium routes --manifest=build/routes.json --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			decls, err := loadDeclarations(cmd.Context(), cfg, sourceFor(cfg, manifest, pages))
			if err != nil {
				return err
			}
			table, err := router.BuildTable(decls)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if resolve != "" {
				return printResolution(w, table, resolve)
			}
			if asJSON {
				return printJSON(w, table.Declarations())
			}
			printTable(w, table)
			return nil
		},
	}

	cmd.Flags().StringVar(&resolve, "resolve", "", "Resolve PATH and print the matched route")
	cmd.Flags().StringVar(&manifest, "manifest", "", "Read routes from a manifest file or s3:// URL")
	cmd.Flags().StringVar(&pages, "pages", "", "Pages directory to scan")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print routes as JSON")

	cmd.AddCommand(routesBuildCmd(g))

	return cmd
}

func routesBuildCmd(g *globalFlags) *cobra.Command {
	var (
		out   string
		pages string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Scan the pages directory and write a route manifest",
		Long: `Scan the pages directory, check every route, and write the route
manifest. The location is --out, else pages.manifest, else routes.json
in the project directory. s3:// locations are uploaded with the
credentials in the AWS_* environment variables.

Examples:
  helium routes build
  helium routes build --out=s3://my-site/releases/routes.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			dir := pages
			if dir == "" {
				dir = cfg.PagesPath()
			}
			decls, err := scanPages(cfg, dir)
			if err != nil {
				return err
			}
			table, err := router.BuildTable(decls)
			if err != nil {
				return err
			}

			location := out
			if location == "" {
				location = cfg.ManifestLocation()
			}
			if location == "" {
				location = filepath.Join(cfg.Dir(), DefaultManifestFile)
			}
			store, err := manifest.Open(location)
			if err != nil {
				return errors.Wrap(err, "H032")
			}

			m := manifest.FromTable(table)
			m.Generated = time.Now().UTC()
			if err := store.Save(cmd.Context(), m); err != nil {
				return errors.Wrap(err, "H032")
			}

			success(cmd.OutOrStdout(), "Wrote %d routes to %s", table.Len(), store.Location())
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Manifest file or s3:// URL")
	cmd.Flags().StringVar(&pages, "pages", "", "Pages directory to scan")

	return cmd
}

func printTable(w io.Writer, table *router.Table) {
	if table.Len() == 0 {
		warn(w, "No routes")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEMPLATE\tPAGE")
	for _, r := range table.Routes() {
		fmt.Fprintf(tw, "%s\t%s\n", r.Template(), r.Page)
	}
	tw.Flush()
}

func printResolution(w io.Writer, table *router.Table, path string) error {
	rr, err := table.Resolve(path)
	if err != nil {
		return err
	}
	return printJSON(w, server.NewPageResolution(path, rr))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
