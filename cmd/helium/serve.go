package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/helium-dev/helium"
	"github.com/helium-dev/helium/internal/config"
	"github.com/helium-dev/helium/internal/errors"
)

type serveFlags struct {
	port     int
	host     string
	manifest string
	pages    string
}

func serveCmd(g *globalFlags) *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve procedures and page routes",
		Long: `Serve the built-in procedures and the page route table.

Routes come from the route manifest when one is configured
(pages.manifest or --manifest), otherwise from scanning the
pages directory. Pages resolve to JSON descriptions of the
matched route.

Examples:
  helium serve
  helium serve --port=8080
  helium serve --manifest=s3://my-site/routes.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, g, f)
		},
	}

	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&f.host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "Route manifest file or s3:// URL")
	cmd.Flags().StringVar(&f.pages, "pages", "", "Pages directory to scan instead of a manifest")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, g *globalFlags, f serveFlags) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if f.port > 0 {
		cfg.Server.Port = f.port
	}
	if f.host != "" {
		cfg.Server.Host = f.host
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.Log.Logger(cmd.ErrOrStderr())
	slog.SetDefault(logger)

	src := sourceFor(cfg, f.manifest, f.pages)
	decls, err := loadDeclarations(ctx, cfg, src)
	if err != nil {
		return err
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	if err := app.LoadPages(decls); err != nil {
		return err
	}
	srv, err := app.Build()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", srv.Config().Address)
	if err != nil {
		return errors.New("H041").Wrap(err)
	}

	printBanner(out)
	success(out, "Loaded %d routes from %s", app.Table().Len(), src)
	success(out, "Serving on http://%s", ln.Addr())
	info(out, "RPC:       %s", srv.Config().RPCPath)
	info(out, "WebSocket: %s", srv.Config().WSPath)
	if cfg.Server.MetricsPath != "" {
		info(out, "Metrics:   %s", cfg.Server.MetricsPath)
	}
	fmt.Fprintln(out)

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		if err := srv.Serve(gctx, ln); err != nil {
			return errors.New("H041").Wrap(err)
		}
		return nil
	})
	grp.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			info(out, "Shutting down...")
		}
		return nil
	})
	return grp.Wait()
}

// newApp builds an App configured from cfg.
func newApp(cfg *config.Config, logger *slog.Logger) (*helium.App, error) {
	sc, err := cfg.ServerConfig()
	if err != nil {
		return nil, err
	}
	opts := []helium.Option{
		helium.WithServerConfig(sc),
		helium.WithLogger(logger),
		helium.WithCallTimeout(cfg.CallTimeout()),
		helium.WithMaxMessageSize(cfg.RPC.MaxRequestBytes),
		helium.WithMaxInFlight(cfg.RPC.MaxInFlight),
	}
	if cfg.RPC.RateLimit.Enabled() {
		opts = append(opts, helium.WithRateLimit(cfg.RPC.RateLimit.RPS, cfg.RPC.RateLimit.Burst))
	}
	if sc.MetricsPath == "" {
		opts = append(opts, helium.WithoutMetrics())
	}
	return helium.New(opts...), nil
}
