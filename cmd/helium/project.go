package main

import (
	"context"
	"os"

	"github.com/helium-dev/helium/internal/config"
	"github.com/helium-dev/helium/internal/errors"
	"github.com/helium-dev/helium/internal/manifest"
	"github.com/helium-dev/helium/pkg/router"
)

// loadConfig returns the project configuration: --config if given, the
// file in --dir if one exists, defaults otherwise.
func loadConfig(g *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case g.configFile != "":
		cfg, err = config.LoadFile(g.configFile)
	case config.Exists(g.dir):
		cfg, err = config.Load(g.dir)
	default:
		cfg = config.Default(g.dir)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// routeSource says where route declarations come from.
type routeSource struct {
	manifest string
	pagesDir string
}

func (s routeSource) String() string {
	if s.manifest != "" {
		return s.manifest
	}
	return s.pagesDir
}

func sourceFor(cfg *config.Config, manifestFlag, pagesFlag string) routeSource {
	switch {
	case pagesFlag != "":
		return routeSource{pagesDir: pagesFlag}
	case manifestFlag != "":
		return routeSource{manifest: manifestFlag}
	case cfg.ManifestLocation() != "":
		return routeSource{manifest: cfg.ManifestLocation()}
	default:
		return routeSource{pagesDir: cfg.PagesPath()}
	}
}

// loadDeclarations reads route declarations from a manifest or by scanning
// the pages directory.
func loadDeclarations(ctx context.Context, cfg *config.Config, src routeSource) ([]router.Declaration, error) {
	if src.manifest != "" {
		store, err := manifest.Open(src.manifest)
		if err != nil {
			return nil, errors.Wrap(err, "H032")
		}
		m, err := store.Load(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "H032")
		}
		return m.Routes, nil
	}
	return scanPages(cfg, src.pagesDir)
}

func scanPages(cfg *config.Config, dir string) ([]router.Declaration, error) {
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return nil, errors.New("H040").WithDetail("No pages directory at " + dir)
	}
	scanner := router.NewScanner(os.DirFS(dir), router.WithExtensions(cfg.Pages.Extensions...))
	return scanner.Scan()
}
