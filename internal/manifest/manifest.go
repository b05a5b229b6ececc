// Package manifest reads and writes route manifests: the route declarations
// of an application, built once by 'helium routes build' and loaded by
// 'helium serve' instead of scanning the pages directory.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/helium-dev/helium/pkg/router"
)

// Version is the manifest format version written by this package.
const Version = 1

// Manifest errors.
var (
	ErrNotFound        = errors.New("manifest not found")
	ErrInvalidManifest = errors.New("invalid manifest")
)

// Manifest is the serialized form of a route table.
type Manifest struct {
	Version   int                  `json:"version"`
	Generated time.Time            `json:"generated,omitzero"`
	Routes    []router.Declaration `json:"routes"`
}

// New returns a manifest holding decls.
func New(decls []router.Declaration) *Manifest {
	routes := make([]router.Declaration, len(decls))
	copy(routes, decls)
	return &Manifest{Version: Version, Routes: routes}
}

// FromTable returns a manifest of t's routes in table order.
func FromTable(t *router.Table) *Manifest {
	return &Manifest{Version: Version, Routes: t.Declarations()}
}

// Table builds the route table the manifest describes.
func (m *Manifest) Table() (*router.Table, error) {
	return router.BuildTable(m.Routes)
}

// Read decodes and checks a manifest.
func Read(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidManifest, m.Version)
	}
	for i, d := range m.Routes {
		if d.Template == "" || d.Page == "" {
			return nil, fmt.Errorf("%w: route %d needs a template and a page", ErrInvalidManifest, i)
		}
	}
	if m.Routes == nil {
		m.Routes = []router.Declaration{}
	}
	return &m, nil
}

// Write encodes m as indented JSON.
func Write(w io.Writer, m *Manifest) error {
	out := *m
	if out.Version == 0 {
		out.Version = Version
	}
	if out.Routes == nil {
		out.Routes = []router.Declaration{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&out)
}
