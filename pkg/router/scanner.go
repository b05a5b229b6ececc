package router

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// DefaultExtensions are the file extensions treated as page modules.
var DefaultExtensions = []string{".tsx", ".jsx", ".ts", ".js", ".mdx"}

// Scanner derives route declarations from a pages directory.
//
// Folders become literal segments, index files map to their folder, and
// bracketed names become captures. Files and folders whose names start with
// "_" or "." are skipped, as are test files and files with other extensions.
type Scanner struct {
	fsys       fs.FS
	root       string
	extensions []string
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithExtensions replaces the page extensions. Extensions include the dot.
func WithExtensions(exts ...string) ScannerOption {
	return func(s *Scanner) {
		if len(exts) > 0 {
			s.extensions = slices.Clone(exts)
		}
	}
}

// WithRoot scans a subdirectory of the file system instead of its root.
func WithRoot(dir string) ScannerOption {
	return func(s *Scanner) {
		s.root = path.Clean(dir)
	}
}

// NewScanner returns a Scanner over fsys.
func NewScanner(fsys fs.FS, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		fsys:       fsys,
		root:       ".",
		extensions: DefaultExtensions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks the pages tree and returns one declaration per page file, in
// lexical file order. Templates are not validated here; BuildTable does that.
func (s *Scanner) Scan() ([]Declaration, error) {
	var decls []Declaration

	err := fs.WalkDir(s.fsys, s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != s.root && skipName(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := path.Ext(d.Name())
		if !slices.Contains(s.extensions, ext) || isTestFile(d.Name(), ext) {
			return nil
		}

		rel := p
		if s.root != "." {
			rel = strings.TrimPrefix(p, s.root+"/")
		}
		decls = append(decls, FileDeclaration(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan pages: %w", err)
	}
	return decls, nil
}

// FileDeclaration maps a slash-separated page file path, relative to the
// pages root, to its declaration. The page reference is the path without
// its extension.
func FileDeclaration(rel string) Declaration {
	page := strings.TrimSuffix(rel, path.Ext(rel))

	parts := strings.Split(page, "/")
	if parts[len(parts)-1] == "index" {
		parts = parts[:len(parts)-1]
	}

	return Declaration{
		Template: "/" + strings.Join(parts, "/"),
		Page:     PageRef(page),
		Source:   rel,
	}
}

func skipName(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

func isTestFile(name, ext string) bool {
	stem := strings.TrimSuffix(name, ext)
	return strings.HasSuffix(stem, ".test") ||
		strings.HasSuffix(stem, ".spec") ||
		strings.HasSuffix(stem, "_test")
}
