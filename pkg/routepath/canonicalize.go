// Package routepath normalizes and decodes request paths before they reach
// the route resolver.
package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Canonical is a normalized request path.
type Canonical struct {
	// Path is the normalized path without the query string.
	Path string

	// Query is the raw query string without the leading "?".
	Query string

	// Changed reports whether Path differs from the input path.
	Changed bool
}

// String returns the path with its query string re-attached.
func (c Canonical) String() string {
	if c.Query == "" {
		return c.Path
	}
	return c.Path + "?" + c.Query
}

// Path errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Canonicalize normalizes a request path.
//
// Empty and "." segments are dropped, ".." pops the previous segment, runs of
// slashes collapse and a trailing slash is removed (except for "/"). Paths
// containing a backslash, a NUL byte, a malformed percent escape, or a ".."
// that climbs above the root are rejected. A query string is split off and
// returned untouched.
func Canonicalize(input string) (Canonical, error) {
	raw, query := SplitPathAndQuery(input)
	if raw == "" {
		return Canonical{Path: "/", Query: query, Changed: true}, nil
	}

	if strings.ContainsRune(raw, '\\') {
		return Canonical{}, ErrBackslashInPath
	}
	if strings.ContainsRune(raw, 0) || strings.Contains(strings.ToUpper(raw), "%00") {
		return Canonical{}, ErrNullByteInPath
	}
	if strings.ContainsRune(raw, '%') {
		if err := checkEscapes(raw); err != nil {
			return Canonical{}, err
		}
	}

	segs, err := clean(raw)
	if err != nil {
		return Canonical{}, err
	}
	path := "/" + strings.Join(segs, "/")

	return Canonical{Path: path, Query: query, Changed: path != raw}, nil
}

func clean(raw string) ([]string, error) {
	parts := strings.Split(raw, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return nil, ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, p)
		}
	}
	return out, nil
}

// checkEscapes reports an error for any '%' not followed by two hex digits.
func checkEscapes(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Segments canonicalizes path and returns its percent-decoded segments.
// The root path yields an empty slice. A decoded segment may contain "/"
// when the request carried an encoded slash; callers decide whether such a
// segment may bind.
func Segments(path string) ([]string, error) {
	c, err := Canonicalize(path)
	if err != nil {
		return nil, err
	}
	return DecodeSegments(c.Path)
}

// DecodeSegments splits an already canonical path on "/" and decodes each
// segment.
func DecodeSegments(path string) ([]string, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return []string{}, nil
	}

	parts := strings.Split(path, "/")
	out := make([]string, len(parts))
	for i, p := range parts {
		d, err := url.PathUnescape(p)
		if err != nil {
			return nil, ErrInvalidPercentEscape
		}
		out[i] = d
	}
	return out, nil
}

// LocalRedirect canonicalizes a redirect target that must stay on this
// origin. Absolute and scheme-relative URLs are rejected.
func LocalRedirect(target string) (string, error) {
	path, _ := SplitPathAndQuery(target)
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") ||
		strings.Contains(path, "://") {
		return "", ErrInvalidPath
	}
	c, err := Canonicalize(target)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// SplitPathAndQuery splits input at the first "?".
func SplitPathAndQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}
