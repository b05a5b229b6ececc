package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

const (
	// MaxArgsDepth limits the nesting depth of argument payloads.
	MaxArgsDepth = 64

	// DefaultMaxMessageSize is the default limit for one encoded envelope.
	DefaultMaxMessageSize = 1 << 20
)

// ErrMaxDepthExceeded is returned when a payload nests deeper than allowed.
var ErrMaxDepthExceeded = errors.New("protocol: maximum nesting depth exceeded")

// CheckDepth verifies that raw JSON nests no deeper than max.
// Syntax errors found while scanning are returned as-is.
func CheckDepth(raw []byte, max int) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		delim, ok := tok.(json.Delim)
		if !ok {
			continue
		}
		switch delim {
		case '{', '[':
			depth++
			if depth > max {
				return ErrMaxDepthExceeded
			}
		case '}', ']':
			depth--
		}
	}
}
