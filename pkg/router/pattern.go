package router

import (
	"strings"
)

// SegmentKind classifies one segment of a route template.
type SegmentKind uint8

const (
	// SegmentLiteral matches a path segment by exact, case-sensitive value.
	SegmentLiteral SegmentKind = iota

	// SegmentDynamic captures exactly one path segment: [name].
	SegmentDynamic

	// SegmentCatchAll captures one or more trailing segments: [...name].
	SegmentCatchAll

	// SegmentOptionalCatchAll captures zero or more trailing segments: [[...name]].
	SegmentOptionalCatchAll
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentLiteral:
		return "literal"
	case SegmentDynamic:
		return "dynamic"
	case SegmentCatchAll:
		return "catch-all"
	case SegmentOptionalCatchAll:
		return "optional catch-all"
	default:
		return "unknown"
	}
}

// Segment is one parsed template segment. For literals Value is the text to
// match; for captures it is the capture name.
type Segment struct {
	Kind  SegmentKind
	Value string
}

// IsCapture reports whether the segment binds a parameter.
func (s Segment) IsCapture() bool {
	return s.Kind != SegmentLiteral
}

// IsCatchAll reports whether the segment binds the remaining path.
func (s Segment) IsCatchAll() bool {
	return s.Kind == SegmentCatchAll || s.Kind == SegmentOptionalCatchAll
}

// String renders the segment in template syntax.
func (s Segment) String() string {
	switch s.Kind {
	case SegmentDynamic:
		return "[" + s.Value + "]"
	case SegmentCatchAll:
		return "[..." + s.Value + "]"
	case SegmentOptionalCatchAll:
		return "[[..." + s.Value + "]]"
	default:
		return s.Value
	}
}

// Pattern is a parsed route template such as "/posts/[id]" or
// "/docs/[...slug]".
type Pattern struct {
	// Template is the normalized template text.
	Template string

	// Segments are the parsed segments in path order. The root template has none.
	Segments []Segment
}

// ParsePattern parses a route template.
//
// Templates start with "/" and are split on "/". A trailing slash is ignored.
// A template may contain at most one catch-all and it must be the last
// segment. Capture names must be identifiers and unique within the template.
func ParsePattern(template string) (Pattern, error) {
	if !strings.HasPrefix(template, "/") {
		return Pattern{}, invalidPattern(template, "must start with \"/\"")
	}

	body := strings.TrimSuffix(template[1:], "/")
	if body == "" {
		return Pattern{Template: "/"}, nil
	}

	parts := strings.Split(body, "/")
	segs := make([]Segment, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for i, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return Pattern{}, invalidPattern(template, err.Error())
		}
		if seg.IsCatchAll() && i != len(parts)-1 {
			return Pattern{}, invalidPattern(template, "catch-all must be the last segment")
		}
		if seg.IsCapture() {
			if seen[seg.Value] {
				return Pattern{}, invalidPattern(template, "duplicate capture name \""+seg.Value+"\"")
			}
			seen[seg.Value] = true
		}
		segs = append(segs, seg)
	}

	p := Pattern{Segments: segs}
	p.Template = p.render()
	return p, nil
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(template string) Pattern {
	p, err := ParsePattern(template)
	if err != nil {
		panic(err)
	}
	return p
}

type segmentError string

func (e segmentError) Error() string { return string(e) }

func parseSegment(s string) (Segment, error) {
	switch {
	case s == "":
		return Segment{}, segmentError("empty segment")
	case s == "." || s == "..":
		return Segment{}, segmentError("dot segment \"" + s + "\"")
	case strings.HasPrefix(s, "[["):
		if !strings.HasSuffix(s, "]]") {
			return Segment{}, segmentError("unterminated \"" + s + "\"")
		}
		inner := s[2 : len(s)-2]
		name, ok := strings.CutPrefix(inner, "...")
		if !ok {
			return Segment{}, segmentError("double brackets require a catch-all: \"" + s + "\"")
		}
		if err := checkCaptureName(name); err != nil {
			return Segment{}, err
		}
		return Segment{Kind: SegmentOptionalCatchAll, Value: name}, nil
	case strings.HasPrefix(s, "["):
		if !strings.HasSuffix(s, "]") {
			return Segment{}, segmentError("unterminated \"" + s + "\"")
		}
		inner := s[1 : len(s)-1]
		if name, ok := strings.CutPrefix(inner, "..."); ok {
			if err := checkCaptureName(name); err != nil {
				return Segment{}, err
			}
			return Segment{Kind: SegmentCatchAll, Value: name}, nil
		}
		if err := checkCaptureName(inner); err != nil {
			return Segment{}, err
		}
		return Segment{Kind: SegmentDynamic, Value: inner}, nil
	case strings.ContainsAny(s, "[]"):
		return Segment{}, segmentError("stray bracket in \"" + s + "\"")
	default:
		return Segment{Kind: SegmentLiteral, Value: s}, nil
	}
}

func checkCaptureName(name string) error {
	if name == "" {
		return segmentError("empty capture name")
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return segmentError("invalid capture name \"" + name + "\"")
		}
	}
	return nil
}

func (p Pattern) render() string {
	if len(p.Segments) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, s := range p.Segments {
		sb.WriteByte('/')
		sb.WriteString(s.String())
	}
	return sb.String()
}

// String returns the normalized template.
func (p Pattern) String() string {
	return p.Template
}

// Captures returns the capture names in path order.
func (p Pattern) Captures() []string {
	var names []string
	for _, s := range p.Segments {
		if s.IsCapture() {
			names = append(names, s.Value)
		}
	}
	return names
}

// HasCatchAll reports whether the last segment is a catch-all.
func (p Pattern) HasCatchAll() bool {
	n := len(p.Segments)
	return n > 0 && p.Segments[n-1].IsCatchAll()
}

// shape is the template with capture names erased. Two patterns with the
// same shape accept exactly the same paths.
func (p Pattern) shape() string {
	if len(p.Segments) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, s := range p.Segments {
		sb.WriteByte('/')
		switch s.Kind {
		case SegmentLiteral:
			sb.WriteString(s.Value)
		case SegmentDynamic:
			sb.WriteString("[]")
		case SegmentCatchAll:
			sb.WriteString("[...]")
		case SegmentOptionalCatchAll:
			sb.WriteString("[[...]]")
		}
	}
	return sb.String()
}

// compareSpecificity orders patterns segment by segment: literals
// (alphabetically) before dynamic captures before catch-alls. A pattern sorts
// before the longer patterns it prefixes.
func compareSpecificity(a, b Pattern) int {
	n := min(len(a.Segments), len(b.Segments))
	for i := 0; i < n; i++ {
		sa, sb := a.Segments[i], b.Segments[i]
		if sa.Kind != sb.Kind {
			return int(sa.Kind) - int(sb.Kind)
		}
		if sa.Kind == SegmentLiteral {
			if c := strings.Compare(sa.Value, sb.Value); c != 0 {
				return c
			}
		}
	}
	return len(a.Segments) - len(b.Segments)
}
