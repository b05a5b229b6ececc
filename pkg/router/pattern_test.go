package router

import (
	"errors"
	"reflect"
	"testing"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		template string
		want     string
		kinds    []SegmentKind
		captures []string
	}{
		{"/", "/", nil, nil},
		{"/about", "/about", []SegmentKind{SegmentLiteral}, nil},
		{"/posts/", "/posts", []SegmentKind{SegmentLiteral}, nil},
		{"/posts/[id]", "/posts/[id]", []SegmentKind{SegmentLiteral, SegmentDynamic}, []string{"id"}},
		{"/docs/[...slug]", "/docs/[...slug]", []SegmentKind{SegmentLiteral, SegmentCatchAll}, []string{"slug"}},
		{"/blog/[[...path]]", "/blog/[[...path]]", []SegmentKind{SegmentLiteral, SegmentOptionalCatchAll}, []string{"path"}},
		{
			"/users/[userId]/posts/[post_id]",
			"/users/[userId]/posts/[post_id]",
			[]SegmentKind{SegmentLiteral, SegmentDynamic, SegmentLiteral, SegmentDynamic},
			[]string{"userId", "post_id"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.template, func(t *testing.T) {
			p, err := ParsePattern(tc.template)
			if err != nil {
				t.Fatalf("ParsePattern(%q) error = %v", tc.template, err)
			}
			if p.Template != tc.want {
				t.Errorf("Template = %q, want %q", p.Template, tc.want)
			}
			var kinds []SegmentKind
			for _, s := range p.Segments {
				kinds = append(kinds, s.Kind)
			}
			if !reflect.DeepEqual(kinds, tc.kinds) {
				t.Errorf("kinds = %v, want %v", kinds, tc.kinds)
			}
			if got := p.Captures(); !reflect.DeepEqual(got, tc.captures) {
				t.Errorf("Captures() = %v, want %v", got, tc.captures)
			}
		})
	}
}

func TestParsePatternInvalid(t *testing.T) {
	tests := []string{
		"",
		"posts",
		"/docs/[...a]/[...b]",
		"/docs/[...slug]/edit",
		"/blog/[[...path]]/x",
		"/posts/[]",
		"/posts/[...]",
		"/posts/[id",
		"/posts/id]",
		"/posts/[[id]]",
		"/posts/[1st]",
		"/a//b",
		"/a/../b",
		"/users/[id]/posts/[id]",
		"/x/pre[id]",
	}

	for _, template := range tests {
		_, err := ParsePattern(template)
		if err == nil {
			t.Errorf("ParsePattern(%q) succeeded, want error", template)
			continue
		}
		if !errors.Is(err, ErrInvalidRoutePattern) {
			t.Errorf("ParsePattern(%q) error = %v, want ErrInvalidRoutePattern", template, err)
		}
		var pe *InvalidRoutePatternError
		if !errors.As(err, &pe) || pe.Template != template {
			t.Errorf("ParsePattern(%q) error = %#v", template, err)
		}
	}
}

func TestPatternHasCatchAll(t *testing.T) {
	if MustParsePattern("/posts/[id]").HasCatchAll() {
		t.Error("/posts/[id] reported a catch-all")
	}
	if !MustParsePattern("/docs/[...slug]").HasCatchAll() {
		t.Error("/docs/[...slug] did not report a catch-all")
	}
	if MustParsePattern("/").HasCatchAll() {
		t.Error("/ reported a catch-all")
	}
}

func TestMustParsePatternPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParsePattern did not panic")
		}
	}()
	MustParsePattern("/[...a]/b")
}

func TestSegmentKindString(t *testing.T) {
	if SegmentOptionalCatchAll.String() != "optional catch-all" {
		t.Errorf("String() = %q", SegmentOptionalCatchAll.String())
	}
	if SegmentKind(99).String() != "unknown" {
		t.Errorf("String() = %q", SegmentKind(99).String())
	}
}
