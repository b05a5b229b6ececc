package router

import (
	"encoding/json"
	"strings"
)

// Param is a bound capture. Dynamic captures set Value; catch-all captures
// set Values and CatchAll.
type Param struct {
	Value    string
	Values   []string
	CatchAll bool
}

// MarshalJSON encodes a dynamic capture as a string and a catch-all capture
// as an array of strings.
func (p Param) MarshalJSON() ([]byte, error) {
	if p.CatchAll {
		vals := p.Values
		if vals == nil {
			vals = []string{}
		}
		return json.Marshal(vals)
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON accepts either form produced by MarshalJSON.
func (p *Param) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Param{Value: s}
		return nil
	}
	var vals []string
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	if vals == nil {
		vals = []string{}
	}
	*p = Param{Values: vals, CatchAll: true}
	return nil
}

// String returns the scalar value, or the catch-all segments joined by "/".
func (p Param) String() string {
	if p.CatchAll {
		return strings.Join(p.Values, "/")
	}
	return p.Value
}

// Params maps capture names to their bound values.
type Params map[string]Param

// Get returns the named capture as a string; see Param.String.
func (p Params) Get(name string) string {
	return p[name].String()
}

// Strings returns the segments bound by a catch-all, or a one-element slice
// for a dynamic capture. A missing capture yields nil.
func (p Params) Strings(name string) []string {
	v, ok := p[name]
	if !ok {
		return nil
	}
	if v.CatchAll {
		return v.Values
	}
	return []string{v.Value}
}

// Lookup returns the named capture and whether it was bound.
func (p Params) Lookup(name string) (Param, bool) {
	v, ok := p[name]
	return v, ok
}

// bind pairs the pattern's capture names with captures collected during a
// match. Both are in path order.
func bind(p Pattern, caps []capture) Params {
	names := p.Captures()
	params := make(Params, len(names))
	for i, name := range names {
		if i >= len(caps) {
			break
		}
		c := caps[i]
		if c.rest {
			params[name] = Param{Values: c.values, CatchAll: true}
		} else {
			params[name] = Param{Value: c.value}
		}
	}
	return params
}
