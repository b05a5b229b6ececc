package router

import "strings"

// node is one depth of the route trie. Literal children are keyed by the
// decoded segment value; dynamic and catch-all edges are fallbacks.
type node struct {
	literals map[string]*node
	dynamic  *node
	catchAll *node

	// optional is set on a catch-all node created from [[...name]].
	optional bool

	// route is the route terminating at this node, if any.
	route *Route
}

func newNode() *node {
	return &node{}
}

// insert walks or creates the path for p and returns its terminal node.
// A nil node means p collides with an existing catch-all of the other kind;
// the existing route is returned alongside.
func (n *node) insert(p Pattern) (*node, *Route) {
	cur := n
	for _, seg := range p.Segments {
		switch seg.Kind {
		case SegmentLiteral:
			if cur.literals == nil {
				cur.literals = make(map[string]*node)
			}
			child, ok := cur.literals[seg.Value]
			if !ok {
				child = newNode()
				cur.literals[seg.Value] = child
			}
			cur = child
		case SegmentDynamic:
			if cur.dynamic == nil {
				cur.dynamic = newNode()
			}
			cur = cur.dynamic
		case SegmentCatchAll, SegmentOptionalCatchAll:
			optional := seg.Kind == SegmentOptionalCatchAll
			if cur.catchAll == nil {
				cur.catchAll = &node{optional: optional}
			} else if cur.catchAll.optional != optional {
				return nil, cur.catchAll.route
			}
			cur = cur.catchAll
		}
	}
	return cur, nil
}

// capture is a positional binding collected while walking the trie.
type capture struct {
	value  string
	values []string
	rest   bool
}

// match resolves segs below n. Literal edges are tried first, then the
// dynamic edge, then the catch-all edge; a failed branch backtracks to the
// next alternative.
func (n *node) match(segs []string, caps []capture) (*Route, []capture) {
	if len(segs) == 0 {
		if n.route != nil {
			return n.route, caps
		}
		if c := n.catchAll; c != nil && c.optional && c.route != nil {
			return c.route, append(caps, capture{values: []string{}, rest: true})
		}
		return nil, nil
	}

	seg := segs[0]
	if child, ok := n.literals[seg]; ok {
		if r, c := child.match(segs[1:], caps); r != nil {
			return r, c
		}
	}
	if n.dynamic != nil && !strings.Contains(seg, "/") {
		if r, c := n.dynamic.match(segs[1:], append(caps, capture{value: seg})); r != nil {
			return r, c
		}
	}
	if c := n.catchAll; c != nil && c.route != nil {
		rest := make([]string, len(segs))
		copy(rest, segs)
		return c.route, append(caps, capture{values: rest, rest: true})
	}
	return nil, nil
}
