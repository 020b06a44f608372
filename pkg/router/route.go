package router

import (
	"fmt"
	"strings"
)

// Route is one node of the route tree: a layout route has no Path and no
// Index; an index route has Index=true and no children; a leaf route has a
// Path (spec §4.8: "layout routes... contribute to the match chain without
// consuming segments").
type Route struct {
	Path     string
	Index    bool
	Children []*Route
	segments []Segment
}

// Compile parses Path into segments once, so repeated matches don't re-parse.
func (r *Route) Compile() error {
	if r.Path == "" {
		r.segments = nil
		return nil
	}
	segs, err := ParsePattern(r.Path)
	if err != nil {
		return err
	}
	r.segments = segs
	return nil
}

// CompileTree compiles r and every descendant.
func CompileTree(r *Route) error {
	if err := r.Compile(); err != nil {
		return err
	}
	for _, c := range r.Children {
		if err := CompileTree(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Route) isLayout() bool { return r.Path == "" && !r.Index }

// Match is one resolved route chain: the ordered list of matched routes,
// merged params, and the unconsumed catch-all segments (if any).
type Match struct {
	Chain  []*Route
	Params map[string]any
}

// Catchall returns the catch-all parameter's segments, or nil if the match
// has none.
func (m *Match) Catchall() []string {
	v, ok := m.Params["*"]
	if !ok {
		return nil
	}
	s, _ := v.([]string)
	return s
}

// candidate tracks one still-viable descent through the tree.
type candidate struct {
	chain    []*Route
	params   map[string]any
	leafSegs []Segment // segments of the deepest consuming route, for specificity
}

// matchAll walks routes against pathParts, depth-first, collecting every
// full match (a leaf route or an index route that consumes exactly the
// remaining path).
func matchAll(routes []*Route, pathParts []string, prefix []*Route, params map[string]any) []candidate {
	var out []candidate
	for _, r := range routes {
		if r.isLayout() {
			childPrefix := append(append([]*Route{}, prefix...), r)
			out = append(out, matchAll(r.Children, pathParts, childPrefix, params)...)
			continue
		}
		if r.Index {
			if len(pathParts) == 0 {
				chain := append(append([]*Route{}, prefix...), r)
				var segs []Segment
				for i := len(prefix) - 1; i >= 0 && segs == nil; i-- {
					if len(prefix[i].segments) > 0 {
						segs = prefix[i].segments
					}
				}
				out = append(out, candidate{chain: chain, params: cloneParams(params), leafSegs: segs})
			}
			continue
		}
		matched, rest, segParams, ok := matchPrefix(r.segments, pathParts)
		if !ok {
			continue
		}
		merged := cloneParams(params)
		for k, v := range segParams {
			merged[k] = v
		}
		chain := append(append([]*Route{}, prefix...), r)
		if len(r.Children) == 0 {
			if len(rest) == 0 || hasCatchall(r.segments) {
				out = append(out, candidate{chain: chain, params: merged, leafSegs: r.segments})
			}
			continue
		}
		// Has children: we recurse into children with the rest of the path,
		// and this route may itself also be directly matched if the
		// remainder is empty. Its own candidate comes after its children's,
		// so an index child wins a tie in specificity.
		out = append(out, matchAll(r.Children, rest, chain, merged)...)
		if len(rest) == 0 {
			out = append(out, candidate{chain: chain, params: merged, leafSegs: r.segments})
		}
		_ = matched
	}
	return out
}

func hasCatchall(segs []Segment) bool {
	for _, s := range segs {
		if s.Kind == SegCatchAll {
			return true
		}
	}
	return false
}

func cloneParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// matchPrefix matches segs against the start of pathParts, returning the
// leftover (unconsumed) path parts. A catch-all always consumes the rest.
func matchPrefix(segs []Segment, pathParts []string) (consumed int, rest []string, params map[string]any, ok bool) {
	params = make(map[string]any)
	pi := 0
	for _, seg := range segs {
		switch seg.Kind {
		case SegCatchAll:
			params["*"] = append([]string(nil), pathParts[pi:]...)
			pi = len(pathParts)
			return pi, nil, params, true
		case SegStatic:
			if pi >= len(pathParts) || pathParts[pi] != seg.Literal {
				return 0, nil, nil, false
			}
			pi++
		case SegDynamic:
			if pi >= len(pathParts) {
				return 0, nil, nil, false
			}
			params[seg.Name] = pathParts[pi]
			pi++
		case SegOptional:
			if pi < len(pathParts) {
				params[seg.Name] = pathParts[pi]
				pi++
			} else {
				params[seg.Name] = nil
			}
		}
	}
	return pi, pathParts[pi:], params, true
}

// SelectBestMatch returns the single most specific match for path among
// routes, or nil if none match (spec §4.8).
func SelectBestMatch(routes []*Route, path string) *Match {
	pathParts := splitPath(strings.TrimSuffix(path, "/"))
	candidates := matchAll(routes, pathParts, nil, make(map[string]any))
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if MoreSpecific(c.leafSegs, best.leafSegs) {
			best = c
		}
	}
	return &Match{Chain: best.chain, Params: best.params}
}

// Validate statically checks a route tree for structural errors: malformed
// patterns, a non-terminal catch-all, and duplicate sibling patterns — the
// cmd/pulsec "routes check" devtool surfaces this as a fast-fail lint.
func Validate(routes []*Route) []error {
	var errs []error
	validateSiblings(routes, &errs)
	return errs
}

func validateSiblings(routes []*Route, errs *[]error) {
	seen := make(map[string]bool)
	for _, r := range routes {
		if r.Path != "" {
			if _, err := ParsePattern(r.Path); err != nil {
				*errs = append(*errs, err)
			} else if seen[r.Path] {
				*errs = append(*errs, fmt.Errorf("router: duplicate sibling pattern %q", r.Path))
			} else {
				seen[r.Path] = true
			}
		}
		validateSiblings(r.Children, errs)
	}
}
