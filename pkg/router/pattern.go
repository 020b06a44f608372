// Package router implements the router of spec §4.8: pattern parsing,
// matching, specificity-based best-match selection, nested route chains,
// and navigation classification/history bookkeeping.
//
// Grounded on the pack's hand-rolled routers (vango-go-vango/pkg/router,
// the rivaas and golivekit routers under other_examples/) which all favor
// explicit segment-kind matching over a regex/trie library; this package
// follows the same convention.
package router

import "strings"

// SegmentKind discriminates one parsed path segment.
type SegmentKind int

const (
	SegStatic   SegmentKind = iota // literal
	SegDynamic                     // :name
	SegOptional                     // :name?
	SegCatchAll                     // *
)

// Segment is one parsed piece of a route pattern.
type Segment struct {
	Kind    SegmentKind
	Literal string // SegStatic
	Name    string // SegDynamic/SegOptional/SegCatchAll ("*" uses Name "*")
}

// ParsePattern splits pattern into segments, validating that a catch-all
// only appears last (spec §4.8: "*, must be last").
func ParsePattern(pattern string) ([]Segment, error) {
	trimmed := strings.Trim(pattern, "/")
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, "/")
	segs := make([]Segment, len(parts))
	for i, p := range parts {
		switch {
		case p == "*":
			if i != len(parts)-1 {
				return nil, &PatternError{Pattern: pattern, Reason: "catch-all segment must be last"}
			}
			segs[i] = Segment{Kind: SegCatchAll, Name: "*"}
		case strings.HasPrefix(p, ":") && strings.HasSuffix(p, "?"):
			segs[i] = Segment{Kind: SegOptional, Name: p[1 : len(p)-1]}
		case strings.HasPrefix(p, ":"):
			segs[i] = Segment{Kind: SegDynamic, Name: p[1:]}
		default:
			segs[i] = Segment{Kind: SegStatic, Literal: p}
		}
	}
	return segs, nil
}

// PatternError reports a malformed route pattern.
type PatternError struct {
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return "router: invalid pattern " + e.Pattern + ": " + e.Reason
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// matchSegments attempts to match segs against pathParts, returning the
// extracted params and whether it matched. params values are either string
// (dynamic/optional present), nil (optional absent — undefined), or
// []string (catch-all).
func matchSegments(segs []Segment, pathParts []string) (map[string]any, bool) {
	params := make(map[string]any)
	pi := 0
	for si, seg := range segs {
		switch seg.Kind {
		case SegCatchAll:
			rest := append([]string(nil), pathParts[pi:]...)
			params["*"] = rest
			pi = len(pathParts)
			return params, true
		case SegStatic:
			if pi >= len(pathParts) || pathParts[pi] != seg.Literal {
				return nil, false
			}
			pi++
		case SegDynamic:
			if pi >= len(pathParts) {
				return nil, false
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
		_ = si
	}
	if pi != len(pathParts) {
		return nil, false
	}
	return params, true
}

// Specificity returns a comparable score: higher wins. Tiers, most to
// least specific: static > dynamic > optional > catch-all, then longer
// prefixes win on ties (spec §4.8).
func Specificity(segs []Segment) []int {
	score := make([]int, len(segs))
	for i, s := range segs {
		switch s.Kind {
		case SegStatic:
			score[i] = 3
		case SegDynamic:
			score[i] = 2
		case SegOptional:
			score[i] = 1
		case SegCatchAll:
			score[i] = 0
		}
	}
	return score
}

// MoreSpecific reports whether a's specificity beats b's, per spec §4.8's
// tiering with a longer-prefix tiebreak.
func MoreSpecific(a, b []Segment) bool {
	sa, sb := Specificity(a), Specificity(b)
	n := len(sa)
	if len(sb) < n {
		n = len(sb)
	}
	for i := 0; i < n; i++ {
		if sa[i] != sb[i] {
			return sa[i] > sb[i]
		}
	}
	return len(sa) > len(sb)
}
