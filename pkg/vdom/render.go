package vdom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

// BoundCallback is the value a renderer stores in place of a "$cb"/"$cb:N"
// placeholder once it has been resolved against a CallbackBinder.
type BoundCallback func(args []any) error

// CallbackHandle identifies one binding inside a CallbackBinder for its
// whole lifetime, independent of the path it currently sits at. A LiveNode
// carries the handle (not just the path) alongside each bound prop so a
// reconciliation move can address "this exact binding" instead of
// re-deriving it from a path string that may be shared, transiently, by
// more than one clone of the same source subtree (spec §9: a reused source
// index appearing more than once in a reconciliation op).
type CallbackHandle uint64

// ComponentFunc resolves a "$$Name" element into the node it expands to.
// children are the element's own (unrendered) children; a component decides
// whether and where to fold them into its returned node.
type ComponentFunc func(props *PropMap, children []any) (any, error)

// CallbackBinder is implemented by pkg/callback's registry. It is declared
// here, not imported from pkg/callback, so pkg/vdom stays free of a
// dependency on the session/transport stack; any concrete registry whose
// method set matches satisfies it.
type CallbackBinder interface {
	Bind(path, propKey string, delayMs int, debounced bool) (BoundCallback, CallbackHandle, error)
	Unbind(handle CallbackHandle)
	Retarget(handle CallbackHandle, newPath, propKey string)
	// Clone creates an independent binding, starting from handle's current
	// delay/debounce configuration, at newPath/propKey. Used when a
	// reconciliation reuses one source at more than one destination: the
	// first destination retargets the existing binding in place, every
	// later one needs its own identity so each destination reports its own
	// path when invoked.
	Clone(handle CallbackHandle, newPath, propKey string) (BoundCallback, CallbackHandle, error)
}

// Renderer turns decoded VDOM nodes into a LiveNode tree (spec §4.2:
// renderNode). It is the Go-only stand-in for a React reconciler's initial
// mount pass.
type Renderer struct {
	Components map[string]ComponentFunc
	Eval       *Evaluator
	Callbacks  CallbackBinder
}

// NewRenderer returns a Renderer backed by eval for expression evaluation
// and binder for callback resolution.
func NewRenderer(eval *Evaluator, binder CallbackBinder) *Renderer {
	return &Renderer{
		Components: make(map[string]ComponentFunc),
		Eval:       eval,
		Callbacks:  binder,
	}
}

// RenderNode renders node (as produced by FromWire) at path, producing the
// LiveNode that domsync (wasm) or a test double commits to a real tree.
func (r *Renderer) RenderNode(node any, path string) (*LiveNode, error) {
	switch t := node.(type) {
	case nil:
		return &LiveNode{Kind: LiveEmpty}, nil
	case bool:
		// Booleans render nothing, matching React's boolean-child convention.
		return &LiveNode{Kind: LiveEmpty}, nil
	case float64:
		return &LiveNode{Kind: LiveText, Text: strconv.FormatFloat(t, 'g', -1, 64)}, nil
	case string:
		return &LiveNode{Kind: LiveText, Text: t}, nil
	case *Expr:
		val, err := r.Eval.Evaluate(t, nil)
		if err != nil {
			return nil, fmt.Errorf("vdom: render %s: %w", path, err)
		}
		return r.RenderNode(val, path)
	case *Element:
		return r.renderElement(t, path)
	default:
		if wire.IsUndefined(node) {
			return &LiveNode{Kind: LiveEmpty}, nil
		}
		return nil, fmt.Errorf("vdom: render %s: unrenderable node of type %T", path, node)
	}
}

func (r *Renderer) renderElement(el *Element, path string) (*LiveNode, error) {
	if name, ok := el.IsComponentTag(); ok {
		comp, ok := r.Components[name]
		if !ok {
			return nil, fmt.Errorf("vdom: render %s: component %q not registered", path, name)
		}
		attrs, cbKeys, err := r.renderProps(el, path)
		if err != nil {
			return nil, err
		}
		result, err := comp(attrs, el.Children)
		if err != nil {
			return nil, fmt.Errorf("vdom: render %s: component %q: %w", path, name, err)
		}
		live, err := r.RenderNode(result, path)
		if err != nil {
			return nil, err
		}
		if live.Meta == nil {
			live.Meta = &NodeMeta{Eval: make(map[string]bool), CBKeys: make(map[string]CallbackHandle)}
		}
		for k, h := range cbKeys {
			live.Meta.CBKeys[k] = h
		}
		live.Meta.Path = path
		return live, nil
	}

	tagStr, kind, err := r.resolveTag(el, path)
	if err != nil {
		return nil, err
	}

	attrs, cbKeys, err := r.renderProps(el, path)
	if err != nil {
		return nil, err
	}

	children := make([]*LiveNode, len(el.Children))
	for i, c := range el.Children {
		childPath := strconv.Itoa(i)
		if path != "" {
			childPath = path + "." + childPath
		}
		live, err := r.RenderNode(c, childPath)
		if err != nil {
			return nil, err
		}
		children[i] = live
	}

	return &LiveNode{
		Kind:     kind,
		Tag:      tagStr,
		Key:      el.Key,
		HasKey:   el.HasKey,
		Attrs:    attrs,
		Children: children,
		Meta: &NodeMeta{
			Eval:   cloneBoolSet(el.Eval),
			CBKeys: cbKeys,
			Path:   path,
		},
	}, nil
}

// resolveTag resolves el.Tag to an HTML tag name and a LiveNode kind. A
// computed (expression) tag must evaluate to a string; there is no dynamic
// component-by-value resolution beyond the "$$Name" registry lookup.
func (r *Renderer) resolveTag(el *Element, path string) (string, LiveNodeKind, error) {
	switch tag := el.Tag.(type) {
	case string:
		if tag == "" {
			return "", LiveFragment, nil
		}
		return tag, LiveElement, nil
	case *Expr:
		val, err := r.Eval.Evaluate(tag, nil)
		if err != nil {
			return "", 0, fmt.Errorf("vdom: render %s: tag expression: %w", path, err)
		}
		s, ok := val.(string)
		if !ok {
			return "", 0, fmt.Errorf("vdom: render %s: tag expression evaluated to %T, want string", path, val)
		}
		if s == "" {
			return "", LiveFragment, nil
		}
		return s, LiveElement, nil
	default:
		return "", 0, fmt.Errorf("vdom: render %s: invalid tag of type %T", path, el.Tag)
	}
}

// renderProps transforms el.Props into the final attribute map, resolving
// every eval-marked key (spec §4.3: callback placeholders, expressions, and
// render-prop subtrees) and passing everything else through unchanged.
func (r *Renderer) renderProps(el *Element, path string) (*PropMap, map[string]CallbackHandle, error) {
	attrs := NewPropMap()
	cbKeys := make(map[string]CallbackHandle)
	if el.Props == nil {
		return attrs, cbKeys, nil
	}
	for _, key := range el.Props.Keys() {
		val, _ := el.Props.Get(key)
		if !el.Eval[key] {
			attrs.Set(key, val)
			continue
		}
		transformed, handle, isCallback, err := r.transformEvalProp(val, path, key)
		if err != nil {
			return nil, nil, err
		}
		attrs.Set(key, transformed)
		if isCallback {
			cbKeys[key] = handle
		}
	}
	return attrs, cbKeys, nil
}

// transformEvalProp resolves a single eval-marked prop value.
func (r *Renderer) transformEvalProp(val any, path, key string) (transformed any, handle CallbackHandle, isCallback bool, err error) {
	switch t := val.(type) {
	case string:
		if t == "$cb" {
			fn, h, err := r.Callbacks.Bind(path, key, 0, false)
			if err != nil {
				return nil, 0, false, fmt.Errorf("vdom: render %s: bind callback %q: %w", path, key, err)
			}
			return fn, h, true, nil
		}
		if strings.HasPrefix(t, "$cb:") {
			delayMs, err := strconv.Atoi(t[len("$cb:"):])
			if err != nil || delayMs < 0 {
				return nil, 0, false, fmt.Errorf("vdom: render %s: malformed debounced callback placeholder %q", path, t)
			}
			fn, h, err := r.Callbacks.Bind(path, key, delayMs, true)
			if err != nil {
				return nil, 0, false, fmt.Errorf("vdom: render %s: bind callback %q: %w", path, key, err)
			}
			return fn, h, true, nil
		}
		if strings.HasPrefix(t, "$cb") {
			return nil, 0, false, fmt.Errorf("vdom: render %s: malformed callback placeholder %q", path, t)
		}
		return t, 0, false, nil
	case *Expr:
		val, err := r.Eval.Evaluate(t, nil)
		if err != nil {
			return nil, 0, false, fmt.Errorf("vdom: render %s: prop %q expression: %w", path, key, err)
		}
		return val, 0, false, nil
	case *Element:
		subPath := key
		if path != "" {
			subPath = path + "." + key
		}
		live, err := r.RenderNode(t, subPath)
		if err != nil {
			return nil, 0, false, err
		}
		return live, 0, false, nil
	default:
		return val, 0, false, nil
	}
}
